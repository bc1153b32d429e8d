// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package auth

import "fmt"

// Authenticator checks the single configured operator credential and
// issues a JWT on success.
type Authenticator struct {
	manager      *Manager
	username     string
	passwordHash string
}

// NewAuthenticator builds an Authenticator against the one operator
// credential configured in SecurityConfig.
func NewAuthenticator(manager *Manager, username, passwordHash string) *Authenticator {
	return &Authenticator{manager: manager, username: username, passwordHash: passwordHash}
}

// Login verifies username/password against the configured operator
// credential and, on success, issues a signed JWT carrying the operator
// role.
func (a *Authenticator) Login(username, password string) (string, error) {
	if username != a.username || !VerifyPassword(a.passwordHash, password) {
		return "", fmt.Errorf("auth: invalid credentials")
	}
	return a.manager.IssueToken(username, operatorRole)
}
