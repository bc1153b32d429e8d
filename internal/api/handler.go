// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package api

import (
	"github.com/thejerf/suture/v4"

	"github.com/deepspin/trackcore/internal/acquirer"
	"github.com/deepspin/trackcore/internal/audit"
	"github.com/deepspin/trackcore/internal/auth"
	"github.com/deepspin/trackcore/internal/cache"
	"github.com/deepspin/trackcore/internal/position"
	"github.com/deepspin/trackcore/internal/resolver"
)

// supervisorTree is the subset of supervisor.Tree the control API reads
// for readiness reporting.
type supervisorTree interface {
	Root() *suture.Supervisor
}

// Handler bundles the running components the control/status API exposes
// or mutates. Every field is read-only to the handler except through the
// narrow admin mutations in handlers_admin.go.
type Handler struct {
	tree         supervisorTree
	hot          *cache.HotCache
	art          *cache.ArtLRU
	extrapolator *position.Extrapolator
	resolver     *resolver.Resolver
	acquirer     *acquirer.Acquirer
	authn        *auth.Authenticator
	audit        *audit.Logger
}

// NewHandler wires a Handler from the running core's components.
func NewHandler(
	tree supervisorTree,
	hot *cache.HotCache,
	art *cache.ArtLRU,
	extrapolator *position.Extrapolator,
	res *resolver.Resolver,
	acq *acquirer.Acquirer,
	authn *auth.Authenticator,
	auditLogger *audit.Logger,
) *Handler {
	return &Handler{
		tree:         tree,
		hot:          hot,
		art:          art,
		extrapolator: extrapolator,
		resolver:     res,
		acquirer:     acq,
		authn:        authn,
		audit:        auditLogger,
	}
}
