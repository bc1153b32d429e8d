// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package authz authorizes the control API's admin mutations with a
// casbin RBAC policy: a single "operator" role gates every admin route.
package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

// Enforcer wraps a casbin synced enforcer loaded from inline model/policy
// text, per internal/config.SecurityConfig.CasbinModel/CasbinPolicy.
type Enforcer struct {
	enforcer *casbin.SyncedEnforcer
}

// NewEnforcer builds an enforcer from modelText/policyText (Config's
// CasbinModel/CasbinPolicy).
func NewEnforcer(modelText, policyText string) (*Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, fmt.Errorf("authz: load model: %w", err)
	}

	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("authz: create enforcer: %w", err)
	}

	if err := loadPolicy(enforcer, policyText); err != nil {
		return nil, fmt.Errorf("authz: load policy: %w", err)
	}

	return &Enforcer{enforcer: enforcer}, nil
}

// Enforce reports whether any of roles may perform action on object.
func (e *Enforcer) Enforce(roles []string, object, action string) (bool, error) {
	for _, role := range roles {
		allowed, err := e.enforcer.Enforce(role, object, action)
		if err != nil {
			return false, fmt.Errorf("authz: enforce: %w", err)
		}
		if allowed {
			return true, nil
		}
	}
	return false, nil
}

func loadPolicy(enforcer *casbin.SyncedEnforcer, policyText string) error {
	for _, line := range splitPolicyLines(policyText) {
		parts := splitAndTrim(line, ",")
		if len(parts) < 2 {
			continue
		}
		ptype, rule := parts[0], parts[1:]
		switch ptype {
		case "p":
			if len(rule) >= 3 {
				if _, err := enforcer.AddPolicy(rule[0], rule[1], rule[2]); err != nil {
					return fmt.Errorf("add policy %v: %w", rule, err)
				}
			}
		case "g":
			if len(rule) >= 2 {
				if _, err := enforcer.AddGroupingPolicy(rule[0], rule[1]); err != nil {
					return fmt.Errorf("add grouping policy %v: %w", rule, err)
				}
			}
		}
	}
	return nil
}
