// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package supervisor wires the coordination core's long-running components
// into a three-tier suture supervisor tree: acquisition (device discovery,
// database/analysis fetch), resolution (finders, the resolver's live-fetch
// path, the position extrapolator), and control (the read/admin HTTP API,
// the debug websocket feed). A crash isolated to one tier restarts within
// that tier without taking the others down with it.
package supervisor

import (
	"context"
	"log/slog"
	"time"

	"github.com/thejerf/suture/v4"
	"github.com/thejerf/sutureslog"
)

// TreeConfig holds supervisor tree configuration.
type TreeConfig struct {
	// FailureThreshold is the number of failures before entering backoff.
	FailureThreshold float64
	// FailureDecay is the rate at which failures decay, in seconds.
	FailureDecay float64
	// FailureBackoff is how long to wait once the threshold is exceeded.
	FailureBackoff time.Duration
	// ShutdownTimeout bounds how long Serve waits for children to stop.
	ShutdownTimeout time.Duration
}

// DefaultTreeConfig returns production-ready defaults, matching suture's
// own built-in defaults.
func DefaultTreeConfig() TreeConfig {
	return TreeConfig{
		FailureThreshold: 5.0,
		FailureDecay:     30.0,
		FailureBackoff:   15 * time.Second,
		ShutdownTimeout:  10 * time.Second,
	}
}

// Tree is the coordination core's process lifecycle: one root supervisor
// with three named child supervisors, one per tier.
type Tree struct {
	root       *suture.Supervisor
	acquiring  *suture.Supervisor
	resolving  *suture.Supervisor
	controlled *suture.Supervisor
	config     TreeConfig
}

// NewTree builds the supervisor tree. logger receives suture's lifecycle
// events (service start/stop/panic) via sutureslog's bridge handler.
func NewTree(logger *slog.Logger, config TreeConfig) *Tree {
	if config.FailureThreshold == 0 {
		config.FailureThreshold = 5.0
	}
	if config.FailureDecay == 0 {
		config.FailureDecay = 30.0
	}
	if config.FailureBackoff == 0 {
		config.FailureBackoff = 15 * time.Second
	}
	if config.ShutdownTimeout == 0 {
		config.ShutdownTimeout = 10 * time.Second
	}

	handler := &sutureslog.Handler{Logger: logger}
	eventHook := handler.MustHook()

	rootSpec := suture.Spec{
		EventHook:        eventHook,
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}
	childSpec := suture.Spec{
		FailureThreshold: config.FailureThreshold,
		FailureDecay:     config.FailureDecay,
		FailureBackoff:   config.FailureBackoff,
		Timeout:          config.ShutdownTimeout,
	}

	root := suture.New("trackcore", rootSpec)
	acquiring := suture.New("acquisition-layer", childSpec)
	resolving := suture.New("resolution-layer", childSpec)
	controlled := suture.New("control-layer", childSpec)

	root.Add(acquiring)
	root.Add(resolving)
	root.Add(controlled)

	return &Tree{root: root, acquiring: acquiring, resolving: resolving, controlled: controlled, config: config}
}

// Root returns the root supervisor for direct access if needed.
func (t *Tree) Root() *suture.Supervisor {
	return t.root
}

// AddAcquisitionService adds a service to the acquisition tier: database
// and analysis file fetching, device discovery.
func (t *Tree) AddAcquisitionService(svc suture.Service) suture.ServiceToken {
	return t.acquiring.Add(svc)
}

// AddResolutionService adds a service to the resolution tier: asset
// finders, the position extrapolator's periodic metrics reporter.
func (t *Tree) AddResolutionService(svc suture.Service) suture.ServiceToken {
	return t.resolving.Add(svc)
}

// AddControlService adds a service to the control tier: the HTTP API, the
// debug websocket hub.
func (t *Tree) AddControlService(svc suture.Service) suture.ServiceToken {
	return t.controlled.Add(svc)
}

// RemoveResolutionService removes a previously added resolution-tier
// service, used when a finder's listener set drops to zero and its worker
// is torn down.
func (t *Tree) RemoveResolutionService(token suture.ServiceToken) error {
	return t.resolving.Remove(token)
}

// Serve starts the supervisor tree and blocks until ctx is canceled.
func (t *Tree) Serve(ctx context.Context) error {
	return t.root.Serve(ctx)
}

// ServeBackground starts the tree in a background goroutine, returning a
// channel that receives the terminal error.
func (t *Tree) ServeBackground(ctx context.Context) <-chan error {
	return t.root.ServeBackground(ctx)
}

// UnstoppedServiceReport reports services that failed to stop within the
// configured shutdown timeout.
func (t *Tree) UnstoppedServiceReport() ([]suture.UnstoppedService, error) {
	return t.root.UnstoppedServiceReport()
}
