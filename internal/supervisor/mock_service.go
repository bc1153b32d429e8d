// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package supervisor

import (
	"context"
	"sync/atomic"
)

// MockService is a test helper implementing suture.Service with control
// over its own termination, for exercising the supervisor tree without a
// real acquirer/finder/API server.
type MockService struct {
	name       string
	startCount atomic.Int32
	err        atomic.Pointer[error]
}

// NewMockService constructs a mock service that runs until ctx is canceled.
func NewMockService(name string) *MockService {
	return &MockService{name: name}
}

// Serve implements suture.Service.
func (m *MockService) Serve(ctx context.Context) error {
	m.startCount.Add(1)
	if p := m.err.Load(); p != nil {
		return *p
	}
	<-ctx.Done()
	return ctx.Err()
}

// SetError makes subsequent Serve calls return err immediately.
func (m *MockService) SetError(err error) {
	m.err.Store(&err)
}

// StartCount reports how many times Serve has been invoked.
func (m *MockService) StartCount() int32 {
	return m.startCount.Load()
}

// String implements fmt.Stringer for suture's logging.
func (m *MockService) String() string {
	return m.name
}
