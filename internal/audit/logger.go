// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package audit

import (
	"sync"
	"time"

	"github.com/deepspin/trackcore/internal/logging"
)

// Logger appends admin-mutation entries to a Store off the request path: a
// handler calls Log and returns immediately, a background goroutine drains
// the buffer into the store.
type Logger struct {
	store    Store
	entries  chan Entry
	stopOnce sync.Once
	stopChan chan struct{}
	wg       sync.WaitGroup
}

// NewLogger starts a logger writing into store. bufferSize bounds how many
// pending entries can queue before Log starts blocking the caller.
func NewLogger(store Store, bufferSize int) *Logger {
	if bufferSize <= 0 {
		bufferSize = 256
	}
	l := &Logger{
		store:    store,
		entries:  make(chan Entry, bufferSize),
		stopChan: make(chan struct{}),
	}
	l.wg.Add(1)
	go l.run()
	return l
}

func (l *Logger) run() {
	defer l.wg.Done()
	for {
		select {
		case <-l.stopChan:
			for {
				select {
				case e := <-l.entries:
					l.write(e)
				default:
					return
				}
			}
		case e := <-l.entries:
			l.write(e)
		}
	}
}

func (l *Logger) write(e Entry) {
	l.store.Save(e)
	logging.Info().
		Str("principal", e.Principal).
		Str("action", e.Action).
		Interface("params", e.Params).
		Time("time", e.Time).
		Msg("audit: admin mutation")
}

// Log records an admin mutation. Principal is the JWT subject that
// authorized the mutation; action and params describe what changed.
func (l *Logger) Log(principal, action string, params map[string]any) {
	e := Entry{Time: time.Now(), Principal: principal, Action: action, Params: params}
	select {
	case l.entries <- e:
	default:
		// Buffer full: write synchronously rather than silently drop an
		// audit record, unlike the best-effort finder event queues.
		l.write(e)
	}
}

// Close stops the background writer, draining any buffered entries first.
func (l *Logger) Close() {
	l.stopOnce.Do(func() { close(l.stopChan) })
	l.wg.Wait()
}
