// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

// Package finders implements the uniform per-asset-kind finder state
// machine: each finder owns a bounded event queue, a dispatcher worker, an
// active-request dedupe set, and drives the resolver chain to keep its
// asset kind's hot-cache entries current.
package finders

import (
	"context"
	"fmt"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/deepspin/trackcore/internal/logging"
	"github.com/deepspin/trackcore/internal/metrics"
)

// queueCapacity is the bounded queue depth from the spec's event dispatch
// rule: each finder's queue holds at most this many pending events.
const queueCapacity = 100

// topicPrefix is stripped from a topic before it's used as the "kind"
// metric label, so finder queue metrics use the same bare-kind label
// (e.g. "beat-grid") as the resolver's own metrics rather than the
// internal topic string ("finder.beat-grid").
const topicPrefix = "finder."

func metricKind(topic string) string {
	return strings.TrimPrefix(topic, topicPrefix)
}

// zerologWatermillAdapter bridges watermill's LoggerAdapter interface onto
// the shared zerolog logger, the same bridging approach the teacher takes
// for suture (sutureslog) rather than wiring watermill's own std logger.
type zerologWatermillAdapter struct{}

func (zerologWatermillAdapter) Error(msg string, err error, fields watermill.LogFields) {
	logging.Logger().Error().Err(err).Fields(map[string]any(fields)).Msg(msg)
}
func (zerologWatermillAdapter) Info(msg string, fields watermill.LogFields) {
	logging.Logger().Info().Fields(map[string]any(fields)).Msg(msg)
}
func (zerologWatermillAdapter) Debug(msg string, fields watermill.LogFields) {
	logging.Logger().Debug().Fields(map[string]any(fields)).Msg(msg)
}
func (zerologWatermillAdapter) Trace(msg string, fields watermill.LogFields) {
	logging.Logger().Trace().Fields(map[string]any(fields)).Msg(msg)
}
func (a zerologWatermillAdapter) With(_ watermill.LogFields) watermill.LoggerAdapter { return a }

// Bus is the process-wide event fabric: one watermill in-memory GoChannel
// topic per asset kind (plus "device-status" for the metadata finder),
// with a per-topic semaphore enforcing the bounded-queue, drop-newest-on-
// full contract that gochannel itself does not provide.
type Bus struct {
	pubsub *gochannel.GoChannel
	sems   map[string]chan struct{}
}

// NewBus constructs the shared in-memory event bus. Using watermill's
// gochannel rather than its NATS JetStream backend is deliberate: JetStream
// durability and replay would contradict the spec's best-effort,
// at-most-once, drop-newest semantics (see DESIGN.md).
func NewBus() *Bus {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            queueCapacity,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		zerologWatermillAdapter{},
	)
	return &Bus{pubsub: pubsub, sems: make(map[string]chan struct{})}
}

func (b *Bus) semFor(topic string) chan struct{} {
	if sem, ok := b.sems[topic]; ok {
		return sem
	}
	sem := make(chan struct{}, queueCapacity)
	b.sems[topic] = sem
	return sem
}

// Publish enqueues payload on topic without blocking the caller. If the
// topic's queue is already at capacity, the newest publish is dropped and
// logged rather than waiting, matching the packet-receive-thread-never-
// blocks contract.
func (b *Bus) Publish(topic string, payload any) {
	sem := b.semFor(topic)
	select {
	case sem <- struct{}{}:
	default:
		metrics.FinderQueueDropped.WithLabelValues(metricKind(topic)).Inc()
		logging.Logger().Warn().Str("topic", topic).Msg("finders: queue full, dropping event")
		return
	}
	metrics.FinderQueueDepth.WithLabelValues(metricKind(topic)).Set(float64(len(sem)))

	body, err := json.Marshal(payload)
	if err != nil {
		<-sem
		logging.Logger().Error().Err(err).Str("topic", topic).Msg("finders: failed to marshal event")
		return
	}
	msg := message.NewMessage(watermill.NewUUID(), body)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		<-sem
		logging.Logger().Error().Err(err).Str("topic", topic).Msg("finders: publish failed")
	}
}

// Subscribe returns the channel of messages for topic. Each call to
// release must be invoked exactly once per message the dispatcher consumes
// so the topic's queue-depth semaphore stays accurate.
func (b *Bus) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	ch, err := b.pubsub.Subscribe(ctx, topic)
	if err != nil {
		return nil, fmt.Errorf("finders: subscribe to %s: %w", topic, err)
	}
	return ch, nil
}

// Release returns one capacity slot to topic's queue after its message has
// been fully handled, and updates the queue-depth gauge.
func (b *Bus) Release(topic string) {
	sem := b.semFor(topic)
	select {
	case <-sem:
	default:
	}
	metrics.FinderQueueDepth.WithLabelValues(metricKind(topic)).Set(float64(len(sem)))
}

// Close shuts down the underlying pub/sub.
func (b *Bus) Close() error {
	return b.pubsub.Close()
}
