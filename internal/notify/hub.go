// Trackcore - track-asset coordination core for DJ player fleets
// Copyright 2026 Trackcore Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/deepspin/trackcore

package notify

import (
	"context"
	"sync"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/websocket"

	"github.com/deepspin/trackcore/internal/logging"
)

// Message is one debug-feed event mirrored to connected operators/tools.
type Message struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Client wraps one websocket connection with its own outbound queue so a
// slow reader only ever backs up its own buffer, never the hub's.
type Client struct {
	conn *websocket.Conn
	send chan Message
}

// NewClient wraps conn for registration with a Hub.
func NewClient(conn *websocket.Conn) *Client {
	return &Client{conn: conn, send: make(chan Message, 64)}
}

// WritePump drains c.send to the underlying connection until it is closed.
// Run this in its own goroutine per client.
func (c *Client) WritePump() {
	for msg := range c.send {
		payload, err := json.Marshal(msg)
		if err != nil {
			logging.Logger().Warn().Err(err).Msg("notify: failed to marshal debug message")
			continue
		}
		if err := c.conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

// Hub mirrors finder listener notifications to every connected debug
// websocket client. Grounded on the teacher's websocket Hub: register/
// unregister channels drained ahead of broadcast so client bookkeeping is
// never stale when a broadcast goes out, generalized from a fixed message
// type enum to the coordination core's own Message envelope.
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
}

// NewHub constructs a Hub with a bounded broadcast buffer.
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
	}
}

// Broadcast enqueues msg for delivery to every connected client. Never
// blocks: if the broadcast buffer is full the message is dropped and
// logged, matching the core's best-effort notification contract.
func (h *Hub) Broadcast(msg Message) {
	select {
	case h.broadcast <- msg:
	default:
		logging.Logger().Warn().Str("type", msg.Type).Msg("notify: debug hub broadcast buffer full, dropping")
	}
}

// ClientCount reports how many clients are currently connected.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Serve runs the hub's dispatch loop until ctx is canceled, satisfying
// suture.Service so it can be supervised in the control tier.
func (h *Hub) Serve(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		default:
		}

		select {
		case <-ctx.Done():
			h.closeAll()
			return ctx.Err()
		case client := <-h.Register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.Unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case msg := <-h.broadcast:
			h.dispatch(msg)
		}
	}
}

func (h *Hub) dispatch(msg Message) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- msg:
		case <-time.After(50 * time.Millisecond):
			logging.Logger().Warn().Msg("notify: client send buffer full, dropping message for this client")
		}
	}
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.clients {
		close(c.send)
		delete(h.clients, c)
	}
}
