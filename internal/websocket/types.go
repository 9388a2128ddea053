package websocket

import (
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
)

// Event is the frame delivered to every connected client:
// the event type, the affected entity, and the emission time.
type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// EventFilters restricts which events a client receives. Empty filters mean
// everything. Types match either the full event name ("scooter:updated") or
// its entity prefix ("scooter").
type EventFilters struct {
	Types []string `json:"types,omitempty"`
}

// Client represents a connected WebSocket observer. The active flag is
// atomic because the broadcast path flips it while stats readers hold only
// the hub's read lock.
type Client struct {
	ID       string
	Conn     *websocket.Conn
	Filters  EventFilters
	Send     chan Event
	LastPing time.Time
	active   atomic.Bool
}

// SetActive marks the client as delivering (or not delivering) events.
func (c *Client) SetActive(v bool) { c.active.Store(v) }

// IsActive reports whether the client is still keeping up with its events.
func (c *Client) IsActive() bool { return c.active.Load() }

// ClientStats provides statistics about connected clients
type ClientStats struct {
	TotalClients    int `json:"totalClients"`
	ActiveClients   int `json:"activeClients"`
	InactiveClients int `json:"inactiveClients"`
}

// EventBroadcaster is the hub surface the rest of the application consumes.
type EventBroadcaster interface {
	Start() error
	Stop() error
	Publish(eventType string, payload interface{})
	RegisterClient(clientID string, conn *websocket.Conn, filters EventFilters) error
	UnregisterClient(clientID string) error
	GetConnectedClients() int
	GetClientStats() ClientStats
}
