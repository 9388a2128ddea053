package websocket

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	log "github.com/sirupsen/logrus"
)

// Hub fans engine events out to connected clients. Delivery is best-effort:
// there is no persistence or replay, and a client whose send buffer stays
// full is marked inactive and dropped by the health check. Events published
// from a single mutation keep their emission order end to end.
type Hub struct {
	clients    map[string]*Client
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	mutex      sync.RWMutex
	upgrader   websocket.Upgrader
	done       chan struct{}
}

// NewHub creates a new event hub
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[string]*Client),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				// CORS policy is enforced at the router; the upgrade accepts
				// whatever origin made it through.
				return true
			},
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
		},
		done: make(chan struct{}),
	}
}

// Start begins the hub's main loop
func (h *Hub) Start() error {
	go h.run()
	log.Println("Event hub started")
	return nil
}

// Stop gracefully shuts down the hub
func (h *Hub) Stop() error {
	close(h.done)

	h.mutex.Lock()
	for _, client := range h.clients {
		close(client.Send)
		if client.Conn != nil {
			client.Conn.Close()
		}
	}
	h.mutex.Unlock()

	log.Println("Event hub stopped")
	return nil
}

// run is the main event loop for the hub
func (h *Hub) run() {
	ticker := time.NewTicker(30 * time.Second) // Health check interval
	defer ticker.Stop()

	for {
		select {
		case client := <-h.register:
			h.mutex.Lock()
			h.clients[client.ID] = client
			h.mutex.Unlock()
			log.Printf("Client %s registered", client.ID)
			go h.handleClient(client)

		case client := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[client.ID]; ok {
				delete(h.clients, client.ID)
				close(client.Send)
				if client.Conn != nil {
					client.Conn.Close()
				}
			}
			h.mutex.Unlock()
			log.Printf("Client %s unregistered", client.ID)

		case event := <-h.broadcast:
			h.broadcastToClients(event)

		case <-ticker.C:
			h.healthCheck()

		case <-h.done:
			return
		}
	}
}

// Publish enqueues an event for delivery to every matching client.
// Fire-and-forget: when the hub is saturated the event is dropped.
func (h *Hub) Publish(eventType string, payload interface{}) {
	event := Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}

	select {
	case h.broadcast <- event:
	default:
		log.Printf("Broadcast channel full, dropping %s event", eventType)
	}
}

// RegisterClient registers a new WebSocket client
func (h *Hub) RegisterClient(clientID string, conn *websocket.Conn, filters EventFilters) error {
	client := &Client{
		ID:       clientID,
		Conn:     conn,
		Filters:  filters,
		Send:     make(chan Event, 64),
		LastPing: time.Now(),
	}
	client.SetActive(true)

	h.register <- client
	return nil
}

// UnregisterClient removes a WebSocket client
func (h *Hub) UnregisterClient(clientID string) error {
	h.mutex.RLock()
	client, exists := h.clients[clientID]
	h.mutex.RUnlock()

	if exists {
		h.unregister <- client
	}
	return nil
}

// GetConnectedClients returns the number of connected clients
func (h *Hub) GetConnectedClients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// GetClientStats returns detailed client statistics
func (h *Hub) GetClientStats() ClientStats {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	stats := ClientStats{
		TotalClients: len(h.clients),
	}

	for _, client := range h.clients {
		if client.IsActive() {
			stats.ActiveClients++
		} else {
			stats.InactiveClients++
		}
	}

	return stats
}

// GetUpgrader returns the WebSocket upgrader for the HTTP handler
func (h *Hub) GetUpgrader() *websocket.Upgrader {
	return &h.upgrader
}

// broadcastToClients sends an event to every client whose filters match
func (h *Hub) broadcastToClients(event Event) {
	h.mutex.RLock()
	defer h.mutex.RUnlock()

	for _, client := range h.clients {
		if !matchesFilters(client.Filters, event) {
			continue
		}
		select {
		case client.Send <- event:
		default:
			// Client's send channel is full; leave it to the health check
			client.SetActive(false)
			log.Printf("Client %s send channel full, marking as inactive", client.ID)
		}
	}
}

// matchesFilters reports whether an event passes a client's type filters.
func matchesFilters(filters EventFilters, event Event) bool {
	if len(filters.Types) == 0 {
		return true
	}

	entity, _, _ := strings.Cut(event.Type, ":")
	for _, t := range filters.Types {
		if t == event.Type || t == entity {
			return true
		}
	}
	return false
}

// handleClient manages an individual client connection
func (h *Hub) handleClient(client *Client) {
	defer func() {
		h.unregister <- client
	}()

	// Ping/pong keeps the connection health visible
	client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	client.Conn.SetPongHandler(func(string) error {
		client.LastPing = time.Now()
		client.Conn.SetReadDeadline(time.Now().Add(60 * time.Second))
		return nil
	})

	go h.writeEvents(client)

	// Incoming messages are pings and filter updates only
	for {
		var message map[string]interface{}
		err := client.Conn.ReadJSON(&message)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				log.Printf("WebSocket error for client %s: %v", client.ID, err)
			}
			break
		}

		if msgType, ok := message["type"].(string); ok && msgType == "update_filters" {
			if filtersData, ok := message["filters"]; ok {
				filtersJSON, _ := json.Marshal(filtersData)
				var newFilters EventFilters
				if err := json.Unmarshal(filtersJSON, &newFilters); err == nil {
					client.Filters = newFilters
					log.Printf("Updated filters for client %s", client.ID)
				}
			}
		}
	}
}

// writeEvents handles outgoing messages to a client
func (h *Hub) writeEvents(client *Client) {
	ticker := time.NewTicker(54 * time.Second) // Ping just inside the read deadline
	defer ticker.Stop()

	for {
		select {
		case event, ok := <-client.Send:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				client.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := client.Conn.WriteJSON(event); err != nil {
				log.Printf("Error writing event to client %s: %v", client.ID, err)
				return
			}

		case <-ticker.C:
			client.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := client.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("Error sending ping to client %s: %v", client.ID, err)
				return
			}
		}
	}
}

// healthCheck removes clients that stopped answering pings
func (h *Hub) healthCheck() {
	h.mutex.Lock()
	defer h.mutex.Unlock()

	now := time.Now()
	for clientID, client := range h.clients {
		if now.Sub(client.LastPing) > 90*time.Second {
			log.Printf("Client %s timed out, removing", clientID)
			delete(h.clients, clientID)
			close(client.Send)
			if client.Conn != nil {
				client.Conn.Close()
			}
		}
	}
}
