package api

import (
	"encoding/json"
	"sort"
	"sync"
	"time"

	"github.com/r-dev-asia/rims-gateway/internal/gateway"
	"github.com/r-dev-asia/rims-gateway/internal/infrastructure/logging"
)

// eventRingSize caps the activity history replayed to new websocket
// clients. Matches the line retention of the operator console this
// API replaced.
const eventRingSize = 300

// Event type values used in websocket frames.
const (
	eventTypeStatus = "status"
	eventTypeLog    = "log"
	eventTypeStats  = "stats"
)

// StatusEntry is the cached last value of one status key.
type StatusEntry struct {
	Value     string    `json:"value"`
	Colour    string    `json:"colour"`
	UpdatedAt time.Time `json:"updated_at"`
}

// StatsEntry is the cached latest counters snapshot.
type StatsEntry struct {
	CommandsSent uint64    `json:"commands_sent"`
	Errors       uint64    `json:"errors"`
	DeviceCount  int       `json:"device_count"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// EventEntry is one retained activity line.
type EventEntry struct {
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// wsEvent is the envelope streamed to websocket clients. Exactly one
// of the type-specific field groups is populated per frame.
type wsEvent struct {
	Type      string      `json:"type"`
	Timestamp time.Time   `json:"timestamp"`
	Key       string      `json:"key,omitempty"`
	Value     string      `json:"value,omitempty"`
	Colour    string      `json:"colour,omitempty"`
	Message   string      `json:"message,omitempty"`
	Stats     *StatsEntry `json:"stats,omitempty"`
}

// Hub caches the gateway's reported state and fans events out to
// websocket clients.
//
// It implements the gateway's sink interface, so the relay loop pushes
// status transitions, activity lines, and counters here the same way
// it pushes them to the MQTT reporter. The cache exists so a client
// connecting mid-run gets the full picture without waiting for the
// next transition.
type Hub struct {
	logger *logging.Logger

	mu       sync.RWMutex
	clients  map[*wsClient]struct{}
	statuses map[string]StatusEntry
	stats    *StatsEntry
	events   []EventEntry
}

// NewHub creates an empty hub.
func NewHub(logger *logging.Logger) *Hub {
	return &Hub{
		logger:   logger,
		clients:  make(map[*wsClient]struct{}),
		statuses: make(map[string]StatusEntry),
	}
}

// OnStatus caches the new value for the key and broadcasts it.
func (h *Hub) OnStatus(key, value, colour string) {
	now := time.Now().UTC()

	h.mu.Lock()
	h.statuses[key] = StatusEntry{Value: value, Colour: colour, UpdatedAt: now}
	h.broadcastLocked(wsEvent{Type: eventTypeStatus, Timestamp: now, Key: key, Value: value, Colour: colour})
	h.mu.Unlock()
}

// OnLog appends the line to the activity ring and broadcasts it.
func (h *Hub) OnLog(message string) {
	now := time.Now().UTC()

	h.mu.Lock()
	h.events = append(h.events, EventEntry{Message: message, Timestamp: now})
	if len(h.events) > eventRingSize {
		h.events = h.events[len(h.events)-eventRingSize:]
	}
	h.broadcastLocked(wsEvent{Type: eventTypeLog, Timestamp: now, Message: message})
	h.mu.Unlock()
}

// OnStats caches the counters and broadcasts them.
func (h *Hub) OnStats(stats gateway.Stats) {
	now := time.Now().UTC()
	entry := StatsEntry{
		CommandsSent: stats.CommandsSent,
		Errors:       stats.Errors,
		DeviceCount:  stats.DeviceCount,
		UpdatedAt:    now,
	}

	h.mu.Lock()
	h.stats = &entry
	h.broadcastLocked(wsEvent{Type: eventTypeStats, Timestamp: now, Stats: &entry})
	h.mu.Unlock()
}

// Statuses returns a copy of the cached status map.
func (h *Hub) Statuses() map[string]StatusEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make(map[string]StatusEntry, len(h.statuses))
	for key, entry := range h.statuses {
		out[key] = entry
	}
	return out
}

// Stats returns the latest counters snapshot. ok is false before the
// first push arrives.
func (h *Hub) Stats() (StatsEntry, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.stats == nil {
		return StatsEntry{}, false
	}
	return *h.stats, true
}

// Events returns a copy of the activity ring, oldest first.
func (h *Hub) Events() []EventEntry {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]EventEntry, len(h.events))
	copy(out, h.events)
	return out
}

// ClientCount returns the number of connected websocket clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// register adds a client and queues the replay snapshot: every status
// key in sorted order, then the activity ring, then the latest
// counters. Holding the lock for the whole replay means no live
// broadcast can interleave with it, so the client never observes
// events out of order.
func (h *Hub) register(client *wsClient) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client] = struct{}{}

	keys := make([]string, 0, len(h.statuses))
	for key := range h.statuses {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entry := h.statuses[key]
		client.trySend(marshalEvent(wsEvent{
			Type:      eventTypeStatus,
			Timestamp: entry.UpdatedAt,
			Key:       key,
			Value:     entry.Value,
			Colour:    entry.Colour,
		}))
	}

	for _, event := range h.events {
		client.trySend(marshalEvent(wsEvent{
			Type:      eventTypeLog,
			Timestamp: event.Timestamp,
			Message:   event.Message,
		}))
	}

	if h.stats != nil {
		client.trySend(marshalEvent(wsEvent{
			Type:      eventTypeStats,
			Timestamp: h.stats.UpdatedAt,
			Stats:     h.stats,
		}))
	}
}

// unregister removes a client. Only the goroutine that removes the
// client from the map closes its send channel, so a concurrent
// unregister and slow-client drop cannot double-close.
func (h *Hub) unregister(client *wsClient) {
	h.mu.Lock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
}

// broadcastLocked marshals the event once and queues it to every
// client. Clients whose buffer is full are dropped: a stalled
// dashboard must not hold the relay loop's events hostage. Callers
// hold h.mu.
func (h *Hub) broadcastLocked(event wsEvent) {
	if len(h.clients) == 0 {
		return
	}

	data := marshalEvent(event)
	if data == nil {
		return
	}

	var dropped int
	for client := range h.clients {
		if !client.trySend(data) {
			delete(h.clients, client)
			close(client.send)
			dropped++
		}
	}
	if dropped > 0 {
		h.logger.Warn("dropped slow websocket clients", "count", dropped, "remaining", len(h.clients))
	}
}

// closeAll disconnects every client. Called during server shutdown.
func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()

	for client := range h.clients {
		delete(h.clients, client)
		close(client.send)
		if client.conn != nil {
			//nolint:errcheck // connection is being discarded
			client.conn.Close()
		}
	}
}

// marshalEvent encodes an event, returning nil on failure. The
// envelope contains only strings, integers, and timestamps, so
// failure is not a practical concern.
func marshalEvent(event wsEvent) []byte {
	data, err := json.Marshal(event)
	if err != nil {
		return nil
	}
	return data
}
