// Package hub streams engine events to browser clients over Server-Sent
// Events.
package hub

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Client represents a connected SSE client. Frames and other events are
// queued separately.
type Client struct {
	id     string
	frames chan []byte
	events chan []byte
}

func (c *Client) close() {
	close(c.frames)
	close(c.events)
}

// Hub manages SSE client connections
type Hub struct {
	mu         sync.RWMutex
	clients    map[*Client]struct{}
	register   chan *Client
	unregister chan *Client
	broadcast  chan Event
	done       chan struct{}
	keepalive  time.Duration
	logger     *zap.Logger

	// events other than frames, never dropped
	pendingMu sync.Mutex
	pending   []Event
	wake      chan struct{}
}

// New creates a new Hub
func New(logger *zap.Logger) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		clients:    make(map[*Client]struct{}),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan Event, 256),
		done:       make(chan struct{}),
		wake:       make(chan struct{}, 1),
		keepalive:  30 * time.Second,
		logger:     logger,
	}
}

// Run starts the hub's event loop. It returns when ctx is cancelled and
// disconnects every client.
func (h *Hub) Run(ctx context.Context) {
	defer func() {
		h.mu.Lock()
		for client := range h.clients {
			delete(h.clients, client)
			client.close()
		}
		h.mu.Unlock()
		close(h.done)
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = struct{}{}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("SSE client connected", zap.String("client_id", client.id), zap.Int("total", total))

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				client.close()
			}
			total := len(h.clients)
			h.mu.Unlock()
			h.logger.Info("SSE client disconnected", zap.String("client_id", client.id), zap.Int("total", total))

		case event := <-h.broadcast:
			h.deliver(event)

		case <-h.wake:
			for _, event := range h.takePending() {
				h.deliver(event)
			}
		}
	}
}

func (h *Hub) takePending() []Event {
	h.pendingMu.Lock()
	defer h.pendingMu.Unlock()
	events := h.pending
	h.pending = nil
	return events
}

// deliver fans one event out to every client. A client too slow for a
// frame skips it; a client too slow for any other event is disconnected.
func (h *Hub) deliver(event Event) {
	msg, err := encode(event)
	if err != nil {
		h.logger.Error("failed to marshal event", zap.String("type", string(event.Type)), zap.Error(err))
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		if event.Type == EventFrame {
			select {
			case client.frames <- msg:
			default:
				h.logger.Debug("SSE client is slow, skipping frame", zap.String("client_id", client.id))
			}
			continue
		}

		select {
		case client.events <- msg:
		default:
			h.logger.Warn("SSE client is too slow, disconnecting",
				zap.String("client_id", client.id),
				zap.String("type", string(event.Type)),
			)
			delete(h.clients, client)
			client.close()
		}
	}
}

func encode(event Event) ([]byte, error) {
	data, err := json.Marshal(event)
	if err != nil {
		return nil, err
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, data)), nil
}

// Broadcast sends an event to all connected clients. It never blocks.
// Frames are dropped when the hub falls behind; every other event is
// queued until the hub stops.
func (h *Hub) Broadcast(event Event) {
	select {
	case <-h.done:
		return
	default:
	}

	if event.Type == EventFrame {
		select {
		case h.broadcast <- event:
		default:
			h.logger.Debug("broadcast channel full, dropping frame")
		}
		return
	}

	h.pendingMu.Lock()
	h.pending = append(h.pending, event)
	h.pendingMu.Unlock()
	select {
	case h.wake <- struct{}{}:
	default:
	}
}

// ClientCount returns the number of connected clients
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// ServeHTTP handles SSE connections
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	// Check if client supports SSE
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "SSE not supported", http.StatusInternalServerError)
		return
	}

	// Set SSE headers
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no") // Disable nginx buffering

	client := &Client{
		id:     uuid.NewString(),
		frames: make(chan []byte, 64),
		events: make(chan []byte, 64),
	}

	select {
	case h.register <- client:
	case <-h.done:
		http.Error(w, "server shutting down", http.StatusServiceUnavailable)
		return
	case <-r.Context().Done():
		return
	}

	// Ensure cleanup on disconnect
	defer func() {
		select {
		case h.unregister <- client:
		case <-h.done:
		}
	}()

	// Send initial connection message
	fmt.Fprintf(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	write := func(msg []byte) bool {
		if _, err := w.Write(msg); err != nil {
			return false
		}
		flusher.Flush()
		return true
	}

	for {
		// drain events ahead of frames
		select {
		case msg, ok := <-client.events:
			if !ok || !write(msg) {
				return
			}
			continue
		default:
		}

		select {
		case msg, ok := <-client.events:
			if !ok || !write(msg) {
				return
			}

		case msg, ok := <-client.frames:
			if !ok || !write(msg) {
				return
			}

		case <-ticker.C:
			if _, err := fmt.Fprintf(w, ": keepalive\n\n"); err != nil {
				return
			}
			flusher.Flush()

		case <-r.Context().Done():
			return
		}
	}
}
