// Package sse streams vault change notifications to web clients over
// Server-Sent Events.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"
)

// Event is one SSE message to broadcast.
type Event struct {
	Type string `json:"type"`
	Data any    `json:"data"`
}

// Broker fans events out to connected clients. A mutex guards the
// client set; slow clients are skipped rather than blocking a publish.
type Broker struct {
	staleMin time.Duration

	mu        sync.Mutex
	clients   map[chan []byte]struct{}
	lastStale time.Time
	closed    bool
}

// NewBroker creates a broker. staleThrottle is the minimum interval
// between "analysis.stale" events; a batch of file changes produces a
// single staleness signal instead of one per file.
func NewBroker(staleThrottle time.Duration) *Broker {
	if staleThrottle <= 0 {
		staleThrottle = 2 * time.Second
	}
	return &Broker{
		staleMin: staleThrottle,
		clients:  make(map[chan []byte]struct{}),
	}
}

// Subscribe registers a client and returns its channel. The channel is
// closed on Close or Unsubscribe.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		close(ch)
		return ch
	}
	b.clients[ch] = struct{}{}
	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[ch]; ok {
		delete(b.clients, ch)
		close(ch)
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.clients)
}

// Publish broadcasts an event to every connected client.
func (b *Broker) Publish(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.broadcastLocked(event)
}

// PublishVaultEvent broadcasts a note change and, at most once per
// throttle interval, an "analysis.stale" event telling clients their
// cached analysis is out of date.
func (b *Broker) PublishVaultEvent(kind, path string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	data := map[string]string{"path": path}
	switch kind {
	case "created", "updated", "deleted":
		b.broadcastLocked(Event{Type: "note." + kind, Data: data})
	default:
		return
	}

	now := time.Now()
	if now.Sub(b.lastStale) >= b.staleMin {
		b.lastStale = now
		b.broadcastLocked(Event{Type: "analysis.stale", Data: map[string]string{}})
	}
}

func (b *Broker) broadcastLocked(event Event) {
	if b.closed {
		return
	}
	payload, err := json.Marshal(event.Data)
	if err != nil {
		return
	}
	raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))
	for ch := range b.clients {
		select {
		case ch <- raw:
		default:
			// Client buffer full; drop rather than block.
		}
	}
}

// Close disconnects all clients and rejects further subscriptions.
func (b *Broker) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for ch := range b.clients {
		close(ch)
	}
	b.clients = make(map[chan []byte]struct{})
}

// ServeHTTP streams events to one client until it disconnects.
func (b *Broker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming unsupported", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	ch := b.Subscribe()
	defer b.Unsubscribe(ch)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			_, _ = w.Write(msg)
			flusher.Flush()
		}
	}
}
