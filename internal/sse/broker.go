// Package sse implements a Server-Sent Events broker for vault updates.
package sse

import (
	"encoding/json"
	"fmt"
	"net/http"
	"sync/atomic"
	"time"
)

// Kind identifies a broadcast event type.
type Kind string

const (
	KindNoteCreated  Kind = "note.created"
	KindNoteUpdated  Kind = "note.updated"
	KindNoteDeleted  Kind = "note.deleted"
	KindGraphUpdated Kind = "graph.updated"
)

// Event is a single SSE event to broadcast.
type Event struct {
	Type Kind `json:"type"`
	Data any  `json:"data"`
}

type noteChange struct {
	kind string
	path string
}

// Broker fans vault events out to SSE clients.
//
// Concurrency model: a single loop goroutine owns the mutable state (the
// client set and the graph throttle timestamp). Public methods talk to the
// loop through channels, so no mutexes are required.
type Broker struct {
	throttle time.Duration

	subs    chan chan []byte
	unsubs  chan chan []byte
	events  chan Event
	changes chan noteChange
	counts  chan chan int

	stop    chan struct{}
	done    chan struct{}
	stopped atomic.Bool
}

// NewBroker creates a broker. graphThrottle is the minimum interval
// between graph.updated events; a burst of note changes produces one.
func NewBroker(graphThrottle time.Duration) *Broker {
	if graphThrottle <= 0 {
		graphThrottle = 2 * time.Second
	}

	b := &Broker{
		throttle: graphThrottle,
		subs:     make(chan chan []byte),
		unsubs:   make(chan chan []byte),
		events:   make(chan Event, 256),
		changes:  make(chan noteChange, 256),
		counts:   make(chan chan int),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}

	go b.run()
	return b
}

func (b *Broker) run() {
	defer close(b.done)

	clients := make(map[chan []byte]struct{})
	var lastGraph time.Time

	broadcast := func(event Event) {
		payload, err := json.Marshal(event.Data)
		if err != nil {
			return
		}
		raw := []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, payload))

		for ch := range clients {
			select {
			case ch <- raw:
			default:
				// Client buffer full; skip so the loop never blocks.
			}
		}
	}

	for {
		select {
		case <-b.stop:
			for ch := range clients {
				close(ch)
			}
			return

		case ch := <-b.subs:
			clients[ch] = struct{}{}

		case ch := <-b.unsubs:
			if _, ok := clients[ch]; ok {
				delete(clients, ch)
				close(ch)
			}

		case event := <-b.events:
			broadcast(event)

		case change := <-b.changes:
			data := map[string]string{"path": change.path}
			switch change.kind {
			case "created":
				broadcast(Event{Type: KindNoteCreated, Data: data})
			case "updated":
				broadcast(Event{Type: KindNoteUpdated, Data: data})
			case "deleted":
				broadcast(Event{Type: KindNoteDeleted, Data: data})
			}

			// Any note change may have moved links, so the graph is
			// refreshed too, at most once per throttle interval.
			now := time.Now()
			if now.Sub(lastGraph) >= b.throttle {
				lastGraph = now
				broadcast(Event{Type: KindGraphUpdated, Data: map[string]string{}})
			}

		case resp := <-b.counts:
			resp <- len(clients)
		}
	}
}

// Close stops the broker loop and closes all client channels.
func (b *Broker) Close() {
	if b.stopped.CompareAndSwap(false, true) {
		close(b.stop)
	}
	<-b.done
}

// Subscribe adds a client and returns its channel.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 64)
	if b.stopped.Load() {
		close(ch)
		return ch
	}

	select {
	case b.subs <- ch:
	case <-b.done:
		close(ch)
	}

	return ch
}

// Unsubscribe removes a client and closes its channel.
func (b *Broker) Unsubscribe(ch chan []byte) {
	if b.stopped.Load() {
		return
	}
	select {
	case b.unsubs <- ch:
	case <-b.done:
	}
}

// ClientCount returns the number of connected clients.
func (b *Broker) ClientCount() int {
	if b.stopped.Load() {
		return 0
	}

	resp := make(chan int, 1)
	select {
	case b.counts <- resp:
	case <-b.done:
		return 0
	}

	select {
	case n := <-resp:
		return n
	case <-b.done:
		return 0
	}
}

// Publish sends an event to all connected clients.
func (b *Broker) Publish(event Event) {
	if b.stopped.Load() {
		return
	}
	select {
	case b.events <- event:
	case <-b.done:
	}
}

// PublishNoteEvent publishes a note change plus a throttled graph.updated
// event. kind is the watcher's "created", "updated" or "deleted".
func (b *Broker) PublishNoteEvent(kind, path string) {
	if b.stopped.Load() {
		return
	}
	select {
	case b.changes <- noteChange{kind: kind, path: path}:
	case <-b.done:
	}
}

// ServeHTTP is the SSE endpoint handler (GET /api/events).
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
