package events

import (
	"context"
	"sync"

	"github.com/weddingpass/pass-api/internal/ports/out/events"
)

// Recorder keeps published events in memory. It backs the memory storage mode
// (no broker configured) and lets tests assert on lifecycle notifications.
type Recorder struct {
	mu     sync.Mutex
	events []events.Event
	limit  int
}

// NewRecorder returns a Recorder that retains at most limit events (0 means unbounded).
func NewRecorder(limit int) *Recorder {
	return &Recorder{limit: limit}
}

func (r *Recorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, e)
	if r.limit > 0 && len(r.events) > r.limit {
		r.events = append([]events.Event(nil), r.events[len(r.events)-r.limit:]...)
	}
	return nil
}

// Events returns a copy of the retained events, oldest first.
func (r *Recorder) Events() []events.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]events.Event(nil), r.events...)
}

// Types returns the types of the retained events, oldest first.
func (r *Recorder) Types() []events.Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]events.Type, 0, len(r.events))
	for _, e := range r.events {
		out = append(out, e.Type)
	}
	return out
}
