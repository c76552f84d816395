package test

import (
	"context"
	"sync"

	"github.com/polkiloo/fooddispatch/internal/domain/event"
)

// Published is one recorded Publish call.
type Published struct {
	Event     event.Event
	Audiences []event.Audience
}

// NotifierRecorder records published events and optionally fails.
type NotifierRecorder struct {
	mu     sync.Mutex
	Events []Published
	Err    error
}

func (n *NotifierRecorder) Publish(ctx context.Context, evt event.Event, audiences ...event.Audience) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = append(n.Events, Published{Event: evt, Audiences: append([]event.Audience(nil), audiences...)})
	return n.Err
}

// Types lists recorded event types in publish order.
func (n *NotifierRecorder) Types() []event.Type {
	n.mu.Lock()
	defer n.mu.Unlock()
	types := make([]event.Type, 0, len(n.Events))
	for _, p := range n.Events {
		types = append(types, p.Event.Type)
	}
	return types
}

// Find returns the first recorded event of type t.
func (n *NotifierRecorder) Find(t event.Type) (Published, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, p := range n.Events {
		if p.Event.Type == t {
			return p, true
		}
	}
	return Published{}, false
}

// Count returns how many events were recorded.
func (n *NotifierRecorder) Count() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.Events)
}

func (n *NotifierRecorder) Reset() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Events = nil
}
