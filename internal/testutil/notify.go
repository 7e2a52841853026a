package testutil

import (
	"context"
	"sync"

	"pickup-games/internal/notify"
)

// RecordingDispatcher captures dispatched events.
type RecordingDispatcher struct {
	mu     sync.Mutex
	events []notify.Event
	Err    error
}

func (d *RecordingDispatcher) Dispatch(_ context.Context, event notify.Event) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
	return d.Err
}

// Events returns a copy of everything dispatched so far.
func (d *RecordingDispatcher) Events() []notify.Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]notify.Event(nil), d.events...)
}

// Types returns the event types in dispatch order.
func (d *RecordingDispatcher) Types() []notify.EventType {
	events := d.Events()
	types := make([]notify.EventType, len(events))
	for i, e := range events {
		types[i] = e.Type
	}
	return types
}
