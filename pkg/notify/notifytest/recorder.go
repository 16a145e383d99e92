// Package notifytest provides an in-memory notify.Publisher for tests.
package notifytest

import (
	"context"
	"sync"

	"supplyhub/pkg/notify"
)

type Recorder struct {
	mu     sync.Mutex
	events []notify.Event
	Err    error
}

func (r *Recorder) Publish(_ context.Context, ev notify.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.Err
}

func (r *Recorder) Events() []notify.Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]notify.Event(nil), r.events...)
}

// Types lists the recorded event types in order.
func (r *Recorder) Types() []string {
	var out []string
	for _, ev := range r.Events() {
		out = append(out, ev.Type)
	}
	return out
}
