package events

import (
	"context"
	"sync"
)

// Recorder keeps every published message in memory. Tests use it to assert
// what an operation emitted.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	// Err, when set, is returned from every Publish after recording.
	Err error
}

func (r *Recorder) Publish(ctx context.Context, message Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = append(r.messages, message)
	return r.Err
}

// Messages returns a copy of the recorded messages.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Types returns the recorded event types in publish order.
func (r *Recorder) Types() []Type {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Type, len(r.messages))
	for i, m := range r.messages {
		out[i] = m.Type
	}
	return out
}
