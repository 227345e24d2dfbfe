package testutil

import (
	"context"
	"sync"

	"github.com/nudgebot/nudge/internal/notify"
)

// NotifyRecorder is a notify.Notifier that captures every outbound message
// for test assertions. Safe for concurrent use.
type NotifyRecorder struct {
	mu       sync.Mutex
	messages []notify.Message

	// Err, when set, is returned from every Notify call.
	Err error
}

func (r *NotifyRecorder) Notify(_ context.Context, msg notify.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, msg)
	return nil
}

// Messages returns a copy of everything recorded so far.
func (r *NotifyRecorder) Messages() []notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]notify.Message, len(r.messages))
	copy(out, r.messages)
	return out
}

// Last returns the most recent message, or a zero Message when none were
// recorded.
func (r *NotifyRecorder) Last() notify.Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.messages) == 0 {
		return notify.Message{}
	}
	return r.messages[len(r.messages)-1]
}

// Reset drops everything recorded so far.
func (r *NotifyRecorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.messages = nil
}
