// Package quota enforces per-user creation limits: sliding-window rate
// throttles anchored on creation history, plus a hard cap on active
// reminders.
package quota

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/nudgebot/nudge/pkg/remindstore"
)

// ErrProfileLookupFailed marks a throttle anchor that could not be loaded
// from either reminder set. It is an infrastructure failure, not a refusal.
var ErrProfileLookupFailed = errors.New("quota: history lookup failed")

const (
	// DefaultMaxActive is the largest number of pending reminders one user
	// may hold before new creations are refused.
	DefaultMaxActive = 999
)

// DefaultWindows are the burst and sustained throttles applied when a Guard
// is built with New.
var DefaultWindows = []Window{
	{Limit: 30, Span: 20 * time.Minute},
	{Limit: 1200, Span: 30 * 24 * time.Hour},
}

// Window allows at most Limit creations within the trailing Span.
type Window struct {
	Limit int64
	Span  time.Duration
}

// Kind tags the reason a creation was refused.
type Kind string

const (
	KindThrottleExceeded Kind = "throttle_exceeded"
	KindTooManyActive    Kind = "too_many_active"
)

// QuotaError reports a refused creation. It is a user-facing refusal, not an
// infrastructure failure; those surface as ordinary wrapped errors instead.
type QuotaError struct {
	Kind   Kind
	Limit  int64
	Window time.Duration
}

func (e *QuotaError) Error() string {
	switch e.Kind {
	case KindThrottleExceeded:
		return fmt.Sprintf("quota: more than %d reminders within %s", e.Limit, e.Window)
	default:
		return fmt.Sprintf("quota: more than %d active reminders", e.Limit)
	}
}

// History is the slice of the reminder store the guard reads. It is
// satisfied by *remindstore.Client.
type History interface {
	GetProfile(ctx context.Context, authorID string) (*remindstore.UserProfile, error)
	HistoryAt(ctx context.Context, authorID string, fromEnd int) (string, error)
	FindAnyByID(ctx context.Context, id string) (*remindstore.Reminder, error)
}

// Guard checks creation requests against the configured limits.
type Guard struct {
	store     History
	Windows   []Window
	MaxActive int64

	// Now supplies the current instant. Overridable in tests.
	Now func() time.Time
}

// New returns a Guard with the default windows and active cap.
func New(store History) *Guard {
	return &Guard{
		store:     store,
		Windows:   DefaultWindows,
		MaxActive: DefaultMaxActive,
		Now:       time.Now,
	}
}

// Check reports whether the given user may create another reminder.
// A nil return allows the creation. A *QuotaError refuses it; any other
// error means the history could not be read and the caller should treat the
// request as retryable.
//
// A user with no profile yet has no history and always passes.
func (g *Guard) Check(ctx context.Context, authorID string) error {
	profile, err := g.store.GetProfile(ctx, authorID)
	if err != nil {
		if remindstore.IsNotFound(err) {
			return nil
		}
		return fmt.Errorf("failed to load profile for %s: %w", authorID, err)
	}

	now := g.Now()
	for _, w := range g.Windows {
		// The Limit-th most recent creation anchors the window: if it
		// happened inside the span, the user has already spent the
		// whole allowance.
		anchorID, err := g.store.HistoryAt(ctx, authorID, int(w.Limit))
		if err != nil {
			if remindstore.IsNotFound(err) {
				continue
			}
			return fmt.Errorf("failed to read creation history for %s: %w", authorID, err)
		}
		anchor, err := g.store.FindAnyByID(ctx, anchorID)
		if err != nil {
			return fmt.Errorf("%w: anchor %s: %v", ErrProfileLookupFailed, anchorID, err)
		}
		if now.Sub(anchor.CreatedAt) < w.Span {
			return &QuotaError{Kind: KindThrottleExceeded, Limit: w.Limit, Window: w.Span}
		}
	}

	if profile.FutureCount > g.MaxActive {
		return &QuotaError{Kind: KindTooManyActive, Limit: g.MaxActive}
	}
	return nil
}
