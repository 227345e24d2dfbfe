// Package scheduler runs the delivery loop: every poll interval it scans
// the future-set for due reminders, fires each one at the delivery channel,
// archives it and updates the author's profile, then batch-deletes the
// delivered copies from the future-set.
package scheduler

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/nudgebot/nudge/internal/notify"
	"github.com/nudgebot/nudge/pkg/remindstore"
)

// Store is the slice of the reminder store the scheduler drives. It is
// satisfied by *remindstore.Client.
type Store interface {
	ScanFuture(ctx context.Context) ([]*remindstore.Reminder, error)
	Archive(ctx context.Context, r *remindstore.Reminder) error
	UpdateProfileOnArchive(ctx context.Context, authorID, reminderID string) error
	DeleteFuture(ctx context.Context, reminderID string) error
}

// Engine owns the periodic delivery cycle.
type Engine struct {
	store           Store
	notifier        notify.Notifier
	loc             *time.Location
	interval        time.Duration
	deliveryChannel string
	opsChannel      string

	cron    *cron.Cron
	started atomic.Bool

	// now supplies the current instant. Overridable in tests.
	now func() time.Time
}

// New creates an Engine. Deliveries fire on deliveryChannel; cycle failures
// are reported on opsChannel.
func New(store Store, notifier notify.Notifier, loc *time.Location, interval time.Duration, deliveryChannel, opsChannel string) *Engine {
	return &Engine{
		store:           store,
		notifier:        notifier,
		loc:             loc,
		interval:        interval,
		deliveryChannel: deliveryChannel,
		opsChannel:      opsChannel,
		now:             time.Now,
	}
}

// Start launches the delivery loop and returns. The loop stops when the
// context is cancelled. A second Start is an error: the engine is one-shot.
//
// Cycles that outlast the poll interval are not stacked; the next tick is
// skipped instead.
func (e *Engine) Start(ctx context.Context) error {
	if !e.started.CompareAndSwap(false, true) {
		return fmt.Errorf("scheduler already started")
	}

	e.cron = cron.New(cron.WithChain(
		cron.SkipIfStillRunning(cron.DiscardLogger),
	))
	_, err := e.cron.AddFunc(fmt.Sprintf("@every %s", e.interval), func() {
		e.RunCycle(ctx)
	})
	if err != nil {
		return fmt.Errorf("failed to schedule delivery cycle: %w", err)
	}

	e.cron.Start()
	log.Printf("[Scheduler] Started, polling every %s", e.interval)

	go func() {
		<-ctx.Done()
		stopCtx := e.cron.Stop()
		<-stopCtx.Done()
		log.Printf("[Scheduler] Stopped")
	}()

	return nil
}

// RunCycle performs one delivery pass. Failures on a single reminder are
// reported and skip only that reminder; the pass continues with the rest.
func (e *Engine) RunCycle(ctx context.Context) {
	reminders, err := e.store.ScanFuture(ctx)
	if err != nil {
		e.reportFailure(ctx, fmt.Errorf("failed to scan outstanding reminders: %w", err))
		return
	}

	now := e.now().In(e.loc)
	var delivered []string
	for _, r := range reminders {
		if r.DueAt.After(now) {
			continue
		}

		// An undelivered reminder must stay in the future-set so the
		// next cycle retries it. Archive only after delivery, delete
		// only after archive and profile update both stuck.
		if err := e.deliver(ctx, r); err != nil {
			e.reportFailure(ctx, fmt.Errorf("failed to deliver reminder %s: %w", r.ID, err))
			continue
		}

		if err := e.store.Archive(ctx, r); err != nil {
			e.reportFailure(ctx, fmt.Errorf("failed to archive reminder %s: %w", r.ID, err))
			continue
		}

		if err := e.store.UpdateProfileOnArchive(ctx, r.AuthorID, r.ID); err != nil {
			e.reportFailure(ctx, fmt.Errorf("failed to update profile for %s: %w", r.AuthorID, err))
			continue
		}

		e.logEvent("reminder_delivered", map[string]interface{}{
			"reminder_id": r.ID,
			"friendly_id": r.FriendlyID,
			"author":      r.AuthorID,
		})
		delivered = append(delivered, r.ID)
	}

	for _, id := range delivered {
		if err := e.store.DeleteFuture(ctx, id); err != nil {
			e.reportFailure(ctx, fmt.Errorf("failed to delete delivered reminder %s: %w", id, err))
			return
		}
	}
}

func (e *Engine) deliver(ctx context.Context, r *remindstore.Reminder) error {
	name := r.NameFull
	if name == "" {
		name = "- "
	}
	description := fmt.Sprintf("```%s```\n`%s`  created on  `%s`",
		name, r.FriendlyID, notify.FormatStamp(r.CreatedAt, e.loc))

	return e.notifier.Notify(ctx, notify.Message{
		Channel: e.deliveryChannel,
		Mention: r.AuthorID,
		Embed: notify.Embed{
			Title:       fmt.Sprintf(":exclamation: %s", notify.FormatStamp(r.DueAt, e.loc)),
			Description: description,
			Color:       notify.ColorWarning,
		},
	})
}

// reportFailure logs a cycle failure and alerts the ops channel. The alert
// itself is best effort.
func (e *Engine) reportFailure(ctx context.Context, failure error) {
	log.Printf("[Scheduler] %v", failure)

	err := e.notifier.Notify(ctx, notify.Message{
		Channel: e.opsChannel,
		Embed: notify.Embed{
			Title:       "Error",
			Description: failure.Error(),
			Color:       notify.ColorError,
		},
	})
	if err != nil {
		log.Printf("[Scheduler] Failed to alert ops channel: %v", err)
	}
}

// logEvent logs a structured event in JSON format.
func (e *Engine) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "scheduler"
	data["event_type"] = eventType

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Scheduler] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
