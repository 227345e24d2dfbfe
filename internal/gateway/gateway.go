// Package gateway consumes relayed chat commands and runs the reminder
// command handlers: create, list, mine, show, delete, help and datetime.
// Replies go back out through the notify publisher; the gateway never talks
// to a chat network directly.
package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/nudgebot/nudge/internal/friendlyid"
	"github.com/nudgebot/nudge/internal/notify"
	"github.com/nudgebot/nudge/internal/quota"
	"github.com/nudgebot/nudge/internal/timeparse"
	"github.com/nudgebot/nudge/pkg/remindstore"
)

// Gateway dispatches inbound chat commands to their handlers.
type Gateway struct {
	store     *remindstore.Client
	notifier  notify.Notifier
	parser    *timeparse.Parser
	guard     *quota.Guard
	loc       *time.Location
	listLimit int

	// now supplies the current instant. Overridable in tests.
	now func() time.Time
}

// New creates a Gateway. listLimit caps how many reminders the list and
// mine commands render.
func New(store *remindstore.Client, notifier notify.Notifier, parser *timeparse.Parser, guard *quota.Guard, loc *time.Location, listLimit int) *Gateway {
	return &Gateway{
		store:     store,
		notifier:  notifier,
		parser:    parser,
		guard:     guard,
		loc:       loc,
		listLimit: listLimit,
		now:       time.Now,
	}
}

// Run consumes inbound messages until the context is cancelled.
func (g *Gateway) Run(ctx context.Context) error {
	log.Printf("[Gateway] Starting")

	subscription, err := SubscribeInbound(ctx, g.store)
	if err != nil {
		return fmt.Errorf("failed to subscribe to inbound messages: %w", err)
	}
	defer subscription.Close()

	log.Printf("[Gateway] Subscribed to inbound messages")

	for {
		select {
		case <-ctx.Done():
			log.Printf("[Gateway] Shutting down...")
			return ctx.Err()

		case msg, ok := <-subscription.Events():
			if !ok {
				log.Printf("[Gateway] Subscription closed")
				return nil
			}
			g.HandleMessage(ctx, msg)

		case err, ok := <-subscription.Errors():
			if !ok {
				log.Printf("[Gateway] Error channel closed")
				return nil
			}
			log.Printf("[Gateway] Subscription error: %v", err)
		}
	}
}

// HandleMessage dispatches one inbound message. Messages without a
// recognized command are ignored.
func (g *Gateway) HandleMessage(ctx context.Context, msg *Inbound) {
	command, args, ok := splitCommand(msg.Content)
	if !ok {
		return
	}

	g.logEvent("command_received", map[string]interface{}{
		"command": command,
		"author":  msg.AuthorID,
		"channel": msg.Channel,
	})

	switch command {
	case cmdCreate:
		g.handleCreate(ctx, msg, args)
	case cmdList:
		g.handleList(ctx, msg)
	case cmdMine:
		g.handleMine(ctx, msg)
	case cmdShow:
		g.handleShow(ctx, msg, args)
	case cmdDelete:
		g.handleDelete(ctx, msg, args)
	case cmdHelp:
		g.handleHelp(ctx, msg)
	case cmdDatetime:
		g.handleDatetime(ctx, msg)
	}
}

func (g *Gateway) handleCreate(ctx context.Context, msg *Inbound, args string) {
	if err := g.guard.Check(ctx, msg.AuthorID); err != nil {
		var qe *quota.QuotaError
		if errors.As(err, &qe) {
			g.replyError(ctx, msg, quotaText(qe))
			return
		}
		log.Printf("[Gateway] Quota check failed for %s: %v", msg.AuthorID, err)
		g.replyError(ctx, msg, errTryAgain)
		return
	}

	name, due, err := g.parser.Parse(args)
	if err != nil {
		g.replyError(ctx, msg, parseText(err))
		return
	}

	now := g.now().In(g.loc)
	friendly, err := friendlyid.Encode(now)
	if err != nil {
		log.Printf("[Gateway] Failed to derive friendly id: %v", err)
		g.replyError(ctx, msg, errInsertion)
		return
	}
	reminder := &remindstore.Reminder{
		FriendlyID:   friendly,
		AuthorID:     msg.AuthorID,
		AuthorName:   msg.AuthorName,
		AuthorNick:   msg.AuthorNick,
		Origin:       msg.Origin,
		NameFull:     name,
		NameShort:    remindstore.ShortName(name),
		CreatedAt:    now,
		DueAt:        due,
		OriginalText: args,
	}

	id, err := g.store.InsertFuture(ctx, reminder)
	if err != nil {
		log.Printf("[Gateway] Failed to insert reminder for %s: %v", msg.AuthorID, err)
		g.replyError(ctx, msg, errInsertion)
		return
	}
	if err := g.store.UpsertProfileOnCreate(ctx, msg.AuthorID, id); err != nil {
		log.Printf("[Gateway] Failed to update profile for %s: %v", msg.AuthorID, err)
		g.replyError(ctx, msg, errInsertion)
		return
	}

	g.logEvent("reminder_created", map[string]interface{}{
		"reminder_id": id,
		"friendly_id": reminder.FriendlyID,
		"author":      msg.AuthorID,
		"due_at":      due.UTC().Format(time.RFC3339),
	})

	description := fmt.Sprintf(confirmTemplate,
		notify.FormatStamp(due, g.loc), msg.AuthorID, reminder.FriendlyID)
	g.replyInfo(ctx, msg, description)
}

func (g *Gateway) handleList(ctx context.Context, msg *Inbound) {
	reminders, err := g.store.ListUpcoming(ctx, g.listLimit)
	if err != nil {
		log.Printf("[Gateway] Failed to list reminders: %v", err)
		g.replyError(ctx, msg, errTryAgain)
		return
	}
	if len(reminders) == 0 {
		g.replyInfo(ctx, msg, infoEmptyList)
		return
	}

	now := g.now().In(g.loc)
	var b strings.Builder
	for _, r := range reminders {
		fmt.Fprintf(&b, ":hourglass: Left: %s  |  %s:\n",
			notify.Countdown(r.DueAt, now), notify.FormatStamp(r.DueAt, g.loc))
		fmt.Fprintf(&b, "Reminder `%s` by <@%s>: ```%s```\n",
			r.FriendlyID, r.AuthorID, orDash(r.NameShort))
	}

	g.send(ctx, msg.Channel, notify.Message{
		Channel: msg.Channel,
		Text:    notify.FormatStamp(now, g.loc),
		Embed: notify.Embed{
			Title:       listTitle,
			Description: b.String(),
			Color:       notify.ColorAccent,
		},
	})
}

func (g *Gateway) handleMine(ctx context.Context, msg *Inbound) {
	_, err := g.store.GetProfile(ctx, msg.AuthorID)
	if err != nil {
		if remindstore.IsNotFound(err) {
			g.replyInfo(ctx, msg, infoEmptyProfile)
			return
		}
		log.Printf("[Gateway] Failed to load profile for %s: %v", msg.AuthorID, err)
		g.replyError(ctx, msg, errTryAgain)
		return
	}

	reminders, err := g.store.FindFutureForUser(ctx, msg.AuthorID, g.listLimit)
	if err != nil {
		log.Printf("[Gateway] Failed to list reminders for %s: %v", msg.AuthorID, err)
		g.replyError(ctx, msg, errTryAgain)
		return
	}
	if len(reminders) == 0 {
		g.replyInfo(ctx, msg, infoNoReminders)
		return
	}

	now := g.now().In(g.loc)
	var b strings.Builder
	for _, r := range reminders {
		fmt.Fprintf(&b, ":hourglass: Left: %s  |  %s:\n",
			notify.Countdown(r.DueAt, now), notify.FormatStamp(r.DueAt, g.loc))
		fmt.Fprintf(&b, "Reminder `%s`\n```%s```\n", r.FriendlyID, orDash(r.NameShort))
	}

	g.send(ctx, msg.Channel, notify.Message{
		Channel: msg.Channel,
		Text:    notify.FormatStamp(now, g.loc),
		Embed: notify.Embed{
			Title:       fmt.Sprintf(mineTitleFmt, displayName(msg)),
			Description: b.String(),
			Color:       notify.ColorAccent,
		},
	})
}

func (g *Gateway) handleShow(ctx context.Context, msg *Inbound, args string) {
	if args == "" {
		g.replyError(ctx, msg, errNoIDForShow)
		return
	}
	if text := validateFriendlyID(args); text != "" {
		g.replyError(ctx, msg, text)
		return
	}

	reminder, err := g.store.FindFutureByFriendlyID(ctx, args)
	if err != nil {
		if remindstore.IsNotFound(err) {
			g.replyError(ctx, msg, errNoReminderByID)
			return
		}
		log.Printf("[Gateway] Failed to look up reminder %s: %v", args, err)
		g.replyError(ctx, msg, errTryAgain)
		return
	}

	now := g.now().In(g.loc)
	var b strings.Builder
	fmt.Fprintf(&b, ":hourglass: Left: %s  |  %s:\n",
		notify.Countdown(reminder.DueAt, now), notify.FormatStamp(reminder.DueAt, g.loc))
	fmt.Fprintf(&b, "Reminder `%s` by <@%s> (%s):\n```%s```\n*Created on %s.*",
		reminder.FriendlyID,
		reminder.AuthorID,
		reminderAuthor(reminder),
		orDash(reminder.NameFull),
		notify.FormatStamp(reminder.CreatedAt, g.loc))

	g.send(ctx, msg.Channel, notify.Message{
		Channel: msg.Channel,
		Text:    notify.FormatStamp(now, g.loc),
		Embed: notify.Embed{
			Title:       fmt.Sprintf(showTitleFmt, displayName(msg)),
			Description: b.String(),
			Color:       notify.ColorAccent,
		},
	})
}

func (g *Gateway) handleDelete(ctx context.Context, msg *Inbound, args string) {
	if args == "" {
		g.replyError(ctx, msg, errNoIDForDelete)
		return
	}
	if text := validateFriendlyID(args); text != "" {
		g.replyError(ctx, msg, text)
		return
	}

	reminder, err := g.store.FindFutureByFriendlyIDForAuthor(ctx, args, msg.AuthorID)
	if err != nil {
		if remindstore.IsNotFound(err) {
			g.replyError(ctx, msg, errNotYourReminder)
			return
		}
		log.Printf("[Gateway] Failed to look up reminder %s: %v", args, err)
		g.replyError(ctx, msg, errTryAgain)
		return
	}

	if err := g.store.UpdateProfileOnCancel(ctx, msg.AuthorID, reminder.ID); err != nil {
		log.Printf("[Gateway] Failed to update profile for %s: %v", msg.AuthorID, err)
		g.replyError(ctx, msg, errTryAgain)
		return
	}
	if err := g.store.DeleteFuture(ctx, reminder.ID); err != nil {
		log.Printf("[Gateway] Failed to delete reminder %s: %v", reminder.ID, err)
		g.replyError(ctx, msg, errCantRemove)
		return
	}

	g.logEvent("reminder_cancelled", map[string]interface{}{
		"reminder_id": reminder.ID,
		"friendly_id": reminder.FriendlyID,
		"author":      msg.AuthorID,
	})

	description := fmt.Sprintf("```%s```\n`%s`  created on  `%s`",
		orDash(reminder.NameFull),
		reminder.FriendlyID,
		notify.FormatStamp(reminder.CreatedAt, g.loc))
	g.send(ctx, msg.Channel, notify.Message{
		Channel: msg.Channel,
		Embed: notify.Embed{
			Title:       fmt.Sprintf(deletedTitleFmt, notify.FormatStamp(reminder.DueAt, g.loc)),
			Description: description,
			Color:       notify.ColorWarning,
		},
	})
}

func (g *Gateway) handleHelp(ctx context.Context, msg *Inbound) {
	sections := []struct{ example, help string }{
		{helpCreateExample, helpCreate},
		{helpListExample, helpList},
		{helpMineExample, helpMine},
		{helpShowExample, helpShow},
		{helpDeleteExample, helpDelete},
	}

	var b strings.Builder
	b.WriteString(helpIntro)
	for _, s := range sections {
		fmt.Fprintf(&b, "\n\n**%s**\n%s", s.example, s.help)
	}

	g.send(ctx, msg.Channel, notify.Message{
		Channel: msg.Channel,
		Embed: notify.Embed{
			Title:       helpTitle,
			Description: b.String(),
			Color:       notify.ColorInfo,
		},
	})
}

func (g *Gateway) handleDatetime(ctx context.Context, msg *Inbound) {
	g.replyInfo(ctx, msg, notify.FormatStamp(g.now(), g.loc))
}

func (g *Gateway) replyError(ctx context.Context, msg *Inbound, text string) {
	g.send(ctx, msg.Channel, notify.Message{
		Channel: msg.Channel,
		Mention: msg.AuthorID,
		Embed: notify.Embed{
			Title:       "Error",
			Description: text,
			Color:       notify.ColorError,
		},
	})
}

func (g *Gateway) replyInfo(ctx context.Context, msg *Inbound, text string) {
	g.send(ctx, msg.Channel, notify.Message{
		Channel: msg.Channel,
		Embed: notify.Embed{
			Title:       "Notification",
			Description: text,
			Color:       notify.ColorInfo,
		},
	})
}

func (g *Gateway) send(ctx context.Context, channel string, msg notify.Message) {
	if err := g.notifier.Notify(ctx, msg); err != nil {
		log.Printf("[Gateway] Failed to send reply to %s: %v", channel, err)
	}
}

// validateFriendlyID returns a user-facing rejection text, or "" when the
// candidate is acceptable.
func validateFriendlyID(candidate string) string {
	switch err := friendlyid.Validate(candidate); {
	case err == nil:
		return ""
	case errors.Is(err, friendlyid.ErrTooLong):
		return errTooLongID
	default:
		return errMultipleIDs
	}
}

// parseText maps a parser rejection to its user-facing message.
func parseText(err error) string {
	switch timeparse.KindOf(err) {
	case timeparse.KindNameTooLong:
		return errNameTooLong
	case timeparse.KindMissingSeparator:
		return errNoSeparator
	case timeparse.KindMalformedDatetime:
		return errBadDatetime
	case timeparse.KindPastDatetime:
		return errPastDatetime
	case timeparse.KindMalformedDuration:
		return errBadDuration
	case timeparse.KindAllZero:
		return errOnlyZeros
	case timeparse.KindNumberTooLarge:
		return errTooBigNumber
	default:
		return errInvalidFormat
	}
}

// quotaText maps a quota refusal to its user-facing message.
func quotaText(qe *quota.QuotaError) string {
	if qe.Kind == quota.KindTooManyActive {
		return fmt.Sprintf(errTooManyActiveTpl, qe.Limit)
	}
	return fmt.Sprintf(errThrottleTemplate, qe.Limit, formatWindow(qe.Window))
}

// formatWindow renders a throttle span the way users read it.
func formatWindow(d time.Duration) string {
	switch {
	case d >= 24*time.Hour && d%(24*time.Hour) == 0:
		return plural(int(d/(24*time.Hour)), "day")
	case d >= time.Hour && d%time.Hour == 0:
		return plural(int(d/time.Hour), "hour")
	case d >= time.Minute && d%time.Minute == 0:
		return plural(int(d/time.Minute), "minute")
	default:
		return d.String()
	}
}

func plural(n int, unit string) string {
	if n == 1 {
		return fmt.Sprintf("1 %s", unit)
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

func displayName(msg *Inbound) string {
	if msg.AuthorNick != "" {
		return msg.AuthorNick
	}
	return msg.AuthorName
}

func reminderAuthor(r *remindstore.Reminder) string {
	if r.AuthorNick != "" {
		return r.AuthorNick
	}
	return r.AuthorName
}

// logEvent logs a structured event in JSON format.
func (g *Gateway) logEvent(eventType string, data map[string]interface{}) {
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = "gateway"
	data["event_type"] = eventType

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[Gateway] Failed to marshal log event: %v", err)
		return
	}

	log.Println(string(jsonData))
}
