package remindstore

import (
	"strconv"
	"time"
)

// Serialization helpers for converting between Go structs and Redis hashes
//
// Redis stores data as string-to-string maps (hashes). Instants are stored
// as unix-millisecond integers in UTC; the store never persists a timezone.
// Callers convert to the configured local timezone for display only.

// ReminderToHash converts a Reminder struct to a Redis hash format.
func ReminderToHash(r *Reminder) map[string]interface{} {
	return map[string]interface{}{
		"id":            r.ID,
		"friendly_id":   r.FriendlyID,
		"author_id":     r.AuthorID,
		"author_name":   r.AuthorName,
		"author_nick":   r.AuthorNick,
		"origin":        r.Origin,
		"name_full":     r.NameFull,
		"name_short":    r.NameShort,
		"created_at_ms": r.CreatedAt.UnixMilli(),
		"due_at_ms":     r.DueAt.UnixMilli(),
		"done":          r.Done,
		"original_text": r.OriginalText,
	}
}

// HashToReminder converts a Redis hash to a Reminder struct.
func HashToReminder(hash map[string]string) (*Reminder, error) {
	createdAtMs, err := strconv.ParseInt(hash["created_at_ms"], 10, 64)
	if err != nil {
		return nil, &FieldError{Field: "created_at_ms", Err: err}
	}

	dueAtMs, err := strconv.ParseInt(hash["due_at_ms"], 10, 64)
	if err != nil {
		return nil, &FieldError{Field: "due_at_ms", Err: err}
	}

	// HSet writes bools as "1"/"0", JSON-ish producers write "true"/"false";
	// accept both.
	done, _ := strconv.ParseBool(hash["done"])

	reminder := &Reminder{
		ID:           hash["id"],
		FriendlyID:   hash["friendly_id"],
		AuthorID:     hash["author_id"],
		AuthorName:   hash["author_name"],
		AuthorNick:   hash["author_nick"],
		Origin:       hash["origin"],
		NameFull:     hash["name_full"],
		NameShort:    hash["name_short"],
		CreatedAt:    time.UnixMilli(createdAtMs).UTC(),
		DueAt:        time.UnixMilli(dueAtMs).UTC(),
		Done:         done,
		OriginalText: hash["original_text"],
	}

	return reminder, nil
}

// FieldError reports a hash field that could not be decoded.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return "invalid " + e.Field + " field: " + e.Err.Error()
}

func (e *FieldError) Unwrap() error {
	return e.Err
}

// DueScore converts a due instant to a schedule ZSET score.
func DueScore(due time.Time) float64 {
	return float64(due.UnixMilli())
}

// DueFromScore converts a schedule ZSET score back to a due instant (UTC).
func DueFromScore(score float64) time.Time {
	return time.UnixMilli(int64(score)).UTC()
}
