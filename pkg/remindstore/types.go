package remindstore

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// ShortNameLimit is the length at which a reminder name is truncated for
// list views. Longer names get an ellipsis marker appended.
const ShortNameLimit = 50

// Reminder represents one scheduled reminder document. The store assigns ID;
// everything else is captured at creation time and never mutated afterwards.
// Done is informational - the authoritative state is which set (future or
// past) the document currently lives in.
type Reminder struct {
	ID           string    `json:"id"`            // UUID - store-assigned identifier
	FriendlyID   string    `json:"friendly_id"`   // short user-facing id derived from CreatedAt
	AuthorID     string    `json:"author_id"`     // chat-platform user id of the creator
	AuthorName   string    `json:"author_name"`   // account name at creation time
	AuthorNick   string    `json:"author_nick"`   // display nickname at creation time (may be empty)
	Origin       string    `json:"origin"`        // server/channel name the command came from
	NameFull     string    `json:"name_full"`     // full reminder text (may be empty)
	NameShort    string    `json:"name_short"`    // truncated form used in list views
	CreatedAt    time.Time `json:"created_at"`    // creation instant, stored UTC
	DueAt        time.Time `json:"due_at"`        // delivery instant, stored UTC
	Done         bool      `json:"done"`          // set when copied into the past-set
	OriginalText string    `json:"original_text"` // verbatim command input, for audit
}

// ShortName truncates a reminder name for list display. The limit counts
// characters, not bytes, so multi-byte names are never cut mid-rune.
func ShortName(name string) string {
	runes := []rune(name)
	if len(runes) > ShortNameLimit {
		return string(runes[:ShortNameLimit]) + " [...]"
	}
	return name
}

// Validate checks if the Reminder has valid field values.
// Returns an error if any validation fails.
func (r *Reminder) Validate() error {
	if !isValidUUID(r.ID) {
		return fmt.Errorf("invalid reminder ID: not a valid UUID")
	}

	if r.FriendlyID == "" {
		return fmt.Errorf("friendly ID cannot be empty")
	}

	if r.AuthorID == "" {
		return fmt.Errorf("author ID cannot be empty")
	}

	if r.CreatedAt.IsZero() {
		return fmt.Errorf("created_at cannot be zero")
	}

	if r.DueAt.IsZero() {
		return fmt.Errorf("due_at cannot be zero")
	}

	return nil
}

// UserProfile aggregates reminder history for one author. Profiles are
// created lazily on first reminder creation and never deleted.
//
// FutureCount and PastCount are denormalized counters; they match the
// lengths of FutureIDs and the author's archived reminders except for
// transient drift after a partially-failed scheduler cycle.
type UserProfile struct {
	AuthorID    string   `json:"author_id"`
	FutureCount int64    `json:"future_count"`
	PastCount   int64    `json:"past_count"`
	FutureIDs   []string `json:"future_ids"` // outstanding reminder ids, oldest first
	AllIDs      []string `json:"all_ids"`    // every reminder id ever created, oldest first
}

// isValidUUID checks if a string is a valid UUID format.
func isValidUUID(s string) bool {
	_, err := uuid.Parse(s)
	return err == nil
}
