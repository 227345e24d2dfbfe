// Package friendlyid generates the short user-facing reminder identifiers.
//
// A friendly id is a hashids encoding of a millisecond-resolution stamp of
// the creation instant. The encoding is reversible and deterministic, and
// the stamp has millisecond granularity, so ids are practically unique:
// two reminders created within the same millisecond can collide, which is
// an accepted risk rather than a checked condition.
package friendlyid

import (
	"errors"
	"fmt"
	"time"

	"github.com/speps/go-hashids/v2"
)

// MaxLength is the longest input accepted as a candidate friendly id.
const MaxLength = 35

// Validation failures, distinguishable with errors.Is.
var (
	ErrEmpty          = errors.New("friendly id cannot be empty")
	ErrMultipleTokens = errors.New("friendly id must be a single token")
	ErrTooLong        = errors.New("friendly id too long")
)

func encoder() (*hashids.HashID, error) {
	return hashids.NewWithData(hashids.NewData())
}

// Stamp folds a creation instant into a millisecond-resolution integer.
// Only the last digit of the year participates, so the stamp wraps every
// decade; within a wrap it is strictly increasing with time.
func Stamp(t time.Time) int64 {
	const day = 24 * 60 * 60 * 1000
	return int64(t.Year()%10)*365*31*day +
		int64(t.Month())*31*day +
		int64(t.Day())*day +
		int64(t.Hour())*60*60*1000 +
		int64(t.Minute())*60*1000 +
		int64(t.Second())*1000 +
		int64(t.Nanosecond())/int64(time.Millisecond)
}

// Encode derives a friendly id from a creation instant.
func Encode(t time.Time) (string, error) {
	h, err := encoder()
	if err != nil {
		return "", fmt.Errorf("failed to build encoder: %w", err)
	}

	id, err := h.EncodeInt64([]int64{Stamp(t)})
	if err != nil {
		return "", fmt.Errorf("failed to encode friendly id: %w", err)
	}

	return id, nil
}

// Decode recovers the stamp a friendly id was encoded from. Used for
// diagnostics; lookups go through the store by field equality.
func Decode(id string) (int64, error) {
	h, err := encoder()
	if err != nil {
		return 0, fmt.Errorf("failed to build encoder: %w", err)
	}

	nums, err := h.DecodeInt64WithError(id)
	if err != nil {
		return 0, fmt.Errorf("failed to decode friendly id %q: %w", id, err)
	}
	if len(nums) != 1 {
		return 0, fmt.Errorf("failed to decode friendly id %q: expected one number, got %d", id, len(nums))
	}

	return nums[0], nil
}

// Validate checks a user-supplied candidate friendly id: it must be a
// single token of acceptable length. Content is not checked - an unknown
// id simply won't resolve in the store.
func Validate(candidate string) error {
	if candidate == "" {
		return ErrEmpty
	}
	for _, r := range candidate {
		if r == ' ' || r == '\t' || r == '\n' {
			return ErrMultipleTokens
		}
	}
	if len(candidate) > MaxLength {
		return fmt.Errorf("%w: %d characters (max %d)", ErrTooLong, len(candidate), MaxLength)
	}
	return nil
}
