// Package timespec parses the CLI's due-window flags into concrete instants.
package timespec

import (
	"fmt"
	"time"
)

// Parse parses a time specification into an instant.
// Supports three formats:
//   - Go duration format: "1h", "30m", "1h30m" (relative, ahead of now)
//   - RFC3339 timestamps: "2026-10-29T13:00:00Z"
//   - The bot's own datetime form: "29.10.26 13:00", in the given zone
//
// Duration specifications are added to the current time: "1h" means
// "one hour from now".
func Parse(spec string, loc *time.Location) (time.Time, error) {
	if spec == "" {
		return time.Time{}, fmt.Errorf("empty time specification")
	}

	if t, err := time.Parse(time.RFC3339, spec); err == nil {
		return t, nil
	}

	if t, err := time.ParseInLocation("02.01.06 15:04", spec, loc); err == nil {
		return t, nil
	}

	if d, err := time.ParseDuration(spec); err == nil {
		return time.Now().Add(d), nil
	}

	return time.Time{}, fmt.Errorf("invalid time specification: %s (use a duration like '1h30m', RFC3339, or 'DD.MM.YY HH:MM')", spec)
}

// ParseRange parses both --due-after and --due-before flags into a window.
// Zero values indicate "no bound" for that end of the window.
//
// Validates that after < before if both are specified.
func ParseRange(after, before string, loc *time.Location) (time.Time, time.Time, error) {
	var afterT, beforeT time.Time
	var err error

	if after != "" {
		afterT, err = Parse(after, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --due-after: %w", err)
		}
	}

	if before != "" {
		beforeT, err = Parse(before, loc)
		if err != nil {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid --due-before: %w", err)
		}
	}

	if !afterT.IsZero() && !beforeT.IsZero() && !afterT.Before(beforeT) {
		return time.Time{}, time.Time{}, fmt.Errorf("--due-after must be before --due-before")
	}

	return afterT, beforeT, nil
}
