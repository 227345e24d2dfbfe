package notify

import (
	"fmt"
	"time"
)

// StampLayout is the display format for instants in user-facing messages.
const StampLayout = "02.01.2006 15:04:05"

// FormatStamp renders an instant in the given zone for display.
func FormatStamp(t time.Time, loc *time.Location) string {
	return t.In(loc).Format(StampLayout)
}

// Countdown renders the time left until due as "H:MM:SS", with a leading
// "N days, " part for long waits. Anything not strictly in the future
// renders as "0:00:00" so overdue reminders never show a negative count.
func Countdown(due, now time.Time) string {
	left := due.Sub(now).Truncate(time.Second)
	if left <= 0 {
		return "0:00:00"
	}

	days := int(left / (24 * time.Hour))
	left -= time.Duration(days) * 24 * time.Hour
	hours := int(left / time.Hour)
	minutes := int(left/time.Minute) % 60
	seconds := int(left/time.Second) % 60

	switch {
	case days == 1:
		return fmt.Sprintf("1 day, %d:%02d:%02d", hours, minutes, seconds)
	case days > 1:
		return fmt.Sprintf("%d days, %d:%02d:%02d", days, hours, minutes, seconds)
	default:
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
}
