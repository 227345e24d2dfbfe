package timeparse

import "fmt"

// Kind tags the reason a time expression was rejected. Callers branch on
// the kind, never on message content.
type Kind string

const (
	// KindMalformedCommand - empty input, too few tokens, or missing lead tokens
	KindMalformedCommand Kind = "malformed_command"

	// KindNameTooLong - input exceeds the configured maximum length
	KindNameTooLong Kind = "name_too_long"

	// KindMissingSeparator - neither "on" nor "in" appears in the input
	KindMissingSeparator Kind = "missing_separator"

	// KindMalformedDatetime - the absolute grammar's DD.MM.YY HH:MM did not parse
	KindMalformedDatetime Kind = "malformed_datetime"

	// KindPastDatetime - the absolute instant is not strictly in the future
	KindPastDatetime Kind = "past_datetime"

	// KindMalformedDuration - the relative grammar's number/unit pairs did not parse
	KindMalformedDuration Kind = "malformed_duration"

	// KindAllZero - every quantity in the relative expression is zero
	KindAllZero Kind = "all_zero"

	// KindNumberTooLarge - a quantity exceeds MaxQuantity
	KindNumberTooLarge Kind = "number_too_large"
)

// ParseError reports why a time expression was rejected. All parse errors
// are user input errors: non-retryable, surfaced verbatim to the requester.
type ParseError struct {
	Kind   Kind
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("time expression rejected: %s", e.Kind)
	}
	return fmt.Sprintf("time expression rejected: %s: %s", e.Kind, e.Detail)
}

func newError(kind Kind, format string, a ...any) *ParseError {
	return &ParseError{Kind: kind, Detail: fmt.Sprintf(format, a...)}
}

// KindOf extracts the kind from a parse error, or "" for other errors.
func KindOf(err error) Kind {
	if pe, ok := err.(*ParseError); ok {
		return pe.Kind
	}
	return ""
}
