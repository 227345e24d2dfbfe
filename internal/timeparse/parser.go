// Package timeparse turns the free-text tail of a reminder request into a
// concrete due instant. Two grammars are supported, selected by the rightmost
// separator token:
//
//	remind me of <name> on DD.MM.YY HH:MM        absolute, in the configured zone
//	remind me of <name> in <n> <unit> [and] ...  relative offset from now
//
// Rejections carry a typed Kind so callers can pick the right user-facing
// message without string matching.
package timeparse

import (
	"strconv"
	"strings"
	"time"
)

const (
	// DefaultMaxInputLength bounds the raw expression, lead tokens included.
	DefaultMaxInputLength = 900

	// MaxQuantity is the largest value accepted for a single relative quantity.
	MaxQuantity = 500_000_000

	// MaxYears silently caps the year component of a relative offset.
	MaxYears = 20

	// absoluteLayout is the only accepted absolute form. Two-digit years
	// resolve per time.Parse convention (69-99 -> 19xx, 00-68 -> 20xx).
	absoluteLayout = "02.01.06 15:04"

	// minTokens: "me of <name> <sep> <expr>" needs at least five fields.
	minTokens = 5
)

// unitSynonyms maps every accepted unit word to its canonical category.
var unitSynonyms = map[string]string{
	"y": "years", "year": "years", "years": "years",
	"mth": "months", "month": "months", "months": "months",
	"d": "days", "day": "days", "days": "days",
	"h": "hours", "hour": "hours", "hours": "hours",
	"m": "minutes", "min": "minutes", "mins": "minutes", "minute": "minutes", "minutes": "minutes",
	"s": "seconds", "sec": "seconds", "secs": "seconds", "second": "seconds", "seconds": "seconds",
}

// Parser converts reminder time expressions into due instants.
// The zero value is not usable; construct with New.
type Parser struct {
	// Location is the zone absolute datetimes are interpreted in, and the
	// zone "now" is taken in for the past-instant check.
	Location *time.Location

	// MaxInputLength bounds the raw expression length.
	MaxInputLength int

	// Now supplies the current instant. Overridable in tests.
	Now func() time.Time
}

// New returns a Parser for the given zone with default limits.
func New(loc *time.Location) *Parser {
	return &Parser{
		Location:       loc,
		MaxInputLength: DefaultMaxInputLength,
		Now:            time.Now,
	}
}

func (p *Parser) now() time.Time {
	if p.Now != nil {
		return p.Now().In(p.Location)
	}
	return time.Now().In(p.Location)
}

// Parse validates an expression of the form "me of <name> on|in <time>" and
// returns the reminder name and its due instant. The name is the tokens
// between the lead pair and the rightmost separator, joined by single spaces.
// All returned errors are *ParseError.
func (p *Parser) Parse(input string) (string, time.Time, error) {
	if strings.TrimSpace(input) == "" {
		return "", time.Time{}, newError(KindMalformedCommand, "empty expression")
	}
	if max := p.MaxInputLength; max > 0 && len(input) > max {
		return "", time.Time{}, newError(KindNameTooLong, "expression is %d chars, limit %d", len(input), max)
	}

	tokens := strings.Fields(input)
	if len(tokens) < minTokens {
		return "", time.Time{}, newError(KindMalformedCommand, "expected at least %d tokens, got %d", minTokens, len(tokens))
	}
	if !strings.EqualFold(tokens[0], "me") || !strings.EqualFold(tokens[1], "of") {
		return "", time.Time{}, newError(KindMalformedCommand, "expression must start with %q", "me of")
	}

	// The rightmost separator wins, so names may themselves contain
	// "on" or "in" without ambiguity.
	sepIdx, absolute := -1, false
	for i := len(tokens) - 1; i >= 2; i-- {
		if strings.EqualFold(tokens[i], "on") {
			sepIdx, absolute = i, true
			break
		}
		if strings.EqualFold(tokens[i], "in") {
			sepIdx, absolute = i, false
			break
		}
	}
	if sepIdx < 0 {
		return "", time.Time{}, newError(KindMissingSeparator, "no %q or %q separator found", "on", "in")
	}

	name := strings.Join(tokens[2:sepIdx], " ")
	exprTokens := tokens[sepIdx+1:]

	var (
		due time.Time
		err error
	)
	if absolute {
		due, err = p.parseAbsolute(exprTokens)
	} else {
		due, err = p.parseRelative(exprTokens)
	}
	if err != nil {
		return "", time.Time{}, err
	}
	return name, due, nil
}

func (p *Parser) parseAbsolute(tokens []string) (time.Time, error) {
	expr := strings.Join(tokens, " ")
	due, err := time.ParseInLocation(absoluteLayout, expr, p.Location)
	if err != nil {
		return time.Time{}, newError(KindMalformedDatetime, "%q does not match DD.MM.YY HH:MM", expr)
	}
	if !due.After(p.now()) {
		return time.Time{}, newError(KindPastDatetime, "%q is not in the future", expr)
	}
	return due, nil
}

func (p *Parser) parseRelative(tokens []string) (time.Time, error) {
	// "and" is filler, dropped before pairing.
	pairs := make([]string, 0, len(tokens))
	for _, tok := range tokens {
		if !strings.EqualFold(tok, "and") {
			pairs = append(pairs, tok)
		}
	}
	if len(pairs) == 0 {
		return time.Time{}, newError(KindMalformedDuration, "no duration given")
	}
	if len(pairs)%2 != 0 {
		return time.Time{}, newError(KindMalformedDuration, "dangling token %q", pairs[len(pairs)-1])
	}

	sums := map[string]int64{}
	for i := 0; i < len(pairs); i += 2 {
		numTok, unitTok := pairs[i], pairs[i+1]
		if !isDigits(numTok) {
			return time.Time{}, newError(KindMalformedDuration, "expected a number, got %q", numTok)
		}
		unit, ok := unitSynonyms[strings.ToLower(unitTok)]
		if !ok {
			return time.Time{}, newError(KindMalformedDuration, "unknown unit %q", unitTok)
		}
		n, err := strconv.ParseInt(numTok, 10, 64)
		if err != nil || n > MaxQuantity {
			return time.Time{}, newError(KindNumberTooLarge, "%q exceeds the %d limit", numTok, MaxQuantity)
		}
		sums[unit] += n
	}

	var total int64
	for _, n := range sums {
		total += n
	}
	if total == 0 {
		return time.Time{}, newError(KindAllZero, "duration adds up to zero")
	}

	years := sums["years"]
	if years > MaxYears {
		years = MaxYears
	}

	// Fold the sub-day sums into whole days so the residual Duration stays
	// far below the int64 nanosecond range even at MaxQuantity per pair.
	seconds := sums["seconds"]
	minutes := sums["minutes"] + seconds/60
	seconds %= 60
	hours := sums["hours"] + minutes/60
	minutes %= 60
	days := sums["days"] + hours/24
	hours %= 24

	due := p.now().
		AddDate(int(years), int(sums["months"]), int(days)).
		Add(time.Duration(hours)*time.Hour +
			time.Duration(minutes)*time.Minute +
			time.Duration(seconds)*time.Second)
	return due, nil
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
