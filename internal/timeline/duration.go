package timeline

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/cartpulse/order-tracker/internal/apperr"
)

type Unit string

const (
	UnitMinute Unit = "minute"
	UnitHour   Unit = "hour"
	UnitDay    Unit = "day"
)

// Seconds per unit. Pure elapsed time, no calendar arithmetic.
var unitSeconds = map[Unit]int64{
	UnitMinute: 60,
	UnitHour:   3600,
	UnitDay:    86400,
}

// Offsets above ten years overflow time.Duration's nanosecond range
// and would wrap a compiled timeline backwards in time.
const maxOffsetSeconds int64 = 10 * 365 * 86400

// Offset is a parsed relative duration from a step template,
// e.g. "30 minutes" -> {Amount: 30, Unit: minute}.
type Offset struct {
	Amount int
	Unit   Unit
}

func (o Offset) Duration() time.Duration {
	return time.Duration(int64(o.Amount)*unitSeconds[o.Unit]) * time.Second
}

// Wire contract: existing templates depend on this exact grammar.
var durationPattern = regexp.MustCompile(`^(\d+)\s*(minute|minutes|min|hour|hours|hr|day|days|d)s?$`)

// ParseDuration parses a relative duration string such as "30 minutes",
// "2 hours" or "1 day". Anything outside the grammar fails, there is no
// best-effort coercion.
func ParseDuration(text string) (Offset, error) {
	trimmed := strings.ToLower(strings.TrimSpace(text))
	m := durationPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return Offset{}, fmt.Errorf("%w: %q must look like \"30 minutes\", \"2 hours\" or \"1 day\"", apperr.ErrInvalidDuration, text)
	}

	amount, err := strconv.Atoi(m[1])
	if err != nil || amount <= 0 {
		return Offset{}, fmt.Errorf("%w: amount in %q must be a positive integer", apperr.ErrInvalidDuration, text)
	}

	var unit Unit
	switch m[2] {
	case "minute", "minutes", "min":
		unit = UnitMinute
	case "hour", "hours", "hr":
		unit = UnitHour
	case "day", "days", "d":
		unit = UnitDay
	}

	// Compare by division so the check itself cannot overflow.
	if int64(amount) > maxOffsetSeconds/unitSeconds[unit] {
		return Offset{}, fmt.Errorf("%w: %q exceeds the 10 year maximum", apperr.ErrInvalidDuration, text)
	}

	return Offset{Amount: amount, Unit: unit}, nil
}
