// Package duration parses human-friendly durations such as "5m", "1d",
// "1h30m" or "2 days 4h". Go's time.ParseDuration stops at hours, which is
// too small a unit for lookback windows.
package duration

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode"
)

// ErrInvalid is returned for any text that cannot be parsed.
var ErrInvalid = errors.New("invalid duration")

const (
	day  = 24 * time.Hour
	week = 7 * day
)

var units = map[string]time.Duration{
	"ns": time.Nanosecond, "nsec": time.Nanosecond,
	"us": time.Microsecond, "µs": time.Microsecond, "usec": time.Microsecond,
	"ms": time.Millisecond, "msec": time.Millisecond,
	"s": time.Second, "sec": time.Second, "secs": time.Second, "second": time.Second, "seconds": time.Second,
	"m": time.Minute, "min": time.Minute, "mins": time.Minute, "minute": time.Minute, "minutes": time.Minute,
	"h": time.Hour, "hr": time.Hour, "hrs": time.Hour, "hour": time.Hour, "hours": time.Hour,
	"d": day, "day": day, "days": day,
	"w": week, "week": week, "weeks": week,
}

// Parse converts text into a non-negative duration. Every number needs a unit;
// components are summed ("1h 30m" == 90m). Overflow is reported as an error.
func Parse(text string) (time.Duration, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return 0, fmt.Errorf("%w: empty value", ErrInvalid)
	}
	if s == "0" {
		return 0, nil
	}

	var total time.Duration
	for s != "" {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if s == "" {
			break
		}
		numEnd := strings.IndexFunc(s, func(r rune) bool { return !unicode.IsDigit(r) && r != '.' })
		if numEnd == 0 {
			return 0, fmt.Errorf("%w: %q: expected a number", ErrInvalid, text)
		}
		if numEnd < 0 {
			return 0, fmt.Errorf("%w: %q: missing unit", ErrInvalid, text)
		}
		number := s[:numEnd]
		s = strings.TrimLeftFunc(s[numEnd:], unicode.IsSpace)

		unitEnd := strings.IndexFunc(s, func(r rune) bool { return unicode.IsDigit(r) || unicode.IsSpace(r) })
		if unitEnd < 0 {
			unitEnd = len(s)
		}
		unitName := strings.ToLower(s[:unitEnd])
		s = s[unitEnd:]

		unit, ok := units[unitName]
		if !ok {
			return 0, fmt.Errorf("%w: %q: unknown unit %q", ErrInvalid, text, unitName)
		}
		value, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return 0, fmt.Errorf("%w: %q: %v", ErrInvalid, text, err)
		}
		component := value * float64(unit)
		if component >= math.MaxInt64 || float64(total)+component >= math.MaxInt64 {
			return 0, fmt.Errorf("%w: %q: value out of range", ErrInvalid, text)
		}
		total += time.Duration(component)
	}
	return total, nil
}

// Format renders d in the compact form accepted by Parse, using days for
// spans that divide evenly.
func Format(d time.Duration) string {
	if d <= 0 {
		return "0s"
	}
	if d%day == 0 {
		return strconv.FormatInt(int64(d/day), 10) + "d"
	}
	return d.String()
}
