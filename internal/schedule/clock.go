package schedule

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/bnema/coursecal/internal/logger"
)

// MidnightSentinel is returned alongside an error when a time cannot be read.
const MidnightSentinel = "00:00"

var (
	timeNoise = regexp.MustCompile(`[^\d:APMapm\s]`)
	meridiem  = regexp.MustCompile(`(?i)[AP]\.?(?:M\.?)?`)
)

// SanitizeTime drops everything but digits, colons, meridiem letters and
// whitespace.
func SanitizeTime(raw string) string {
	return strings.TrimSpace(timeNoise.ReplaceAllString(raw, ""))
}

// ToTwentyFourHour converts a 12-hour clock reading such as "1:15 P.M." into
// "13:15". On failure it returns MidnightSentinel and an error wrapping
// ErrInvalidTime; it never panics.
func ToTwentyFourHour(raw string) (string, error) {
	s := SanitizeTime(raw)
	if s == "" {
		return timeFailure(raw, "empty time")
	}

	loc := meridiem.FindStringIndex(s)
	if loc == nil {
		return timeFailure(raw, "no AM/PM marker")
	}
	pm := strings.ContainsAny(s[loc[0]:loc[1]], "Pp")
	rest := strings.TrimSpace(s[:loc[0]] + s[loc[1]:])

	fields := strings.Split(rest, ":")
	if len(fields) < 2 {
		return timeFailure(raw, "expected hour:minute")
	}
	hour, err := strconv.Atoi(strings.TrimSpace(fields[0]))
	if err != nil {
		return timeFailure(raw, "hour is not a number")
	}
	minute, err := strconv.Atoi(strings.TrimSpace(fields[1]))
	if err != nil {
		return timeFailure(raw, "minute is not a number")
	}

	switch {
	case pm && hour < 12:
		hour += 12
	case !pm && hour == 12:
		hour = 0
	}

	return fmt.Sprintf("%02d:%02d", hour, minute), nil
}

func timeFailure(raw, reason string) (string, error) {
	logger.Warn("could not normalize time", "input", raw, "reason", reason)
	return MidnightSentinel, fmt.Errorf("%w %q: %s", ErrInvalidTime, raw, reason)
}
