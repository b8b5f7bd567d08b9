package schedule

import (
	"fmt"
	"strings"
	"time"

	"github.com/bnema/coursecal/internal/logger"
)

const (
	fieldSeparator       = " | "
	rangeSeparator       = " - "
	alternateWeeksMarker = "(Alternate weeks)"
	isoDate              = "2006-01-02"
)

var weekdayCodes = map[string]string{
	"Mon": Monday,
	"Tue": Tuesday,
	"Wed": Wednesday,
	"Thu": Thursday,
	"Fri": Friday,
	"Sat": Saturday,
	"Sun": Sunday,
}

// dateLayouts are the date spellings seen in registration exports.
var dateLayouts = []string{
	isoDate,
	"Jan 2, 2006",
	"January 2, 2006",
	"1/2/2006",
	"2006/01/02",
}

// ParseMeetingPattern reads one meeting pattern cell line, e.g.
//
//	2024-01-08 - 2024-04-12 | Mon Wed Fri | 10:00 a.m. - 11:00 a.m. | Room 200
//
// and returns a single record for it. A pattern that cannot be read yields
// no records and a *PatternError saying why. A time or date that cannot be
// normalized rejects the pattern, so the 00:00 sentinel never ships in a record.
func ParseMeetingPattern(pattern, section string) (records []Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			records = nil
			err = invalidPattern(pattern, fmt.Sprintf("unexpected failure: %v", r))
			logger.Error("meeting pattern parser panicked", "pattern", pattern, "panic", r)
		}
	}()

	var parts []string
	for _, p := range strings.Split(pattern, fieldSeparator) {
		if strings.TrimSpace(p) != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) < 3 {
		return nil, invalidPattern(pattern, "expected date range, days and time range")
	}

	dateRange, dayList, timeRange := parts[0], parts[1], parts[2]
	location := ""
	if len(parts) > 3 {
		// Locations may themselves contain the separator.
		location = strings.TrimSpace(strings.Join(parts[3:], fieldSeparator))
	}

	startRaw, endRaw := splitRange(timeRange)
	startRaw, endRaw = SanitizeTime(startRaw), SanitizeTime(endRaw)
	if startRaw == "" || endRaw == "" {
		return nil, invalidPattern(pattern, fmt.Sprintf("invalid time range %q", timeRange))
	}
	startTime, err := ToTwentyFourHour(startRaw)
	if err != nil {
		return nil, invalidPattern(pattern, "invalid start time").WithCause(err)
	}
	endTime, err := ToTwentyFourHour(endRaw)
	if err != nil {
		return nil, invalidPattern(pattern, "invalid end time").WithCause(err)
	}

	days := parseDays(dayList)
	if len(days) == 0 {
		return nil, invalidPattern(pattern, fmt.Sprintf("no weekdays in %q", dayList))
	}

	startRaw, endRaw = splitRange(dateRange)
	if startRaw == "" || endRaw == "" {
		return nil, invalidPattern(pattern, fmt.Sprintf("invalid date range %q", dateRange))
	}
	startDate, err := normalizeDate(startRaw)
	if err != nil {
		return nil, invalidPattern(pattern, "invalid start date").WithCause(err)
	}
	endDate, err := normalizeDate(endRaw)
	if err != nil {
		return nil, invalidPattern(pattern, "invalid end date").WithCause(err)
	}

	rec := Record{
		Section:        section,
		StartDate:      startDate,
		EndDate:        endDate,
		Days:           days,
		AlternateWeeks: strings.Contains(dayList, alternateWeeksMarker),
		StartTime:      startTime,
		EndTime:        endTime,
		Location:       location,
	}
	if err := rec.Validate(); err != nil {
		return nil, invalidPattern(pattern, "record failed validation").WithCause(err)
	}

	return []Record{rec}, nil
}

// splitRange splits "a - b" into trimmed halves; a missing half is empty.
func splitRange(s string) (string, string) {
	fields := strings.Split(s, rangeSeparator)
	start := strings.TrimSpace(fields[0])
	if len(fields) < 2 {
		return start, ""
	}
	return start, strings.TrimSpace(fields[1])
}

// parseDays maps "Mon Wed Fri" to [MO WE FR]. Unknown tokens, including the
// alternate weeks marker, are dropped.
func parseDays(s string) []string {
	var days []string
	for _, token := range strings.Split(s, " ") {
		if code, ok := weekdayCodes[token]; ok {
			days = append(days, code)
		}
	}
	return days
}

func normalizeDate(s string) (string, error) {
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.Format(isoDate), nil
		}
	}
	return "", fmt.Errorf("unrecognized date %q", s)
}
