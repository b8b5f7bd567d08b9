// Package recurrence builds and expands the weekly rules course events repeat by.
package recurrence

import (
	"fmt"
	"strings"

	"github.com/bnema/coursecal/internal/schedule"
)

// BuildRule returns the RRULE line for a course meeting on days until
// endDate (YYYY-MM-DD), every other week when alternateWeeks is set. Inputs
// are not validated.
func BuildRule(days []string, endDate string, alternateWeeks bool) string {
	rule := fmt.Sprintf("RRULE:FREQ=WEEKLY;BYDAY=%s;UNTIL=%sT235959Z",
		strings.Join(days, ","), strings.ReplaceAll(endDate, "-", ""))
	if alternateWeeks {
		return rule + ";INTERVAL=2"
	}
	return rule
}

// ForRecord is BuildRule applied to a record's fields.
func ForRecord(rec schedule.Record) string {
	return BuildRule(rec.Days, rec.EndDate, rec.AlternateWeeks)
}
