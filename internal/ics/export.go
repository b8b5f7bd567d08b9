// Package ics renders course records as an iCalendar file, for calendar
// apps that import .ics instead of going through the Google API.
package ics

import (
	"fmt"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/bnema/coursecal/internal/recurrence"
	"github.com/bnema/coursecal/internal/schedule"
)

const productID = "-//coursecal//course schedule//EN"

type Options struct {
	CalendarName string
	TimeZone     string
	// AlignFirstOccurrence starts each event on its first meeting day.
	AlignFirstOccurrence bool
	// Now stamps DTSTAMP; zero means time.Now.
	Now time.Time
}

// Export builds one VCALENDAR holding a recurring VEVENT per record. Times
// are local wall-clock values tagged with TZID, and each event carries the
// same RRULE the calendar sync sends.
func Export(records []schedule.Record, opts Options) (string, error) {
	loc, err := time.LoadLocation(opts.TimeZone)
	if err != nil {
		return "", fmt.Errorf("invalid time zone %q: %w", opts.TimeZone, err)
	}
	stamp := opts.Now
	if stamp.IsZero() {
		stamp = time.Now()
	}

	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(productID)
	cal.SetXWRCalName(opts.CalendarName)
	cal.SetXWRTimezone(opts.TimeZone)

	tzid := &ical.KeyValues{Key: string(ical.ParameterTzid), Value: []string{opts.TimeZone}}

	for i, rec := range records {
		firstDate := rec.StartDate
		if opts.AlignFirstOccurrence {
			first, err := recurrence.FirstOccurrence(rec, loc)
			if err != nil {
				return "", fmt.Errorf("record %d: %w", i, err)
			}
			firstDate = first.Format("2006-01-02")
		}

		event := cal.AddEvent(eventUID(i, rec))
		event.SetDtStampTime(stamp)
		event.SetSummary(rec.Section)
		if rec.Location != "" {
			event.SetLocation(rec.Location)
		}
		event.SetProperty(ical.ComponentPropertyDtStart, localStamp(firstDate, rec.StartTime), tzid)
		event.SetProperty(ical.ComponentPropertyDtEnd, localStamp(firstDate, rec.EndTime), tzid)
		event.AddProperty(ical.ComponentPropertyRrule, strings.TrimPrefix(recurrence.ForRecord(rec), "RRULE:"))
	}

	return cal.Serialize(), nil
}

// localStamp turns "2024-01-09" and "09:00" into 20240109T090000.
func localStamp(date, clock string) string {
	return strings.ReplaceAll(date, "-", "") + "T" + strings.ReplaceAll(clock, ":", "") + "00"
}

func eventUID(i int, rec schedule.Record) string {
	section := strings.Join(strings.Fields(rec.Section), "-")
	return fmt.Sprintf("%d-%s-%s@coursecal", i, section, strings.ReplaceAll(rec.StartDate, "-", ""))
}
