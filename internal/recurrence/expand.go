package recurrence

import (
	"errors"
	"fmt"
	"time"

	"github.com/teambition/rrule-go"

	"github.com/bnema/coursecal/internal/schedule"
)

const localLayout = "2006-01-02 15:04"

var weekdays = map[string]rrule.Weekday{
	schedule.Monday:    rrule.MO,
	schedule.Tuesday:   rrule.TU,
	schedule.Wednesday: rrule.WE,
	schedule.Thursday:  rrule.TH,
	schedule.Friday:    rrule.FR,
	schedule.Saturday:  rrule.SA,
	schedule.Sunday:    rrule.SU,
}

// ErrNoOccurrence means a record's rule never fires between its dates.
var ErrNoOccurrence = errors.New("rule has no occurrence")

// Start returns the record's first-day start instant in loc.
func Start(rec schedule.Record, loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(localLayout, rec.StartDate+" "+rec.StartTime, loc)
}

// Options converts a record into the rrule-go equivalent of ForRecord,
// anchored at the record's start date and time in loc. UNTIL is 23:59:59 UTC
// on the end date, matching the RRULE text sent to the calendar.
func Options(rec schedule.Record, loc *time.Location) (rrule.ROption, error) {
	dtstart, err := Start(rec, loc)
	if err != nil {
		return rrule.ROption{}, fmt.Errorf("parse start of %s: %w", rec.Section, err)
	}
	end, err := time.Parse("2006-01-02", rec.EndDate)
	if err != nil {
		return rrule.ROption{}, fmt.Errorf("parse end date of %s: %w", rec.Section, err)
	}

	byDay := make([]rrule.Weekday, 0, len(rec.Days))
	for _, d := range rec.Days {
		wd, ok := weekdays[d]
		if !ok {
			return rrule.ROption{}, fmt.Errorf("unknown weekday %q in %s", d, rec.Section)
		}
		byDay = append(byDay, wd)
	}

	interval := 1
	if rec.AlternateWeeks {
		interval = 2
	}

	return rrule.ROption{
		Freq:      rrule.WEEKLY,
		Dtstart:   dtstart,
		Interval:  interval,
		Byweekday: byDay,
		Until:     time.Date(end.Year(), end.Month(), end.Day(), 23, 59, 59, 0, time.UTC),
	}, nil
}

// Occurrences lists every meeting start of the record.
func Occurrences(rec schedule.Record, loc *time.Location) ([]time.Time, error) {
	opt, err := Options(rec, loc)
	if err != nil {
		return nil, err
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return nil, fmt.Errorf("build rule for %s: %w", rec.Section, err)
	}
	return r.All(), nil
}

// FirstOccurrence returns the first meeting start on or after the record's
// start date. Registration exports give the term start, which often is not
// a meeting day.
func FirstOccurrence(rec schedule.Record, loc *time.Location) (time.Time, error) {
	opt, err := Options(rec, loc)
	if err != nil {
		return time.Time{}, err
	}
	r, err := rrule.NewRRule(opt)
	if err != nil {
		return time.Time{}, fmt.Errorf("build rule for %s: %w", rec.Section, err)
	}
	first := r.After(opt.Dtstart, true)
	if first.IsZero() {
		return time.Time{}, fmt.Errorf("%s: %w", rec.Section, ErrNoOccurrence)
	}
	return first, nil
}
