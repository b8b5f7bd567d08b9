package calendar

import (
	gcal "google.golang.org/api/calendar/v3"

	"github.com/bnema/coursecal/internal/recurrence"
	"github.com/bnema/coursecal/internal/schedule"
)

// NewEvent builds the recurring event for one course record. firstDate is
// the local date of the first meeting; it is the record's start date unless
// the caller aligned it to a meeting day.
func NewEvent(rec schedule.Record, firstDate, timeZone string) *gcal.Event {
	return &gcal.Event{
		Summary:  rec.Section,
		Location: rec.Location,
		Start: &gcal.EventDateTime{
			DateTime: localDateTime(firstDate, rec.StartTime),
			TimeZone: timeZone,
		},
		End: &gcal.EventDateTime{
			DateTime: localDateTime(firstDate, rec.EndTime),
			TimeZone: timeZone,
		},
		Recurrence: []string{recurrence.ForRecord(rec)},
	}
}

// localDateTime is the wall-clock form YYYY-MM-DDTHH:MM:SS; the zone is
// declared separately in EventDateTime.TimeZone.
func localDateTime(date, clock string) string {
	return date + "T" + clock + ":00"
}
