package calendar

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	_ "time/tzdata"

	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/bnema/coursecal/internal/schedule"
)

type staticTokens struct {
	token string
	err   error
	calls int
}

func (s *staticTokens) AccessToken(_ context.Context, _ bool) (string, error) {
	s.calls++
	return s.token, s.err
}

type fakeAPI struct {
	mu          sync.Mutex
	createErr   error
	failSection map[string]error
	calendars   []string
	events      []*gcal.Event
}

func (f *fakeAPI) CreateCalendar(_ context.Context, summary, timeZone string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return "", f.createErr
	}
	f.calendars = append(f.calendars, summary+"|"+timeZone)
	return "cal-1", nil
}

func (f *fakeAPI) InsertEvent(_ context.Context, calendarID string, event *gcal.Event) (*gcal.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
	if err := f.failSection[event.Summary]; err != nil {
		return nil, err
	}
	created := *event
	created.HtmlLink = "https://calendar.example/" + calendarID + "/" + event.Summary
	return &created, nil
}

func (f *fakeAPI) factory(token *string) APIFactory {
	return func(_ context.Context, accessToken string) (API, error) {
		if token != nil {
			*token = accessToken
		}
		return f, nil
	}
}

func sampleRecords(sections ...string) []schedule.Record {
	records := make([]schedule.Record, 0, len(sections))
	for _, section := range sections {
		records = append(records, schedule.Record{
			Section:   section,
			StartDate: "2024-01-09",
			EndDate:   "2024-04-12",
			Days:      []string{schedule.Monday, schedule.Wednesday},
			StartTime: "09:00",
			EndTime:   "10:00",
			Location:  "Room 101",
		})
	}
	return records
}

func TestSyncCreatesCalendarAndEvents(t *testing.T) {
	api := &fakeAPI{}
	var usedToken string
	s, err := NewSyncer(&staticTokens{token: "tok"}, api.factory(&usedToken), SyncOptions{})
	if err != nil {
		t.Fatalf("NewSyncer() error = %v", err)
	}

	report, err := s.Sync(context.Background(), sampleRecords("CPSC 110 101", "MATH 100 202"))
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}

	if usedToken != "tok" {
		t.Errorf("API opened with token %q, want tok", usedToken)
	}
	if len(api.calendars) != 1 || api.calendars[0] != "UBC Courses|America/Vancouver" {
		t.Errorf("calendars = %v, want one UBC Courses in America/Vancouver", api.calendars)
	}
	if report.CalendarID != "cal-1" || report.Created != 2 || len(report.Failures) != 0 {
		t.Errorf("report = %+v", report)
	}
	if report.RunID == "" {
		t.Error("report has no run ID")
	}

	ev := api.events[0]
	if ev.Summary != "CPSC 110 101" || ev.Location != "Room 101" {
		t.Errorf("event summary/location = %q/%q", ev.Summary, ev.Location)
	}
	if ev.Start.DateTime != "2024-01-09T09:00:00" || ev.End.DateTime != "2024-01-09T10:00:00" {
		t.Errorf("event times = %s - %s", ev.Start.DateTime, ev.End.DateTime)
	}
	if ev.Start.TimeZone != "America/Vancouver" || ev.End.TimeZone != "America/Vancouver" {
		t.Errorf("event time zones = %s/%s", ev.Start.TimeZone, ev.End.TimeZone)
	}
	want := "RRULE:FREQ=WEEKLY;BYDAY=MO,WE;UNTIL=20240412T235959Z"
	if len(ev.Recurrence) != 1 || ev.Recurrence[0] != want {
		t.Errorf("recurrence = %v, want [%s]", ev.Recurrence, want)
	}
}

func TestSyncAuthenticationFailure(t *testing.T) {
	api := &fakeAPI{}
	opened := false
	factory := func(context.Context, string) (API, error) {
		opened = true
		return api, nil
	}

	for _, tokens := range []*staticTokens{
		{err: errors.New("consent denied")},
		{token: ""},
	} {
		s, err := NewSyncer(tokens, factory, SyncOptions{})
		if err != nil {
			t.Fatalf("NewSyncer() error = %v", err)
		}
		_, err = s.Sync(context.Background(), sampleRecords("CPSC 110 101"))
		var authErr *AuthenticationError
		if !errors.As(err, &authErr) {
			t.Fatalf("Sync() error = %v, want AuthenticationError", err)
		}
	}

	if opened || len(api.calendars) != 0 || len(api.events) != 0 {
		t.Error("API was used despite authentication failure")
	}
}

func TestSyncCalendarCreationFailure(t *testing.T) {
	api := &fakeAPI{createErr: &googleapi.Error{Code: 403, Body: `{"error":"forbidden"}`}}
	s, err := NewSyncer(&staticTokens{token: "tok"}, api.factory(nil), SyncOptions{})
	if err != nil {
		t.Fatalf("NewSyncer() error = %v", err)
	}

	report, err := s.Sync(context.Background(), sampleRecords("CPSC 110 101", "MATH 100 202"))
	var createErr *CalendarCreationError
	if !errors.As(err, &createErr) {
		t.Fatalf("Sync() error = %v, want CalendarCreationError", err)
	}
	if createErr.Body != `{"error":"forbidden"}` {
		t.Errorf("body = %q", createErr.Body)
	}
	if len(api.events) != 0 || report.Created != 0 {
		t.Errorf("events sent after calendar failure: %d", len(api.events))
	}
}

func TestSyncBestEffortCollectsFailures(t *testing.T) {
	api := &fakeAPI{failSection: map[string]error{
		"MATH 100 202": &googleapi.Error{Code: 400, Body: "bad recurrence"},
	}}
	s, err := NewSyncer(&staticTokens{token: "tok"}, api.factory(nil), SyncOptions{})
	if err != nil {
		t.Fatalf("NewSyncer() error = %v", err)
	}

	report, err := s.Sync(context.Background(), sampleRecords("CPSC 110 101", "MATH 100 202", "PHYS 117 101"))
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if len(api.events) != 3 {
		t.Errorf("attempted %d events, want 3", len(api.events))
	}
	if report.Created != 2 || len(report.Failures) != 1 {
		t.Fatalf("report = %+v", report)
	}
	failure := report.Failures[0]
	if failure.Index != 1 || failure.Section != "MATH 100 202" || failure.Body != "bad recurrence" {
		t.Errorf("failure = %+v", failure)
	}
}

func TestSyncAbortStopsAtFirstFailure(t *testing.T) {
	api := &fakeAPI{failSection: map[string]error{
		"MATH 100 202": errors.New("boom"),
	}}
	s, err := NewSyncer(&staticTokens{token: "tok"}, api.factory(nil), SyncOptions{FailurePolicy: AbortOnFailure})
	if err != nil {
		t.Fatalf("NewSyncer() error = %v", err)
	}

	report, err := s.Sync(context.Background(), sampleRecords("CPSC 110 101", "MATH 100 202", "PHYS 117 101"))
	var eventErr *EventCreationError
	if !errors.As(err, &eventErr) || eventErr.Index != 1 {
		t.Fatalf("Sync() error = %v, want EventCreationError for index 1", err)
	}
	if len(api.events) != 2 {
		t.Errorf("attempted %d events, want 2", len(api.events))
	}
	if report.Created != 1 || len(report.Failures) != 1 {
		t.Errorf("report = %+v", report)
	}
}

func TestSyncWorkersCreateAllEvents(t *testing.T) {
	api := &fakeAPI{}
	s, err := NewSyncer(&staticTokens{token: "tok"}, api.factory(nil), SyncOptions{Workers: 4})
	if err != nil {
		t.Fatalf("NewSyncer() error = %v", err)
	}

	sections := []string{"A 1", "B 2", "C 3", "D 4", "E 5", "F 6", "G 7"}
	report, err := s.Sync(context.Background(), sampleRecords(sections...))
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if report.Created != len(sections) || len(api.events) != len(sections) {
		t.Errorf("created %d, sent %d, want %d", report.Created, len(api.events), len(sections))
	}
}

func TestSyncCanceledContext(t *testing.T) {
	api := &fakeAPI{}
	s, err := NewSyncer(&staticTokens{token: "tok"}, api.factory(nil), SyncOptions{})
	if err != nil {
		t.Fatalf("NewSyncer() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = s.Sync(ctx, sampleRecords("CPSC 110 101"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Sync() error = %v, want context.Canceled", err)
	}
	if len(api.events) != 0 {
		t.Errorf("sent %d events after cancel", len(api.events))
	}
}

func TestSyncAlignFirstOccurrence(t *testing.T) {
	api := &fakeAPI{}
	s, err := NewSyncer(&staticTokens{token: "tok"}, api.factory(nil), SyncOptions{AlignFirstOccurrence: true})
	if err != nil {
		t.Fatalf("NewSyncer() error = %v", err)
	}

	// 2024-01-09 is a Tuesday; the first MO/WE meeting is 2024-01-10.
	if _, err := s.Sync(context.Background(), sampleRecords("CPSC 110 101")); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if got := api.events[0].Start.DateTime; got != "2024-01-10T09:00:00" {
		t.Errorf("start = %s, want 2024-01-10T09:00:00", got)
	}
}

func TestNewSyncerRejectsBadOptions(t *testing.T) {
	api := &fakeAPI{}
	tokens := &staticTokens{token: "tok"}

	if _, err := NewSyncer(tokens, api.factory(nil), SyncOptions{FailurePolicy: "sometimes"}); err == nil {
		t.Error("unknown failure policy accepted")
	}
	if _, err := NewSyncer(tokens, api.factory(nil), SyncOptions{TimeZone: "Mars/Olympus"}); err == nil {
		t.Error("unknown time zone accepted")
	}
	if _, err := NewSyncer(nil, api.factory(nil), SyncOptions{}); err == nil {
		t.Error("nil token provider accepted")
	}
}

func TestEventCreationErrorMessage(t *testing.T) {
	err := &EventCreationError{Section: "CPSC 110 101", Body: "quota exceeded"}
	if !strings.Contains(err.Error(), "CPSC 110 101") || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("Error() = %q", err.Error())
	}
}
