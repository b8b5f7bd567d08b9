package calendar

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/oklog/ulid/v2"
	"golang.org/x/sync/errgroup"
	gcal "google.golang.org/api/calendar/v3"

	"github.com/bnema/coursecal/internal/logger"
	"github.com/bnema/coursecal/internal/recurrence"
	"github.com/bnema/coursecal/internal/schedule"
)

// FailurePolicy decides what a rejected event does to the rest of a sync.
type FailurePolicy string

const (
	// BestEffort keeps going and lists every failure in the report.
	BestEffort FailurePolicy = "best_effort"
	// AbortOnFailure stops at the first rejected event.
	AbortOnFailure FailurePolicy = "abort"
)

// SyncOptions tunes a Syncer. Zero values select the defaults.
type SyncOptions struct {
	CalendarName  string
	TimeZone      string
	FailurePolicy FailurePolicy
	// Workers bounds concurrent event inserts; 1 submits them in order,
	// each after the previous one finished.
	Workers int
	// AlignFirstOccurrence moves each event's first instance from the
	// record's start date to its first meeting day.
	AlignFirstOccurrence bool
	// Interactive lets the token provider ask the user for consent.
	Interactive bool
}

// EventFailure describes one event the service rejected.
type EventFailure struct {
	Index   int    `json:"index" yaml:"index"`
	Section string `json:"section" yaml:"section"`
	Error   string `json:"error" yaml:"error"`
	Body    string `json:"body,omitempty" yaml:"body,omitempty"`
}

// Report summarizes a sync run.
type Report struct {
	RunID      string         `json:"run_id" yaml:"run_id"`
	CalendarID string         `json:"calendar_id,omitempty" yaml:"calendar_id,omitempty"`
	Created    int            `json:"created" yaml:"created"`
	Failures   []EventFailure `json:"failures" yaml:"failures"`
}

// Syncer creates the course calendar and fills it with one recurring event
// per record.
type Syncer struct {
	tokens TokenProvider
	newAPI APIFactory
	opts   SyncOptions
	loc    *time.Location
}

func NewSyncer(tokens TokenProvider, newAPI APIFactory, opts SyncOptions) (*Syncer, error) {
	if tokens == nil || newAPI == nil {
		return nil, errors.New("syncer needs a token provider and an API factory")
	}
	if opts.CalendarName == "" {
		opts.CalendarName = DefaultCalendarName
	}
	if opts.TimeZone == "" {
		opts.TimeZone = DefaultTimeZone
	}
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	switch opts.FailurePolicy {
	case "":
		opts.FailurePolicy = BestEffort
	case BestEffort, AbortOnFailure:
	default:
		return nil, fmt.Errorf("unknown failure policy %q", opts.FailurePolicy)
	}

	loc, err := time.LoadLocation(opts.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("invalid time zone %q: %w", opts.TimeZone, err)
	}

	return &Syncer{tokens: tokens, newAPI: newAPI, opts: opts, loc: loc}, nil
}

// Sync obtains a token, creates one calendar and inserts an event for each
// record in order. Authentication and calendar creation failures stop the
// run before any event is sent. Event failures are collected in the report
// and only returned as an error under AbortOnFailure.
func (s *Syncer) Sync(ctx context.Context, records []schedule.Record) (*Report, error) {
	report := &Report{RunID: ulid.Make().String(), Failures: []EventFailure{}}
	log := logger.With("run_id", report.RunID)

	token, err := s.tokens.AccessToken(ctx, s.opts.Interactive)
	if err != nil || token == "" {
		authErr := &AuthenticationError{Err: err}
		log.Error("sync aborted", "error", authErr)
		return report, authErr
	}

	api, err := s.newAPI(ctx, token)
	if err != nil {
		return report, fmt.Errorf("failed to open calendar API: %w", err)
	}

	calendarID, err := api.CreateCalendar(ctx, s.opts.CalendarName, s.opts.TimeZone)
	if err != nil {
		createErr := &CalendarCreationError{Body: responseBody(err), Err: err}
		log.Error("sync aborted", "error", createErr)
		return report, createErr
	}
	report.CalendarID = calendarID
	log.Info("calendar ready", "calendar_id", calendarID, "events", len(records), "workers", s.opts.Workers)

	events := make([]*gcal.Event, len(records))
	for i, rec := range records {
		events[i] = NewEvent(rec, s.firstDate(rec, log), s.opts.TimeZone)
	}

	submit := func(ctx context.Context, i int) error {
		created, err := api.InsertEvent(ctx, calendarID, events[i])
		if err != nil {
			eventErr := &EventCreationError{Index: i, Section: records[i].Section, Body: responseBody(err), Err: err}
			log.Error("event creation failed", "section", records[i].Section, "body", eventErr.Body, "error", err)
			return eventErr
		}
		log.Info("event created", "section", records[i].Section, "link", created.HtmlLink)
		return nil
	}

	var (
		errs      []error
		attempted []bool
		runErr    error
	)
	if s.opts.Workers == 1 {
		errs, attempted, runErr = s.runSequential(ctx, len(records), submit)
	} else {
		errs, attempted, runErr = s.runPooled(ctx, len(records), submit)
	}

	for i, rec := range records {
		switch {
		case errs[i] != nil:
			report.Failures = append(report.Failures, newEventFailure(i, rec, errs[i]))
		case attempted[i]:
			report.Created++
		}
	}

	log.Info("sync finished", "created", report.Created, "failed", len(report.Failures))
	if runErr != nil {
		return report, runErr
	}
	return report, nil
}

func (s *Syncer) runSequential(ctx context.Context, n int, submit func(context.Context, int) error) ([]error, []bool, error) {
	errs := make([]error, n)
	attempted := make([]bool, n)

	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return errs, attempted, err
		}
		attempted[i] = true
		errs[i] = submit(ctx, i)
		if errs[i] != nil && s.opts.FailurePolicy == AbortOnFailure {
			return errs, attempted, errs[i]
		}
	}
	return errs, attempted, nil
}

// runPooled submits with at most Workers requests in flight. Under
// AbortOnFailure the first failure cancels requests not yet started.
func (s *Syncer) runPooled(ctx context.Context, n int, submit func(context.Context, int) error) ([]error, []bool, error) {
	errs := make([]error, n)
	attempted := make([]bool, n)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.opts.Workers)
	for i := 0; i < n; i++ {
		g.Go(func() error {
			if gctx.Err() != nil {
				return nil
			}
			attempted[i] = true
			errs[i] = submit(gctx, i)
			if errs[i] != nil && s.opts.FailurePolicy == AbortOnFailure {
				return errs[i]
			}
			return nil
		})
	}

	err := g.Wait()
	if err == nil {
		err = ctx.Err()
	}
	return errs, attempted, err
}

func (s *Syncer) firstDate(rec schedule.Record, log *slog.Logger) string {
	if !s.opts.AlignFirstOccurrence {
		return rec.StartDate
	}
	first, err := recurrence.FirstOccurrence(rec, s.loc)
	if err != nil {
		log.Warn("keeping start date as first occurrence", "section", rec.Section, "error", err)
		return rec.StartDate
	}
	return first.Format("2006-01-02")
}

func newEventFailure(i int, rec schedule.Record, err error) EventFailure {
	failure := EventFailure{Index: i, Section: rec.Section, Error: err.Error()}
	var eventErr *EventCreationError
	if errors.As(err, &eventErr) {
		failure.Body = eventErr.Body
	}
	return failure
}
