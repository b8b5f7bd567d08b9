package notifier

import (
	"errors"
	"strings"
	"testing"

	"github.com/bnema/coursecal/internal/calendar"
)

type recorder struct {
	calls [][]string
	err   error
}

func (r *recorder) run(name string, args ...string) ([]byte, error) {
	r.calls = append(r.calls, append([]string{name}, args...))
	if r.err != nil {
		return []byte("no daemon"), r.err
	}
	return nil, nil
}

func TestSyncFinished(t *testing.T) {
	tests := []struct {
		name        string
		report      *calendar.Report
		wantUrgency string
		wantTitle   string
		wantBody    string
	}{
		{
			name:        "all created",
			report:      &calendar.Report{Created: 3},
			wantUrgency: "--urgency=low",
			wantTitle:   "UBC Courses is ready",
			wantBody:    "3 courses added",
		},
		{
			name: "some failed",
			report: &calendar.Report{Created: 1, Failures: []calendar.EventFailure{
				{Section: "MATH 100 202"},
			}},
			wantUrgency: "--urgency=normal",
			wantTitle:   "1 of 2 courses added",
			wantBody:    "MATH 100 202",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			n := New(true).WithRunner(rec.run)

			if err := n.SyncFinished("UBC Courses", tt.report); err != nil {
				t.Fatalf("SyncFinished() error = %v", err)
			}
			if len(rec.calls) != 1 {
				t.Fatalf("notify-send called %d times", len(rec.calls))
			}
			call := rec.calls[0]
			if call[0] != "notify-send" || call[2] != tt.wantUrgency {
				t.Errorf("command = %v", call)
			}
			if !strings.Contains(call[3], tt.wantTitle) {
				t.Errorf("title = %q, want it to contain %q", call[3], tt.wantTitle)
			}
			if !strings.Contains(call[4], tt.wantBody) {
				t.Errorf("body = %q, want it to contain %q", call[4], tt.wantBody)
			}
		})
	}
}

func TestFormatFailuresTruncates(t *testing.T) {
	var failures []calendar.EventFailure
	for i := 0; i < 8; i++ {
		failures = append(failures, calendar.EventFailure{Section: "SEC"})
	}

	got := New(true).formatFailures(failures)
	if lines := strings.Split(got, "\n"); len(lines) != maxListedFailures+1 {
		t.Errorf("got %d lines, want %d", len(lines), maxListedFailures+1)
	}
	if !strings.HasSuffix(got, "... and 3 more") {
		t.Errorf("missing overflow line: %q", got)
	}
}

func TestDisabledNotifierIsSilent(t *testing.T) {
	rec := &recorder{}
	n := New(false).WithRunner(rec.run)

	if err := n.SyncFinished("UBC Courses", &calendar.Report{Created: 1}); err != nil {
		t.Errorf("SyncFinished() error = %v", err)
	}
	if err := n.SyncFailed(errors.New("boom")); err != nil {
		t.Errorf("SyncFailed() error = %v", err)
	}
	if err := n.TestNotification(); err == nil {
		t.Error("TestNotification() succeeded while disabled")
	}
	if len(rec.calls) != 0 {
		t.Errorf("notify-send called %d times while disabled", len(rec.calls))
	}
}

func TestNotifySendError(t *testing.T) {
	rec := &recorder{err: errors.New("exit status 1")}
	n := New(true).WithRunner(rec.run)

	err := n.SyncFailed(errors.New("token expired"))
	if err == nil || !strings.Contains(err.Error(), "no daemon") {
		t.Errorf("SyncFailed() error = %v, want notify-send output", err)
	}
	if !strings.Contains(rec.calls[0][4], "token expired") {
		t.Errorf("body = %q", rec.calls[0][4])
	}
}
