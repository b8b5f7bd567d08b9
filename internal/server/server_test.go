package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/bnema/coursecal/internal/calendar"
	"github.com/bnema/coursecal/internal/quotes"
	"github.com/bnema/coursecal/internal/schedule"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeSyncer struct {
	got    []schedule.Record
	report *calendar.Report
	err    error
	ctxErr error
}

func (f *fakeSyncer) Sync(ctx context.Context, records []schedule.Record) (*calendar.Report, error) {
	f.got = records
	f.ctxErr = ctx.Err()
	return f.report, f.err
}

const validCourse = `{"section":"CPSC_V 110-101","start_date":"2024-09-03","end_date":"2024-12-05",` +
	`"days":["TU","TH"],"alternate_weeks":false,"start_time":"15:30","end_time":"17:00","location":"ESB 1013"}`

func postJSON(t *testing.T, h http.Handler, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestCreateCalendarMessage(t *testing.T) {
	syncer := &fakeSyncer{report: &calendar.Report{RunID: "run", CalendarID: "cal-1", Created: 1}}
	srv := New(syncer, &calendar.Guard{}, nil, Config{})

	w := postJSON(t, srv.Handler(), "/api/messages",
		`{"action":"createCalendarAndAddCourses","courses":[`+validCourse+`]}`)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var resp messageResponse
	decode(t, w, &resp)
	if !resp.Success || resp.Report == nil || resp.Report.Created != 1 {
		t.Errorf("response = %+v", resp)
	}
	if len(syncer.got) != 1 || syncer.got[0].Location != "ESB 1013" {
		t.Errorf("synced records = %+v", syncer.got)
	}
}

func TestSyncOutlivesClientDisconnect(t *testing.T) {
	syncer := &fakeSyncer{report: &calendar.Report{RunID: "run", CalendarID: "cal-1", Created: 1}}
	srv := New(syncer, &calendar.Guard{}, nil, Config{})

	req := httptest.NewRequest(http.MethodPost, "/api/messages",
		strings.NewReader(`{"action":"createCalendarAndAddCourses","courses":[`+validCourse+`]}`))
	req.Header.Set("Content-Type", "application/json")
	ctx, cancel := context.WithCancel(req.Context())
	cancel()
	req = req.WithContext(ctx)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if len(syncer.got) != 1 {
		t.Fatalf("syncer got %d records, want 1", len(syncer.got))
	}
	if syncer.ctxErr != nil {
		t.Errorf("sync context error = %v, want nil", syncer.ctxErr)
	}
}

func TestMessageBusy(t *testing.T) {
	guard := &calendar.Guard{}
	release, err := guard.TryAcquire()
	if err != nil {
		t.Fatal(err)
	}
	defer release()

	syncer := &fakeSyncer{}
	srv := New(syncer, guard, nil, Config{})

	w := postJSON(t, srv.Handler(), "/api/messages",
		`{"action":"createCalendarAndAddCourses","courses":[`+validCourse+`]}`)
	if w.Code != http.StatusConflict {
		t.Errorf("status = %d, want 409", w.Code)
	}
	if syncer.got != nil {
		t.Error("sync ran while guard was held")
	}
}

func TestMessageRejections(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"unknown action", `{"action":"deleteEverything","courses":[]}`},
		{"missing action", `{"courses":[]}`},
		{"malformed json", `{"action":`},
		{"invalid course", `{"action":"createCalendarAndAddCourses","courses":[{"section":"X","start_date":"Jan 8"}]}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			syncer := &fakeSyncer{}
			srv := New(syncer, nil, nil, Config{})

			w := postJSON(t, srv.Handler(), "/api/messages", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want 400", w.Code)
			}
			if syncer.got != nil {
				t.Error("sync ran for a rejected message")
			}
		})
	}
}

func TestMessageSyncErrors(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&calendar.AuthenticationError{}, http.StatusUnauthorized},
		{&calendar.CalendarCreationError{Body: "forbidden"}, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		syncer := &fakeSyncer{err: tt.err, report: &calendar.Report{RunID: "run"}}
		srv := New(syncer, nil, nil, Config{})

		w := postJSON(t, srv.Handler(), "/api/messages",
			`{"action":"createCalendarAndAddCourses","courses":[`+validCourse+`]}`)
		if w.Code != tt.want {
			t.Errorf("%T: status = %d, want %d", tt.err, w.Code, tt.want)
		}
		var resp messageResponse
		decode(t, w, &resp)
		if resp.Success || resp.Error == "" {
			t.Errorf("%T: response = %+v", tt.err, resp)
		}
	}
}

func upload(t *testing.T, h http.Handler, filename, content string) *httptest.ResponseRecorder {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	part, err := mw.CreateFormFile("file", filename)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := part.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := mw.Close(); err != nil {
		t.Fatal(err)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/schedule", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestUploadSchedule(t *testing.T) {
	csv := "Course Listing,Section,Registration Status,Meeting Patterns\n" +
		`CPSC 110,CPSC_V 110-101,Registered,"2024-09-03 - 2024-12-05 | Tue Thu | 3:30 p.m. - 5:00 p.m. | ESB 1013"` + "\n" +
		`MATH 100,MATH_V 100-102,Registered,"2024-09-03 - 2024-12-05 | Someday | 9:00 a.m. - 10:00 a.m. | LSK 200"` + "\n"

	srv := New(&fakeSyncer{}, nil, nil, Config{HeaderRow: 0})
	w := upload(t, srv.Handler(), "schedule.csv", csv)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}

	var result schedule.Result
	decode(t, w, &result)
	if len(result.Records) != 1 || result.Records[0].StartTime != "15:30" {
		t.Errorf("courses = %+v", result.Records)
	}
	if len(result.Skipped) != 1 || result.Skipped[0].Section != "MATH_V 100-102" {
		t.Errorf("skipped = %+v", result.Skipped)
	}
}

func TestUploadRejections(t *testing.T) {
	srv := New(&fakeSyncer{}, nil, nil, Config{})

	if w := upload(t, srv.Handler(), "schedule.pdf", "%PDF-1.4"); w.Code != http.StatusUnsupportedMediaType {
		t.Errorf("pdf status = %d, want 415", w.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/schedule", strings.NewReader(""))
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("missing file status = %d, want 400", w.Code)
	}
}

func TestQuoteAndHealth(t *testing.T) {
	srv := New(&fakeSyncer{}, nil, quotes.New([]string{"only line"}), Config{})

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/quote", nil))
	var q map[string]string
	decode(t, w, &q)
	if q["quote"] != "only line" {
		t.Errorf("quote = %q", q["quote"])
	}

	w = httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	if w.Code != http.StatusOK {
		t.Errorf("health status = %d", w.Code)
	}
}

func TestCORS(t *testing.T) {
	srv := New(&fakeSyncer{}, nil, nil, Config{AllowedOrigins: []string{"chrome-extension://abc"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/messages", nil)
	req.Header.Set("Origin", "chrome-extension://abc")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "chrome-extension://abc" {
		t.Errorf("Access-Control-Allow-Origin = %q", got)
	}
}
