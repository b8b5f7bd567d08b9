package calendar

// OAuth client identifiers may be injected at build time:
//
//	go build -ldflags "-X github.com/bnema/coursecal/internal/calendar.GoogleOAuthClientID=YOUR_ID"
//
// and are overridden at runtime by COURSECAL_CLIENT_ID / COURSECAL_CLIENT_SECRET
// or a client secrets file.
var (
	GoogleOAuthClientID     = ""
	GoogleOAuthClientSecret = ""
)

const (
	// ScopeCalendar allows creating calendars and inserting events into them.
	ScopeCalendar = "https://www.googleapis.com/auth/calendar"

	DefaultCalendarName = "UBC Courses"
	DefaultTimeZone     = "America/Vancouver"

	tokenFile = "token.enc"
)

// CalendarScopes defines the OAuth scopes required for calendar access
var CalendarScopes = []string{ScopeCalendar}
