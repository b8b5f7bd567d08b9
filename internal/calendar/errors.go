package calendar

import (
	"errors"
	"fmt"

	"google.golang.org/api/googleapi"
)

// ErrSyncInProgress is returned by Guard when another sync holds it.
var ErrSyncInProgress = errors.New("a sync is already in progress")

// AuthenticationError means no usable access token could be obtained.
type AuthenticationError struct {
	Err error
}

func (e *AuthenticationError) Error() string {
	if e.Err == nil {
		return "authentication failed: no access token"
	}
	return fmt.Sprintf("authentication failed: %v", e.Err)
}

func (e *AuthenticationError) Unwrap() error {
	return e.Err
}

// CalendarCreationError carries the service's response body when the
// destination calendar could not be created.
type CalendarCreationError struct {
	Body string
	Err  error
}

func (e *CalendarCreationError) Error() string {
	if e.Body != "" {
		return fmt.Sprintf("failed to create calendar: %s", e.Body)
	}
	return fmt.Sprintf("failed to create calendar: %v", e.Err)
}

func (e *CalendarCreationError) Unwrap() error {
	return e.Err
}

// EventCreationError is one rejected event insert.
type EventCreationError struct {
	Index   int
	Section string
	Body    string
	Err     error
}

func (e *EventCreationError) Error() string {
	detail := e.Body
	if detail == "" && e.Err != nil {
		detail = e.Err.Error()
	}
	return fmt.Sprintf("failed to create event for %s: %s", e.Section, detail)
}

func (e *EventCreationError) Unwrap() error {
	return e.Err
}

// responseBody extracts the raw error body the API returned, if any.
func responseBody(err error) string {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if apiErr.Body != "" {
			return apiErr.Body
		}
		return apiErr.Message
	}
	return ""
}

func statusCode(err error) int {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		return apiErr.Code
	}
	return 0
}
