package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/bnema/coursecal/internal/logger"
	"github.com/bnema/coursecal/internal/security"
)

// API is the part of the calendar service a sync needs.
type API interface {
	CreateCalendar(ctx context.Context, summary, timeZone string) (string, error)
	InsertEvent(ctx context.Context, calendarID string, event *gcal.Event) (*gcal.Event, error)
}

// APIFactory opens an API session with an access token.
type APIFactory func(ctx context.Context, accessToken string) (API, error)

// Client wraps the Google Calendar v3 service.
type Client struct {
	service *gcal.Service
	logger  *security.SecureLogger
}

// NewClient builds a calendar client that authorizes every request with
// accessToken. A positive timeout bounds each request. Extra options are
// passed to the service, e.g. an endpoint.
func NewClient(ctx context.Context, accessToken string, timeout time.Duration, verbose bool, opts ...option.ClientOption) (*Client, error) {
	httpClient := oauth2.NewClient(ctx, oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken}))
	if timeout > 0 {
		httpClient.Timeout = timeout
	}

	all := append([]option.ClientOption{option.WithHTTPClient(httpClient)}, opts...)
	srv, err := gcal.NewService(ctx, all...)
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}

	return &Client{
		service: srv,
		logger:  security.NewSecureLogger(verbose),
	}, nil
}

// GoogleFactory returns an APIFactory producing Clients.
func GoogleFactory(timeout time.Duration, verbose bool, opts ...option.ClientOption) APIFactory {
	return func(ctx context.Context, accessToken string) (API, error) {
		return NewClient(ctx, accessToken, timeout, verbose, opts...)
	}
}

// CreateCalendar creates a secondary calendar and returns its ID.
func (c *Client) CreateCalendar(ctx context.Context, summary, timeZone string) (string, error) {
	start := time.Now()
	created, err := c.service.Calendars.Insert(&gcal.Calendar{
		Summary:  summary,
		TimeZone: timeZone,
	}).Context(ctx).Do()
	if err != nil {
		c.logger.LogNetworkEvent("POST", "calendars", statusCode(err), time.Since(start).String())
		return "", err
	}
	c.logger.LogNetworkEvent("POST", "calendars", created.HTTPStatusCode, time.Since(start).String())

	logger.Info("created calendar", "id", created.Id, "summary", created.Summary)
	return created.Id, nil
}

// InsertEvent adds one event to calendarID.
func (c *Client) InsertEvent(ctx context.Context, calendarID string, event *gcal.Event) (*gcal.Event, error) {
	start := time.Now()
	created, err := c.service.Events.Insert(calendarID, event).Context(ctx).Do()
	if err != nil {
		c.logger.LogNetworkEvent("POST", "calendars/"+calendarID+"/events", statusCode(err), time.Since(start).String())
		return nil, err
	}
	c.logger.LogNetworkEvent("POST", "calendars/"+calendarID+"/events", created.HTTPStatusCode, time.Since(start).String())
	return created, nil
}

// ListCalendars retrieves all calendars accessible by the authenticated user
func (c *Client) ListCalendars(ctx context.Context) ([]*gcal.CalendarListEntry, error) {
	list, err := c.service.CalendarList.List().Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("unable to retrieve calendar list: %w", err)
	}
	return list.Items, nil
}
