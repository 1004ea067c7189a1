// ABOUTME: Google Calendar service wrapper behind a small paging interface
// ABOUTME: The importer only sees EventQuery in and *calendar.Events out
package sync

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

const maxResults = 250

// EventQuery selects one page. SyncToken and TimeMin are mutually exclusive on the API side.
type EventQuery struct {
	SyncToken string
	PageToken string
	TimeMin   time.Time
}

type EventLister interface {
	ListEvents(ctx context.Context, q EventQuery) (*calendar.Events, error)
}

type googleCalendar struct {
	service    *calendar.Service
	calendarID string
}

// NewCalendarClient wraps the primary calendar of the token's account.
func NewCalendarClient(ctx context.Context, config *oauth2.Config, token *oauth2.Token) (EventLister, error) {
	if token == nil {
		return nil, fmt.Errorf("token cannot be nil")
	}

	service, err := calendar.NewService(ctx, option.WithHTTPClient(config.Client(ctx, token)))
	if err != nil {
		return nil, fmt.Errorf("failed to create calendar service: %w", err)
	}
	return &googleCalendar{service: service, calendarID: "primary"}, nil
}

func (g *googleCalendar) ListEvents(ctx context.Context, q EventQuery) (*calendar.Events, error) {
	call := g.service.Events.List(g.calendarID).
		MaxResults(maxResults).
		SingleEvents(true).
		ShowDeleted(q.SyncToken != "")

	if q.SyncToken != "" {
		call = call.SyncToken(q.SyncToken)
	} else if !q.TimeMin.IsZero() {
		call = call.TimeMin(q.TimeMin.Format(time.RFC3339))
	}
	if q.PageToken != "" {
		call = call.PageToken(q.PageToken)
	}
	return call.Context(ctx).Do()
}
