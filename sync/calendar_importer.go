// ABOUTME: Imports Google Calendar meetings as local events with reminders
// ABOUTME: Handles pagination, incremental sync tokens, 410 fallback, and attendee-to-contact linking
package sync

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/models"
)

const (
	calendarService = "calendar"
	eventIDPrefix   = "gcal-"
	initialWindow   = 30 * 24 * time.Hour
)

type EventStore interface {
	Get(ctx context.Context, id string) (*models.Event, error)
	Create(ctx context.Context, e *models.Event) error
	Delete(ctx context.Context, id string) error
}

type ContactFinder interface {
	FindByEmail(ctx context.Context, email string) ([]models.Contact, error)
}

type TokenStore interface {
	Token(service string) (string, error)
	SetToken(service, token string) error
	Reset(service string) error
}

type CalendarReport struct {
	Fetched  int            `json:"fetched"`
	Imported int            `json:"imported"`
	Existing int            `json:"existing"`
	Removed  int            `json:"removed"`
	Linked   int            `json:"linked"`
	Skipped  map[string]int `json:"skipped,omitempty"`
}

type CalendarImporter struct {
	client   EventLister
	events   EventStore
	contacts ContactFinder
	tokens   TokenStore
	logger   *zap.Logger
	now      func() time.Time
}

func NewCalendarImporter(client EventLister, events EventStore, contacts ContactFinder, tokens TokenStore, logger *zap.Logger) *CalendarImporter {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CalendarImporter{
		client:   client,
		events:   events,
		contacts: contacts,
		tokens:   tokens,
		logger:   logger,
		now:      time.Now,
	}
}

// shouldSkipEvent returns a reason when the event is not worth a local copy.
func shouldSkipEvent(event *calendar.Event) (bool, string) {
	if event == nil {
		return true, "nil"
	}
	if event.Status == "cancelled" {
		return true, "cancelled"
	}
	if event.Start == nil {
		return true, "missing start"
	}
	if event.Start.Date != "" {
		return true, "all-day"
	}
	for _, attendee := range event.Attendees {
		if attendee.Self && attendee.ResponseStatus == "declined" {
			return true, "declined"
		}
	}
	return false, ""
}

// Import pulls one sync round. initial ignores any saved token and starts from a 30 day window.
func (ci *CalendarImporter) Import(ctx context.Context, initial bool) (CalendarReport, error) {
	report := CalendarReport{Skipped: make(map[string]int)}

	if initial {
		if err := ci.tokens.Reset(calendarService); err != nil {
			return report, fmt.Errorf("failed to reset sync token: %w", err)
		}
	}
	token, err := ci.tokens.Token(calendarService)
	if err != nil {
		return report, fmt.Errorf("failed to read sync token: %w", err)
	}

	query := EventQuery{SyncToken: token}
	if token == "" {
		query.TimeMin = ci.now().Add(-initialWindow)
	}

	for {
		page, err := ci.client.ListEvents(ctx, query)
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && apiErr.Code == http.StatusGone && query.SyncToken != "" {
			ci.logger.Warn("calendar sync token expired, falling back to time window")
			if err := ci.tokens.Reset(calendarService); err != nil {
				return report, fmt.Errorf("failed to reset sync token: %w", err)
			}
			query = EventQuery{TimeMin: ci.now().Add(-initialWindow)}
			continue
		}
		if err != nil {
			return report, fmt.Errorf("failed to fetch calendar events: %w", err)
		}

		report.Fetched += len(page.Items)
		for _, item := range page.Items {
			if err := ci.apply(ctx, item, &report); err != nil {
				return report, err
			}
		}

		if page.NextPageToken == "" {
			if page.NextSyncToken != "" {
				if err := ci.tokens.SetToken(calendarService, page.NextSyncToken); err != nil {
					return report, fmt.Errorf("failed to save sync token: %w", err)
				}
			}
			break
		}
		query.PageToken = page.NextPageToken
	}

	ci.logger.Info("calendar synced",
		zap.Int("fetched", report.Fetched),
		zap.Int("imported", report.Imported),
		zap.Int("removed", report.Removed),
		zap.Any("skipped", report.Skipped),
	)
	return report, nil
}

func (ci *CalendarImporter) apply(ctx context.Context, item *calendar.Event, report *CalendarReport) error {
	if item == nil {
		report.Skipped["nil"]++
		return nil
	}
	localID := eventIDPrefix + item.Id

	existing, err := ci.events.Get(ctx, localID)
	if err != nil {
		return err
	}

	if skip, reason := shouldSkipEvent(item); skip {
		// An incremental round reports deletions as cancelled items.
		if reason == "cancelled" && existing != nil {
			if err := ci.events.Delete(ctx, localID); err != nil {
				return fmt.Errorf("failed to remove cancelled event: %w", err)
			}
			report.Removed++
			return nil
		}
		report.Skipped[reason]++
		return nil
	}

	if existing != nil {
		report.Existing++
		return nil
	}

	event, err := toLocalEvent(item)
	if err != nil {
		report.Skipped["bad time"]++
		ci.logger.Debug("skipping event with unparseable time", zap.String("id", item.Id), zap.Error(err))
		return nil
	}

	contactID, err := ci.linkContact(ctx, item.Attendees)
	if err != nil {
		return err
	}
	if contactID != "" {
		event.ContactID = &contactID
		report.Linked++
	}

	if err := ci.events.Create(ctx, &event); err != nil {
		return err
	}
	report.Imported++
	return nil
}

// linkContact returns the first non-self attendee that matches a known contact email.
func (ci *CalendarImporter) linkContact(ctx context.Context, attendees []*calendar.EventAttendee) (string, error) {
	for _, a := range attendees {
		if a == nil || a.Self || a.Email == "" {
			continue
		}
		matches, err := ci.contacts.FindByEmail(ctx, a.Email)
		if err != nil {
			return "", err
		}
		if len(matches) > 0 {
			return matches[0].ID, nil
		}
	}
	return "", nil
}

func toLocalEvent(item *calendar.Event) (models.Event, error) {
	start, err := time.Parse(time.RFC3339, item.Start.DateTime)
	if err != nil {
		return models.Event{}, err
	}

	var end time.Time
	if item.End != nil && item.End.DateTime != "" {
		end, err = time.Parse(time.RFC3339, item.End.DateTime)
		if err != nil {
			return models.Event{}, err
		}
	}
	if end.Before(start) {
		end = time.Time{}
	}

	title := item.Summary
	if title == "" {
		title = "(sans titre)"
	}

	return models.Event{
		ID:              eventIDPrefix + item.Id,
		Title:           title,
		Description:     item.Description,
		StartTime:       start,
		EndTime:         end,
		ReminderMinutes: reminderMinutes(item.Reminders),
	}, nil
}

// reminderMinutes keeps the earliest popup override, else the CRM default.
func reminderMinutes(r *calendar.EventReminders) int {
	if r == nil || r.UseDefault {
		return db.DefaultReminderMinutes
	}
	best := -1
	for _, o := range r.Overrides {
		if o == nil || o.Method != "popup" {
			continue
		}
		if int(o.Minutes) > best {
			best = int(o.Minutes)
		}
	}
	if best < 0 {
		return db.DefaultReminderMinutes
	}
	return best
}
