package sync

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"

	"github.com/harperreed/leadgen/models"
)

type fakeCalendar struct {
	pages   map[string]*calendar.Events
	queries []EventQuery
	goneFor string
}

func (f *fakeCalendar) ListEvents(_ context.Context, q EventQuery) (*calendar.Events, error) {
	f.queries = append(f.queries, q)
	if f.goneFor != "" && q.SyncToken == f.goneFor {
		return nil, &googleapi.Error{Code: http.StatusGone}
	}
	if page, ok := f.pages[q.PageToken]; ok {
		return page, nil
	}
	return &calendar.Events{}, nil
}

type memEvents struct {
	byID map[string]models.Event
}

func newMemEvents() *memEvents { return &memEvents{byID: map[string]models.Event{}} }

func (m *memEvents) Get(_ context.Context, id string) (*models.Event, error) {
	e, ok := m.byID[id]
	if !ok {
		return nil, nil
	}
	return &e, nil
}

func (m *memEvents) Create(_ context.Context, e *models.Event) error {
	m.byID[e.ID] = *e
	return nil
}

func (m *memEvents) Delete(_ context.Context, id string) error {
	delete(m.byID, id)
	return nil
}

type emailIndex map[string]string

func (e emailIndex) FindByEmail(_ context.Context, email string) ([]models.Contact, error) {
	if id, ok := e[models.NormalizeEmail(email)]; ok {
		return []models.Contact{{ID: id, Email: email}}, nil
	}
	return nil, nil
}

type memTokens map[string]string

func (m memTokens) Token(service string) (string, error)  { return m[service], nil }
func (m memTokens) SetToken(service, token string) error { m[service] = token; return nil }
func (m memTokens) Reset(service string) error           { delete(m, service); return nil }

func timed(id, summary, start string, attendees ...*calendar.EventAttendee) *calendar.Event {
	return &calendar.Event{
		Id:        id,
		Summary:   summary,
		Start:     &calendar.EventDateTime{DateTime: start},
		Attendees: attendees,
	}
}

func newTestImporter(client EventLister, events *memEvents, tokens memTokens) *CalendarImporter {
	ci := NewCalendarImporter(client, events, emailIndex{"alice@acme.fr": "c1"}, tokens, nil)
	ci.now = func() time.Time { return time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC) }
	return ci
}

func TestShouldSkipEvent(t *testing.T) {
	tests := []struct {
		name   string
		event  *calendar.Event
		reason string
	}{
		{"nil", nil, "nil"},
		{"cancelled", &calendar.Event{Status: "cancelled", Start: &calendar.EventDateTime{DateTime: "x"}}, "cancelled"},
		{"no start", &calendar.Event{}, "missing start"},
		{"all-day", &calendar.Event{Start: &calendar.EventDateTime{Date: "2026-03-10"}}, "all-day"},
		{"declined", timed("d", "x", "2026-03-10T10:00:00Z", &calendar.EventAttendee{Self: true, ResponseStatus: "declined"}), "declined"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			skip, reason := shouldSkipEvent(tt.event)
			assert.True(t, skip)
			assert.Equal(t, tt.reason, reason)
		})
	}

	skip, _ := shouldSkipEvent(timed("ok", "Solo", "2026-03-10T10:00:00Z"))
	assert.False(t, skip, "solo meetings are kept")
}

func TestCalendarImportPaginatesAndLinksContacts(t *testing.T) {
	client := &fakeCalendar{pages: map[string]*calendar.Events{
		"": {
			Items: []*calendar.Event{
				timed("e1", "Démo Acme", "2026-03-10T14:00:00Z",
					&calendar.EventAttendee{Email: "me@leadgen.fr", Self: true},
					&calendar.EventAttendee{Email: "Alice@Acme.fr"}),
				{Id: "e2", Start: &calendar.EventDateTime{Date: "2026-03-11"}},
			},
			NextPageToken: "p2",
		},
		"p2": {
			Items: []*calendar.Event{
				{
					Id:        "e3",
					Summary:   "Suivi",
					Start:     &calendar.EventDateTime{DateTime: "2026-03-12T09:00:00+01:00"},
					End:       &calendar.EventDateTime{DateTime: "2026-03-12T09:30:00+01:00"},
					Reminders: &calendar.EventReminders{Overrides: []*calendar.EventReminder{{Method: "popup", Minutes: 10}, {Method: "email", Minutes: 60}}},
				},
			},
			NextSyncToken: "sync-1",
		},
	}}
	events := newMemEvents()
	tokens := memTokens{}

	report, err := newTestImporter(client, events, tokens).Import(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 3, report.Fetched)
	assert.Equal(t, 2, report.Imported)
	assert.Equal(t, 1, report.Linked)
	assert.Equal(t, 1, report.Skipped["all-day"])
	assert.Equal(t, "sync-1", tokens[calendarService])

	require.Len(t, client.queries, 2)
	assert.False(t, client.queries[0].TimeMin.IsZero(), "first sync uses a time window")
	assert.Equal(t, "p2", client.queries[1].PageToken)

	demo := events.byID["gcal-e1"]
	require.NotNil(t, demo.ContactID)
	assert.Equal(t, "c1", *demo.ContactID)
	assert.Equal(t, 15, demo.ReminderMinutes)

	suivi := events.byID["gcal-e3"]
	assert.Equal(t, 10, suivi.ReminderMinutes)
	assert.Equal(t, 30*time.Minute, suivi.EndTime.Sub(suivi.StartTime))
}

func TestCalendarIncrementalSyncRemovesCancelled(t *testing.T) {
	events := newMemEvents()
	events.byID["gcal-e1"] = models.Event{ID: "gcal-e1", Title: "Démo"}
	tokens := memTokens{calendarService: "sync-1"}

	client := &fakeCalendar{pages: map[string]*calendar.Events{
		"": {
			Items: []*calendar.Event{
				{Id: "e1", Status: "cancelled"},
				timed("e1-again", "Nouveau", "2026-03-15T10:00:00Z"),
			},
			NextSyncToken: "sync-2",
		},
	}}

	report, err := newTestImporter(client, events, tokens).Import(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Removed)
	assert.Equal(t, 1, report.Imported)
	assert.NotContains(t, events.byID, "gcal-e1")
	assert.Equal(t, "sync-1", client.queries[0].SyncToken)
	assert.Equal(t, "sync-2", tokens[calendarService])
}

func TestCalendarExpiredTokenFallsBackToWindow(t *testing.T) {
	tokens := memTokens{calendarService: "stale"}
	client := &fakeCalendar{
		goneFor: "stale",
		pages: map[string]*calendar.Events{
			"": {Items: []*calendar.Event{timed("e1", "Démo", "2026-03-10T14:00:00Z")}, NextSyncToken: "fresh"},
		},
	}

	report, err := newTestImporter(client, newMemEvents(), tokens).Import(context.Background(), false)
	require.NoError(t, err)

	assert.Equal(t, 1, report.Imported)
	require.Len(t, client.queries, 2)
	assert.Empty(t, client.queries[1].SyncToken)
	assert.False(t, client.queries[1].TimeMin.IsZero())
	assert.Equal(t, "fresh", tokens[calendarService])
}

func TestCalendarReimportCountsExisting(t *testing.T) {
	client := &fakeCalendar{pages: map[string]*calendar.Events{
		"": {Items: []*calendar.Event{timed("e1", "Démo", "2026-03-10T14:00:00Z")}},
	}}
	events := newMemEvents()
	ci := newTestImporter(client, events, memTokens{})

	_, err := ci.Import(context.Background(), true)
	require.NoError(t, err)
	report, err := ci.Import(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 0, report.Imported)
	assert.Equal(t, 1, report.Existing)
	assert.Len(t, events.byID, 1)
}
