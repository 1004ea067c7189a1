// ABOUTME: Calendar MCP tool handlers
// ABOUTME: Implements add_event, upcoming_events, complete_event, and recent_reminders tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type ReminderFeed interface {
	Recent() []models.Reminder
}

type EventHandlers struct {
	events *db.EventRepository
	feed   ReminderFeed
	now    func() time.Time
}

// NewEventHandlers takes the feed filled by the reminder poller; feed may be nil.
func NewEventHandlers(events *db.EventRepository, feed ReminderFeed) *EventHandlers {
	return &EventHandlers{events: events, feed: feed, now: time.Now}
}

type AddEventInput struct {
	Title           string `json:"title" jsonschema:"Event title (required)"`
	Description     string `json:"description,omitempty"`
	StartTime       string `json:"start_time" jsonschema:"Start (RFC3339 or YYYY-MM-DD HH:MM local time)"`
	EndTime         string `json:"end_time,omitempty" jsonschema:"End; one hour after start when omitted"`
	ReminderMinutes *int   `json:"reminder_minutes,omitempty" jsonschema:"Minutes before start to remind (default 15)"`
	ContactID       string `json:"contact_id,omitempty"`
}

func (h *EventHandlers) AddEvent(ctx context.Context, _ *mcp.CallToolRequest, input AddEventInput) (*mcp.CallToolResult, EventOutput, error) {
	if input.Title == "" {
		return nil, EventOutput{}, fmt.Errorf("title is required")
	}
	start, err := parseTime(input.StartTime)
	if err != nil {
		return nil, EventOutput{}, fmt.Errorf("invalid start_time: %w", err)
	}

	event := &models.Event{
		Title:           input.Title,
		Description:     input.Description,
		StartTime:       start,
		ReminderMinutes: db.DefaultReminderMinutes,
	}
	if input.EndTime != "" {
		if event.EndTime, err = parseTime(input.EndTime); err != nil {
			return nil, EventOutput{}, fmt.Errorf("invalid end_time: %w", err)
		}
	}
	if input.ReminderMinutes != nil {
		event.ReminderMinutes = *input.ReminderMinutes
	}
	if input.ContactID != "" {
		event.ContactID = &input.ContactID
	}

	if err := h.events.Create(ctx, event); err != nil {
		return nil, EventOutput{}, fmt.Errorf("failed to create event: %w", err)
	}
	return nil, eventToOutput(*event), nil
}

type UpcomingEventsInput struct {
	Days int `json:"days,omitempty" jsonschema:"How many days ahead to look (default 7)"`
}

type EventListOutput struct {
	Events []EventOutput `json:"events"`
	Count  int           `json:"count"`
}

func (h *EventHandlers) UpcomingEvents(ctx context.Context, _ *mcp.CallToolRequest, input UpcomingEventsInput) (*mcp.CallToolResult, EventListOutput, error) {
	days := input.Days
	if days <= 0 {
		days = 7
	}
	now := h.now()
	events, err := h.events.Upcoming(ctx, now, now.AddDate(0, 0, days))
	if err != nil {
		return nil, EventListOutput{}, fmt.Errorf("failed to list events: %w", err)
	}

	out := EventListOutput{Events: make([]EventOutput, 0, len(events)), Count: len(events)}
	for _, e := range events {
		out.Events = append(out.Events, eventToOutput(e))
	}
	return nil, out, nil
}

type CompleteEventInput struct {
	ID string `json:"id" jsonschema:"Event ID (required)"`
}

func (h *EventHandlers) CompleteEvent(ctx context.Context, _ *mcp.CallToolRequest, input CompleteEventInput) (*mcp.CallToolResult, EventOutput, error) {
	if input.ID == "" {
		return nil, EventOutput{}, fmt.Errorf("id is required")
	}
	if err := h.events.Complete(ctx, input.ID); err != nil {
		return nil, EventOutput{}, fmt.Errorf("failed to complete event: %w", err)
	}
	event, err := h.events.Get(ctx, input.ID)
	if err != nil {
		return nil, EventOutput{}, fmt.Errorf("failed to reload event: %w", err)
	}
	if event == nil {
		return nil, EventOutput{}, fmt.Errorf("event not found: %s", input.ID)
	}
	return nil, eventToOutput(*event), nil
}

type RecentRemindersInput struct{}

type ReminderOutput struct {
	EventID      string  `json:"event_id"`
	Title        string  `json:"title"`
	StartTime    string  `json:"start_time"`
	ReminderTime string  `json:"reminder_time"`
	ContactID    *string `json:"contact_id,omitempty"`
}

type RemindersOutput struct {
	Reminders []ReminderOutput `json:"reminders"`
}

// RecentReminders lists reminders already emitted by the poller. It never consumes markers.
func (h *EventHandlers) RecentReminders(_ context.Context, _ *mcp.CallToolRequest, _ RecentRemindersInput) (*mcp.CallToolResult, RemindersOutput, error) {
	out := RemindersOutput{Reminders: []ReminderOutput{}}
	if h.feed == nil {
		return nil, out, nil
	}
	for _, r := range h.feed.Recent() {
		out.Reminders = append(out.Reminders, ReminderOutput{
			EventID:      r.EventID,
			Title:        r.Title,
			StartTime:    formatTime(r.StartTime),
			ReminderTime: formatTime(r.ReminderTime),
			ContactID:    r.ContactID,
		})
	}
	return nil, out, nil
}
