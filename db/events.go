// ABOUTME: Calendar event repository
// ABOUTME: Provides the upcoming-window query the reminder poller runs every tick
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/leadgen/models"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
)

// DefaultReminderMinutes applies when an event is created without an explicit lead time.
const DefaultReminderMinutes = 15

type eventRow struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Description     string         `db:"description"`
	StartTime       time.Time      `db:"start_time"`
	EndTime         time.Time      `db:"end_time"`
	ReminderMinutes int            `db:"reminder_minutes"`
	ContactID       sql.NullString `db:"contact_id"`
	IsCompleted     bool           `db:"is_completed"`
	CreatedAt       time.Time      `db:"created_at"`
}

func (row eventRow) toModel() models.Event {
	e := models.Event{
		ID:              row.ID,
		Title:           row.Title,
		Description:     row.Description,
		StartTime:       row.StartTime,
		EndTime:         row.EndTime,
		ReminderMinutes: row.ReminderMinutes,
		IsCompleted:     row.IsCompleted,
		CreatedAt:       row.CreatedAt,
	}
	if row.ContactID.Valid && row.ContactID.String != "" {
		id := row.ContactID.String
		e.ContactID = &id
	}
	return e
}

type EventRepository struct {
	db *sqlx.DB
}

func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create inserts an event. A missing end time defaults to one hour after the start.
func (r *EventRepository) Create(ctx context.Context, e *models.Event) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	e.StartTime = e.StartTime.UTC().Truncate(time.Second)
	if e.EndTime.IsZero() {
		e.EndTime = e.StartTime.Add(time.Hour)
	}
	e.EndTime = e.EndTime.UTC().Truncate(time.Second)
	e.CreatedAt = time.Now().UTC().Truncate(time.Second)

	if err := validateRecord(e); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO events (id, title, description, start_time, end_time, reminder_minutes, contact_id, is_completed, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.Title, e.Description, e.StartTime, e.EndTime, e.ReminderMinutes, e.ContactID, e.IsCompleted, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	return nil
}

// Get returns (nil, nil) when the event does not exist.
func (r *EventRepository) Get(ctx context.Context, id string) (*models.Event, error) {
	var row eventRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM events WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	e := row.toModel()
	return &e, nil
}

// List returns events starting at or after from, ordered by start time. A zero from lists everything.
func (r *EventRepository) List(ctx context.Context, from time.Time, includeCompleted bool) ([]models.Event, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From("events")
	if !from.IsZero() {
		sb.Where(sb.GreaterEqualThan("start_time", from.UTC()))
	}
	if !includeCompleted {
		sb.Where(sb.Equal("is_completed", false))
	}
	sb.OrderBy("start_time").Asc()
	return r.selectEvents(ctx, sb)
}

// Upcoming returns incomplete events with start_time in [from, to].
func (r *EventRepository) Upcoming(ctx context.Context, from, to time.Time) ([]models.Event, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From("events")
	sb.Where(
		sb.Between("start_time", from.UTC(), to.UTC()),
		sb.Equal("is_completed", false),
	)
	sb.OrderBy("start_time").Asc()
	return r.selectEvents(ctx, sb)
}

func (r *EventRepository) selectEvents(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]models.Event, error) {
	query, args := sb.Build()
	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	events := make([]models.Event, 0, len(rows))
	for _, row := range rows {
		events = append(events, row.toModel())
	}
	return events, nil
}

func (r *EventRepository) Complete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `UPDATE events SET is_completed = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to complete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *EventRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete event: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("event %s: %w", id, ErrNotFound)
	}
	return nil
}
