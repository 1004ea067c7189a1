// ABOUTME: Reminder poller that turns upcoming calendar events into one-shot notifications
// ABOUTME: Each event is reminded at most once, guarded by a persistent marker
package reminders

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/leadgen/metrics"
	"github.com/harperreed/leadgen/models"
	"go.uber.org/zap"
)

const (
	DefaultInterval  = 60 * time.Second
	DefaultLookahead = time.Hour
)

type EventSource interface {
	Upcoming(ctx context.Context, from, to time.Time) ([]models.Event, error)
}

type MarkerStore interface {
	IsNotified(eventID string) (bool, error)
	MarkNotified(eventID string, at time.Time) error
}

// Notifier receives every emitted reminder.
type Notifier interface {
	Notify(ctx context.Context, r models.Reminder)
}

type Poller struct {
	events    EventSource
	markers   MarkerStore
	notifiers []Notifier
	interval  time.Duration
	lookahead time.Duration
	now       func() time.Time
	logger    *zap.Logger
}

func NewPoller(events EventSource, markers MarkerStore, interval time.Duration, logger *zap.Logger, notifiers ...Notifier) *Poller {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Poller{
		events:    events,
		markers:   markers,
		notifiers: notifiers,
		interval:  interval,
		lookahead: DefaultLookahead,
		now:       time.Now,
		logger:    logger,
	}
}

// Check emits a reminder for every incomplete event starting within the lookahead whose
// window [start - reminder_minutes, start) contains now and which has no marker yet.
// The marker is written before notifiers run. With reminder_minutes = 0 the window is
// empty and the event is never reminded.
func (p *Poller) Check(ctx context.Context) ([]models.Reminder, error) {
	started := time.Now()
	defer func() { metrics.ReminderPollDuration.Observe(time.Since(started).Seconds()) }()

	now := p.now()
	events, err := p.events.Upcoming(ctx, now, now.Add(p.lookahead))
	if err != nil {
		return nil, fmt.Errorf("failed to load upcoming events: %w", err)
	}

	var emitted []models.Reminder
	for i := range events {
		e := &events[i]
		if e.IsCompleted {
			continue
		}
		reminderTime := e.ReminderTime()
		if reminderTime.After(now) || !now.Before(e.StartTime) {
			continue
		}

		notified, err := p.markers.IsNotified(e.ID)
		if err != nil {
			return emitted, fmt.Errorf("failed to read reminder marker: %w", err)
		}
		if notified {
			continue
		}
		if err := p.markers.MarkNotified(e.ID, now); err != nil {
			return emitted, fmt.Errorf("failed to write reminder marker: %w", err)
		}

		r := models.Reminder{
			EventID:      e.ID,
			Title:        e.Title,
			StartTime:    e.StartTime,
			ReminderTime: reminderTime,
			ContactID:    e.ContactID,
		}
		emitted = append(emitted, r)
		metrics.RemindersEmitted.Inc()
		for _, n := range p.notifiers {
			n.Notify(ctx, r)
		}
	}
	return emitted, nil
}

// Run checks once immediately and then on every tick until ctx is cancelled.
func (p *Poller) Run(ctx context.Context) error {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)
	for {
		select {
		case <-ctx.Done():
			p.logger.Debug("reminder poller stopped")
			return nil
		case <-ticker.C:
			p.tick(ctx)
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	reminders, err := p.Check(ctx)
	if err != nil {
		p.logger.Warn("reminder check failed", zap.Error(err))
	}
	if len(reminders) > 0 {
		p.logger.Debug("reminders emitted", zap.Int("count", len(reminders)))
	}
}
