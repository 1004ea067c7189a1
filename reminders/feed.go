// ABOUTME: Notifiers for emitted reminders: structured log lines and a bounded in-memory feed
// ABOUTME: The feed backs the web reminders endpoint
package reminders

import (
	"context"
	"sync"

	"github.com/harperreed/leadgen/models"
	"go.uber.org/zap"
)

type LogNotifier struct {
	Logger *zap.Logger
}

func (n LogNotifier) Notify(_ context.Context, r models.Reminder) {
	n.Logger.Info("event reminder",
		zap.String("event_id", r.EventID),
		zap.String("title", r.Title),
		zap.Time("start_time", r.StartTime))
}

// Feed keeps the most recent reminders, newest last.
type Feed struct {
	mu    sync.RWMutex
	limit int
	items []models.Reminder
}

func NewFeed(limit int) *Feed {
	if limit <= 0 {
		limit = 50
	}
	return &Feed{limit: limit}
}

func (f *Feed) Notify(_ context.Context, r models.Reminder) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.items = append(f.items, r)
	if len(f.items) > f.limit {
		f.items = f.items[len(f.items)-f.limit:]
	}
}

func (f *Feed) Recent() []models.Reminder {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]models.Reminder, len(f.items))
	copy(out, f.items)
	return out
}
