package reminders

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/harperreed/leadgen/kvstore"
	"github.com/harperreed/leadgen/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

type fakeEvents struct {
	mu     sync.Mutex
	events []models.Event
	err    error
	calls  int
}

func (f *fakeEvents) Upcoming(_ context.Context, from, to time.Time) ([]models.Event, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	var out []models.Event
	for _, e := range f.events {
		if !e.StartTime.Before(from) && !e.StartTime.After(to) && !e.IsCompleted {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeEvents) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type memMarkers map[string]time.Time

func (m memMarkers) IsNotified(id string) (bool, error) {
	_, ok := m[id]
	return ok, nil
}

func (m memMarkers) MarkNotified(id string, at time.Time) error {
	m[id] = at
	return nil
}

func newMarkers(t *testing.T) *kvstore.ReminderMarkers {
	t.Helper()
	s, err := kvstore.OpenInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return kvstore.NewReminderMarkers(s)
}

func TestCheckEmitsOnceThenSuppresses(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	events := &fakeEvents{events: []models.Event{
		{ID: "e1", Title: "Call Acme", StartTime: now.Add(10 * time.Minute), ReminderMinutes: 15},
	}}
	p := NewPoller(events, newMarkers(t), 0, nil)
	p.now = func() time.Time { return now }

	first, err := p.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, first, 1)
	assert.Equal(t, "e1", first[0].EventID)
	assert.True(t, first[0].ReminderTime.Equal(now.Add(-5*time.Minute)))

	p.now = func() time.Time { return now.Add(30 * time.Second) }
	second, err := p.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, second)
}

func TestCheckWindowBoundaries(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	events := &fakeEvents{events: []models.Event{
		{ID: "too-early", StartTime: now.Add(30 * time.Minute), ReminderMinutes: 15},
		{ID: "opens-now", StartTime: now.Add(15 * time.Minute), ReminderMinutes: 15},
		{ID: "zero-lead", StartTime: now.Add(time.Minute), ReminderMinutes: 0},
		{ID: "done", StartTime: now.Add(5 * time.Minute), ReminderMinutes: 15, IsCompleted: true},
		{ID: "started", StartTime: now, ReminderMinutes: 15},
		{ID: "far", StartTime: now.Add(2 * time.Hour), ReminderMinutes: 180},
	}}
	p := NewPoller(events, newMarkers(t), 0, nil)
	p.now = func() time.Time { return now }

	got, err := p.Check(context.Background())
	require.NoError(t, err)

	var ids []string
	for _, r := range got {
		ids = append(ids, r.EventID)
	}
	assert.Equal(t, []string{"opens-now"}, ids)
}

func TestCheckMarkerSurvivesNewPoller(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	events := &fakeEvents{events: []models.Event{{ID: "e1", StartTime: now.Add(5 * time.Minute), ReminderMinutes: 10}}}
	markers := newMarkers(t)

	p1 := NewPoller(events, markers, 0, nil)
	p1.now = func() time.Time { return now }
	got, err := p1.Check(context.Background())
	require.NoError(t, err)
	require.Len(t, got, 1)

	p2 := NewPoller(events, markers, 0, nil)
	p2.now = func() time.Time { return now.Add(time.Minute) }
	got, err = p2.Check(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestCheckNotifiesAndFeeds(t *testing.T) {
	now := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	events := &fakeEvents{events: []models.Event{
		{ID: "a", StartTime: now.Add(time.Minute), ReminderMinutes: 5},
		{ID: "b", StartTime: now.Add(2 * time.Minute), ReminderMinutes: 5},
	}}
	feed := NewFeed(1)
	p := NewPoller(events, newMarkers(t), 0, nil, feed)
	p.now = func() time.Time { return now }

	_, err := p.Check(context.Background())
	require.NoError(t, err)

	recent := feed.Recent()
	require.Len(t, recent, 1)
	assert.Equal(t, "b", recent[0].EventID)
}

func TestCheckSourceError(t *testing.T) {
	p := NewPoller(&fakeEvents{err: errors.New("db closed")}, newMarkers(t), 0, nil)
	_, err := p.Check(context.Background())
	assert.ErrorContains(t, err, "db closed")
}

func TestRunChecksImmediatelyAndStops(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	events := &fakeEvents{}
	p := NewPoller(events, memMarkers{}, 10*time.Millisecond, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- p.Run(ctx) }()

	require.Eventually(t, func() bool { return events.callCount() >= 2 }, time.Second, 5*time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("poller did not stop")
	}
}
