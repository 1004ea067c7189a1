// ABOUTME: Persistent "already notified" markers for event reminders
// ABOUTME: Markers are written once and never cleared
package kvstore

import (
	"time"
)

const reminderPrefix = "reminder:notified:"

// ReminderMarkers records which events have already been reminded.
type ReminderMarkers struct {
	store *Store
}

func NewReminderMarkers(store *Store) *ReminderMarkers {
	return &ReminderMarkers{store: store}
}

func (m *ReminderMarkers) IsNotified(eventID string) (bool, error) {
	return m.store.Has(reminderPrefix + eventID)
}

// MarkNotified stores the time the reminder fired.
func (m *ReminderMarkers) MarkNotified(eventID string, at time.Time) error {
	return m.store.Set(reminderPrefix+eventID, []byte(at.UTC().Format(time.RFC3339)))
}

// NotifiedAt returns when the event was reminded, or false when it never was.
func (m *ReminderMarkers) NotifiedAt(eventID string) (time.Time, bool, error) {
	raw, err := m.store.Get(reminderPrefix + eventID)
	if err == ErrNotFound {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}
	t, err := time.Parse(time.RFC3339, string(raw))
	if err != nil {
		return time.Time{}, true, nil
	}
	return t, true, nil
}

// Count reports how many events carry a marker.
func (m *ReminderMarkers) Count() (int, error) {
	keys, err := m.store.KeysWithPrefix(reminderPrefix)
	return len(keys), err
}
