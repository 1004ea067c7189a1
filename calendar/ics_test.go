package calendar

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/emersion/go-ical"
	"github.com/harperreed/leadgen/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExportICS(t *testing.T) {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	contactID := "c1"
	events := []models.Event{
		{ID: "e1", Title: "Rendez-vous Acme", StartTime: start, EndTime: start.Add(30 * time.Minute), ReminderMinutes: 15, ContactID: &contactID},
		{ID: "e2", Title: "Relance", StartTime: start.Add(24 * time.Hour), ReminderMinutes: 0},
	}
	contacts := map[string]models.Contact{"c1": {FirstName: "Léa", LastName: "Martin", Company: "Acme"}}

	var buf bytes.Buffer
	require.NoError(t, ExportICS(&buf, events, contacts, start.Add(-time.Hour)))

	out := buf.String()
	assert.Contains(t, out, "UID:e1@leadgen")
	assert.Contains(t, out, "DTSTART:20260310T140000Z")
	assert.Contains(t, out, "TRIGGER:-PT15M")
	assert.Contains(t, out, "Léa Martin (Acme)")
	assert.Equal(t, 1, strings.Count(out, "BEGIN:VALARM"))

	cal, err := ical.NewDecoder(strings.NewReader(out)).Decode()
	require.NoError(t, err)
	assert.Len(t, cal.Events(), 2)
}

func TestExportICSEmpty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ExportICS(&buf, nil, nil, time.Now()))
	assert.True(t, strings.HasPrefix(buf.String(), "BEGIN:VCALENDAR"))
	assert.Contains(t, buf.String(), "END:VCALENDAR")
}
