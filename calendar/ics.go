// ABOUTME: iCalendar export of CRM events with their reminders as VALARM components
// ABOUTME: Lets calendar apps show the same reminders the poller emits
package calendar

import (
	"bytes"
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
	"github.com/harperreed/leadgen/models"
)

const (
	prodID = "-//leadgen//CRM calendar//FR"
	domain = "leadgen"
)

// emptyCalendar is written when there is nothing to export; the encoder rejects a
// calendar without components.
const emptyCalendar = "BEGIN:VCALENDAR\r\nVERSION:2.0\r\nPRODID:" + prodID + "\r\nEND:VCALENDAR\r\n"

// ExportICS writes events as a VCALENDAR. contacts is used to name the linked contact
// in each description and may be nil.
func ExportICS(w io.Writer, events []models.Event, contacts map[string]models.Contact, now time.Time) error {
	if len(events) == 0 {
		_, err := io.WriteString(w, emptyCalendar)
		return err
	}

	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, prodID)
	cal.Props.SetText("X-WR-CALNAME", "Leadgen")

	for _, e := range events {
		cal.Children = append(cal.Children, toEvent(e, contacts, now).Component)
	}

	var buf bytes.Buffer
	if err := ical.NewEncoder(&buf).Encode(cal); err != nil {
		return fmt.Errorf("failed to encode calendar: %w", err)
	}
	_, err := w.Write(buf.Bytes())
	return err
}

func toEvent(e models.Event, contacts map[string]models.Contact, now time.Time) *ical.Event {
	event := ical.NewEvent()
	event.Props.SetText(ical.PropUID, fmt.Sprintf("%s@%s", e.ID, domain))
	event.Props.SetDateTime(ical.PropDateTimeStamp, now.UTC())
	event.Props.SetDateTime(ical.PropDateTimeStart, e.StartTime.UTC())

	end := e.EndTime
	if end.IsZero() || end.Before(e.StartTime) {
		end = e.StartTime.Add(time.Hour)
	}
	event.Props.SetDateTime(ical.PropDateTimeEnd, end.UTC())
	event.Props.SetText(ical.PropSummary, e.Title)

	description := e.Description
	if e.ContactID != nil {
		if c, ok := contacts[*e.ContactID]; ok {
			if description != "" {
				description += "\n"
			}
			description += "Contact: " + c.FullName()
			if c.Company != "" {
				description += " (" + c.Company + ")"
			}
		}
	}
	if description != "" {
		event.Props.SetText(ical.PropDescription, description)
	}
	if e.IsCompleted {
		event.Props.SetText(ical.PropStatus, "CANCELLED")
	}

	if e.ReminderMinutes > 0 {
		alarm := ical.NewComponent(ical.CompAlarm)
		alarm.Props.SetText(ical.PropAction, "DISPLAY")
		alarm.Props.SetText(ical.PropDescription, e.Title)

		trigger := ical.NewProp(ical.PropTrigger)
		trigger.Value = fmt.Sprintf("-PT%dM", e.ReminderMinutes)
		alarm.Props.Set(trigger)

		event.Children = append(event.Children, alarm)
	}
	return event
}
