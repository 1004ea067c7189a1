// ABOUTME: Calendar CLI commands
// ABOUTME: Add, list and complete events, export iCalendar, and run one reminder check
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/harperreed/leadgen/calendar"
	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/kvstore"
	"github.com/harperreed/leadgen/models"
	"github.com/harperreed/leadgen/reminders"
)

const eventTimeLayout = "2006-01-02 15:04"

func parseEventTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(eventTimeLayout, s, time.Local)
}

func AddEventCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("event add", flag.ExitOnError)
	title := fs.String("title", "", "Event title (required)")
	start := fs.String("start", "", "Start, \"2006-01-02 15:04\" or RFC3339 (required)")
	end := fs.String("end", "", "End (default start + 1h)")
	description := fs.String("description", "", "Description")
	reminder := fs.Int("reminder", db.DefaultReminderMinutes, "Minutes before start to remind (0 disables)")
	contactID := fs.String("contact", "", "Linked contact ID")
	_ = fs.Parse(args)

	if *title == "" || *start == "" {
		return fmt.Errorf("--title and --start are required")
	}
	startTime, err := parseEventTime(*start)
	if err != nil {
		return fmt.Errorf("invalid --start: %w", err)
	}

	event := &models.Event{
		Title:           *title,
		Description:     *description,
		StartTime:       startTime,
		ReminderMinutes: *reminder,
	}
	if *end != "" {
		endTime, err := parseEventTime(*end)
		if err != nil {
			return fmt.Errorf("invalid --end: %w", err)
		}
		event.EndTime = endTime
	}
	if *contactID != "" {
		event.ContactID = contactID
	}

	if err := app.Events.Create(context.Background(), event); err != nil {
		return fmt.Errorf("failed to create event: %w", err)
	}
	app.printf("✓ Event created: %s (ID: %s)\n", event.Title, event.ID)
	app.printf("  %s, reminder %d min before\n", event.StartTime.Local().Format(eventTimeLayout), event.ReminderMinutes)
	return nil
}

func ListEventsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("event list", flag.ExitOnError)
	all := fs.Bool("all", false, "Include past and completed events")
	_ = fs.Parse(args)

	from := time.Now()
	if *all {
		from = time.Time{}
	}
	events, err := app.Events.List(context.Background(), from, *all)
	if err != nil {
		return err
	}
	if len(events) == 0 {
		app.printf("No events\n")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tSTART\tTITLE\tREMINDER\tDONE")
	for _, e := range events {
		done := ""
		if e.IsCompleted {
			done = "✓"
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%dm\t%s\n",
			e.ID, e.StartTime.Local().Format(eventTimeLayout), e.Title, e.ReminderMinutes, done)
	}
	return w.Flush()
}

func CompleteEventCommand(app *App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: leadgen event complete <id>")
	}
	if err := app.Events.Complete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to complete event: %w", err)
	}
	app.printf("✓ Event completed: %s\n", args[0])
	return nil
}

// ExportICSCommand writes every event, completed ones as cancelled entries.
func ExportICSCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("event ics", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default stdout)")
	_ = fs.Parse(args)

	ctx := context.Background()
	events, err := app.Events.List(ctx, time.Time{}, true)
	if err != nil {
		return err
	}
	contacts, err := app.Contacts.List(ctx, db.ContactFilter{})
	if err != nil {
		return err
	}
	byID := make(map[string]models.Contact, len(contacts))
	for _, c := range contacts {
		byID[c.ID] = c
	}

	return withOutput(app, *output, func(w io.Writer) error {
		return calendar.ExportICS(w, events, byID, time.Now())
	})
}

type printNotifier struct {
	out io.Writer
}

func (n printNotifier) Notify(_ context.Context, r models.Reminder) {
	_, _ = fmt.Fprintf(n.out, "🔔 %s à %s\n", r.Title, r.StartTime.Local().Format("15:04"))
}

// CheckRemindersCommand runs a single poll. Markers are shared with 'serve', so an
// event reminded here is not reminded again there.
func CheckRemindersCommand(app *App, args []string) error {
	kv, err := app.OpenKV()
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	poller := reminders.NewPoller(app.Events, kvstore.NewReminderMarkers(kv), reminders.DefaultInterval, app.Logger,
		printNotifier{out: app.Out})
	emitted, err := poller.Check(context.Background())
	if err != nil {
		return err
	}
	if len(emitted) == 0 {
		app.printf("No reminders due\n")
	}
	return nil
}
