// ABOUTME: Campaign CLI commands
// ABOUTME: Create, list, send, qualify targets, and export reports and outcome statistics
package cli

import (
	"context"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/harperreed/leadgen/campaign"
	"github.com/harperreed/leadgen/csvio"
	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/mailer"
	"github.com/harperreed/leadgen/models"
)

// CreateCampaignCommand fixes the audience at creation: explicit IDs, or every contact
// matching --category/--tag.
func CreateCampaignCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("campaign create", flag.ExitOnError)
	name := fs.String("name", "", "Campaign name (required)")
	goalFlag := fs.String("goal", string(models.GoalMeeting), "Meeting, Positive or Event")
	subject := fs.String("subject", "", "Email subject")
	body := fs.String("template", "", "Email body")
	bodyFile := fs.String("template-file", "", "Read the email body from a file")
	targets := fs.String("targets", "", "Comma-separated contact IDs")
	category := fs.String("category", "", "Target every contact of this category")
	tag := fs.String("tag", "", "Target every contact with this tag")
	_ = fs.Parse(args)

	if *name == "" {
		return fmt.Errorf("--name is required")
	}
	goal, err := models.ParseCampaignGoal(*goalFlag)
	if err != nil {
		return err
	}

	template := *body
	if *bodyFile != "" {
		raw, err := os.ReadFile(*bodyFile)
		if err != nil {
			return fmt.Errorf("failed to read template: %w", err)
		}
		template = string(raw)
	}

	ctx := context.Background()
	ids := splitList(*targets)
	if *category != "" || *tag != "" {
		filter := db.ContactFilter{Tag: *tag}
		if *category != "" {
			filter.Category = models.ParseCategory(*category)
		}
		contacts, err := app.Contacts.List(ctx, filter)
		if err != nil {
			return err
		}
		for _, c := range contacts {
			ids = append(ids, c.ID)
		}
	}

	c := &models.Campaign{
		Name:             *name,
		Goal:             goal,
		Subject:          *subject,
		Template:         template,
		TargetContactIDs: uniqueIDs(ids),
	}
	if err := app.Campaigns.Create(ctx, c); err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}

	app.printf("✓ Campaign created: %s (ID: %s)\n", c.Name, c.ID)
	app.printf("  Goal: %s, %d target(s)\n", c.Goal, len(c.TargetContactIDs))
	return nil
}

func ListCampaignsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("campaign list", flag.ExitOnError)
	status := fs.String("status", "", "Draft, Running or Completed")
	_ = fs.Parse(args)

	campaigns, err := app.Campaigns.List(context.Background(), models.CampaignStatus(*status))
	if err != nil {
		return err
	}
	if len(campaigns) == 0 {
		app.printf("No campaigns found\n")
		return nil
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "ID\tNAME\tGOAL\tSTATUS\tTARGETS\tSENT\tQUALIFIED\tREACHED")
	for _, c := range campaigns {
		s := campaign.Summarize(c)
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%d\t%d\t%d\n",
			s.ID, s.Name, s.Goal, s.Status, s.Targets, s.Sent, s.Qualified, s.GoalReached)
	}
	return w.Flush()
}

// SendCampaignCommand runs the send loop. Ctrl-C stops between two emails; running it
// again resumes with the targets not yet sent.
func SendCampaignCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("campaign send", flag.ExitOnError)
	delay := fs.Duration("delay", time.Duration(app.Config.SendDelay), "Pause between emails")
	_ = fs.Parse(args)

	if fs.NArg() < 1 {
		return fmt.Errorf("usage: leadgen campaign send <id> [--delay 1.5s]")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := mailer.NewEmailJS(app.Config.MailerConfig(), &http.Client{Timeout: 30 * time.Second})
	sender := campaign.NewSender(app.Campaigns, app.Contacts, app.Emails, m, app.Config.TrackingBaseURL, *delay, app.Logger)

	report, err := sender.Send(ctx, fs.Arg(0))
	app.printf("✓ Sent %d, failed %d, skipped %d\n", report.Sent, report.Failed, report.Skipped)
	for _, e := range report.Errors {
		app.printf("  ! %s\n", e)
	}
	if err != nil {
		return fmt.Errorf("send stopped: %w", err)
	}
	return nil
}

// QualifyCommand records one contact's outcome: qualify <campaign> <contact> <status> [--attendees n].
func QualifyCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("campaign qualify", flag.ExitOnError)
	attendees := fs.Int("attendees", -1, "People registered (Registered outcomes)")
	_ = fs.Parse(args)

	if fs.NArg() < 3 {
		return fmt.Errorf("usage: leadgen campaign qualify <campaign-id> <contact-id> <Positive|Negative|Meeting|Registered|None> [--attendees n]")
	}
	status, err := models.ParseOutcomeStatus(fs.Arg(2))
	if err != nil {
		return err
	}

	var count *int
	if *attendees >= 0 {
		count = attendees
	}

	tracker := campaign.NewTracker(app.Campaigns, app.Logger)
	detail, err := tracker.UpdateOutcome(context.Background(), fs.Arg(0), fs.Arg(1), status, count)
	if err != nil {
		return err
	}

	app.printf("✓ %s qualified as %s", fs.Arg(1), detail.Status)
	if detail.Status == models.OutcomeRegistered {
		app.printf(" (%d participant(s))", detail.Attendees)
	}
	app.printf("\n")
	return nil
}

// CampaignReportCommand exports outcomes for one campaign, or all of them.
func CampaignReportCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("campaign report", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default stdout)")
	_ = fs.Parse(args)

	ctx := context.Background()
	var campaigns []models.Campaign
	if fs.NArg() > 0 {
		c, err := app.Campaigns.Get(ctx, fs.Arg(0))
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("campaign not found: %s", fs.Arg(0))
		}
		campaigns = []models.Campaign{*c}
	} else {
		all, err := app.Campaigns.List(ctx, "")
		if err != nil {
			return err
		}
		campaigns = all
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
		return csvio.ExportCampaignReport(w, campaigns, byID)
	})
}

// StatsCommand prints outcome totals across every campaign.
func StatsCommand(app *App, args []string) error {
	campaigns, err := app.Campaigns.List(context.Background(), "")
	if err != nil {
		return err
	}
	s := campaign.Aggregate(campaigns)

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	rows := []struct {
		label string
		value int
	}{
		{"Inscrits", s.Registered},
		{"Rendez-vous", s.Meetings},
		{"Positifs", s.Positive},
		{"Négatifs", s.Negative},
		{"NSP", s.NSP},
	}
	for _, r := range rows {
		_, _ = fmt.Fprintf(w, "%s\t%s\n", r.label, strconv.Itoa(r.value))
	}
	return w.Flush()
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
