// ABOUTME: AI assistant CLI commands backed by the Gemini fallback chain
// ABOUTME: Extract contacts from free text, score leads, and draft campaign emails
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/harperreed/leadgen/ai"
	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/models"
)

// ExtractCommand reads a signature or business card from a file (or stdin with "-").
func ExtractCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("ai extract", flag.ExitOnError)
	save := fs.Bool("save", false, "Create the extracted contact")
	_ = fs.Parse(args)

	var r io.Reader = os.Stdin
	if fs.NArg() > 0 && fs.Arg(0) != "-" {
		f, err := os.Open(fs.Arg(0))
		if err != nil {
			return err
		}
		defer func() { _ = f.Close() }()
		r = f
	}
	raw, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	if strings.TrimSpace(string(raw)) == "" {
		return fmt.Errorf("no text to extract from")
	}

	ctx := context.Background()
	assistant, err := app.Assistant(ctx)
	if err != nil {
		return err
	}
	contact, err := assistant.ExtractContact(ctx, string(raw))
	if err != nil {
		return explainAIError(err)
	}

	app.printf("%s\n", contact.FullName())
	for _, line := range [][2]string{
		{"Company", contact.Company}, {"Title", contact.Title}, {"Email", contact.Email},
		{"Phone", contact.Phone}, {"LinkedIn", contact.LinkedIn}, {"Website", contact.Website},
	} {
		if line[1] != "" {
			app.printf("  %s: %s\n", line[0], line[1])
		}
	}

	if *save {
		if err := app.Contacts.Create(ctx, &contact); err != nil {
			return fmt.Errorf("failed to create contact: %w", err)
		}
		app.printf("✓ Contact created (ID: %s)\n", contact.ID)
	}
	return nil
}

// ScoreCommand scores the given contacts, or every unscored prospect with --unscored.
func ScoreCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("ai score", flag.ExitOnError)
	unscored := fs.Bool("unscored", false, "Score every prospect without a score")
	_ = fs.Parse(args)

	ctx := context.Background()
	var targets []models.Contact
	if *unscored {
		prospects, err := app.Contacts.List(ctx, db.ContactFilter{Category: models.CategoryProspect})
		if err != nil {
			return err
		}
		for _, c := range prospects {
			if c.Score == nil {
				targets = append(targets, c)
			}
		}
	}
	for _, id := range fs.Args() {
		c, err := app.Contacts.Get(ctx, id)
		if err != nil {
			return err
		}
		if c == nil {
			return fmt.Errorf("contact not found: %s", id)
		}
		targets = append(targets, *c)
	}
	if len(targets) == 0 {
		return fmt.Errorf("usage: leadgen ai score <id>... | --unscored")
	}

	assistant, err := app.Assistant(ctx)
	if err != nil {
		return err
	}
	for i := range targets {
		c := &targets[i]
		score, err := assistant.ScoreContact(ctx, *c)
		if err != nil {
			return explainAIError(err)
		}
		c.Score = &score.Score
		c.ScoreReason = score.Reason
		if err := app.Contacts.Update(ctx, c); err != nil {
			return fmt.Errorf("failed to save score: %w", err)
		}
		app.printf("✓ %s: %d (%s)\n", c.FullName(), score.Score, score.Reason)
	}
	return nil
}

// TemplateCommand drafts an email. With --campaign the draft replaces that campaign's subject and body.
func TemplateCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("ai template", flag.ExitOnError)
	goalFlag := fs.String("goal", string(models.GoalMeeting), "Meeting, Positive or Event")
	brief := fs.String("brief", "", "What the email is about")
	campaignID := fs.String("campaign", "", "Store the draft on this campaign")
	_ = fs.Parse(args)

	ctx := context.Background()
	var target *models.Campaign
	goal, err := models.ParseCampaignGoal(*goalFlag)
	if err != nil {
		return err
	}
	if *campaignID != "" {
		target, err = app.Campaigns.Get(ctx, *campaignID)
		if err != nil {
			return err
		}
		if target == nil {
			return fmt.Errorf("campaign not found: %s", *campaignID)
		}
		goal = target.Goal
	}

	assistant, err := app.Assistant(ctx)
	if err != nil {
		return err
	}
	tpl, err := assistant.GenerateTemplate(ctx, goal, *brief)
	if err != nil {
		return explainAIError(err)
	}

	app.printf("Objet: %s\n\n%s\n", tpl.Subject, tpl.Body)
	if target != nil {
		target.Subject = tpl.Subject
		target.Template = tpl.Body
		if err := app.Campaigns.UpdateContent(ctx, target); err != nil {
			return fmt.Errorf("failed to save template: %w", err)
		}
		app.printf("\n✓ Saved on campaign %s\n", target.Name)
	}
	return nil
}

// explainAIError adds a hint for the two failure modes a user can act on.
func explainAIError(err error) error {
	switch {
	case errors.Is(err, ai.ErrAuth):
		return fmt.Errorf("%w (check the Gemini API key)", err)
	case errors.Is(err, ai.ErrExhausted):
		return fmt.Errorf("%w (try again later or change gemini_models)", err)
	}
	return err
}
