// ABOUTME: Deal CLI commands
// ABOUTME: Add, list as Kanban columns, move between stages, and delete deals
package cli

import (
	"context"
	"flag"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/harperreed/leadgen/models"
	"github.com/harperreed/leadgen/viz"
)

func AddDealCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("deal add", flag.ExitOnError)
	title := fs.String("title", "", "Deal title (required)")
	value := fs.Float64("value", 0, "Deal value in euros")
	probability := fs.Int("probability", 10, "Win probability (0-100)")
	stageFlag := fs.String("stage", string(models.StageNew), "Initial stage")
	contactID := fs.String("contact", "", "Linked contact ID")
	closeDate := fs.String("close", "", "Expected close date (YYYY-MM-DD)")
	_ = fs.Parse(args)

	if *title == "" {
		return fmt.Errorf("--title is required")
	}
	stage, err := models.ParseDealStage(*stageFlag)
	if err != nil {
		return err
	}

	deal := &models.Deal{
		Title:       *title,
		Value:       *value,
		Probability: *probability,
		Stage:       stage,
	}
	if *contactID != "" {
		deal.ContactID = contactID
	}
	if *closeDate != "" {
		parsed, err := time.Parse("2006-01-02", *closeDate)
		if err != nil {
			return fmt.Errorf("invalid --close date (use YYYY-MM-DD): %w", err)
		}
		deal.ExpectedCloseDate = &parsed
	}

	if err := app.Deals.Create(context.Background(), deal); err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}
	app.printf("✓ Deal created: %s (ID: %s)\n", deal.Title, deal.ID)
	app.printf("  %s, %s\n", viz.FormatEuros(deal.Value), deal.Stage)
	return nil
}

// ListDealsCommand prints the board column by column.
func ListDealsCommand(app *App, args []string) error {
	ctx := context.Background()
	board, err := app.Board(ctx)
	if err != nil {
		return err
	}
	names, err := app.contactNames(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(app.Out, 0, 0, 2, ' ', 0)
	for _, col := range board.Columns() {
		_, _ = fmt.Fprintf(w, "%s (%d)\t%s\tpondéré %s\n",
			col.Stage, len(col.Deals), viz.FormatEuros(col.Total), viz.FormatEuros(col.Weighted))
		for _, d := range col.Deals {
			contact := ""
			if d.ContactID != nil {
				contact = names[*d.ContactID]
			}
			_, _ = fmt.Fprintf(w, "  %s\t%s\t%s\t%d%%\t%s\n", d.ID, d.Title, viz.FormatEuros(d.Value), d.Probability, contact)
		}
	}
	_ = w.Flush()

	t := board.Totals()
	app.printf("\nPipeline ouvert: %s (pondéré %s), gagné: %s\n",
		viz.FormatEuros(t.OpenValue), viz.FormatEuros(t.OpenWeighted), viz.FormatEuros(t.WonValue))
	return nil
}

// MoveDealCommand moves a deal: move <id> <stage>. The board only changes after the write.
func MoveDealCommand(app *App, args []string) error {
	if len(args) < 2 {
		return fmt.Errorf("usage: leadgen deal move <id> <stage>")
	}
	stage, err := models.ParseDealStage(args[1])
	if err != nil {
		return err
	}

	ctx := context.Background()
	board, err := app.Board(ctx)
	if err != nil {
		return err
	}
	before, ok := board.Deal(args[0])
	if !ok {
		return fmt.Errorf("deal not found: %s", args[0])
	}
	if err := board.Transition(ctx, args[0], stage); err != nil {
		return fmt.Errorf("failed to move deal: %w", err)
	}

	app.printf("✓ %s: %s → %s\n", before.Title, before.Stage, stage)
	return nil
}

func DeleteDealCommand(app *App, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: leadgen deal delete <id>")
	}
	if err := app.Deals.Delete(context.Background(), args[0]); err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	app.printf("✓ Deal deleted: %s\n", args[0])
	return nil
}
