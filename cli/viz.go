// ABOUTME: Visualization CLI commands
// ABOUTME: Terminal dashboard and pipeline graph export (xdot or svg)
package cli

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/harperreed/leadgen/viz"
)

// VizGraphPipelineCommand renders the pipeline board as a graph.
func VizGraphPipelineCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("viz graph", flag.ExitOnError)
	output := fs.String("output", "", "Output file (default: stdout)")
	format := fs.String("format", "dot", "dot or svg")
	_ = fs.Parse(args)

	ctx := context.Background()
	board, err := app.Board(ctx)
	if err != nil {
		return err
	}
	names, err := app.contactNames(ctx)
	if err != nil {
		return err
	}
	generator := viz.NewGraphGenerator(board, names)

	var out []byte
	switch *format {
	case "dot":
		dot, err := generator.GeneratePipelineGraph(ctx)
		if err != nil {
			return err
		}
		out = []byte(dot)
	case "svg":
		out, err = generator.GeneratePipelineSVG(ctx)
		if err != nil {
			return err
		}
	default:
		return fmt.Errorf("unknown format %q (dot or svg)", *format)
	}

	if *output != "" {
		if err := os.WriteFile(*output, out, 0644); err != nil {
			return err
		}
		app.printf("✓ Wrote %s\n", *output)
		return nil
	}
	_, err = app.Out.Write(out)
	return err
}

func VizDashboardCommand(app *App, args []string) error {
	ctx := context.Background()
	board, err := app.Board(ctx)
	if err != nil {
		return err
	}
	collector := &viz.Collector{Contacts: app.Contacts, Campaigns: app.Campaigns, Events: app.Events, Board: board}

	stats, err := collector.Collect(ctx, time.Now())
	if err != nil {
		return fmt.Errorf("failed to generate dashboard stats: %w", err)
	}
	app.printf("%s", viz.RenderDashboard(stats))
	return nil
}
