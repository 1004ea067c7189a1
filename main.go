// ABOUTME: Entry point for the leadgen CRM: CLI, MCP server, web dashboard and TUI
// ABOUTME: Loads configuration, builds the logger, and routes to the command groups
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"sort"

	"go.uber.org/zap"

	"github.com/harperreed/leadgen/cli"
	"github.com/harperreed/leadgen/config"
	"github.com/harperreed/leadgen/logging"
)

const version = "0.2.0"

type handler func(app *cli.App, args []string) error

var groups = map[string]map[string]handler{
	"contact": {
		"add":        cli.AddContactCommand,
		"list":       cli.ListContactsCommand,
		"update":     cli.UpdateContactCommand,
		"delete":     cli.DeleteContactCommand,
		"import":     cli.ImportContactsCommand,
		"export":     cli.ExportContactsCommand,
		"duplicates": cli.DuplicatesCommand,
		"merge":      cli.MergeContactsCommand,
		"similar":    cli.SimilarContactsCommand,
	},
	"campaign": {
		"create":  cli.CreateCampaignCommand,
		"list":    cli.ListCampaignsCommand,
		"send":    cli.SendCampaignCommand,
		"qualify": cli.QualifyCommand,
		"report":  cli.CampaignReportCommand,
		"stats":   cli.StatsCommand,
	},
	"deal": {
		"add":    cli.AddDealCommand,
		"list":   cli.ListDealsCommand,
		"move":   cli.MoveDealCommand,
		"delete": cli.DeleteDealCommand,
	},
	"event": {
		"add":             cli.AddEventCommand,
		"list":            cli.ListEventsCommand,
		"complete":        cli.CompleteEventCommand,
		"ics":             cli.ExportICSCommand,
		"check-reminders": cli.CheckRemindersCommand,
	},
	"ai": {
		"extract":  cli.ExtractCommand,
		"score":    cli.ScoreCommand,
		"template": cli.TemplateCommand,
	},
	"viz": {
		"dashboard": cli.VizDashboardCommand,
		"graph":     cli.VizGraphPipelineCommand,
	},
	"sync": {
		"init":     cli.SyncInitCommand,
		"calendar": cli.SyncCalendarCommand,
		"contacts": cli.SyncContactsCommand,
	},
}

func main() {
	showVersion := flag.Bool("version", false, "Show version and exit")
	configPath := flag.String("config", "", "Config file (default: ~/.config/leadgen/config.json)")
	dbPath := flag.String("db-path", "", "Database path (default: ~/.local/share/leadgen/leadgen.db)")
	flag.Usage = printUsage
	flag.Parse()

	if *showVersion {
		fmt.Printf("leadgen version %s\n", version)
		return
	}

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	if *dbPath != "" {
		cfg.DBPath = *dbPath
	}

	command, commandArgs := args[0], args[1:]

	// config commands must work without a database
	if command == "config" {
		if err := runConfig(cfg, *configPath, commandArgs); err != nil {
			log.Fatalf("Error: %v", err)
		}
		return
	}

	logger, err := logging.New(cfg.LogLevel, cfg.LogPretty)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	run, runArgs, ok := resolve(command, commandArgs)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", joinCommand(command, commandArgs))
		printUsage()
		os.Exit(1)
	}

	app, err := cli.OpenApp(cfg, logger)
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
	logger.Debug("database opened", zap.String("path", cfg.DBPath))

	err = run(app, runArgs)
	_ = app.Close()
	if err != nil {
		log.Fatalf("Error: %v", err)
	}
}

// resolve maps "group sub args..." or a top-level command to its handler.
func resolve(command string, args []string) (handler, []string, bool) {
	switch command {
	case "mcp":
		return func(app *cli.App, _ []string) error { return cli.MCPCommand(app, version) }, args, true
	case "serve":
		return cli.ServeCommand, args, true
	case "tui":
		return cli.TUICommand, args, true
	}

	group, ok := groups[command]
	if !ok || len(args) == 0 {
		return nil, nil, false
	}
	run, ok := group[args[0]]
	if !ok {
		return nil, nil, false
	}
	return run, args[1:], true
}

func runConfig(cfg *config.Config, path string, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("config requires a subcommand: show, set-secret, init")
	}
	switch args[0] {
	case "show":
		return cli.ConfigShowCommand(cfg, os.Stdout)
	case "set-secret":
		return cli.ConfigSetSecretCommand(args[1:], os.Stdout)
	case "init":
		return cli.ConfigInitCommand(cfg, path, os.Stdout)
	}
	return fmt.Errorf("unknown config command: %s", args[0])
}

func joinCommand(command string, args []string) string {
	if len(args) == 0 {
		return command
	}
	return command + " " + args[0]
}

func printUsage() {
	fmt.Printf(`leadgen v%s - lead generation CRM

USAGE:
  leadgen [global flags] <command> [subcommand] [flags]

GLOBAL FLAGS:
  --version              Show version and exit
  --config <path>        Config file (default: ~/.config/leadgen/config.json)
  --db-path <path>       Database path (default: ~/.local/share/leadgen/leadgen.db)

COMMANDS:
  mcp                    Start the MCP server on stdio
  serve                  Web dashboard, tracking pixel and reminder poller
    --addr <addr>            Listen address (default: :<port>)
    --reminder-interval <d>  Reminder poll period (default: 1m)
  tui                    Interactive pipeline board
  config                 show | set-secret <name> <value> | init
`, version)

	names := make([]string, 0, len(groups))
	for name := range groups {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		subs := make([]string, 0, len(groups[name]))
		for sub := range groups[name] {
			subs = append(subs, sub)
		}
		sort.Strings(subs)
		fmt.Printf("  %-22s %v\n", name, subs)
	}

	fmt.Print(`
Run 'leadgen <command> <subcommand> --help' for the flags of a subcommand.

EXAMPLES:
  leadgen contact import --category member adherents.csv
  leadgen campaign create --name "Gala 2026" --goal Event --category member
  leadgen campaign qualify --attendees 2 <campaign-id> <contact-id> Registered
  leadgen deal move <deal-id> negotiation
  leadgen serve
`)
}
