// ABOUTME: Long-running serve command: web dashboard, tracking pixel, and reminder poller
// ABOUTME: Both loops share one context and stop together on SIGINT/SIGTERM
package cli

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/harperreed/leadgen/kvstore"
	"github.com/harperreed/leadgen/reminders"
	"github.com/harperreed/leadgen/viz"
	"github.com/harperreed/leadgen/web"
)

const reminderFeedSize = 50

// liveBoard reloads deals on every request so moves made from the CLI or MCP show up.
type liveBoard struct {
	app *App
}

func (l liveBoard) Collect(ctx context.Context, now time.Time) (*viz.DashboardStats, error) {
	board, err := l.app.Board(ctx)
	if err != nil {
		return nil, err
	}
	collector := &viz.Collector{Contacts: l.app.Contacts, Campaigns: l.app.Campaigns, Events: l.app.Events, Board: board}
	return collector.Collect(ctx, now)
}

func (l liveBoard) GeneratePipelineSVG(ctx context.Context) ([]byte, error) {
	board, err := l.app.Board(ctx)
	if err != nil {
		return nil, err
	}
	names, err := l.app.contactNames(ctx)
	if err != nil {
		return nil, err
	}
	return viz.NewGraphGenerator(board, names).GeneratePipelineSVG(ctx)
}

func ServeCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("serve", flag.ExitOnError)
	addr := fs.String("addr", app.Config.Addr(), "Listen address")
	interval := fs.Duration("reminder-interval", time.Duration(app.Config.ReminderPeriod), "Reminder poll interval")
	_ = fs.Parse(args)

	kv, err := app.OpenKV()
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	feed := reminders.NewFeed(reminderFeedSize)
	poller := reminders.NewPoller(app.Events, kvstore.NewReminderMarkers(kv), *interval, app.Logger,
		reminders.LogNotifier{Logger: app.Logger}, feed)

	live := liveBoard{app: app}
	server, err := web.NewServer(app.Emails, live, feed, live, app.Logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return poller.Run(ctx) })
	g.Go(func() error { return server.Run(ctx, *addr) })

	app.Logger.Info("leadgen serving",
		zap.String("addr", *addr),
		zap.Duration("reminder_interval", *interval),
		zap.String("tracking_base_url", app.Config.TrackingBaseURL))
	return g.Wait()
}
