// ABOUTME: Google sync CLI commands
// ABOUTME: OAuth setup, calendar import into reminders, and contacts import as prospects
package cli

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os/exec"
	"runtime"
	"time"

	"golang.org/x/oauth2"

	"github.com/harperreed/leadgen/csvio"
	"github.com/harperreed/leadgen/kvstore"
	"github.com/harperreed/leadgen/sync"
)

// SyncInitCommand runs the browser OAuth flow and stores the token.
func SyncInitCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("sync init", flag.ExitOnError)
	_ = fs.Parse(args)

	config, err := sync.RequireCredentials()
	if err != nil {
		return err
	}
	ctx := context.Background()

	tokenCh := make(chan *oauth2.Token, 1)
	errCh := make(chan error, 1)

	mux := http.NewServeMux()
	mux.HandleFunc("/oauth/callback", func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			errCh <- fmt.Errorf("no authorization code received")
			http.Error(w, "missing code", http.StatusBadRequest)
			return
		}
		token, err := config.Exchange(ctx, code)
		if err != nil {
			errCh <- fmt.Errorf("failed to exchange code: %w", err)
			http.Error(w, "exchange failed", http.StatusBadGateway)
			return
		}
		tokenCh <- token
		_, _ = fmt.Fprintf(w, "Authorization successful! You can close this window.")
	})

	server := &http.Server{Addr: ":8080", Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	defer func() { _ = server.Shutdown(ctx) }()

	authURL := config.AuthCodeURL("state", oauth2.AccessTypeOffline)
	app.printf("Opening browser for Google OAuth...\n")
	app.printf("\nIf the browser doesn't open, visit this URL:\n%s\n\n", authURL)
	_ = openBrowser(authURL)

	select {
	case token := <-tokenCh:
		if err := sync.SaveToken(sync.TokenPath(), token); err != nil {
			return fmt.Errorf("failed to save token: %w", err)
		}
		app.printf("✓ Authenticated, token saved to %s\n", sync.TokenPath())
		app.printf("Run 'leadgen sync calendar' or 'leadgen sync contacts' next.\n")
		return nil
	case err := <-errCh:
		return fmt.Errorf("OAuth flow failed: %w", err)
	}
}

func googleToken() (*oauth2.Config, *oauth2.Token, error) {
	config, err := sync.RequireCredentials()
	if err != nil {
		return nil, nil, err
	}
	token, err := sync.LoadToken(sync.TokenPath())
	if err != nil {
		return nil, nil, err
	}
	return config, token, nil
}

// SyncCalendarCommand imports meetings from the primary Google calendar as events.
func SyncCalendarCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("sync calendar", flag.ExitOnError)
	initial := fs.Bool("initial", false, "Ignore the saved sync token and re-read the last 30 days")
	_ = fs.Parse(args)

	config, token, err := googleToken()
	if err != nil {
		return err
	}
	ctx := context.Background()
	client, err := sync.NewCalendarClient(ctx, config, token)
	if err != nil {
		return err
	}

	kv, err := app.OpenKV()
	if err != nil {
		return err
	}
	defer func() { _ = kv.Close() }()

	importer := sync.NewCalendarImporter(client, app.Events, app.Contacts, kvstore.NewSyncTokens(kv), app.Logger)
	report, err := importer.Import(ctx, *initial)
	if err != nil {
		return fmt.Errorf("calendar sync failed: %w", err)
	}

	app.printf("✓ Fetched %d event(s): %d imported, %d already known, %d removed\n",
		report.Fetched, report.Imported, report.Existing, report.Removed)
	if report.Linked > 0 {
		app.printf("  %d linked to a contact\n", report.Linked)
	}
	for reason, n := range report.Skipped {
		app.printf("  skipped %d %s\n", n, reason)
	}
	return nil
}

// SyncContactsCommand imports Google contacts whose email is not already known.
func SyncContactsCommand(app *App, args []string) error {
	fs := flag.NewFlagSet("sync contacts", flag.ExitOnError)
	_ = fs.Parse(args)

	config, token, err := googleToken()
	if err != nil {
		return err
	}
	ctx := context.Background()
	client, err := sync.NewPeopleClient(ctx, config, token)
	if err != nil {
		return err
	}

	importer := sync.NewContactsImporter(client, csvio.NewImporter(app.Contacts, app.Logger))
	report, err := importer.Import(ctx)
	if err != nil {
		return fmt.Errorf("contacts sync failed: %w", err)
	}
	app.printf("✓ Imported %d contact(s), skipped %d already known\n", report.Created, report.Skipped)
	return nil
}

func openBrowser(url string) error {
	var cmd string
	var args []string

	switch runtime.GOOS {
	case "darwin":
		cmd = "open"
		args = []string{url}
	case "windows":
		cmd = "cmd"
		args = []string{"/c", "start", url}
	default:
		cmd = "xdg-open"
		args = []string{url}
	}
	return exec.Command(cmd, args...).Start()
}
