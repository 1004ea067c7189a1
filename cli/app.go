// ABOUTME: Shared command context: configuration, database, repositories, and output
// ABOUTME: Every CLI command receives an App so tests can swap the writer and database
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/harperreed/leadgen/ai"
	"github.com/harperreed/leadgen/config"
	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/kvstore"
	"github.com/harperreed/leadgen/pipeline"
)

var ErrNoAIKey = errors.New("no Gemini API key: run 'leadgen config set-secret gemini_api_key <key>' or set LEADGEN_GEMINI_API_KEY")

type App struct {
	Config    *config.Config
	DB        *sqlx.DB
	Contacts  *db.ContactRepository
	Campaigns *db.CampaignRepository
	Deals     *db.DealRepository
	Events    *db.EventRepository
	Emails    *db.EmailRepository
	Logger    *zap.Logger
	Out       io.Writer
}

// OpenApp opens the database named by the configuration.
func OpenApp(cfg *config.Config, logger *zap.Logger) (*App, error) {
	database, err := db.OpenDatabase(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return NewApp(cfg, database, logger), nil
}

func NewApp(cfg *config.Config, database *sqlx.DB, logger *zap.Logger) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		Config:    cfg,
		DB:        database,
		Contacts:  db.NewContactRepository(database),
		Campaigns: db.NewCampaignRepository(database),
		Deals:     db.NewDealRepository(database),
		Events:    db.NewEventRepository(database),
		Emails:    db.NewEmailRepository(database),
		Logger:    logger,
		Out:       os.Stdout,
	}
}

func (a *App) Close() error {
	return a.DB.Close()
}

func (a *App) printf(format string, args ...interface{}) {
	_, _ = fmt.Fprintf(a.Out, format, args...)
}

// Board returns a pipeline board loaded from the deal table.
func (a *App) Board(ctx context.Context) (*pipeline.Board, error) {
	board := pipeline.NewBoard(a.Deals, a.Logger)
	if err := board.Load(ctx); err != nil {
		return nil, err
	}
	return board, nil
}

// Assistant builds the Gemini fallback chain from the configured model list.
func (a *App) Assistant(ctx context.Context) (*ai.Assistant, error) {
	if a.Config.GeminiAPIKey == "" {
		return nil, ErrNoAIKey
	}
	client, err := ai.NewGeminiClient(ctx, a.Config.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	chain := ai.NewGeminiChain(client, a.Config.GeminiModels, ai.WithLogger(a.Logger))
	return ai.NewAssistant(chain), nil
}

// OpenKV opens the store holding reminder markers and sync tokens: Charm KV when a charm
// host is configured, the local Badger directory otherwise.
func (a *App) OpenKV() (*kvstore.Store, error) {
	if a.Config.Charm.Host != "" {
		a.Logger.Debug("using charm kv", zap.String("host", a.Config.Charm.Host))
		return kvstore.OpenCharm(kvstore.CharmOptions{Host: a.Config.Charm.Host, AutoSync: a.Config.Charm.AutoSync})
	}
	store, err := kvstore.Open(a.Config.MarkerDir)
	if err != nil {
		return nil, fmt.Errorf("failed to open marker store: %w", err)
	}
	return store, nil
}

// contactNames maps contact IDs to display names.
func (a *App) contactNames(ctx context.Context) (map[string]string, error) {
	contacts, err := a.Contacts.List(ctx, db.ContactFilter{})
	if err != nil {
		return nil, err
	}
	names := make(map[string]string, len(contacts))
	for i := range contacts {
		names[contacts[i].ID] = contacts[i].FullName()
	}
	return names, nil
}
