// ABOUTME: Imports parsed contacts into the store
// ABOUTME: Existing emails are skipped unless duplicates are explicitly allowed
package csvio

import (
	"context"
	"fmt"
	"io"

	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/models"
	"go.uber.org/zap"
)

type ContactStore interface {
	Create(ctx context.Context, c *models.Contact) error
	List(ctx context.Context, filter db.ContactFilter) ([]models.Contact, error)
}

type ImportReport struct {
	Created int      `json:"created"`
	Skipped int      `json:"skipped"`
	Errors  []string `json:"errors,omitempty"`
}

type Importer struct {
	store           ContactStore
	allowDuplicates bool
	category        models.Category
	logger          *zap.Logger
}

type ImportOption func(*Importer)

// AllowDuplicates imports rows even when their email is already known.
func AllowDuplicates() ImportOption {
	return func(i *Importer) { i.allowDuplicates = true }
}

// WithCategory sets the category of every imported row.
func WithCategory(c models.Category) ImportOption {
	return func(i *Importer) { i.category = c }
}

func NewImporter(store ContactStore, logger *zap.Logger, opts ...ImportOption) *Importer {
	if logger == nil {
		logger = zap.NewNop()
	}
	i := &Importer{store: store, logger: logger}
	for _, opt := range opts {
		opt(i)
	}
	return i
}

func (i *Importer) ImportCSV(ctx context.Context, r io.Reader) (ImportReport, error) {
	contacts, rowErrs, err := ParseContacts(r)
	if err != nil {
		return ImportReport{}, err
	}
	report, err := i.Import(ctx, contacts)
	for _, e := range rowErrs {
		report.Errors = append(report.Errors, e.Error())
	}
	return report, err
}

func (i *Importer) ImportVCards(ctx context.Context, r io.Reader) (ImportReport, error) {
	contacts, err := ParseVCards(r)
	if err != nil {
		return ImportReport{}, err
	}
	return i.Import(ctx, contacts)
}

// Import creates each contact, skipping known emails. A store failure stops the import.
func (i *Importer) Import(ctx context.Context, contacts []models.Contact) (ImportReport, error) {
	var report ImportReport

	existing, err := i.store.List(ctx, db.ContactFilter{})
	if err != nil {
		return report, err
	}
	matcher := NewMatcher(existing)

	for idx := range contacts {
		c := contacts[idx]
		if !i.allowDuplicates {
			if _, found := matcher.FindMatch(c.Email); found {
				report.Skipped++
				continue
			}
		}

		c.ID = ""
		if i.category != "" {
			c.Category = i.category
		}
		if err := i.store.Create(ctx, &c); err != nil {
			return report, fmt.Errorf("failed to import %s: %w", c.FullName(), err)
		}
		matcher.Add(&c)
		report.Created++
	}

	i.logger.Info("contacts imported", zap.Int("created", report.Created), zap.Int("skipped", report.Skipped))
	return report, nil
}
