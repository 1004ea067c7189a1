// ABOUTME: Merge engine that folds a selected duplicate cluster into one primary contact
// ABOUTME: Scalars are first-non-empty with the primary preferred, notes are concatenated losslessly
package dedup

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/harperreed/leadgen/models"
	"go.uber.org/zap"
)

// NotesSeparator sits between the notes of each merged contact.
const NotesSeparator = "\n\n---\n\n"

var (
	ErrNotEnoughContacts = errors.New("merge needs at least two contacts")
	ErrInvalidPrimary    = errors.New("primary index out of range")
	ErrPartialMerge      = errors.New("primary updated but duplicates were not deleted")
	ErrNotDuplicates     = errors.New("selected contacts do not share an email")
)

// PartialMergeError reports the window where the primary row was updated and the
// secondaries are still present. Nothing reconciles it automatically.
type PartialMergeError struct {
	PrimaryID  string
	PendingIDs []string
	Err        error
}

func (e *PartialMergeError) Error() string {
	return fmt.Sprintf("contact %s was updated but %d duplicate(s) could not be deleted (%s): %v",
		e.PrimaryID, len(e.PendingIDs), strings.Join(e.PendingIDs, ", "), e.Err)
}

func (e *PartialMergeError) Unwrap() error { return e.Err }

func (e *PartialMergeError) Is(target error) bool { return target == ErrPartialMerge }

// Result is the outcome of resolving a merge in memory.
type Result struct {
	Primary    models.Contact `json:"primary"`
	DeletedIDs []string       `json:"deleted_ids"`
}

// Resolve computes the consolidated record without touching any store. A contact selected
// more than once counts once, and the primary's ID never lands in DeletedIDs.
func Resolve(selected []models.Contact, primaryIndex int) (Result, error) {
	if len(selected) < 2 {
		return Result{}, ErrNotEnoughContacts
	}
	if primaryIndex < 0 || primaryIndex >= len(selected) {
		return Result{}, ErrInvalidPrimary
	}

	primary := selected[primaryIndex]
	ordered := make([]models.Contact, 0, len(selected))
	ordered = append(ordered, primary)
	seen := map[string]bool{primary.ID: true}
	var deleted []string
	for _, c := range selected {
		if seen[c.ID] {
			continue
		}
		seen[c.ID] = true
		ordered = append(ordered, c)
		deleted = append(deleted, c.ID)
	}
	if len(ordered) < 2 {
		return Result{}, ErrNotEnoughContacts
	}

	// the merged email comes from the primary, so every other email must be the same address
	key := ""
	for _, c := range ordered {
		email := c.NormalizedEmail()
		if email == "" {
			continue
		}
		if key == "" {
			key = email
		} else if email != key {
			return Result{}, fmt.Errorf("%w: %s and %s", ErrNotDuplicates, key, email)
		}
	}

	merged := primary
	merged.FirstName = firstNonEmpty(ordered, func(c models.Contact) string { return c.FirstName })
	merged.LastName = firstNonEmpty(ordered, func(c models.Contact) string { return c.LastName })
	merged.Company = firstNonEmpty(ordered, func(c models.Contact) string { return c.Company })
	merged.Phone = firstNonEmpty(ordered, func(c models.Contact) string { return c.Phone })
	merged.Status = firstNonEmpty(ordered, func(c models.Contact) string { return c.Status })

	var notes []string
	for _, c := range ordered {
		if strings.TrimSpace(c.Notes) != "" {
			notes = append(notes, c.Notes)
		}
	}
	merged.Notes = strings.Join(notes, NotesSeparator)

	return Result{Primary: merged, DeletedIDs: deleted}, nil
}

func firstNonEmpty(contacts []models.Contact, field func(models.Contact) string) string {
	for _, c := range contacts {
		if v := field(c); strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}

// ContactWriter is the store surface a merge needs.
type ContactWriter interface {
	Update(ctx context.Context, c *models.Contact) error
	DeleteMany(ctx context.Context, ids []string) error
}

// Merger applies resolved merges to a store.
type Merger struct {
	store  ContactWriter
	logger *zap.Logger
}

func NewMerger(store ContactWriter, logger *zap.Logger) *Merger {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Merger{store: store, logger: logger}
}

// Merge issues exactly one update for the primary and then one bulk delete for the rest.
// A failed update stops before any delete runs.
func (m *Merger) Merge(ctx context.Context, selected []models.Contact, primaryIndex int) (Result, error) {
	result, err := Resolve(selected, primaryIndex)
	if err != nil {
		return Result{}, err
	}

	if err := m.store.Update(ctx, &result.Primary); err != nil {
		m.logger.Warn("merge aborted, primary update failed",
			zap.String("primary_id", result.Primary.ID), zap.Error(err))
		return Result{}, fmt.Errorf("failed to update primary contact: %w", err)
	}

	if err := m.store.DeleteMany(ctx, result.DeletedIDs); err != nil {
		m.logger.Error("merge left duplicates behind",
			zap.String("primary_id", result.Primary.ID),
			zap.Strings("pending_ids", result.DeletedIDs),
			zap.Error(err))
		return result, &PartialMergeError{PrimaryID: result.Primary.ID, PendingIDs: result.DeletedIDs, Err: err}
	}

	m.logger.Info("contacts merged",
		zap.String("primary_id", result.Primary.ID),
		zap.Int("deleted", len(result.DeletedIDs)))
	return result, nil
}
