// ABOUTME: Campaign outcome tracker for per-contact qualification
// ABOUTME: Read-modify-writes the whole outcomes map, last write wins at campaign granularity
package campaign

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/harperreed/leadgen/models"
	"go.uber.org/zap"
)

var (
	ErrCampaignNotFound = errors.New("campaign not found")
	ErrInvalidOutcome   = errors.New("invalid outcome status")
	ErrNotTargeted      = errors.New("contact is not a target of this campaign")
)

// Store is the campaign persistence the tracker and sender need.
type Store interface {
	Get(ctx context.Context, id string) (*models.Campaign, error)
	SaveOutcomes(ctx context.Context, c *models.Campaign) error
}

type Tracker struct {
	store  Store
	now    func() time.Time
	logger *zap.Logger
}

func NewTracker(store Store, logger *zap.Logger) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Tracker{store: store, now: time.Now, logger: logger}
}

// UpdateOutcome overwrites the contact's outcome. A nil attendees keeps the previous count,
// or 0 when there was none. Attendees are accepted for any status.
func (t *Tracker) UpdateOutcome(ctx context.Context, campaignID, contactID string, status models.OutcomeStatus, attendees *int) (models.OutcomeDetail, error) {
	if !status.Valid() {
		return models.OutcomeDetail{}, fmt.Errorf("%w: %q", ErrInvalidOutcome, status)
	}
	if attendees != nil && *attendees < 0 {
		return models.OutcomeDetail{}, fmt.Errorf("attendees must not be negative, got %d", *attendees)
	}

	c, err := t.store.Get(ctx, campaignID)
	if err != nil {
		return models.OutcomeDetail{}, fmt.Errorf("failed to load campaign: %w", err)
	}
	if c == nil {
		return models.OutcomeDetail{}, fmt.Errorf("%w: %s", ErrCampaignNotFound, campaignID)
	}
	if !c.Targets(contactID) {
		return models.OutcomeDetail{}, fmt.Errorf("%w: %s", ErrNotTargeted, contactID)
	}

	count := 0
	if attendees != nil {
		count = *attendees
	} else if prev, ok := c.Outcomes[contactID]; ok {
		count = prev.Attendees
	}

	detail := models.OutcomeDetail{
		Status:    status,
		Attendees: count,
		UpdatedAt: t.now().UTC().Truncate(time.Second),
	}
	if c.Outcomes == nil {
		c.Outcomes = make(map[string]models.OutcomeDetail)
	}
	c.Outcomes[contactID] = detail

	if err := t.store.SaveOutcomes(ctx, c); err != nil {
		return models.OutcomeDetail{}, fmt.Errorf("failed to save outcomes: %w", err)
	}

	t.logger.Debug("outcome updated",
		zap.String("campaign_id", campaignID),
		zap.String("contact_id", contactID),
		zap.String("status", string(status)),
		zap.Int("attendees", count))
	return detail, nil
}
