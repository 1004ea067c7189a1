// ABOUTME: Campaign repository over the campaigns table
// ABOUTME: Outcomes and target ids are JSON text columns written as whole blobs
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/leadgen/models"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
)

type CampaignRepository struct {
	db *sqlx.DB
}

func NewCampaignRepository(db *sqlx.DB) *CampaignRepository {
	return &CampaignRepository{db: db}
}

func (r *CampaignRepository) Create(ctx context.Context, c *models.Campaign) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Status == "" {
		c.Status = models.CampaignDraft
	}
	if c.TargetContactIDs == nil {
		c.TargetContactIDs = []string{}
	}
	if c.Outcomes == nil {
		c.Outcomes = make(map[string]models.OutcomeDetail)
	}
	now := time.Now().UTC().Truncate(time.Second)
	c.CreatedAt = now
	c.UpdatedAt = now

	if err := validateRecord(c); err != nil {
		return err
	}
	if err := checkOutcomeKeys(c); err != nil {
		return err
	}

	targets, err := json.Marshal(c.TargetContactIDs)
	if err != nil {
		return err
	}
	outcomes, err := json.Marshal(c.Outcomes)
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO campaigns (id, name, subject, template, goal, status, target_contact_ids, sent, outcomes, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.Name, c.Subject, c.Template, string(c.Goal), string(c.Status), string(targets), c.Sent,
		string(outcomes), c.CreatedAt, c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil
}

// Get returns (nil, nil) when the campaign does not exist.
func (r *CampaignRepository) Get(ctx context.Context, id string) (*models.Campaign, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From("campaigns").Where(sb.Equal("id", id))

	campaigns, err := r.query(ctx, sb)
	if err != nil {
		return nil, err
	}
	if len(campaigns) == 0 {
		return nil, nil
	}
	return &campaigns[0], nil
}

// List returns campaigns newest first, optionally restricted to one status.
func (r *CampaignRepository) List(ctx context.Context, status models.CampaignStatus) ([]models.Campaign, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From("campaigns")
	if status != "" {
		sb.Where(sb.Equal("status", string(status)))
	}
	sb.OrderBy("created_at").Desc()
	return r.query(ctx, sb)
}

func (r *CampaignRepository) query(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]models.Campaign, error) {
	query, args := sb.Build()
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query campaigns: %w", err)
	}
	defer rows.Close()

	var campaigns []models.Campaign
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan campaign: %w", err)
		}
		campaigns = append(campaigns, NormalizeCampaignRow(row))
	}
	return campaigns, rows.Err()
}

// SaveOutcomes overwrites the whole outcomes blob. Concurrent writers race and the last one wins.
func (r *CampaignRepository) SaveOutcomes(ctx context.Context, c *models.Campaign) error {
	if err := checkOutcomeKeys(c); err != nil {
		return err
	}
	outcomes, err := json.Marshal(c.Outcomes)
	if err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	return r.exec(ctx, c.ID, func(ub *sqlbuilder.UpdateBuilder) {
		ub.Set(ub.Assign("outcomes", string(outcomes)), ub.Assign("updated_at", c.UpdatedAt))
	})
}

// UpdateStatus moves the campaign forward. Backward moves are rejected.
func (r *CampaignRepository) UpdateStatus(ctx context.Context, id string, status models.CampaignStatus) error {
	c, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("campaign %s: %w", id, ErrNotFound)
	}
	if !c.Status.CanTransition(status) {
		return fmt.Errorf("%w: campaign status cannot move from %s to %s", ErrValidation, c.Status, status)
	}

	return r.exec(ctx, id, func(ub *sqlbuilder.UpdateBuilder) {
		ub.Set(ub.Assign("status", string(status)), ub.Assign("updated_at", time.Now().UTC().Truncate(time.Second)))
	})
}

func (r *CampaignRepository) IncrementSent(ctx context.Context, id string) error {
	return r.exec(ctx, id, func(ub *sqlbuilder.UpdateBuilder) {
		ub.Set(ub.Incr("sent"), ub.Assign("updated_at", time.Now().UTC().Truncate(time.Second)))
	})
}

// UpdateContent edits the name, subject and template. Targets stay fixed.
func (r *CampaignRepository) UpdateContent(ctx context.Context, c *models.Campaign) error {
	if err := validateRecord(c); err != nil {
		return err
	}
	return r.exec(ctx, c.ID, func(ub *sqlbuilder.UpdateBuilder) {
		ub.Set(
			ub.Assign("name", c.Name),
			ub.Assign("subject", c.Subject),
			ub.Assign("template", c.Template),
			ub.Assign("goal", string(c.Goal)),
			ub.Assign("updated_at", time.Now().UTC().Truncate(time.Second)),
		)
	})
}

func (r *CampaignRepository) Delete(ctx context.Context, id string) error {
	dbld := sqlbuilder.SQLite.NewDeleteBuilder()
	dbld.DeleteFrom("campaigns").Where(dbld.Equal("id", id))
	query, args := dbld.Build()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to delete campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("campaign %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *CampaignRepository) exec(ctx context.Context, id string, set func(*sqlbuilder.UpdateBuilder)) error {
	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("campaigns")
	set(ub)
	ub.Where(ub.Equal("id", id))

	query, args := ub.Build()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update campaign: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("campaign %s: %w", id, ErrNotFound)
	}
	return nil
}

func checkOutcomeKeys(c *models.Campaign) error {
	for contactID, detail := range c.Outcomes {
		if !c.Targets(contactID) {
			return fmt.Errorf("%w: outcome for %s, which is not a campaign target", ErrValidation, contactID)
		}
		if !detail.Status.Valid() {
			return fmt.Errorf("%w: unknown outcome status %q", ErrValidation, detail.Status)
		}
	}
	return nil
}
