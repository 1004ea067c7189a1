// ABOUTME: Email send log keyed by tracking id
// ABOUTME: The opened transition happens at most once per row
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/leadgen/models"
	"github.com/jmoiron/sqlx"
)

type emailRow struct {
	ID         string       `db:"id"`
	CampaignID string       `db:"campaign_id"`
	ContactID  string       `db:"contact_id"`
	Recipient  string       `db:"recipient"`
	Subject    string       `db:"subject"`
	TrackingID string       `db:"tracking_id"`
	Status     string       `db:"status"`
	Error      string       `db:"error"`
	SentAt     time.Time    `db:"sent_at"`
	OpenedAt   sql.NullTime `db:"opened_at"`
}

func (row emailRow) toModel() models.EmailLog {
	e := models.EmailLog{
		ID:         row.ID,
		CampaignID: row.CampaignID,
		ContactID:  row.ContactID,
		Recipient:  row.Recipient,
		Subject:    row.Subject,
		TrackingID: row.TrackingID,
		Status:     row.Status,
		Error:      row.Error,
		SentAt:     row.SentAt,
	}
	if row.OpenedAt.Valid {
		t := row.OpenedAt.Time
		e.OpenedAt = &t
	}
	return e
}

type EmailRepository struct {
	db *sqlx.DB
}

func NewEmailRepository(db *sqlx.DB) *EmailRepository {
	return &EmailRepository{db: db}
}

func (r *EmailRepository) Log(ctx context.Context, e *models.EmailLog) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.SentAt.IsZero() {
		e.SentAt = time.Now()
	}
	e.SentAt = e.SentAt.UTC().Truncate(time.Second)

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO emails (id, campaign_id, contact_id, recipient, subject, tracking_id, status, error, sent_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, e.ID, e.CampaignID, e.ContactID, e.Recipient, e.Subject, e.TrackingID, e.Status, e.Error, e.SentAt)
	if err != nil {
		return fmt.Errorf("failed to log email: %w", err)
	}
	return nil
}

// MarkOpened flips a sent email to opened. It reports whether this call made the transition;
// later hits, failed sends, and unknown ids return false.
func (r *EmailRepository) MarkOpened(ctx context.Context, trackingID string, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE emails SET status = ?, opened_at = ?
		WHERE tracking_id = ? AND status = ?
	`, models.EmailStatusOpened, at.UTC().Truncate(time.Second), trackingID, models.EmailStatusSent)
	if err != nil {
		return false, fmt.Errorf("failed to mark email opened: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

// GetByTrackingID returns (nil, nil) for unknown tracking ids.
func (r *EmailRepository) GetByTrackingID(ctx context.Context, trackingID string) (*models.EmailLog, error) {
	var row emailRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM emails WHERE tracking_id = ?`, trackingID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get email: %w", err)
	}
	e := row.toModel()
	return &e, nil
}

func (r *EmailRepository) ListByCampaign(ctx context.Context, campaignID string) ([]models.EmailLog, error) {
	var rows []emailRow
	err := r.db.SelectContext(ctx, &rows, `SELECT * FROM emails WHERE campaign_id = ? ORDER BY sent_at`, campaignID)
	if err != nil {
		return nil, fmt.Errorf("failed to list emails: %w", err)
	}
	logs := make([]models.EmailLog, 0, len(rows))
	for _, row := range rows {
		logs = append(logs, row.toModel())
	}
	return logs, nil
}

// EmailCounts summarizes delivery for one campaign.
type EmailCounts struct {
	Sent   int `db:"sent" json:"sent"`
	Opened int `db:"opened" json:"opened"`
	Failed int `db:"failed" json:"failed"`
}

func (r *EmailRepository) Counts(ctx context.Context, campaignID string) (EmailCounts, error) {
	var counts EmailCounts
	err := r.db.GetContext(ctx, &counts, `
		SELECT
			COALESCE(SUM(CASE WHEN status IN ('sent', 'opened') THEN 1 ELSE 0 END), 0) AS sent,
			COALESCE(SUM(CASE WHEN status = 'opened' THEN 1 ELSE 0 END), 0) AS opened,
			COALESCE(SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END), 0) AS failed
		FROM emails WHERE campaign_id = ?
	`, campaignID)
	if err != nil {
		return EmailCounts{}, fmt.Errorf("failed to count emails: %w", err)
	}
	return counts, nil
}
