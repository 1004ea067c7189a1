// ABOUTME: Deal repository backing the sales pipeline
// ABOUTME: Stage is free text in the table and checked against the closed stage set on write
package db

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/leadgen/models"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
)

type dealRow struct {
	ID                string         `db:"id"`
	ContactID         sql.NullString `db:"contact_id"`
	Title             string         `db:"title"`
	Value             float64        `db:"value"`
	Stage             string         `db:"stage"`
	Probability       int            `db:"probability"`
	ExpectedCloseDate sql.NullTime   `db:"expected_close_date"`
	CreatedAt         time.Time      `db:"created_at"`
	UpdatedAt         time.Time      `db:"updated_at"`
}

func (row dealRow) toModel() models.Deal {
	d := models.Deal{
		ID:          row.ID,
		Title:       row.Title,
		Value:       row.Value,
		Stage:       models.DealStage(row.Stage),
		Probability: row.Probability,
		CreatedAt:   row.CreatedAt,
		UpdatedAt:   row.UpdatedAt,
	}
	if row.ContactID.Valid && row.ContactID.String != "" {
		id := row.ContactID.String
		d.ContactID = &id
	}
	if row.ExpectedCloseDate.Valid {
		t := row.ExpectedCloseDate.Time
		d.ExpectedCloseDate = &t
	}
	return d
}

type DealRepository struct {
	db *sqlx.DB
}

func NewDealRepository(db *sqlx.DB) *DealRepository {
	return &DealRepository{db: db}
}

// Create inserts a deal. New deals start in the "new" column unless a stage is given.
func (r *DealRepository) Create(ctx context.Context, d *models.Deal) error {
	if d.ID == "" {
		d.ID = uuid.New().String()
	}
	if d.Stage == "" {
		d.Stage = models.StageNew
	}
	now := time.Now().UTC().Truncate(time.Second)
	d.CreatedAt = now
	d.UpdatedAt = now

	if err := validateRecord(d); err != nil {
		return err
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO deals (id, contact_id, title, value, stage, probability, expected_close_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, d.ID, d.ContactID, d.Title, d.Value, string(d.Stage), d.Probability, utcPtr(d.ExpectedCloseDate), d.CreatedAt, d.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create deal: %w", err)
	}
	return nil
}

// Get returns (nil, nil) when the deal does not exist.
func (r *DealRepository) Get(ctx context.Context, id string) (*models.Deal, error) {
	var row dealRow
	err := r.db.GetContext(ctx, &row, `SELECT * FROM deals WHERE id = ?`, id)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get deal: %w", err)
	}
	d := row.toModel()
	return &d, nil
}

// List returns deals, optionally filtered by stage, most recently updated first.
func (r *DealRepository) List(ctx context.Context, stage models.DealStage) ([]models.Deal, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From("deals")
	if stage != "" {
		sb.Where(sb.Equal("stage", string(stage)))
	}
	sb.OrderBy("updated_at").Desc()

	query, args := sb.Build()
	var rows []dealRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list deals: %w", err)
	}

	deals := make([]models.Deal, 0, len(rows))
	for _, row := range rows {
		deals = append(deals, row.toModel())
	}
	return deals, nil
}

// UpdateStage is the single write issued per Kanban move.
func (r *DealRepository) UpdateStage(ctx context.Context, id string, stage models.DealStage) error {
	if !stage.Valid() {
		return fmt.Errorf("%w: invalid stage: %s", ErrValidation, stage)
	}

	ub := sqlbuilder.SQLite.NewUpdateBuilder()
	ub.Update("deals").
		Set(ub.Assign("stage", string(stage)), ub.Assign("updated_at", time.Now().UTC().Truncate(time.Second))).
		Where(ub.Equal("id", id))

	query, args := ub.Build()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update deal stage: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deal %s: %w", id, ErrNotFound)
	}
	return nil
}

func (r *DealRepository) Update(ctx context.Context, d *models.Deal) error {
	if err := validateRecord(d); err != nil {
		return err
	}
	d.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	res, err := r.db.ExecContext(ctx, `
		UPDATE deals SET contact_id = ?, title = ?, value = ?, stage = ?, probability = ?, expected_close_date = ?, updated_at = ?
		WHERE id = ?
	`, d.ContactID, d.Title, d.Value, string(d.Stage), d.Probability, utcPtr(d.ExpectedCloseDate), d.UpdatedAt, d.ID)
	if err != nil {
		return fmt.Errorf("failed to update deal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deal %s: %w", d.ID, ErrNotFound)
	}
	return nil
}

func (r *DealRepository) Delete(ctx context.Context, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM deals WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete deal: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("deal %s: %w", id, ErrNotFound)
	}
	return nil
}

func utcPtr(t *time.Time) interface{} {
	if t == nil {
		return nil
	}
	return t.UTC()
}
