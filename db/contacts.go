// ABOUTME: Contact repository over the contacts table
// ABOUTME: Reads go through MapScan and NormalizeContactRow, writes always use snake_case columns
package db

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/leadgen/models"
	"github.com/huandu/go-sqlbuilder"
	"github.com/jmoiron/sqlx"
)

// ContactRepository provides CRUD operations for contacts.
type ContactRepository struct {
	db *sqlx.DB
}

func NewContactRepository(db *sqlx.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

// ContactFilter narrows List. Zero values match everything.
type ContactFilter struct {
	Category models.Category
	Status   string
	Query    string
	Tag      string
	Limit    int
}

func (r *ContactRepository) Create(ctx context.Context, c *models.Contact) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	c.Category = models.ParseCategory(string(c.Category))
	if c.Status == "" {
		c.Status = models.ContactStatusNew
	}
	now := time.Now().UTC().Truncate(time.Second)
	if c.CreatedAt.IsZero() {
		c.CreatedAt = now
	}
	c.UpdatedAt = now

	if err := validateRecord(c); err != nil {
		return err
	}

	tags, err := json.Marshal(nonNilTags(c.Tags))
	if err != nil {
		return err
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO contacts (id, first_name, last_name, company, title, email, phone, linkedin, website,
			address, category, status, notes, tags, score, score_reason, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, c.ID, c.FirstName, c.LastName, c.Company, c.Title, strings.TrimSpace(c.Email), c.Phone, c.LinkedIn,
		c.Website, c.Address, string(c.Category), c.Status, c.Notes, string(tags), c.Score, c.ScoreReason,
		c.CreatedAt.UTC(), c.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to create contact: %w", err)
	}
	return nil
}

// Get returns (nil, nil) when the contact does not exist.
func (r *ContactRepository) Get(ctx context.Context, id string) (*models.Contact, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From("contacts").Where(sb.Equal("id", id))

	contacts, err := r.query(ctx, sb)
	if err != nil {
		return nil, err
	}
	if len(contacts) == 0 {
		return nil, nil
	}
	return &contacts[0], nil
}

// List returns contacts newest first.
func (r *ContactRepository) List(ctx context.Context, filter ContactFilter) ([]models.Contact, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From("contacts")

	if filter.Category != "" {
		sb.Where(sb.Equal("category", string(models.ParseCategory(string(filter.Category)))))
	}
	if filter.Status != "" {
		sb.Where(sb.Equal("LOWER(status)", strings.ToLower(filter.Status)))
	}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := "%" + strings.ToLower(q) + "%"
		sb.Where(sb.Or(
			sb.Like("LOWER(first_name)", pattern),
			sb.Like("LOWER(last_name)", pattern),
			sb.Like("LOWER(email)", pattern),
			sb.Like("LOWER(company)", pattern),
		))
	}
	if filter.Tag != "" {
		sb.Where(sb.Like("LOWER(tags)", "%\""+strings.ToLower(filter.Tag)+"\"%"))
	}
	sb.OrderBy("created_at").Desc()
	if filter.Limit > 0 {
		sb.Limit(filter.Limit)
	}

	return r.query(ctx, sb)
}

// FindByEmail returns every contact whose normalized email matches, in store order.
func (r *ContactRepository) FindByEmail(ctx context.Context, email string) ([]models.Contact, error) {
	sb := sqlbuilder.SQLite.NewSelectBuilder()
	sb.Select("*").From("contacts").Where(sb.Equal("LOWER(TRIM(email))", models.NormalizeEmail(email)))
	sb.OrderBy("created_at")
	return r.query(ctx, sb)
}

func (r *ContactRepository) query(ctx context.Context, sb *sqlbuilder.SelectBuilder) ([]models.Contact, error) {
	query, args := sb.Build()
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query contacts: %w", err)
	}
	defer rows.Close()

	var contacts []models.Contact
	for rows.Next() {
		row := make(map[string]interface{})
		if err := rows.MapScan(row); err != nil {
			return nil, fmt.Errorf("failed to scan contact: %w", err)
		}
		contacts = append(contacts, NormalizeContactRow(row))
	}
	return contacts, rows.Err()
}

// Update writes every mutable column of the contact.
func (r *ContactRepository) Update(ctx context.Context, c *models.Contact) error {
	c.Category = models.ParseCategory(string(c.Category))
	if err := validateRecord(c); err != nil {
		return err
	}

	tags, err := json.Marshal(nonNilTags(c.Tags))
	if err != nil {
		return err
	}
	c.UpdatedAt = time.Now().UTC().Truncate(time.Second)

	sb := sqlbuilder.SQLite.NewUpdateBuilder()
	sb.Update("contacts")
	sb.Set(
		sb.Assign("first_name", c.FirstName),
		sb.Assign("last_name", c.LastName),
		sb.Assign("company", c.Company),
		sb.Assign("title", c.Title),
		sb.Assign("email", strings.TrimSpace(c.Email)),
		sb.Assign("phone", c.Phone),
		sb.Assign("linkedin", c.LinkedIn),
		sb.Assign("website", c.Website),
		sb.Assign("address", c.Address),
		sb.Assign("category", string(c.Category)),
		sb.Assign("status", c.Status),
		sb.Assign("notes", c.Notes),
		sb.Assign("tags", string(tags)),
		sb.Assign("score", c.Score),
		sb.Assign("score_reason", c.ScoreReason),
		sb.Assign("updated_at", c.UpdatedAt),
	)
	sb.Where(sb.Equal("id", c.ID))

	query, args := sb.Build()
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("failed to update contact: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("contact %s: %w", c.ID, ErrNotFound)
	}
	return nil
}

// DeleteMany removes the contacts in one transaction. Deals and events keep their rows
// with the contact reference cleared.
func (r *ContactRepository) DeleteMany(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	anyIDs := make([]interface{}, len(ids))
	for i, id := range ids {
		anyIDs[i] = id
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, table := range []string{"deals", "events"} {
		ub := sqlbuilder.SQLite.NewUpdateBuilder()
		ub.Update(table).Set(ub.Assign("contact_id", nil)).Where(ub.In("contact_id", anyIDs...))
		query, args := ub.Build()
		if _, err := tx.ExecContext(ctx, query, args...); err != nil {
			return fmt.Errorf("failed to detach %s: %w", table, err)
		}
	}

	dbld := sqlbuilder.SQLite.NewDeleteBuilder()
	dbld.DeleteFrom("contacts").Where(dbld.In("id", anyIDs...))
	query, args := dbld.Build()
	if _, err := tx.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to delete contacts: %w", err)
	}

	return tx.Commit()
}

func (r *ContactRepository) Delete(ctx context.Context, id string) error {
	c, err := r.Get(ctx, id)
	if err != nil {
		return err
	}
	if c == nil {
		return fmt.Errorf("contact %s: %w", id, ErrNotFound)
	}
	return r.DeleteMany(ctx, []string{id})
}

func nonNilTags(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
