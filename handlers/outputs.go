// ABOUTME: Tool output shapes shared by the MCP handlers
// ABOUTME: Timestamps travel as RFC3339 strings so output schemas stay plain JSON types
package handlers

import (
	"time"

	"github.com/harperreed/leadgen/models"
)

type ContactOutput struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	FirstName   string   `json:"first_name,omitempty"`
	LastName    string   `json:"last_name,omitempty"`
	Company     string   `json:"company,omitempty"`
	Title       string   `json:"title,omitempty"`
	Email       string   `json:"email,omitempty"`
	Phone       string   `json:"phone,omitempty"`
	Category    string   `json:"category"`
	Status      string   `json:"status,omitempty"`
	Notes       string   `json:"notes,omitempty"`
	Tags        []string `json:"tags,omitempty"`
	Score       *int     `json:"score,omitempty"`
	ScoreReason string   `json:"score_reason,omitempty"`
	CreatedAt   string   `json:"created_at"`
	UpdatedAt   string   `json:"updated_at"`
}

func contactToOutput(c models.Contact) ContactOutput {
	return ContactOutput{
		ID:          c.ID,
		Name:        c.FullName(),
		FirstName:   c.FirstName,
		LastName:    c.LastName,
		Company:     c.Company,
		Title:       c.Title,
		Email:       c.Email,
		Phone:       c.Phone,
		Category:    string(c.Category),
		Status:      c.Status,
		Notes:       c.Notes,
		Tags:        c.Tags,
		Score:       c.Score,
		ScoreReason: c.ScoreReason,
		CreatedAt:   formatTime(c.CreatedAt),
		UpdatedAt:   formatTime(c.UpdatedAt),
	}
}

func contactsToOutput(contacts []models.Contact) []ContactOutput {
	out := make([]ContactOutput, 0, len(contacts))
	for _, c := range contacts {
		out = append(out, contactToOutput(c))
	}
	return out
}

type DealOutput struct {
	ID                string  `json:"id"`
	Title             string  `json:"title"`
	Value             float64 `json:"value"`
	Stage             string  `json:"stage"`
	Probability       int     `json:"probability"`
	Weighted          float64 `json:"weighted"`
	ContactID         *string `json:"contact_id,omitempty"`
	ExpectedCloseDate *string `json:"expected_close_date,omitempty"`
	UpdatedAt         string  `json:"updated_at"`
}

func dealToOutput(d models.Deal) DealOutput {
	out := DealOutput{
		ID:          d.ID,
		Title:       d.Title,
		Value:       d.Value,
		Stage:       string(d.Stage),
		Probability: d.Probability,
		Weighted:    d.WeightedValue(),
		ContactID:   d.ContactID,
		UpdatedAt:   formatTime(d.UpdatedAt),
	}
	if d.ExpectedCloseDate != nil {
		s := d.ExpectedCloseDate.Format("2006-01-02")
		out.ExpectedCloseDate = &s
	}
	return out
}

type EventOutput struct {
	ID              string  `json:"id"`
	Title           string  `json:"title"`
	Description     string  `json:"description,omitempty"`
	StartTime       string  `json:"start_time"`
	EndTime         string  `json:"end_time"`
	ReminderMinutes int     `json:"reminder_minutes"`
	ReminderTime    string  `json:"reminder_time"`
	ContactID       *string `json:"contact_id,omitempty"`
	IsCompleted     bool    `json:"is_completed"`
}

func eventToOutput(e models.Event) EventOutput {
	return EventOutput{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		StartTime:       formatTime(e.StartTime),
		EndTime:         formatTime(e.EndTime),
		ReminderMinutes: e.ReminderMinutes,
		ReminderTime:    formatTime(e.ReminderTime()),
		ContactID:       e.ContactID,
		IsCompleted:     e.IsCompleted,
	}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

// parseTime accepts RFC3339 or a bare "2006-01-02 15:04" in local time.
func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation("2006-01-02 15:04", s, time.Local)
}
