// ABOUTME: Data models for lead generation entities
// ABOUTME: Defines Contact, Campaign, Deal, Event, Reminder, and EmailLog structs
package models

import (
	"strings"
	"time"
)

type Contact struct {
	ID          string    `json:"id"`
	FirstName   string    `json:"first_name,omitempty"`
	LastName    string    `json:"last_name,omitempty"`
	Company     string    `json:"company,omitempty"`
	Title       string    `json:"title,omitempty"`
	Email       string    `json:"email,omitempty"`
	Phone       string    `json:"phone,omitempty"`
	LinkedIn    string    `json:"linkedin,omitempty"`
	Website     string    `json:"website,omitempty"`
	Address     string    `json:"address,omitempty"`
	Category    Category  `json:"category" validate:"oneof=prospect member"`
	Status      string    `json:"status,omitempty"`
	Notes       string    `json:"notes,omitempty"`
	Tags        []string  `json:"tags,omitempty"`
	Score       *int      `json:"score,omitempty" validate:"omitempty,min=0,max=100"`
	ScoreReason string    `json:"score_reason,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FullName joins first and last name, falling back to the email address.
func (c *Contact) FullName() string {
	name := strings.TrimSpace(strings.TrimSpace(c.FirstName) + " " + strings.TrimSpace(c.LastName))
	if name == "" {
		return c.Email
	}
	return name
}

// NormalizedEmail is the comparison key for the contact's email.
func (c *Contact) NormalizedEmail() string {
	return NormalizeEmail(c.Email)
}

// NormalizeEmail converts email to lowercase for comparison.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// OutcomeDetail is the latest qualification of one contact within one campaign.
type OutcomeDetail struct {
	Status    OutcomeStatus `json:"status"`
	Attendees int           `json:"attendees"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

type Campaign struct {
	ID               string                   `json:"id"`
	Name             string                   `json:"name" validate:"required"`
	Subject          string                   `json:"subject"`
	Template         string                   `json:"template"`
	Goal             CampaignGoal             `json:"goal" validate:"oneof=Meeting Positive Event"`
	Status           CampaignStatus           `json:"status" validate:"oneof=Draft Running Completed"`
	TargetContactIDs []string                 `json:"target_contact_ids"`
	Sent             int                      `json:"sent" validate:"min=0"`
	Outcomes         map[string]OutcomeDetail `json:"outcomes"`
	CreatedAt        time.Time                `json:"created_at"`
	UpdatedAt        time.Time                `json:"updated_at"`
}

// Targets reports whether the contact is part of the campaign's fixed audience.
func (c *Campaign) Targets(contactID string) bool {
	for _, id := range c.TargetContactIDs {
		if id == contactID {
			return true
		}
	}
	return false
}

type Deal struct {
	ID                string     `json:"id"`
	ContactID         *string    `json:"contact_id,omitempty"`
	Title             string     `json:"title" validate:"required"`
	Value             float64    `json:"value" validate:"min=0"`
	Stage             DealStage  `json:"stage" validate:"oneof=new contacted interested negotiation won lost"`
	Probability       int        `json:"probability" validate:"min=0,max=100"`
	ExpectedCloseDate *time.Time `json:"expected_close_date,omitempty"`
	CreatedAt         time.Time  `json:"created_at"`
	UpdatedAt         time.Time  `json:"updated_at"`
}

// WeightedValue is the deal value discounted by its probability.
func (d *Deal) WeightedValue() float64 {
	return d.Value * float64(d.Probability) / 100
}

type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title" validate:"required"`
	Description     string    `json:"description,omitempty"`
	StartTime       time.Time `json:"start_time" validate:"required"`
	EndTime         time.Time `json:"end_time" validate:"gtefield=StartTime"`
	ReminderMinutes int       `json:"reminder_minutes" validate:"min=0"`
	ContactID       *string   `json:"contact_id,omitempty"`
	IsCompleted     bool      `json:"is_completed"`
	CreatedAt       time.Time `json:"created_at"`
}

// ReminderTime is the instant the event's reminder window opens.
func (e *Event) ReminderTime() time.Time {
	return e.StartTime.Add(-time.Duration(e.ReminderMinutes) * time.Minute)
}

// Reminder is an in-app notification derived from an upcoming event. It is never persisted.
type Reminder struct {
	EventID      string    `json:"event_id"`
	Title        string    `json:"title"`
	StartTime    time.Time `json:"start_time"`
	ReminderTime time.Time `json:"reminder_time"`
	ContactID    *string   `json:"contact_id,omitempty"`
}

// Email log status constants.
const (
	EmailStatusSent   = "sent"
	EmailStatusOpened = "opened"
	EmailStatusFailed = "failed"
)

type EmailLog struct {
	ID         string     `json:"id"`
	CampaignID string     `json:"campaign_id"`
	ContactID  string     `json:"contact_id"`
	Recipient  string     `json:"recipient"`
	Subject    string     `json:"subject"`
	TrackingID string     `json:"tracking_id"`
	Status     string     `json:"status"`
	Error      string     `json:"error,omitempty"`
	SentAt     time.Time  `json:"sent_at"`
	OpenedAt   *time.Time `json:"opened_at,omitempty"`
}
