// ABOUTME: CRM assistant operations built on a Generator: card extraction, lead scoring, template drafting
// ABOUTME: Every call asks for schema-constrained JSON and decodes it into typed results
package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/leadgen/models"
	"google.golang.org/genai"
)

type Assistant struct {
	gen Generator
}

func NewAssistant(gen Generator) *Assistant {
	return &Assistant{gen: gen}
}

var contactSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"first_name": {Type: genai.TypeString},
		"last_name":  {Type: genai.TypeString},
		"company":    {Type: genai.TypeString},
		"title":      {Type: genai.TypeString},
		"email":      {Type: genai.TypeString},
		"phone":      {Type: genai.TypeString},
		"linkedin":   {Type: genai.TypeString},
		"website":    {Type: genai.TypeString},
		"address":    {Type: genai.TypeString},
	},
}

// ExtractContact reads free text (a business card scan, an email signature) into a contact.
// The result is not saved.
func (a *Assistant) ExtractContact(ctx context.Context, text string) (models.Contact, error) {
	if strings.TrimSpace(text) == "" {
		return models.Contact{}, fmt.Errorf("nothing to extract from")
	}

	prompt := "Extract the contact details from the following text. Leave unknown fields empty. " +
		"Do not invent data.\n\n" + text

	out, err := a.gen.Generate(ctx, Request{Prompt: prompt, Schema: contactSchema})
	if err != nil {
		return models.Contact{}, err
	}

	var raw map[string]interface{}
	if err := json.Unmarshal([]byte(out), &raw); err != nil {
		return models.Contact{}, fmt.Errorf("failed to decode extracted contact: %w", err)
	}
	c := normalizeExtracted(raw)
	return c, nil
}

func normalizeExtracted(raw map[string]interface{}) models.Contact {
	str := func(k string) string {
		s, _ := raw[k].(string)
		return strings.TrimSpace(s)
	}
	return models.Contact{
		FirstName: str("first_name"),
		LastName:  str("last_name"),
		Company:   str("company"),
		Title:     str("title"),
		Email:     str("email"),
		Phone:     str("phone"),
		LinkedIn:  str("linkedin"),
		Website:   str("website"),
		Address:   str("address"),
		Category:  models.CategoryProspect,
		Status:    models.ContactStatusNew,
	}
}

var scoreMin, scoreMax = 0.0, 100.0

var scoreSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"score":  {Type: genai.TypeInteger, Minimum: &scoreMin, Maximum: &scoreMax},
		"reason": {Type: genai.TypeString},
	},
	Required: []string{"score", "reason"},
}

// Score is a lead quality estimate.
type Score struct {
	Score  int    `json:"score"`
	Reason string `json:"reason"`
}

// ScoreContact rates how promising a lead is, 0 to 100. Out-of-range answers are clamped.
func (a *Assistant) ScoreContact(ctx context.Context, c models.Contact) (Score, error) {
	prompt := fmt.Sprintf("Rate this B2B lead from 0 to 100 for a membership organisation and explain in one sentence.\n"+
		"Name: %s\nTitle: %s\nCompany: %s\nWebsite: %s\nStatus: %s\nTags: %s\nNotes: %s",
		c.FullName(), c.Title, c.Company, c.Website, c.Status, strings.Join(c.Tags, ", "), c.Notes)

	out, err := a.gen.Generate(ctx, Request{Prompt: prompt, Schema: scoreSchema})
	if err != nil {
		return Score{}, err
	}

	var s Score
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		return Score{}, fmt.Errorf("failed to decode score: %w", err)
	}
	if s.Score < 0 {
		s.Score = 0
	}
	if s.Score > 100 {
		s.Score = 100
	}
	return s, nil
}

var templateSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"subject": {Type: genai.TypeString},
		"body":    {Type: genai.TypeString},
	},
	Required: []string{"subject", "body"},
}

// Template is a drafted campaign email.
type Template struct {
	Subject string `json:"subject"`
	Body    string `json:"body"`
}

// GenerateTemplate drafts a French outreach email for the goal. The body uses the
// {{Prénom}}, {{Nom}} and {{company}} placeholders.
func (a *Assistant) GenerateTemplate(ctx context.Context, goal models.CampaignGoal, brief string) (Template, error) {
	prompt := fmt.Sprintf("Write a short, friendly outreach email in French. Goal of the campaign: %s. Context: %s.\n"+
		"Use the placeholders {{Prénom}}, {{Nom}} and {{company}} where the recipient's details belong. "+
		"Plain text body, no signature block.", goal, brief)

	out, err := a.gen.Generate(ctx, Request{Prompt: prompt, Schema: templateSchema})
	if err != nil {
		return Template{}, err
	}

	var t Template
	if err := json.Unmarshal([]byte(out), &t); err != nil {
		return Template{}, fmt.Errorf("failed to decode template: %w", err)
	}
	if strings.TrimSpace(t.Body) == "" {
		return Template{}, ErrEmptyResponse
	}
	return t, nil
}
