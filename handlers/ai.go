// ABOUTME: AI enrichment MCP tool handlers
// ABOUTME: Implements score_contact, extract_contact, and draft_template tools over the model fallback chain
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/leadgen/ai"
	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type AIHandlers struct {
	contacts  *db.ContactRepository
	assistant *ai.Assistant
}

func NewAIHandlers(contacts *db.ContactRepository, assistant *ai.Assistant) *AIHandlers {
	return &AIHandlers{contacts: contacts, assistant: assistant}
}

type ScoreContactInput struct {
	ID string `json:"id" jsonschema:"Contact ID (required)"`
}

// ScoreContact asks the model for a 0-100 lead score and stores it on the contact.
func (h *AIHandlers) ScoreContact(ctx context.Context, _ *mcp.CallToolRequest, input ScoreContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	if input.ID == "" {
		return nil, ContactOutput{}, fmt.Errorf("id is required")
	}
	contact, err := h.contacts.Get(ctx, input.ID)
	if err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to get contact: %w", err)
	}
	if contact == nil {
		return nil, ContactOutput{}, fmt.Errorf("contact not found: %s", input.ID)
	}

	score, err := h.assistant.ScoreContact(ctx, *contact)
	if err != nil {
		return nil, ContactOutput{}, err
	}
	contact.Score = &score.Score
	contact.ScoreReason = score.Reason
	if err := h.contacts.Update(ctx, contact); err != nil {
		return nil, ContactOutput{}, fmt.Errorf("failed to save score: %w", err)
	}
	return nil, contactToOutput(*contact), nil
}

type ExtractContactInput struct {
	Text string `json:"text" jsonschema:"Business card text or email signature"`
	Save bool   `json:"save,omitempty" jsonschema:"Create the contact instead of only returning it"`
}

func (h *AIHandlers) ExtractContact(ctx context.Context, _ *mcp.CallToolRequest, input ExtractContactInput) (*mcp.CallToolResult, ContactOutput, error) {
	contact, err := h.assistant.ExtractContact(ctx, input.Text)
	if err != nil {
		return nil, ContactOutput{}, err
	}
	if input.Save {
		if err := h.contacts.Create(ctx, &contact); err != nil {
			return nil, ContactOutput{}, fmt.Errorf("failed to create contact: %w", err)
		}
	}
	return nil, contactToOutput(contact), nil
}

type DraftTemplateInput struct {
	Goal  string `json:"goal" jsonschema:"Meeting, Positive, or Event"`
	Brief string `json:"brief" jsonschema:"What the campaign is about"`
}

func (h *AIHandlers) DraftTemplate(ctx context.Context, _ *mcp.CallToolRequest, input DraftTemplateInput) (*mcp.CallToolResult, ai.Template, error) {
	goal, err := models.ParseCampaignGoal(input.Goal)
	if err != nil {
		return nil, ai.Template{}, err
	}
	t, err := h.assistant.GenerateTemplate(ctx, goal, input.Brief)
	if err != nil {
		return nil, ai.Template{}, err
	}
	return nil, t, nil
}
