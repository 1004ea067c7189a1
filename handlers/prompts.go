// ABOUTME: MCP prompt handlers for reusable lead-generation workflows
// ABOUTME: Provides lead qualification and campaign review prompts filled from the database
package handlers

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/harperreed/leadgen/campaign"
	"github.com/harperreed/leadgen/db"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type PromptHandlers struct {
	contacts  *db.ContactRepository
	campaigns *db.CampaignRepository
}

func NewPromptHandlers(contacts *db.ContactRepository, campaigns *db.CampaignRepository) *PromptHandlers {
	return &PromptHandlers{contacts: contacts, campaigns: campaigns}
}

func (h *PromptHandlers) Prompts() []*mcp.Prompt {
	return []*mcp.Prompt{
		{
			Name:        "qualify-lead",
			Description: "Assess a contact and suggest the next outreach step",
			Arguments:   []*mcp.PromptArgument{{Name: "contact_id", Description: "Contact to assess", Required: true}},
		},
		{
			Name:        "campaign-review",
			Description: "Review a campaign's outcomes and suggest follow-ups",
			Arguments:   []*mcp.PromptArgument{{Name: "campaign_id", Description: "Campaign to review", Required: true}},
		},
	}
}

// GetPrompt generates the prompt message based on the template
func (h *PromptHandlers) GetPrompt(ctx context.Context, request *mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	args := request.Params.Arguments
	switch request.Params.Name {
	case "qualify-lead":
		return h.qualifyLead(ctx, args)
	case "campaign-review":
		return h.campaignReview(ctx, args)
	default:
		return nil, fmt.Errorf("unknown prompt: %s", request.Params.Name)
	}
}

func (h *PromptHandlers) qualifyLead(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["contact_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("contact_id is required")
	}
	c, err := h.contacts.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contact: %w", err)
	}
	if c == nil {
		return nil, fmt.Errorf("contact not found: %s", id)
	}

	var text strings.Builder
	fmt.Fprintf(&text, "Assess this lead and propose the next step (email, call, meeting, or drop).\n\n")
	fmt.Fprintf(&text, "Name: %s\n", c.FullName())
	fmt.Fprintf(&text, "Company: %s\nTitle: %s\nEmail: %s\n", c.Company, c.Title, c.Email)
	fmt.Fprintf(&text, "Category: %s\nStatus: %s\n", c.Category, c.Status)
	if len(c.Tags) > 0 {
		fmt.Fprintf(&text, "Tags: %s\n", strings.Join(c.Tags, ", "))
	}
	if c.Score != nil {
		fmt.Fprintf(&text, "Current score: %d (%s)\n", *c.Score, c.ScoreReason)
	}
	if c.Notes != "" {
		fmt.Fprintf(&text, "\nNotes:\n%s\n", c.Notes)
	}

	return &mcp.GetPromptResult{
		Description: "Lead qualification for " + c.FullName(),
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text.String()}},
		},
	}, nil
}

func (h *PromptHandlers) campaignReview(ctx context.Context, args map[string]string) (*mcp.GetPromptResult, error) {
	id, ok := args["campaign_id"]
	if !ok || id == "" {
		return nil, fmt.Errorf("campaign_id is required")
	}
	c, err := h.campaigns.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch campaign: %w", err)
	}
	if c == nil {
		return nil, campaign.ErrCampaignNotFound
	}

	s := campaign.Summarize(*c)
	var text strings.Builder
	fmt.Fprintf(&text, "Review this outreach campaign and suggest who to follow up with and how.\n\n")
	fmt.Fprintf(&text, "Campaign: %s (goal %s, %s)\n", c.Name, c.Goal, c.Status)
	fmt.Fprintf(&text, "Targets: %d, sent: %d, qualified: %d, goal reached: %d\n", s.Targets, s.Sent, s.Qualified, s.GoalReached)
	fmt.Fprintf(&text, "Registered: %d, meetings: %d, positive: %d, negative: %d, no answer: %d\n",
		s.Stats.Registered, s.Stats.Meetings, s.Stats.Positive, s.Stats.Negative, s.Stats.NSP)

	unqualified := 0
	for _, target := range c.TargetContactIDs {
		if _, ok := c.Outcomes[target]; !ok {
			unqualified++
		}
	}
	fmt.Fprintf(&text, "Targets without an outcome yet: %d\n", unqualified)

	ids := make([]string, 0, len(c.Outcomes))
	for contactID := range c.Outcomes {
		ids = append(ids, contactID)
	}
	sort.Strings(ids)
	if len(ids) > 0 {
		text.WriteString("\nOutcomes:\n")
	}
	for _, contactID := range ids {
		o := c.Outcomes[contactID]
		name := contactID
		if contact, err := h.contacts.Get(ctx, contactID); err == nil && contact != nil {
			name = contact.FullName()
		}
		fmt.Fprintf(&text, "- %s: %s", name, o.Status)
		if o.Attendees > 0 {
			fmt.Fprintf(&text, " (%d)", o.Attendees)
		}
		text.WriteString("\n")
	}

	return &mcp.GetPromptResult{
		Description: "Campaign review for " + c.Name,
		Messages: []*mcp.PromptMessage{
			{Role: "user", Content: &mcp.TextContent{Text: text.String()}},
		},
	}, nil
}
