// ABOUTME: Campaign MCP tool handlers
// ABOUTME: Implements create_campaign, qualify_contact, and campaign_stats tools
package handlers

import (
	"context"
	"fmt"

	"github.com/harperreed/leadgen/campaign"
	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/models"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type CampaignHandlers struct {
	campaigns *db.CampaignRepository
	tracker   *campaign.Tracker
}

func NewCampaignHandlers(campaigns *db.CampaignRepository, tracker *campaign.Tracker) *CampaignHandlers {
	return &CampaignHandlers{campaigns: campaigns, tracker: tracker}
}

type CreateCampaignInput struct {
	Name       string   `json:"name" jsonschema:"Campaign name (required)"`
	Goal       string   `json:"goal" jsonschema:"Meeting, Positive, or Event"`
	Subject    string   `json:"subject,omitempty" jsonschema:"Email subject"`
	Template   string   `json:"template,omitempty" jsonschema:"Email body; {{Prénom}}, {{Nom}} and {{company}} are replaced per contact"`
	ContactIDs []string `json:"contact_ids" jsonschema:"Target contact IDs, fixed once the campaign exists"`
}

func (h *CampaignHandlers) CreateCampaign(ctx context.Context, _ *mcp.CallToolRequest, input CreateCampaignInput) (*mcp.CallToolResult, campaign.Summary, error) {
	if input.Name == "" {
		return nil, campaign.Summary{}, fmt.Errorf("name is required")
	}
	goal, err := models.ParseCampaignGoal(input.Goal)
	if err != nil {
		return nil, campaign.Summary{}, err
	}

	c := &models.Campaign{
		Name:             input.Name,
		Goal:             goal,
		Subject:          input.Subject,
		Template:         input.Template,
		TargetContactIDs: dedupeIDs(input.ContactIDs),
	}
	if err := h.campaigns.Create(ctx, c); err != nil {
		return nil, campaign.Summary{}, fmt.Errorf("failed to create campaign: %w", err)
	}
	return nil, campaign.Summarize(*c), nil
}

type QualifyContactInput struct {
	CampaignID string `json:"campaign_id" jsonschema:"Campaign ID (required)"`
	ContactID  string `json:"contact_id" jsonschema:"Targeted contact ID (required)"`
	Status     string `json:"status" jsonschema:"Positive, Negative, Meeting, Registered, or None"`
	Attendees  *int   `json:"attendees,omitempty" jsonschema:"Number of people registered; keeps the previous count when omitted"`
}

type QualifyContactOutput struct {
	CampaignID string `json:"campaign_id"`
	ContactID  string `json:"contact_id"`
	Status     string `json:"status"`
	Attendees  int    `json:"attendees"`
	UpdatedAt  string `json:"updated_at"`
}

func (h *CampaignHandlers) QualifyContact(ctx context.Context, _ *mcp.CallToolRequest, input QualifyContactInput) (*mcp.CallToolResult, QualifyContactOutput, error) {
	status, err := models.ParseOutcomeStatus(input.Status)
	if err != nil {
		return nil, QualifyContactOutput{}, err
	}

	detail, err := h.tracker.UpdateOutcome(ctx, input.CampaignID, input.ContactID, status, input.Attendees)
	if err != nil {
		return nil, QualifyContactOutput{}, err
	}
	return nil, QualifyContactOutput{
		CampaignID: input.CampaignID,
		ContactID:  input.ContactID,
		Status:     string(detail.Status),
		Attendees:  detail.Attendees,
		UpdatedAt:  formatTime(detail.UpdatedAt),
	}, nil
}

type CampaignStatsInput struct {
	CampaignID string `json:"campaign_id,omitempty" jsonschema:"Limit to one campaign; all campaigns when empty"`
}

type CampaignStatsOutput struct {
	Totals    campaign.Stats     `json:"totals"`
	Campaigns []campaign.Summary `json:"campaigns"`
}

func (h *CampaignHandlers) CampaignStats(ctx context.Context, _ *mcp.CallToolRequest, input CampaignStatsInput) (*mcp.CallToolResult, CampaignStatsOutput, error) {
	var campaigns []models.Campaign
	if input.CampaignID != "" {
		c, err := h.campaigns.Get(ctx, input.CampaignID)
		if err != nil {
			return nil, CampaignStatsOutput{}, fmt.Errorf("failed to get campaign: %w", err)
		}
		if c == nil {
			return nil, CampaignStatsOutput{}, campaign.ErrCampaignNotFound
		}
		campaigns = append(campaigns, *c)
	} else {
		var err error
		campaigns, err = h.campaigns.List(ctx, "")
		if err != nil {
			return nil, CampaignStatsOutput{}, fmt.Errorf("failed to list campaigns: %w", err)
		}
	}

	out := CampaignStatsOutput{
		Totals:    campaign.Aggregate(campaigns),
		Campaigns: make([]campaign.Summary, 0, len(campaigns)),
	}
	for _, c := range campaigns {
		out.Campaigns = append(out.Campaigns, campaign.Summarize(c))
	}
	return nil, out, nil
}

func dedupeIDs(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	return out
}
