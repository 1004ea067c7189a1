// ABOUTME: MCP resource handlers for exposing CRM data
// ABOUTME: Provides read-only access to contacts, the pipeline, and campaign stats via leadgen:// URIs
package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/harperreed/leadgen/campaign"
	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const resourceScheme = "leadgen://"

type ResourceHandlers struct {
	contacts  *db.ContactRepository
	campaigns *db.CampaignRepository
	board     *pipeline.Board
}

func NewResourceHandlers(contacts *db.ContactRepository, campaigns *db.CampaignRepository, board *pipeline.Board) *ResourceHandlers {
	return &ResourceHandlers{contacts: contacts, campaigns: campaigns, board: board}
}

// Resources lists the fixed resources the server advertises.
func (h *ResourceHandlers) Resources() []*mcp.Resource {
	return []*mcp.Resource{
		{URI: resourceScheme + "contacts", Name: "contacts", Description: "All contacts", MIMEType: "application/json"},
		{URI: resourceScheme + "pipeline", Name: "pipeline", Description: "Deals grouped by stage", MIMEType: "application/json"},
		{URI: resourceScheme + "stats", Name: "stats", Description: "Campaign outcome totals", MIMEType: "application/json"},
	}
}

// ReadResource handles resource read requests
func (h *ResourceHandlers) ReadResource(ctx context.Context, request *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
	uri := request.Params.URI
	if !strings.HasPrefix(uri, resourceScheme) {
		return nil, fmt.Errorf("invalid URI scheme: expected %s", resourceScheme)
	}

	parts := strings.Split(strings.TrimPrefix(uri, resourceScheme), "/")
	var data interface{}
	switch parts[0] {
	case "contacts":
		if len(parts) > 1 {
			contact, err := h.contacts.Get(ctx, parts[1])
			if err != nil {
				return nil, fmt.Errorf("failed to fetch contact: %w", err)
			}
			if contact == nil {
				return nil, mcp.ResourceNotFoundError(uri)
			}
			data = contactToOutput(*contact)
			break
		}
		contacts, err := h.contacts.List(ctx, db.ContactFilter{})
		if err != nil {
			return nil, fmt.Errorf("failed to fetch contacts: %w", err)
		}
		data = contactsToOutput(contacts)

	case "pipeline":
		if err := h.board.Load(ctx); err != nil {
			return nil, err
		}
		data = pipelineToOutput(h.board)

	case "stats":
		campaigns, err := h.campaigns.List(ctx, "")
		if err != nil {
			return nil, fmt.Errorf("failed to fetch campaigns: %w", err)
		}
		data = campaign.Aggregate(campaigns)

	default:
		return nil, mcp.ResourceNotFoundError(uri)
	}

	body, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal resource: %w", err)
	}
	return &mcp.ReadResourceResult{Contents: []*mcp.ResourceContents{
		{URI: uri, MIMEType: "application/json", Text: string(body)},
	}}, nil
}
