// ABOUTME: Deal and pipeline MCP tool handlers
// ABOUTME: Implements create_deal, move_deal, and get_pipeline tools
package handlers

import (
	"context"
	"fmt"
	"time"

	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/models"
	"github.com/harperreed/leadgen/pipeline"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type DealHandlers struct {
	deals *db.DealRepository
	board *pipeline.Board
}

func NewDealHandlers(deals *db.DealRepository, board *pipeline.Board) *DealHandlers {
	return &DealHandlers{deals: deals, board: board}
}

type CreateDealInput struct {
	Title             string  `json:"title" jsonschema:"Deal title (required)"`
	Value             float64 `json:"value,omitempty" jsonschema:"Deal value in euros"`
	Stage             string  `json:"stage,omitempty" jsonschema:"new (default), contacted, interested, negotiation, won, lost"`
	Probability       int     `json:"probability,omitempty" jsonschema:"Win probability 0-100"`
	ContactID         string  `json:"contact_id,omitempty" jsonschema:"Linked contact ID"`
	ExpectedCloseDate string  `json:"expected_close_date,omitempty" jsonschema:"Expected close date (YYYY-MM-DD)"`
}

func (h *DealHandlers) CreateDeal(ctx context.Context, _ *mcp.CallToolRequest, input CreateDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if input.Title == "" {
		return nil, DealOutput{}, fmt.Errorf("title is required")
	}

	deal := &models.Deal{
		Title:       input.Title,
		Value:       input.Value,
		Probability: input.Probability,
	}
	if input.Stage != "" {
		stage, err := models.ParseDealStage(input.Stage)
		if err != nil {
			return nil, DealOutput{}, err
		}
		deal.Stage = stage
	}
	if input.ContactID != "" {
		deal.ContactID = &input.ContactID
	}
	if input.ExpectedCloseDate != "" {
		parsed, err := time.Parse("2006-01-02", input.ExpectedCloseDate)
		if err != nil {
			return nil, DealOutput{}, fmt.Errorf("invalid expected_close_date format (use YYYY-MM-DD): %w", err)
		}
		deal.ExpectedCloseDate = &parsed
	}

	if err := h.deals.Create(ctx, deal); err != nil {
		return nil, DealOutput{}, fmt.Errorf("failed to create deal: %w", err)
	}
	h.board.Put(*deal)
	return nil, dealToOutput(*deal), nil
}

type MoveDealInput struct {
	DealID string `json:"deal_id" jsonschema:"Deal ID (required)"`
	Stage  string `json:"stage" jsonschema:"Target stage: new, contacted, interested, negotiation, won, lost"`
}

// MoveDeal persists the stage first; the board only changes once the write succeeded.
func (h *DealHandlers) MoveDeal(ctx context.Context, _ *mcp.CallToolRequest, input MoveDealInput) (*mcp.CallToolResult, DealOutput, error) {
	if err := h.board.Load(ctx); err != nil {
		return nil, DealOutput{}, err
	}
	if err := h.board.Transition(ctx, input.DealID, models.DealStage(input.Stage)); err != nil {
		return nil, DealOutput{}, err
	}
	// a concurrent delete can drop the card between the write and this read
	deal, ok := h.board.Deal(input.DealID)
	if !ok {
		return nil, DealOutput{}, fmt.Errorf("%w: %s", pipeline.ErrDealNotFound, input.DealID)
	}
	return nil, dealToOutput(deal), nil
}

type GetPipelineInput struct{}

type ColumnOutput struct {
	Stage    string       `json:"stage"`
	Deals    []DealOutput `json:"deals"`
	Total    float64      `json:"total"`
	Weighted float64      `json:"weighted"`
}

type PipelineOutput struct {
	Columns []ColumnOutput  `json:"columns"`
	Totals  pipeline.Totals `json:"totals"`
}

func (h *DealHandlers) GetPipeline(ctx context.Context, _ *mcp.CallToolRequest, _ GetPipelineInput) (*mcp.CallToolResult, PipelineOutput, error) {
	if err := h.board.Load(ctx); err != nil {
		return nil, PipelineOutput{}, err
	}
	return nil, pipelineToOutput(h.board), nil
}

func pipelineToOutput(board *pipeline.Board) PipelineOutput {
	out := PipelineOutput{Totals: board.Totals()}
	for _, col := range board.Columns() {
		c := ColumnOutput{Stage: string(col.Stage), Deals: make([]DealOutput, 0, len(col.Deals)), Total: col.Total, Weighted: col.Weighted}
		for _, d := range col.Deals {
			c.Deals = append(c.Deals, dealToOutput(d))
		}
		out.Columns = append(out.Columns, c)
	}
	return out
}
