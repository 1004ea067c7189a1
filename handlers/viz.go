// ABOUTME: Visualization MCP handlers
// ABOUTME: Provides pipeline_graph and dashboard tools for agents
package handlers

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/leadgen/viz"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

type VizHandlers struct {
	collector *viz.Collector
	graph     *viz.GraphGenerator
}

func NewVizHandlers(collector *viz.Collector, graph *viz.GraphGenerator) *VizHandlers {
	return &VizHandlers{collector: collector, graph: graph}
}

type PipelineGraphInput struct{}

type PipelineGraphOutput struct {
	DOTSource string `json:"dot_source"`
	NodeCount int    `json:"node_count"`
	EdgeCount int    `json:"edge_count"`
}

func (h *VizHandlers) PipelineGraph(ctx context.Context, _ *mcp.CallToolRequest, _ PipelineGraphInput) (*mcp.CallToolResult, PipelineGraphOutput, error) {
	if err := h.collector.Board.Load(ctx); err != nil {
		return nil, PipelineGraphOutput{}, err
	}
	dot, err := h.graph.GeneratePipelineGraph(ctx)
	if err != nil {
		return nil, PipelineGraphOutput{}, fmt.Errorf("failed to generate graph: %w", err)
	}

	// approximate counts from the DOT source
	return nil, PipelineGraphOutput{
		DOTSource: dot,
		NodeCount: strings.Count(dot, "[label="),
		EdgeCount: strings.Count(dot, "->"),
	}, nil
}

type DashboardInput struct{}

type DashboardOutput struct {
	Text string `json:"text"`
}

func (h *VizHandlers) Dashboard(ctx context.Context, _ *mcp.CallToolRequest, _ DashboardInput) (*mcp.CallToolResult, DashboardOutput, error) {
	stats, err := h.collector.Collect(ctx, time.Now())
	if err != nil {
		return nil, DashboardOutput{}, err
	}
	return nil, DashboardOutput{Text: viz.RenderDashboard(stats)}, nil
}
