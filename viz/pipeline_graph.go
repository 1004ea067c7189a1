// ABOUTME: Graphviz rendering of the sales pipeline
// ABOUTME: Stage nodes chained left to right with each deal hanging off its stage
package viz

import (
	"bytes"
	"context"
	"fmt"

	"github.com/goccy/go-graphviz"
	"github.com/goccy/go-graphviz/cgraph"
	"github.com/harperreed/leadgen/models"
	"github.com/harperreed/leadgen/pipeline"
)

var stageColors = map[models.DealStage]string{
	models.StageNew:         "lightgrey",
	models.StageContacted:   "lightblue",
	models.StageInterested:  "lightyellow",
	models.StageNegotiation: "orange",
	models.StageWon:         "lightgreen",
	models.StageLost:        "pink",
}

// GraphGenerator renders the pipeline held by a board.
type GraphGenerator struct {
	board *pipeline.Board
	names map[string]string
}

// NewGraphGenerator takes contact display names keyed by contact id; names may be nil.
func NewGraphGenerator(board *pipeline.Board, names map[string]string) *GraphGenerator {
	return &GraphGenerator{board: board, names: names}
}

// GeneratePipelineGraph returns the pipeline as DOT source.
func (g *GraphGenerator) GeneratePipelineGraph(ctx context.Context) (string, error) {
	out, err := g.render(ctx, graphviz.XDOT)
	if err != nil {
		return "", err
	}
	return string(out), nil
}

// GeneratePipelineSVG returns the pipeline rendered as SVG.
func (g *GraphGenerator) GeneratePipelineSVG(ctx context.Context) ([]byte, error) {
	return g.render(ctx, graphviz.SVG)
}

func (g *GraphGenerator) render(ctx context.Context, format graphviz.Format) ([]byte, error) {
	gv, err := graphviz.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create graphviz: %w", err)
	}
	defer gv.Close()

	graph, err := gv.Graph()
	if err != nil {
		return nil, fmt.Errorf("failed to create graph: %w", err)
	}
	defer graph.Close()

	graph.SetLabel("Pipeline")
	graph.SetRankDir(cgraph.LRRank)

	var prev *cgraph.Node
	for _, col := range g.board.Columns() {
		stageNode, err := graph.CreateNodeByName("stage_" + string(col.Stage))
		if err != nil {
			return nil, fmt.Errorf("failed to create stage node: %w", err)
		}
		stageNode.SetLabel(fmt.Sprintf("%s\n%d deals\n%s", col.Stage, len(col.Deals), FormatEuros(col.Total)))
		stageNode.SetShape("box")
		stageNode.SetStyle("filled")
		stageNode.SetFillColor(stageColors[col.Stage])

		if prev != nil {
			edge, err := graph.CreateEdgeByName("next", prev, stageNode)
			if err != nil {
				return nil, fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetStyle("bold")
		}
		prev = stageNode

		for _, d := range col.Deals {
			dealNode, err := graph.CreateNodeByName("deal_" + d.ID)
			if err != nil {
				return nil, fmt.Errorf("failed to create deal node: %w", err)
			}
			label := fmt.Sprintf("%s\n%s (%d%%)", d.Title, FormatEuros(d.Value), d.Probability)
			if d.ContactID != nil {
				if name, ok := g.names[*d.ContactID]; ok {
					label += "\n" + name
				}
			}
			dealNode.SetLabel(label)
			dealNode.SetShape("ellipse")

			edge, err := graph.CreateEdgeByName("in", stageNode, dealNode)
			if err != nil {
				return nil, fmt.Errorf("failed to create edge: %w", err)
			}
			edge.SetStyle("dotted")
			edge.SetDir("none")
		}
	}

	var buf bytes.Buffer
	if err := gv.Render(ctx, graph, format, &buf); err != nil {
		return nil, fmt.Errorf("failed to render graph: %w", err)
	}
	return buf.Bytes(), nil
}
