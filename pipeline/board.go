// ABOUTME: Kanban board state for sales pipeline deals
// ABOUTME: Stage moves are applied only after the store confirms the write
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/harperreed/leadgen/metrics"
	"github.com/harperreed/leadgen/models"
	"go.uber.org/zap"
)

var (
	ErrDealNotFound = errors.New("deal not found")
	ErrInvalidStage = errors.New("invalid stage")
)

// DealStore is the persistence a board needs.
type DealStore interface {
	List(ctx context.Context, stage models.DealStage) ([]models.Deal, error)
	UpdateStage(ctx context.Context, id string, stage models.DealStage) error
}

// Column is one Kanban column with its cards and totals.
type Column struct {
	Stage    models.DealStage `json:"stage"`
	Deals    []models.Deal    `json:"deals"`
	Total    float64          `json:"total"`
	Weighted float64          `json:"weighted"`
}

// Board holds deals keyed by id. Any stage can move to any other, won and lost included.
type Board struct {
	mu     sync.RWMutex
	deals  map[string]models.Deal
	store  DealStore
	logger *zap.Logger
}

func NewBoard(store DealStore, logger *zap.Logger) *Board {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Board{deals: make(map[string]models.Deal), store: store, logger: logger}
}

// Load replaces the board contents with what the store holds.
func (b *Board) Load(ctx context.Context) error {
	deals, err := b.store.List(ctx, "")
	if err != nil {
		return fmt.Errorf("failed to load deals: %w", err)
	}

	loaded := make(map[string]models.Deal, len(deals))
	for _, d := range deals {
		loaded[d.ID] = d
	}

	b.mu.Lock()
	b.deals = loaded
	b.mu.Unlock()
	return nil
}

// Put adds or replaces a card, e.g. after a deal is created.
func (b *Board) Put(d models.Deal) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deals[d.ID] = d
}

func (b *Board) Remove(id string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.deals, id)
}

func (b *Board) Deal(id string) (models.Deal, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	d, ok := b.deals[id]
	return d, ok
}

// Transition moves a deal to newStage with one store write. On a failed write the
// board keeps the previous stage. Dropping a card on its own column is a no-op.
// Stage names are case-insensitive ("Won" moves to won).
func (b *Board) Transition(ctx context.Context, dealID string, newStage models.DealStage) error {
	newStage, err := models.ParseDealStage(string(newStage))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidStage, err)
	}

	current, ok := b.Deal(dealID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrDealNotFound, dealID)
	}
	if current.Stage == newStage {
		return nil
	}

	if err := b.store.UpdateStage(ctx, dealID, newStage); err != nil {
		metrics.RecordPipelineMove(string(newStage), "error")
		b.logger.Warn("stage change rejected by store",
			zap.String("deal_id", dealID),
			zap.String("from", string(current.Stage)),
			zap.String("to", string(newStage)),
			zap.Error(err))
		return fmt.Errorf("failed to move deal: %w", err)
	}

	b.mu.Lock()
	if d, ok := b.deals[dealID]; ok {
		d.Stage = newStage
		b.deals[dealID] = d
	}
	b.mu.Unlock()

	metrics.RecordPipelineMove(string(newStage), "ok")
	b.logger.Debug("deal moved",
		zap.String("deal_id", dealID),
		zap.String("from", string(current.Stage)),
		zap.String("to", string(newStage)))
	return nil
}

// Columns returns every stage in board order, each with its deals sorted by value
// (largest first) and the column totals.
func (b *Board) Columns() []Column {
	b.mu.RLock()
	defer b.mu.RUnlock()

	byStage := make(map[models.DealStage][]models.Deal)
	for _, d := range b.deals {
		byStage[d.Stage] = append(byStage[d.Stage], d)
	}

	columns := make([]Column, 0, len(models.Stages))
	for _, stage := range models.Stages {
		deals := byStage[stage]
		sort.Slice(deals, func(i, j int) bool {
			if deals[i].Value != deals[j].Value {
				return deals[i].Value > deals[j].Value
			}
			return deals[i].ID < deals[j].ID
		})

		col := Column{Stage: stage, Deals: deals}
		for i := range deals {
			col.Total += deals[i].Value
			col.Weighted += deals[i].WeightedValue()
		}
		columns = append(columns, col)
	}
	return columns
}

// Totals summarizes the open pipeline. Won and lost deals are excluded from the open value.
type Totals struct {
	OpenValue    float64 `json:"open_value"`
	OpenWeighted float64 `json:"open_weighted"`
	WonValue     float64 `json:"won_value"`
	DealCount    int     `json:"deal_count"`
}

func (b *Board) Totals() Totals {
	var t Totals
	for _, col := range b.Columns() {
		t.DealCount += len(col.Deals)
		switch col.Stage {
		case models.StageWon:
			t.WonValue += col.Total
		case models.StageLost:
		default:
			t.OpenValue += col.Total
			t.OpenWeighted += col.Weighted
		}
	}
	return t
}
