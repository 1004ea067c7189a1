package viz

import (
	"context"
	"testing"
	"time"

	"github.com/harperreed/leadgen/models"
	"github.com/harperreed/leadgen/pipeline"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type staticDeals []models.Deal

func (s staticDeals) List(context.Context, models.DealStage) ([]models.Deal, error) {
	return s, nil
}

func (s staticDeals) UpdateStage(context.Context, string, models.DealStage) error { return nil }

func testBoard(t *testing.T, now time.Time) *pipeline.Board {
	t.Helper()
	contactID := "c1"
	board := pipeline.NewBoard(staticDeals{
		{ID: "d1", Title: "Acme", Value: 12000, Probability: 50, Stage: models.StageNegotiation, ContactID: &contactID, UpdatedAt: now.AddDate(0, 0, -20)},
		{ID: "d2", Title: "Globex", Value: 3000, Probability: 100, Stage: models.StageWon, UpdatedAt: now.AddDate(0, 0, -60)},
		{ID: "d3", Title: "Initech", Value: 1000, Probability: 10, Stage: models.StageNew, UpdatedAt: now},
	}, zap.NewNop())
	require.NoError(t, board.Load(context.Background()))
	return board
}

func TestGenerateDashboardStats(t *testing.T) {
	now := time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)
	contacts := []models.Contact{
		{FirstName: "Léa", Category: models.CategoryProspect, Status: models.ContactStatusNew, UpdatedAt: now.AddDate(0, 0, -45)},
		{FirstName: "Paul", Category: models.CategoryMember, Status: models.ContactStatusActive, UpdatedAt: now.AddDate(0, 0, -90)},
		{FirstName: "Zoé", Category: models.CategoryProspect, Status: models.ContactStatusContacted, UpdatedAt: now},
	}
	campaigns := []models.Campaign{{
		ID: "k1", Name: "Salon", Goal: models.GoalEvent, Status: models.CampaignRunning,
		TargetContactIDs: []string{"a", "b"},
		Outcomes: map[string]models.OutcomeDetail{
			"a": {Status: models.OutcomeRegistered, Attendees: 3},
			"b": {Status: models.OutcomeNone},
		},
	}}

	stats := GenerateDashboardStats(contacts, campaigns, testBoard(t, now), nil, now)

	assert.Equal(t, 3, stats.TotalContacts)
	assert.Equal(t, 2, stats.Prospects)
	assert.Equal(t, 1, stats.Members)
	assert.Equal(t, 3, stats.Outcomes.Registered)
	assert.Equal(t, 1, stats.Outcomes.NSP)
	require.Len(t, stats.Campaigns, 1)
	assert.Equal(t, 1, stats.Campaigns[0].GoalReached)

	// only the New lead is stale; the Active member is never flagged
	require.Len(t, stats.StaleContacts, 1)
	assert.Equal(t, "Léa", stats.StaleContacts[0].Name)

	// the won deal is old but closed
	require.Len(t, stats.StaleDeals, 1)
	assert.Equal(t, "Acme", stats.StaleDeals[0].Name)

	assert.Len(t, stats.Pipeline, len(models.Stages))
	assert.Equal(t, 13000.0, stats.Totals.OpenValue)
	assert.Equal(t, 3000.0, stats.Totals.WonValue)
}

func TestRenderDashboard(t *testing.T) {
	now := time.Now()
	stats := GenerateDashboardStats(nil, nil, testBoard(t, now), nil, now)
	out := RenderDashboard(stats)
	assert.Contains(t, out, "LEADGEN DASHBOARD")
	assert.Contains(t, out, "negotiation")
	assert.Contains(t, out, "12k€")
}

func TestFormatEuros(t *testing.T) {
	assert.Equal(t, "950€", FormatEuros(950))
	assert.Equal(t, "12k€", FormatEuros(12000))
}

func TestGeneratePipelineGraph(t *testing.T) {
	gen := NewGraphGenerator(testBoard(t, time.Now()), map[string]string{"c1": "Léa Martin"})
	dot, err := gen.GeneratePipelineGraph(context.Background())
	require.NoError(t, err)
	assert.Contains(t, dot, "stage_negotiation")
	assert.Contains(t, dot, "Léa Martin")
}
