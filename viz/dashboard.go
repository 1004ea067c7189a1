// ABOUTME: Dashboard statistics shared by the terminal dashboard, the web dashboard and /api/stats
// ABOUTME: Combines contacts, campaign outcomes, the pipeline board and upcoming events
package viz

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/harperreed/leadgen/campaign"
	"github.com/harperreed/leadgen/db"
	"github.com/harperreed/leadgen/models"
	"github.com/harperreed/leadgen/pipeline"
)

const (
	staleContactDays = 30
	staleDealDays    = 14
	upcomingWindow   = 7 * 24 * time.Hour
)

type ContactLister interface {
	List(ctx context.Context, filter db.ContactFilter) ([]models.Contact, error)
}

type CampaignLister interface {
	List(ctx context.Context, status models.CampaignStatus) ([]models.Campaign, error)
}

type EventLister interface {
	Upcoming(ctx context.Context, from, to time.Time) ([]models.Event, error)
}

type DashboardStats struct {
	TotalContacts    int                `json:"total_contacts"`
	Prospects        int                `json:"prospects"`
	Members          int                `json:"members"`
	ContactsByStatus map[string]int     `json:"contacts_by_status"`
	Pipeline         []StageStats       `json:"pipeline"`
	Totals           pipeline.Totals    `json:"totals"`
	Outcomes         campaign.Stats     `json:"outcomes"`
	Campaigns        []campaign.Summary `json:"campaigns"`
	Upcoming         []models.Event     `json:"upcoming"`
	StaleContacts    []Stale            `json:"stale_contacts"`
	StaleDeals       []Stale            `json:"stale_deals"`
	GeneratedAt      time.Time          `json:"generated_at"`
}

type StageStats struct {
	Stage    models.DealStage `json:"stage"`
	Count    int              `json:"count"`
	Value    float64          `json:"value"`
	Weighted float64          `json:"weighted"`
}

type Stale struct {
	Name      string `json:"name"`
	DaysSince int    `json:"days_since"`
}

// Collector gathers dashboard inputs from the stores.
type Collector struct {
	Contacts  ContactLister
	Campaigns CampaignLister
	Events    EventLister
	Board     *pipeline.Board
}

func (c *Collector) Collect(ctx context.Context, now time.Time) (*DashboardStats, error) {
	contacts, err := c.Contacts.List(ctx, db.ContactFilter{})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch contacts: %w", err)
	}
	campaigns, err := c.Campaigns.List(ctx, "")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch campaigns: %w", err)
	}
	if err := c.Board.Load(ctx); err != nil {
		return nil, fmt.Errorf("failed to fetch deals: %w", err)
	}
	upcoming, err := c.Events.Upcoming(ctx, now, now.Add(upcomingWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to fetch events: %w", err)
	}
	return GenerateDashboardStats(contacts, campaigns, c.Board, upcoming, now), nil
}

// GenerateDashboardStats computes the dashboard from already-loaded data.
func GenerateDashboardStats(contacts []models.Contact, campaigns []models.Campaign, board *pipeline.Board, upcoming []models.Event, now time.Time) *DashboardStats {
	stats := &DashboardStats{
		ContactsByStatus: make(map[string]int),
		Outcomes:         campaign.Aggregate(campaigns),
		Upcoming:         upcoming,
		GeneratedAt:      now,
	}

	stats.TotalContacts = len(contacts)
	for i := range contacts {
		c := &contacts[i]
		if c.Category == models.CategoryMember {
			stats.Members++
		} else {
			stats.Prospects++
		}
		stats.ContactsByStatus[c.Status]++

		// only leads still waiting on a first exchange go stale
		if c.Status == models.ContactStatusNew || c.Status == models.ContactStatusContacted {
			if days := daysBetween(c.UpdatedAt, now); days > staleContactDays {
				stats.StaleContacts = append(stats.StaleContacts, Stale{Name: c.FullName(), DaysSince: days})
			}
		}
	}

	for _, c := range campaigns {
		stats.Campaigns = append(stats.Campaigns, campaign.Summarize(c))
	}

	for _, col := range board.Columns() {
		stats.Pipeline = append(stats.Pipeline, StageStats{
			Stage:    col.Stage,
			Count:    len(col.Deals),
			Value:    col.Total,
			Weighted: col.Weighted,
		})
		if col.Stage == models.StageWon || col.Stage == models.StageLost {
			continue
		}
		for _, d := range col.Deals {
			if days := daysBetween(d.UpdatedAt, now); days > staleDealDays {
				stats.StaleDeals = append(stats.StaleDeals, Stale{Name: d.Title, DaysSince: days})
			}
		}
	}
	stats.Totals = board.Totals()

	sort.Slice(stats.StaleContacts, func(i, j int) bool {
		return stats.StaleContacts[i].DaysSince > stats.StaleContacts[j].DaysSince
	})
	sort.Slice(stats.StaleDeals, func(i, j int) bool {
		return stats.StaleDeals[i].DaysSince > stats.StaleDeals[j].DaysSince
	})
	return stats
}

func daysBetween(from, to time.Time) int {
	if from.IsZero() {
		return 0
	}
	return int(to.Sub(from).Hours() / 24)
}

func RenderDashboard(stats *DashboardStats) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  LEADGEN DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("PIPELINE\n")
	renderPipeline(&out, stats.Pipeline)
	out.WriteString(fmt.Sprintf("  open %s (weighted %s)  won %s\n\n",
		FormatEuros(stats.Totals.OpenValue), FormatEuros(stats.Totals.OpenWeighted), FormatEuros(stats.Totals.WonValue)))

	out.WriteString("CONTACTS\n")
	out.WriteString(fmt.Sprintf("  📇 %d contacts  🎯 %d prospects  🤝 %d members\n\n",
		stats.TotalContacts, stats.Prospects, stats.Members))

	o := stats.Outcomes
	out.WriteString("CAMPAIGN OUTCOMES\n")
	out.WriteString(fmt.Sprintf("  inscrits %d  rdv %d  positifs %d  négatifs %d  nsp %d\n",
		o.Registered, o.Meetings, o.Positive, o.Negative, o.NSP))
	for _, s := range stats.Campaigns {
		out.WriteString(fmt.Sprintf("  %-24s %-9s %d/%d sent, %d qualified, %d goal\n",
			truncate(s.Name, 24), s.Status, s.Sent, s.Targets, s.Qualified, s.GoalReached))
	}
	out.WriteString("\n")

	if len(stats.Upcoming) > 0 {
		out.WriteString("UPCOMING (7 days)\n")
		for _, e := range stats.Upcoming {
			out.WriteString(fmt.Sprintf("  %s  %s\n", e.StartTime.Local().Format("Mon 02/01 15:04"), e.Title))
		}
		out.WriteString("\n")
	}

	if len(stats.StaleContacts) > 0 || len(stats.StaleDeals) > 0 {
		out.WriteString("NEEDS ATTENTION\n")
		if len(stats.StaleContacts) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d leads - untouched for %d+ days\n", len(stats.StaleContacts), staleContactDays))
		}
		if len(stats.StaleDeals) > 0 {
			out.WriteString(fmt.Sprintf("  ⚠️  %d deals - stale (no update in %d+ days)\n", len(stats.StaleDeals), staleDealDays))
		}
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, stages []StageStats) {
	maxCount := 1
	for _, s := range stages {
		if s.Count > maxCount {
			maxCount = s.Count
		}
	}

	for _, s := range stages {
		barLength := (s.Count * 10) / maxCount
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-12s %s  %2d (%s)\n", s.Stage, bar, s.Count, FormatEuros(s.Value)))
	}
}

// FormatEuros renders an amount as whole euros, switching to k€ from ten thousand.
func FormatEuros(v float64) string {
	if v >= 10000 {
		return fmt.Sprintf("%.0fk€", v/1000)
	}
	return fmt.Sprintf("%.0f€", v)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
