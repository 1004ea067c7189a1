// ABOUTME: Outcome aggregation feeding dashboards and report exports
// ABOUTME: Every campaign's outcome map is visited exactly once
package campaign

import (
	"github.com/harperreed/leadgen/models"
)

// Stats totals qualification outcomes across campaigns.
type Stats struct {
	Registered int `json:"registered"`
	Meetings   int `json:"meetings"`
	Positive   int `json:"positive"`
	Negative   int `json:"negative"`
	NSP        int `json:"nsp"`
}

// Aggregate sums attendees over Registered outcomes (an unset count is one person) and
// counts Meeting, Positive, Negative and None outcomes.
func Aggregate(campaigns []models.Campaign) Stats {
	var s Stats
	for _, c := range campaigns {
		for _, o := range c.Outcomes {
			switch o.Status {
			case models.OutcomeRegistered:
				if o.Attendees > 0 {
					s.Registered += o.Attendees
				} else {
					s.Registered++
				}
			case models.OutcomeMeeting:
				s.Meetings++
			case models.OutcomePositive:
				s.Positive++
			case models.OutcomeNegative:
				s.Negative++
			case models.OutcomeNone:
				s.NSP++
			}
		}
	}
	return s
}

// Summary describes one campaign's progress.
type Summary struct {
	ID          string                `json:"id"`
	Name        string                `json:"name"`
	Goal        models.CampaignGoal   `json:"goal"`
	Status      models.CampaignStatus `json:"status"`
	Targets     int                   `json:"targets"`
	Sent        int                   `json:"sent"`
	Qualified   int                   `json:"qualified"`
	GoalReached int                   `json:"goal_reached"`
	Stats       Stats                 `json:"stats"`
}

// Summarize reports progress for one campaign. GoalReached counts outcomes matching
// the campaign goal: Meeting, Positive, or Registered for Event campaigns.
func Summarize(c models.Campaign) Summary {
	s := Summary{
		ID:        c.ID,
		Name:      c.Name,
		Goal:      c.Goal,
		Status:    c.Status,
		Targets:   len(c.TargetContactIDs),
		Sent:      c.Sent,
		Qualified: len(c.Outcomes),
		Stats:     Aggregate([]models.Campaign{c}),
	}
	for _, o := range c.Outcomes {
		if goalMet(c.Goal, o.Status) {
			s.GoalReached++
		}
	}
	return s
}

func goalMet(goal models.CampaignGoal, status models.OutcomeStatus) bool {
	switch goal {
	case models.GoalMeeting:
		return status == models.OutcomeMeeting
	case models.GoalPositive:
		return status == models.OutcomePositive
	case models.GoalEvent:
		return status == models.OutcomeRegistered
	}
	return false
}
