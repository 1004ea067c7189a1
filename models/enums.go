// ABOUTME: Closed enumerations for categories, statuses, goals, outcomes, and stages
// ABOUTME: Parsing helpers reject values outside the known sets
package models

import (
	"fmt"
	"strings"
)

type Category string

const (
	CategoryProspect Category = "prospect"
	CategoryMember   Category = "member"
)

// ParseCategory is case-insensitive; anything unrecognised defaults to prospect.
func ParseCategory(s string) Category {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "member", "membre", "members":
		return CategoryMember
	default:
		return CategoryProspect
	}
}

// Contact status values offered by the UI. The column itself is free text.
const (
	ContactStatusNew        = "New"
	ContactStatusContacted  = "Contacted"
	ContactStatusInterested = "Interested"
	ContactStatusActive     = "Active"
	ContactStatusClosed     = "Closed"
	ContactStatusLost       = "Lost"
)

type CampaignGoal string

const (
	GoalMeeting  CampaignGoal = "Meeting"
	GoalPositive CampaignGoal = "Positive"
	GoalEvent    CampaignGoal = "Event"
)

func ParseCampaignGoal(s string) (CampaignGoal, error) {
	for _, g := range []CampaignGoal{GoalMeeting, GoalPositive, GoalEvent} {
		if strings.EqualFold(string(g), strings.TrimSpace(s)) {
			return g, nil
		}
	}
	return "", fmt.Errorf("invalid campaign goal: %q (valid: Meeting, Positive, Event)", s)
}

type CampaignStatus string

const (
	CampaignDraft     CampaignStatus = "Draft"
	CampaignRunning   CampaignStatus = "Running"
	CampaignCompleted CampaignStatus = "Completed"
)

func (s CampaignStatus) rank() int {
	switch s {
	case CampaignDraft:
		return 0
	case CampaignRunning:
		return 1
	case CampaignCompleted:
		return 2
	}
	return -1
}

// CanTransition enforces Draft -> Running -> Completed. Skipping forward is allowed, going back is not.
func (s CampaignStatus) CanTransition(to CampaignStatus) bool {
	from, next := s.rank(), to.rank()
	return from >= 0 && next >= 0 && next > from
}

type OutcomeStatus string

const (
	OutcomePositive   OutcomeStatus = "Positive"
	OutcomeNegative   OutcomeStatus = "Negative"
	OutcomeMeeting    OutcomeStatus = "Meeting"
	OutcomeRegistered OutcomeStatus = "Registered"
	OutcomeNone       OutcomeStatus = "None"
)

var OutcomeStatuses = []OutcomeStatus{OutcomePositive, OutcomeNegative, OutcomeMeeting, OutcomeRegistered, OutcomeNone}

func (s OutcomeStatus) Valid() bool {
	for _, o := range OutcomeStatuses {
		if s == o {
			return true
		}
	}
	return false
}

func ParseOutcomeStatus(s string) (OutcomeStatus, error) {
	for _, o := range OutcomeStatuses {
		if strings.EqualFold(string(o), strings.TrimSpace(s)) {
			return o, nil
		}
	}
	return "", fmt.Errorf("invalid outcome: %q (valid: Positive, Negative, Meeting, Registered, None)", s)
}

type DealStage string

const (
	StageNew         DealStage = "new"
	StageContacted   DealStage = "contacted"
	StageInterested  DealStage = "interested"
	StageNegotiation DealStage = "negotiation"
	StageWon         DealStage = "won"
	StageLost        DealStage = "lost"
)

// Stages is the Kanban column order.
var Stages = []DealStage{StageNew, StageContacted, StageInterested, StageNegotiation, StageWon, StageLost}

func (s DealStage) Valid() bool {
	for _, st := range Stages {
		if s == st {
			return true
		}
	}
	return false
}

func ParseDealStage(s string) (DealStage, error) {
	stage := DealStage(strings.ToLower(strings.TrimSpace(s)))
	if !stage.Valid() {
		return "", fmt.Errorf("invalid stage: %s (valid: new, contacted, interested, negotiation, won, lost)", s)
	}
	return stage, nil
}
