// ABOUTME: Tests for lead generation data models
// ABOUTME: Validates enum parsing, status transitions, and derived values
package models

import (
	"testing"
	"time"
)

func TestNormalizeEmail(t *testing.T) {
	tests := []struct {
		input    string
		expected string
	}{
		{"Alice@Example.com", "alice@example.com"},
		{"  bob@example.com \t", "bob@example.com"},
		{"", ""},
	}

	for _, tt := range tests {
		if got := NormalizeEmail(tt.input); got != tt.expected {
			t.Errorf("NormalizeEmail(%q) = %q, want %q", tt.input, got, tt.expected)
		}
	}
}

func TestFullNameFallsBackToEmail(t *testing.T) {
	c := Contact{FirstName: "Marie", LastName: "Curie"}
	if c.FullName() != "Marie Curie" {
		t.Errorf("unexpected full name %q", c.FullName())
	}

	c = Contact{Email: "anon@example.com"}
	if c.FullName() != "anon@example.com" {
		t.Errorf("expected email fallback, got %q", c.FullName())
	}
}

func TestParseCategory(t *testing.T) {
	if ParseCategory("MEMBER") != CategoryMember {
		t.Error("expected case-insensitive member")
	}
	if ParseCategory("") != CategoryProspect {
		t.Error("expected prospect default")
	}
	if ParseCategory("vendor") != CategoryProspect {
		t.Error("expected unknown category to default to prospect")
	}
}

func TestCampaignStatusIsOneDirectional(t *testing.T) {
	tests := []struct {
		from, to CampaignStatus
		allowed  bool
	}{
		{CampaignDraft, CampaignRunning, true},
		{CampaignRunning, CampaignCompleted, true},
		{CampaignDraft, CampaignCompleted, true},
		{CampaignRunning, CampaignDraft, false},
		{CampaignCompleted, CampaignRunning, false},
		{CampaignRunning, CampaignRunning, false},
		{CampaignStatus("Paused"), CampaignRunning, false},
	}

	for _, tt := range tests {
		if got := tt.from.CanTransition(tt.to); got != tt.allowed {
			t.Errorf("%s -> %s: got %v, want %v", tt.from, tt.to, got, tt.allowed)
		}
	}
}

func TestParseDealStage(t *testing.T) {
	stage, err := ParseDealStage(" Won ")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stage != StageWon {
		t.Errorf("expected won, got %s", stage)
	}

	if _, err := ParseDealStage("closed_won"); err == nil {
		t.Error("expected error for unknown stage")
	}
}

func TestParseOutcomeStatus(t *testing.T) {
	status, err := ParseOutcomeStatus("registered")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if status != OutcomeRegistered {
		t.Errorf("expected Registered, got %s", status)
	}

	if _, err := ParseOutcomeStatus("Maybe"); err == nil {
		t.Error("expected error for unknown outcome")
	}
	if OutcomeStatus("Maybe").Valid() {
		t.Error("unknown outcome should not be valid")
	}
}

func TestEventReminderTime(t *testing.T) {
	start := time.Date(2026, 3, 10, 14, 0, 0, 0, time.UTC)
	e := Event{StartTime: start, ReminderMinutes: 15}

	if !e.ReminderTime().Equal(start.Add(-15 * time.Minute)) {
		t.Errorf("unexpected reminder time %v", e.ReminderTime())
	}
}

func TestDealWeightedValue(t *testing.T) {
	d := Deal{Value: 10000, Probability: 25}
	if d.WeightedValue() != 2500 {
		t.Errorf("expected 2500, got %v", d.WeightedValue())
	}
}

func TestCampaignTargets(t *testing.T) {
	c := Campaign{TargetContactIDs: []string{"c1", "c2"}}
	if !c.Targets("c2") {
		t.Error("expected c2 to be targeted")
	}
	if c.Targets("c3") {
		t.Error("c3 is not a target")
	}
}
