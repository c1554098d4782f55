package enums

import "testing"

func TestStepStatusTransitions(t *testing.T) {
	cases := []struct {
		from, to StepStatus
		want     bool
	}{
		{StepStatusPending, StepStatusInProgress, true},
		{StepStatusInProgress, StepStatusCompleted, true},
		{StepStatusPending, StepStatusCompleted, false},
		{StepStatusCompleted, StepStatusInProgress, false},
		{StepStatusCompleted, StepStatusPending, false},
		{StepStatusInProgress, StepStatusPending, false},
	}
	for _, tc := range cases {
		if got := tc.from.CanTransitionTo(tc.to); got != tc.want {
			t.Fatalf("%s -> %s: expected %v, got %v", tc.from, tc.to, tc.want, got)
		}
	}
}

func TestParseStepStatus(t *testing.T) {
	if _, err := ParseStepStatus("in_progress"); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := ParseStepStatus("paused"); err == nil {
		t.Fatal("expected error for unknown status")
	}
}

func TestParseJourneyStatus(t *testing.T) {
	if _, err := ParseJourneyStatus("abandoned"); err != nil {
		t.Fatalf("parse: %v", err)
	}
	if !JourneyStatusCompleted.IsValid() {
		t.Fatal("completed must be valid")
	}
	if JourneyStatus("archived").IsValid() {
		t.Fatal("archived is not a journey status")
	}
}
