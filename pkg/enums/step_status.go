package enums

import "fmt"

// StepStatus describes where a journey step sits in its state machine.
type StepStatus string

const (
	StepStatusPending    StepStatus = "pending"
	StepStatusInProgress StepStatus = "in_progress"
	StepStatusCompleted  StepStatus = "completed"
)

var validStepStatuses = []StepStatus{
	StepStatusPending,
	StepStatusInProgress,
	StepStatusCompleted,
}

// IsValid reports whether the value matches the canonical step status enum.
func (s StepStatus) IsValid() bool {
	for _, candidate := range validStepStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseStepStatus converts the raw string to StepStatus.
func ParseStepStatus(value string) (StepStatus, error) {
	for _, candidate := range validStepStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid step status %q", value)
}

// CanTransitionTo reports whether the state machine permits moving from s to
// next. Steps only move forward and never skip a state.
func (s StepStatus) CanTransitionTo(next StepStatus) bool {
	switch s {
	case StepStatusPending:
		return next == StepStatusInProgress
	case StepStatusInProgress:
		return next == StepStatusCompleted
	default:
		return false
	}
}
