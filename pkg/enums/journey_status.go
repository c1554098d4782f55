package enums

import "fmt"

// JourneyStatus describes the lifecycle of a journey.
type JourneyStatus string

const (
	JourneyStatusInProgress JourneyStatus = "in_progress"
	JourneyStatusCompleted  JourneyStatus = "completed"
	JourneyStatusAbandoned  JourneyStatus = "abandoned"
)

var validJourneyStatuses = []JourneyStatus{
	JourneyStatusInProgress,
	JourneyStatusCompleted,
	JourneyStatusAbandoned,
}

// IsValid reports whether the value matches the canonical journey status enum.
func (s JourneyStatus) IsValid() bool {
	for _, candidate := range validJourneyStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseJourneyStatus converts the raw string to JourneyStatus.
func ParseJourneyStatus(value string) (JourneyStatus, error) {
	for _, candidate := range validJourneyStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid journey status %q", value)
}
