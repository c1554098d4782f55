package journeys

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/renohaus/renohaus-backend/pkg/db/models"
	dbtypes "github.com/renohaus/renohaus-backend/pkg/db/types"
	"github.com/renohaus/renohaus-backend/pkg/enums"
)

// JourneyDTO is the full journey view returned by start/get.
type JourneyDTO struct {
	ID                 uuid.UUID           `json:"id"`
	UserID             string              `json:"user_id"`
	TemplateID         string              `json:"template_id"`
	Title              string              `json:"title"`
	Status             enums.JourneyStatus `json:"status"`
	ProgressPercentage float64             `json:"progress_percentage"`
	CompletedSteps     int                 `json:"completed_steps"`
	TotalSteps         int                 `json:"total_steps"`
	CurrentStep        *string             `json:"current_step"`
	Steps              []StepDTO           `json:"steps"`
	CreatedAt          time.Time           `json:"created_at"`
	LastActivityAt     time.Time           `json:"last_activity_at"`
}

// StepDTO is one journey step including its ordered gallery.
type StepDTO struct {
	ID          uuid.UUID        `json:"id"`
	JourneyID   uuid.UUID        `json:"journey_id"`
	StepKey     string           `json:"step_key"`
	Name        string           `json:"name"`
	Description string           `json:"description"`
	Status      enums.StepStatus `json:"status"`
	Progress    int              `json:"progress"`
	Data        dbtypes.JSONMap  `json:"data"`
	OrderIndex  int              `json:"order_index"`
	Images      []ImageDTO       `json:"images"`
}

// ImageDTO is the step-gallery view of an image.
type ImageDTO struct {
	ID           uuid.UUID       `json:"id"`
	StepID       uuid.UUID       `json:"step_id"`
	Filename     string          `json:"filename"`
	ContentType  string          `json:"content_type"`
	FileSize     int64           `json:"file_size"`
	IsGenerated  bool            `json:"is_generated"`
	ImageType    string          `json:"image_type"`
	Label        string          `json:"label"`
	Metadata     dbtypes.JSONMap `json:"metadata"`
	DisplayOrder int             `json:"display_order"`
	CreatedAt    time.Time       `json:"created_at"`
}

// JourneySummary is the compact listing row for a user's journeys.
type JourneySummary struct {
	ID                 uuid.UUID           `json:"id"`
	TemplateID         string              `json:"template_id"`
	Title              string              `json:"title"`
	Status             enums.JourneyStatus `json:"status"`
	ProgressPercentage float64             `json:"progress_percentage"`
	CurrentStep        *string             `json:"current_step"`
	CompletedSteps     int                 `json:"completed_steps"`
	TotalSteps         int                 `json:"total_steps"`
	CreatedAt          time.Time           `json:"created_at"`
	LastActivityAt     time.Time           `json:"last_activity_at"`
}

// UpdateStepInput holds the optional mutation values for a step. Progress and
// status are independent: progress=100 never implies completion.
type UpdateStepInput struct {
	Status   *enums.StepStatus
	Progress *int
	Data     dbtypes.JSONMap
}

func toJourneyDTO(j *models.Journey) *JourneyDTO {
	completed, current := stepTally(j.Steps)
	dto := &JourneyDTO{
		ID:                 j.ID,
		UserID:             j.UserID,
		TemplateID:         j.TemplateID,
		Title:              j.Title,
		Status:             j.Status,
		ProgressPercentage: progressPercentage(completed, len(j.Steps)),
		CompletedSteps:     completed,
		TotalSteps:         len(j.Steps),
		CurrentStep:        current,
		Steps:              make([]StepDTO, len(j.Steps)),
		CreatedAt:          j.CreatedAt,
		LastActivityAt:     j.LastActivityAt,
	}
	for i := range j.Steps {
		dto.Steps[i] = toStepDTO(&j.Steps[i])
	}
	return dto
}

func toStepDTO(s *models.JourneyStep) StepDTO {
	dto := StepDTO{
		ID:          s.ID,
		JourneyID:   s.JourneyID,
		StepKey:     s.StepKey,
		Name:        s.Name,
		Description: s.Description,
		Status:      s.Status,
		Progress:    s.Progress,
		Data:        s.Data,
		OrderIndex:  s.OrderIndex,
		Images:      make([]ImageDTO, len(s.Images)),
	}
	for i := range s.Images {
		dto.Images[i] = toImageDTO(&s.Images[i])
	}
	return dto
}

func toImageDTO(img *models.JourneyImage) ImageDTO {
	return ImageDTO{
		ID:           img.ID,
		StepID:       img.StepID,
		Filename:     img.Filename,
		ContentType:  img.ContentType,
		FileSize:     img.FileSize,
		IsGenerated:  img.IsGenerated,
		ImageType:    img.ImageType,
		Label:        img.Label,
		Metadata:     img.Metadata,
		DisplayOrder: img.DisplayOrder,
		CreatedAt:    img.CreatedAt,
	}
}

func toSummary(j *models.Journey) JourneySummary {
	completed, current := stepTally(j.Steps)
	return JourneySummary{
		ID:                 j.ID,
		TemplateID:         j.TemplateID,
		Title:              j.Title,
		Status:             j.Status,
		ProgressPercentage: progressPercentage(completed, len(j.Steps)),
		CurrentStep:        current,
		CompletedSteps:     completed,
		TotalSteps:         len(j.Steps),
		CreatedAt:          j.CreatedAt,
		LastActivityAt:     j.LastActivityAt,
	}
}

// stepTally derives completed-step count and the current step key. Progress
// is never stored on the journey row, so it cannot drift from step statuses.
func stepTally(steps []models.JourneyStep) (completed int, current *string) {
	for i := range steps {
		switch steps[i].Status {
		case enums.StepStatusCompleted:
			completed++
		case enums.StepStatusInProgress:
			key := steps[i].StepKey
			current = &key
		}
	}
	return completed, current
}

func progressPercentage(completed, total int) float64 {
	if total == 0 {
		return 0
	}
	pct := float64(completed) / float64(total) * 100
	return math.Round(pct*100) / 100
}
