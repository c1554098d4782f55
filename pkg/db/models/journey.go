package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/renohaus/renohaus-backend/pkg/enums"
)

// Journey is one user's instantiation of a template. Journeys are never
// hard-deleted; retiring one flips status to abandoned.
type Journey struct {
	ID             uuid.UUID           `gorm:"column:id;type:uuid;primaryKey"`
	UserID         string              `gorm:"column:user_id;not null;index:journeys_user_status_idx"`
	TemplateID     string              `gorm:"column:template_id;not null"`
	Title          string              `gorm:"column:title;not null"`
	Status         enums.JourneyStatus `gorm:"column:status;not null;default:'in_progress';index:journeys_user_status_idx"`
	Steps          []JourneyStep       `gorm:"foreignKey:JourneyID;constraint:OnDelete:CASCADE"`
	CreatedAt      time.Time           `gorm:"column:created_at;autoCreateTime"`
	LastActivityAt time.Time           `gorm:"column:last_activity_at;not null"`
}
