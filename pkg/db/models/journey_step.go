package models

import (
	"github.com/google/uuid"

	dbtypes "github.com/renohaus/renohaus-backend/pkg/db/types"
	"github.com/renohaus/renohaus-backend/pkg/enums"
)

// JourneyStep is one unit of work inside a journey. step_key is stable for
// the journey's life and matches the template definition it came from.
type JourneyStep struct {
	ID          uuid.UUID        `gorm:"column:id;type:uuid;primaryKey"`
	JourneyID   uuid.UUID        `gorm:"column:journey_id;type:uuid;not null;uniqueIndex:journey_steps_journey_key_key;uniqueIndex:journey_steps_journey_order_key"`
	StepKey     string           `gorm:"column:step_key;not null;uniqueIndex:journey_steps_journey_key_key"`
	Name        string           `gorm:"column:name;not null"`
	Description string           `gorm:"column:description;not null;default:''"`
	Status      enums.StepStatus `gorm:"column:status;not null;default:'pending'"`
	Progress    int              `gorm:"column:progress;not null;default:0"`
	Data        dbtypes.JSONMap  `gorm:"column:data;type:jsonb"`
	OrderIndex  int              `gorm:"column:order_index;not null;uniqueIndex:journey_steps_journey_order_key"`
	Images      []JourneyImage   `gorm:"foreignKey:StepID;constraint:OnDelete:CASCADE"`
}
