package models

import (
	"time"

	"github.com/google/uuid"

	dbtypes "github.com/renohaus/renohaus-backend/pkg/db/types"
)

// JourneyImage is one visual asset attached to a step. display_order is an
// explicit, uniquely-constrained position rather than a creation-time
// inference, so gallery order stays stable under concurrent uploads.
type JourneyImage struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	JourneyID    uuid.UUID       `gorm:"column:journey_id;type:uuid;not null;index:journey_images_filter_idx,priority:1"`
	StepID       uuid.UUID       `gorm:"column:step_id;type:uuid;not null;uniqueIndex:journey_images_step_order_key,priority:1"`
	Filename     string          `gorm:"column:filename;not null"`
	StorageKey   string          `gorm:"column:storage_key;not null"`
	ContentType  string          `gorm:"column:content_type;not null"`
	FileSize     int64           `gorm:"column:file_size;not null"`
	IsGenerated  bool            `gorm:"column:is_generated;not null;default:false"`
	ImageType    string          `gorm:"column:image_type;not null;default:'';index:journey_images_filter_idx,priority:2"`
	Label        string          `gorm:"column:label;not null;default:''"`
	Metadata     dbtypes.JSONMap `gorm:"column:metadata;type:jsonb"`
	DisplayOrder int             `gorm:"column:display_order;not null;uniqueIndex:journey_images_step_order_key,priority:2"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime;index:journey_images_filter_idx,priority:3"`
}
