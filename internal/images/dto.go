package images

import (
	"io"
	"time"

	"github.com/google/uuid"

	"github.com/renohaus/renohaus-backend/pkg/db/models"
	dbtypes "github.com/renohaus/renohaus-backend/pkg/db/types"
	"github.com/renohaus/renohaus-backend/pkg/pagination"
)

// ImageDTO is the API view of a stored image record.
type ImageDTO struct {
	ID           uuid.UUID       `json:"id"`
	JourneyID    uuid.UUID       `json:"journey_id"`
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

// Upload is one inbound file plus its descriptive fields.
type Upload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
	ImageType   string
	Label       string
	IsGenerated bool
	Metadata    dbtypes.JSONMap
}

// UploadOutcome reports the per-file result of a bulk add. Exactly one of
// Image and Error is set.
type UploadOutcome struct {
	Filename string    `json:"filename"`
	Image    *ImageDTO `json:"image,omitempty"`
	Error    string    `json:"error,omitempty"`
	Code     string    `json:"code,omitempty"`
}

// DeleteOutcome reports the per-image result of a bulk delete.
type DeleteOutcome struct {
	ImageID uuid.UUID `json:"image_id"`
	Deleted bool      `json:"deleted"`
	Error   string    `json:"error,omitempty"`
	Code    string    `json:"code,omitempty"`
}

// UpdateImageInput holds the optional mutation values for an image record.
// Only descriptive fields are mutable; bytes and placement are not.
type UpdateImageInput struct {
	Label     *string
	ImageType *string
	Metadata  dbtypes.JSONMap
}

// ListParams configures filtered gallery listing. Filters combine
// conjunctively.
type ListParams struct {
	StepID        *uuid.UUID
	ImageType     *string
	CreatedAfter  *time.Time
	CreatedBefore *time.Time
	Page          pagination.Params
}

// ListResult is one page of images plus the pre-pagination total.
type ListResult struct {
	Items      []ImageDTO `json:"items"`
	TotalCount int64      `json:"total_count"`
	Limit      int        `json:"limit"`
	Offset     int        `json:"offset"`
}

func toImageDTO(img *models.JourneyImage) ImageDTO {
	return ImageDTO{
		ID:           img.ID,
		JourneyID:    img.JourneyID,
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
