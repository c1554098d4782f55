package images

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/renohaus/renohaus-backend/pkg/db/models"
)

// Repository provides image persistence plus the journey-scoped reads the
// image operations need for ownership checks.
type Repository struct {
	conn *gorm.DB
}

func NewRepository(conn *gorm.DB) *Repository {
	return &Repository{conn: conn}
}

// WithTx returns a repository bound to the given transaction.
func (r *Repository) WithTx(tx *gorm.DB) *Repository {
	return &Repository{conn: tx}
}

func (r *Repository) FindOwnedJourney(ctx context.Context, journeyID uuid.UUID, userID string) (*models.Journey, error) {
	var journey models.Journey
	err := r.conn.WithContext(ctx).
		Where("id = ? AND user_id = ?", journeyID, userID).
		First(&journey).Error
	if err != nil {
		return nil, err
	}
	return &journey, nil
}

func (r *Repository) FindStep(ctx context.Context, journeyID, stepID uuid.UUID) (*models.JourneyStep, error) {
	var step models.JourneyStep
	err := r.conn.WithContext(ctx).
		Where("id = ? AND journey_id = ?", stepID, journeyID).
		First(&step).Error
	if err != nil {
		return nil, err
	}
	return &step, nil
}

func (r *Repository) TouchJourney(ctx context.Context, journeyID uuid.UUID, at time.Time) error {
	return r.conn.WithContext(ctx).
		Model(&models.Journey{}).
		Where("id = ?", journeyID).
		Update("last_activity_at", at).Error
}

func (r *Repository) Create(ctx context.Context, image *models.JourneyImage) error {
	return r.conn.WithContext(ctx).Create(image).Error
}

func (r *Repository) FindByID(ctx context.Context, journeyID, imageID uuid.UUID) (*models.JourneyImage, error) {
	var image models.JourneyImage
	err := r.conn.WithContext(ctx).
		Where("id = ? AND journey_id = ?", imageID, journeyID).
		First(&image).Error
	if err != nil {
		return nil, err
	}
	return &image, nil
}

// MaxDisplayOrder returns the highest display_order in the step's gallery,
// zero when the gallery is empty.
func (r *Repository) MaxDisplayOrder(ctx context.Context, stepID uuid.UUID) (int, error) {
	var max int
	err := r.conn.WithContext(ctx).
		Model(&models.JourneyImage{}).
		Where("step_id = ?", stepID).
		Select("COALESCE(MAX(display_order), 0)").
		Scan(&max).Error
	if err != nil {
		return 0, err
	}
	return max, nil
}

// ListByStep returns the step's gallery in display order.
func (r *Repository) ListByStep(ctx context.Context, stepID uuid.UUID) ([]models.JourneyImage, error) {
	var rows []models.JourneyImage
	err := r.conn.WithContext(ctx).
		Where("step_id = ?", stepID).
		Order("display_order ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *Repository) UpdateFields(ctx context.Context, imageID uuid.UUID, updates map[string]any) error {
	return r.conn.WithContext(ctx).
		Model(&models.JourneyImage{}).
		Where("id = ?", imageID).
		Updates(updates).Error
}

func (r *Repository) SetDisplayOrder(ctx context.Context, imageID uuid.UUID, order int) error {
	return r.conn.WithContext(ctx).
		Model(&models.JourneyImage{}).
		Where("id = ?", imageID).
		Update("display_order", order).Error
}

// Delete removes the record. Returns false when it was already gone.
func (r *Repository) Delete(ctx context.Context, imageID uuid.UUID) (bool, error) {
	result := r.conn.WithContext(ctx).
		Where("id = ?", imageID).
		Delete(&models.JourneyImage{})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// List applies the conjunctive filters and returns one page ordered by the
// owning step's position then display_order, plus the pre-pagination total.
func (r *Repository) List(ctx context.Context, journeyID uuid.UUID, params ListParams) ([]models.JourneyImage, int64, error) {
	// Fresh query per finisher; Count pollutes the select clause otherwise.
	filtered := func() *gorm.DB {
		query := r.conn.WithContext(ctx).
			Model(&models.JourneyImage{}).
			Where("journey_images.journey_id = ?", journeyID)
		if params.StepID != nil {
			query = query.Where("journey_images.step_id = ?", *params.StepID)
		}
		if params.ImageType != nil {
			query = query.Where("journey_images.image_type = ?", *params.ImageType)
		}
		if params.CreatedAfter != nil {
			query = query.Where("journey_images.created_at > ?", *params.CreatedAfter)
		}
		if params.CreatedBefore != nil {
			query = query.Where("journey_images.created_at < ?", *params.CreatedBefore)
		}
		return query
	}

	var total int64
	if err := filtered().Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := params.Page.Normalize()
	var rows []models.JourneyImage
	err := filtered().
		Joins("JOIN journey_steps ON journey_steps.id = journey_images.step_id").
		Order("journey_steps.order_index ASC, journey_images.display_order ASC").
		Limit(page.Limit).
		Offset(page.Offset).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}
