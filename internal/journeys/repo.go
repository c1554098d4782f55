package journeys

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/renohaus/renohaus-backend/pkg/db/models"
	"github.com/renohaus/renohaus-backend/pkg/enums"
)

// Repository provides journey and step persistence.
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

func (r *Repository) Create(ctx context.Context, journey *models.Journey) error {
	return r.conn.WithContext(ctx).Create(journey).Error
}

// FindOwned loads a journey row scoped to its owner, without associations.
func (r *Repository) FindOwned(ctx context.Context, id uuid.UUID, userID string) (*models.Journey, error) {
	var journey models.Journey
	err := r.conn.WithContext(ctx).
		Where("id = ? AND user_id = ?", id, userID).
		First(&journey).Error
	if err != nil {
		return nil, err
	}
	return &journey, nil
}

// FindOwnedDetail loads a journey with its steps in template order and each
// step's gallery in display order.
func (r *Repository) FindOwnedDetail(ctx context.Context, id uuid.UUID, userID string) (*models.Journey, error) {
	var journey models.Journey
	err := r.conn.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Preload("Steps.Images", func(db *gorm.DB) *gorm.DB {
			return db.Order("display_order ASC")
		}).
		Where("id = ? AND user_id = ?", id, userID).
		First(&journey).Error
	if err != nil {
		return nil, err
	}
	return &journey, nil
}

// ListByUser returns the user's journeys newest-activity first. Steps are
// preloaded so summaries can be derived without extra queries.
func (r *Repository) ListByUser(ctx context.Context, userID string, status *enums.JourneyStatus) ([]models.Journey, error) {
	query := r.conn.WithContext(ctx).
		Preload("Steps", func(db *gorm.DB) *gorm.DB {
			return db.Order("order_index ASC")
		}).
		Where("user_id = ?", userID)
	if status != nil {
		query = query.Where("status = ?", *status)
	}

	var journeys []models.Journey
	if err := query.Order("last_activity_at DESC").Find(&journeys).Error; err != nil {
		return nil, err
	}
	return journeys, nil
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

func (r *Repository) FindStepByOrder(ctx context.Context, journeyID uuid.UUID, orderIndex int) (*models.JourneyStep, error) {
	var step models.JourneyStep
	err := r.conn.WithContext(ctx).
		Where("journey_id = ? AND order_index = ?", journeyID, orderIndex).
		First(&step).Error
	if err != nil {
		return nil, err
	}
	return &step, nil
}

// UpdateStepGuarded applies updates only while the step still holds the
// expected status. Returns false when a concurrent writer won the race.
func (r *Repository) UpdateStepGuarded(ctx context.Context, stepID uuid.UUID, expected enums.StepStatus, updates map[string]any) (bool, error) {
	result := r.conn.WithContext(ctx).
		Model(&models.JourneyStep{}).
		Where("id = ? AND status = ?", stepID, expected).
		Updates(updates)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

// UpdateStepFields applies updates without a status guard, for progress and
// data mutations that are valid in any active state.
func (r *Repository) UpdateStepFields(ctx context.Context, stepID uuid.UUID, updates map[string]any) error {
	return r.conn.WithContext(ctx).
		Model(&models.JourneyStep{}).
		Where("id = ?", stepID).
		Updates(updates).Error
}

// SetJourneyStatus transitions the journey only from the expected status.
func (r *Repository) SetJourneyStatus(ctx context.Context, journeyID uuid.UUID, expected, next enums.JourneyStatus) (bool, error) {
	result := r.conn.WithContext(ctx).
		Model(&models.Journey{}).
		Where("id = ? AND status = ?", journeyID, expected).
		Update("status", next)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *Repository) TouchActivity(ctx context.Context, journeyID uuid.UUID, at time.Time) error {
	return r.conn.WithContext(ctx).
		Model(&models.Journey{}).
		Where("id = ?", journeyID).
		Update("last_activity_at", at).Error
}
