package images

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sethvargo/go-retry"
	"gorm.io/gorm"

	"github.com/renohaus/renohaus-backend/pkg/config"
	"github.com/renohaus/renohaus-backend/pkg/db"
	"github.com/renohaus/renohaus-backend/pkg/db/models"
	pkgerrors "github.com/renohaus/renohaus-backend/pkg/errors"
	"github.com/renohaus/renohaus-backend/pkg/logger"
	"github.com/renohaus/renohaus-backend/pkg/storage"
)

const (
	maxImageTypeLen = 64
	maxLabelLen     = 255

	orderRetryAttempts = 3
	orderRetryBackoff  = 25 * time.Millisecond
)

// Service exposes image asset management for journey steps.
type Service interface {
	AddImage(ctx context.Context, userID string, journeyID, stepID uuid.UUID, upload Upload) (*ImageDTO, error)
	AddImagesBulk(ctx context.Context, userID string, journeyID, stepID uuid.UUID, uploads []Upload) ([]UploadOutcome, error)
	UpdateImage(ctx context.Context, userID string, journeyID, imageID uuid.UUID, input UpdateImageInput) (*ImageDTO, error)
	DeleteImage(ctx context.Context, userID string, journeyID, imageID uuid.UUID, deleteBytes bool) error
	DeleteImagesBulk(ctx context.Context, userID string, journeyID uuid.UUID, imageIDs []uuid.UUID, deleteBytes bool) ([]DeleteOutcome, error)
	ReorderImages(ctx context.Context, userID string, journeyID, stepID uuid.UUID, orderedIDs []uuid.UUID) ([]ImageDTO, error)
	GetImages(ctx context.Context, userID string, journeyID uuid.UUID, params ListParams) (*ListResult, error)
}

// service implements the image service.
type service struct {
	repo     *Repository
	dbClient *db.Client
	store    storage.AssetStore
	logg     *logger.Logger
	uploads  config.UploadsConfig
	now      func() time.Time
}

// NewService constructs an image service instance.
func NewService(repo *Repository, dbClient *db.Client, store storage.AssetStore, logg *logger.Logger, uploads config.UploadsConfig) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("image repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if store == nil {
		return nil, fmt.Errorf("asset store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	if uploads.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	if uploads.MaxBatchSize <= 0 {
		return nil, fmt.Errorf("max batch size must be positive")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		store:    store,
		logg:     logg,
		uploads:  uploads,
		now:      time.Now,
	}, nil
}

// AddImage stores the bytes, then appends the record at the end of the
// step's gallery. Concurrent appends race on the (step_id, display_order)
// unique index; losers re-read the max and retry.
func (s *service) AddImage(ctx context.Context, userID string, journeyID, stepID uuid.UUID, upload Upload) (*ImageDTO, error) {
	if _, err := s.resolveStep(ctx, userID, journeyID, stepID); err != nil {
		return nil, err
	}
	return s.addToStep(ctx, journeyID, stepID, upload)
}

// AddImagesBulk appends each file independently and reports per-file
// outcomes; one bad file never blocks the rest of the batch.
func (s *service) AddImagesBulk(ctx context.Context, userID string, journeyID, stepID uuid.UUID, uploads []Upload) ([]UploadOutcome, error) {
	if len(uploads) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no files to upload")
	}
	if len(uploads) > s.uploads.MaxBatchSize {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "too many files in one batch").
			WithDetails(map[string]any{"max_batch_size": s.uploads.MaxBatchSize})
	}
	if _, err := s.resolveStep(ctx, userID, journeyID, stepID); err != nil {
		return nil, err
	}

	outcomes := make([]UploadOutcome, len(uploads))
	for i, upload := range uploads {
		outcomes[i] = UploadOutcome{Filename: upload.Filename}
		dto, err := s.addToStep(ctx, journeyID, stepID, upload)
		if err != nil {
			outcomes[i].Error, outcomes[i].Code = outcomeError(err)
			continue
		}
		outcomes[i].Image = dto
	}
	return outcomes, nil
}

func (s *service) addToStep(ctx context.Context, journeyID, stepID uuid.UUID, upload Upload) (*ImageDTO, error) {
	mimeType, err := validateUpload(upload, s.uploads.MaxUploadBytes())
	if err != nil {
		return nil, err
	}
	if err := validateImageType(upload.ImageType); err != nil {
		return nil, err
	}
	if err := validateLabel(upload.Label); err != nil {
		return nil, err
	}

	imageID := uuid.New()
	storageKey, err := s.store.Store(ctx, upload.Body, buildStorageKey(journeyID, stepID, imageID, upload.Filename))
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store image bytes")
	}

	image := &models.JourneyImage{
		ID:          imageID,
		JourneyID:   journeyID,
		StepID:      stepID,
		Filename:    strings.TrimSpace(upload.Filename),
		StorageKey:  storageKey,
		ContentType: mimeType,
		FileSize:    upload.Size,
		IsGenerated: upload.IsGenerated,
		ImageType:   strings.TrimSpace(upload.ImageType),
		Label:       strings.TrimSpace(upload.Label),
		Metadata:    upload.Metadata,
	}

	backoff := retry.WithMaxRetries(orderRetryAttempts, retry.NewConstant(orderRetryBackoff))
	err = retry.Do(ctx, backoff, func(ctx context.Context) error {
		txErr := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
			txRepo := s.repo.WithTx(tx)
			max, err := txRepo.MaxDisplayOrder(ctx, stepID)
			if err != nil {
				return err
			}
			image.DisplayOrder = max + 1
			if err := txRepo.Create(ctx, image); err != nil {
				return err
			}
			return txRepo.TouchJourney(ctx, journeyID, s.now().UTC())
		})
		if txErr != nil && db.IsUniqueViolation(txErr, "journey_images_step_order_key") {
			return retry.RetryableError(txErr)
		}
		return txErr
	})
	if err != nil {
		s.discardBytes(ctx, storageKey)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert image")
	}

	dto := toImageDTO(image)
	return &dto, nil
}

// UpdateImage mutates descriptive fields only. Bytes, placement, and origin
// flags are immutable after upload.
func (s *service) UpdateImage(ctx context.Context, userID string, journeyID, imageID uuid.UUID, input UpdateImageInput) (*ImageDTO, error) {
	if input.Label == nil && input.ImageType == nil && input.Metadata == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no image fields to update")
	}

	updates := map[string]any{}
	if input.Label != nil {
		if err := validateLabel(*input.Label); err != nil {
			return nil, err
		}
		updates["label"] = strings.TrimSpace(*input.Label)
	}
	if input.ImageType != nil {
		if err := validateImageType(*input.ImageType); err != nil {
			return nil, err
		}
		updates["image_type"] = strings.TrimSpace(*input.ImageType)
	}
	if input.Metadata != nil {
		updates["metadata"] = input.Metadata
	}

	if _, err := s.resolveJourney(ctx, userID, journeyID); err != nil {
		return nil, err
	}
	image, err := s.resolveImage(ctx, journeyID, imageID)
	if err != nil {
		return nil, err
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		if err := txRepo.UpdateFields(ctx, image.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update image")
		}
		return txRepo.TouchJourney(ctx, journeyID, s.now().UTC())
	}); err != nil {
		return nil, err
	}

	updated, err := s.resolveImage(ctx, journeyID, imageID)
	if err != nil {
		return nil, err
	}
	dto := toImageDTO(updated)
	return &dto, nil
}

// DeleteImage removes the record and, when asked, the stored bytes. Byte
// deletion failure is logged and swallowed; the record is already gone and
// orphaned bytes are recoverable, a resurrected record is not.
func (s *service) DeleteImage(ctx context.Context, userID string, journeyID, imageID uuid.UUID, deleteBytes bool) error {
	if _, err := s.resolveJourney(ctx, userID, journeyID); err != nil {
		return err
	}
	image, err := s.resolveImage(ctx, journeyID, imageID)
	if err != nil {
		return err
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)
		deleted, err := txRepo.Delete(ctx, image.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: delete image")
		}
		if !deleted {
			return pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
		}
		return txRepo.TouchJourney(ctx, journeyID, s.now().UTC())
	}); err != nil {
		return err
	}

	if deleteBytes {
		s.discardBytes(ctx, image.StorageKey)
	}
	return nil
}

// DeleteImagesBulk deletes each image independently with per-image outcomes.
func (s *service) DeleteImagesBulk(ctx context.Context, userID string, journeyID uuid.UUID, imageIDs []uuid.UUID, deleteBytes bool) ([]DeleteOutcome, error) {
	if len(imageIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no images to delete")
	}
	if _, err := s.resolveJourney(ctx, userID, journeyID); err != nil {
		return nil, err
	}

	outcomes := make([]DeleteOutcome, len(imageIDs))
	for i, imageID := range imageIDs {
		outcomes[i] = DeleteOutcome{ImageID: imageID}
		if err := s.DeleteImage(ctx, userID, journeyID, imageID, deleteBytes); err != nil {
			outcomes[i].Error, outcomes[i].Code = outcomeError(err)
			continue
		}
		outcomes[i].Deleted = true
	}
	return outcomes, nil
}

// ReorderImages renumbers the step's gallery to match orderedIDs exactly.
// The request must be a permutation of the current gallery; renumbering is
// all-or-nothing. A repeat of the same request is a no-op rewrite.
func (s *service) ReorderImages(ctx context.Context, userID string, journeyID, stepID uuid.UUID, orderedIDs []uuid.UUID) ([]ImageDTO, error) {
	if len(orderedIDs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeInvalidReorder, "ordered image ids required")
	}
	if _, err := s.resolveStep(ctx, userID, journeyID, stepID); err != nil {
		return nil, err
	}

	var gallery []models.JourneyImage
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		current, err := txRepo.ListByStep(ctx, stepID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load gallery")
		}
		if err := validateReorderSet(current, orderedIDs); err != nil {
			return err
		}

		// Two passes: shift every row above the current max first, so the
		// final 1..N assignment never collides with a not-yet-moved row on
		// the unique (step_id, display_order) index.
		offset := len(current)
		for _, img := range current {
			if img.DisplayOrder > offset {
				offset = img.DisplayOrder
			}
		}
		for i, id := range orderedIDs {
			if err := txRepo.SetDisplayOrder(ctx, id, offset+i+1); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: stage reorder")
			}
		}
		for i, id := range orderedIDs {
			if err := txRepo.SetDisplayOrder(ctx, id, i+1); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: apply reorder")
			}
		}

		gallery, err = txRepo.ListByStep(ctx, stepID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: reload gallery")
		}
		return txRepo.TouchJourney(ctx, journeyID, s.now().UTC())
	}); err != nil {
		return nil, err
	}

	dtos := make([]ImageDTO, len(gallery))
	for i := range gallery {
		dtos[i] = toImageDTO(&gallery[i])
	}
	return dtos, nil
}

// GetImages lists the journey's images with conjunctive filters, ordered by
// step position then display_order, with the pre-pagination total.
func (s *service) GetImages(ctx context.Context, userID string, journeyID uuid.UUID, params ListParams) (*ListResult, error) {
	if _, err := s.resolveJourney(ctx, userID, journeyID); err != nil {
		return nil, err
	}

	rows, total, err := s.repo.List(ctx, journeyID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list images")
	}

	page := params.Page.Normalize()
	items := make([]ImageDTO, len(rows))
	for i := range rows {
		items[i] = toImageDTO(&rows[i])
	}
	return &ListResult{
		Items:      items,
		TotalCount: total,
		Limit:      page.Limit,
		Offset:     page.Offset,
	}, nil
}

func (s *service) resolveJourney(ctx context.Context, userID string, journeyID uuid.UUID) (*models.Journey, error) {
	journey, err := s.repo.FindOwnedJourney(ctx, journeyID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "journey not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load journey")
	}
	return journey, nil
}

func (s *service) resolveStep(ctx context.Context, userID string, journeyID, stepID uuid.UUID) (*models.JourneyStep, error) {
	if _, err := s.resolveJourney(ctx, userID, journeyID); err != nil {
		return nil, err
	}
	step, err := s.repo.FindStep(ctx, journeyID, stepID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "step not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load step")
	}
	return step, nil
}

func (s *service) resolveImage(ctx context.Context, journeyID, imageID uuid.UUID) (*models.JourneyImage, error) {
	image, err := s.repo.FindByID(ctx, journeyID, imageID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "image not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load image")
	}
	return image, nil
}

// discardBytes is best effort; a missing object is not worth logging.
func (s *service) discardBytes(ctx context.Context, storageKey string) {
	if err := s.store.Delete(ctx, storageKey); err != nil && !errors.Is(err, storage.ErrNotFound) {
		logCtx := s.logg.WithField(ctx, "storage_key", storageKey)
		s.logg.Error(logCtx, "failed to delete image bytes", err)
	}
}

func validateReorderSet(current []models.JourneyImage, orderedIDs []uuid.UUID) error {
	if len(orderedIDs) != len(current) {
		return pkgerrors.New(pkgerrors.CodeInvalidReorder, "ordered ids must cover the whole gallery").
			WithDetails(map[string]any{"expected": len(current), "received": len(orderedIDs)})
	}
	existing := make(map[uuid.UUID]struct{}, len(current))
	for _, img := range current {
		existing[img.ID] = struct{}{}
	}
	seen := make(map[uuid.UUID]struct{}, len(orderedIDs))
	for _, id := range orderedIDs {
		if _, dup := seen[id]; dup {
			return pkgerrors.New(pkgerrors.CodeInvalidReorder, "duplicate image id in order").
				WithDetails(map[string]any{"image_id": id})
		}
		seen[id] = struct{}{}
		if _, ok := existing[id]; !ok {
			return pkgerrors.New(pkgerrors.CodeInvalidReorder, "image does not belong to the step").
				WithDetails(map[string]any{"image_id": id})
		}
	}
	return nil
}

func validateImageType(value string) error {
	if len(strings.TrimSpace(value)) > maxImageTypeLen {
		return pkgerrors.New(pkgerrors.CodeValidation, "image_type too long")
	}
	return nil
}

func validateLabel(value string) error {
	if len(strings.TrimSpace(value)) > maxLabelLen {
		return pkgerrors.New(pkgerrors.CodeValidation, "label too long")
	}
	return nil
}

func buildStorageKey(journeyID, stepID, imageID uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = imageID.String()
	}
	return fmt.Sprintf("journeys/%s/steps/%s/%s/%s", journeyID, stepID, imageID, cleanName)
}

func outcomeError(err error) (message, code string) {
	if appErr := pkgerrors.As(err); appErr != nil {
		return appErr.Message(), string(appErr.Code())
	}
	return err.Error(), string(pkgerrors.CodeInternal)
}
