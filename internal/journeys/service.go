package journeys

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/renohaus/renohaus-backend/internal/templates"
	"github.com/renohaus/renohaus-backend/pkg/db"
	"github.com/renohaus/renohaus-backend/pkg/db/models"
	"github.com/renohaus/renohaus-backend/pkg/enums"
	pkgerrors "github.com/renohaus/renohaus-backend/pkg/errors"
)

// Service exposes journey lifecycle and step progression operations.
type Service interface {
	StartJourney(ctx context.Context, userID string, input StartJourneyInput) (*JourneyDTO, error)
	GetJourney(ctx context.Context, userID string, journeyID uuid.UUID) (*JourneyDTO, error)
	ListUserJourneys(ctx context.Context, userID string, status *enums.JourneyStatus) ([]JourneySummary, error)
	UpdateStep(ctx context.Context, userID string, journeyID, stepID uuid.UUID, input UpdateStepInput) (*JourneyDTO, error)
	AbandonJourney(ctx context.Context, userID string, journeyID uuid.UUID) (*JourneyDTO, error)
}

// StartJourneyInput holds the validated payload to start a journey.
type StartJourneyInput struct {
	TemplateID string
	Title      *string
}

type templateSource interface {
	GetTemplate(id string) (templates.Template, error)
}

// service implements the journey service.
type service struct {
	repo     *Repository
	dbClient *db.Client
	registry templateSource
	now      func() time.Time
}

// NewService constructs a journey service instance.
func NewService(repo *Repository, dbClient *db.Client, registry templateSource) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("journey repository required")
	}
	if dbClient == nil {
		return nil, fmt.Errorf("db client required")
	}
	if registry == nil {
		return nil, fmt.Errorf("template registry required")
	}
	return &service{
		repo:     repo,
		dbClient: dbClient,
		registry: registry,
		now:      time.Now,
	}, nil
}

// StartJourney instantiates the template for the user. The first step starts
// in_progress and the rest pending, all written in one transaction.
func (s *service) StartJourney(ctx context.Context, userID string, input StartJourneyInput) (*JourneyDTO, error) {
	tpl, err := s.registry.GetTemplate(input.TemplateID)
	if err != nil {
		return nil, err
	}

	title := tpl.Title
	if input.Title != nil && strings.TrimSpace(*input.Title) != "" {
		title = strings.TrimSpace(*input.Title)
	}

	now := s.now().UTC()
	journey := &models.Journey{
		ID:             uuid.New(),
		UserID:         userID,
		TemplateID:     tpl.TemplateID,
		Title:          title,
		Status:         enums.JourneyStatusInProgress,
		LastActivityAt: now,
		Steps:          make([]models.JourneyStep, len(tpl.Steps)),
	}
	for i, def := range tpl.Steps {
		status := enums.StepStatusPending
		if i == 0 {
			status = enums.StepStatusInProgress
		}
		journey.Steps[i] = models.JourneyStep{
			ID:          uuid.New(),
			StepKey:     def.StepKey,
			Name:        def.Name,
			Description: def.Description,
			Status:      status,
			Progress:    0,
			OrderIndex:  i,
		}
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).Create(ctx, journey); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: insert journey")
		}
		return nil
	}); err != nil {
		return nil, err
	}

	return s.GetJourney(ctx, userID, journey.ID)
}

// GetJourney returns the owner's journey with steps and galleries.
func (s *service) GetJourney(ctx context.Context, userID string, journeyID uuid.UUID) (*JourneyDTO, error) {
	journey, err := s.repo.FindOwnedDetail(ctx, journeyID, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "journey not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load journey")
	}
	return toJourneyDTO(journey), nil
}

// ListUserJourneys returns summaries for the user, newest activity first.
func (s *service) ListUserJourneys(ctx context.Context, userID string, status *enums.JourneyStatus) ([]JourneySummary, error) {
	if status != nil && !status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid journey status filter")
	}

	journeys, err := s.repo.ListByUser(ctx, userID, status)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: list journeys")
	}

	summaries := make([]JourneySummary, len(journeys))
	for i := range journeys {
		summaries[i] = toSummary(&journeys[i])
	}
	return summaries, nil
}

// UpdateStep mutates a step's progress, data, or status. Completing the
// current step activates the next one, or completes the journey when it was
// the last; both writes land in the same transaction.
func (s *service) UpdateStep(ctx context.Context, userID string, journeyID, stepID uuid.UUID, input UpdateStepInput) (*JourneyDTO, error) {
	if err := validateUpdateStepInput(input); err != nil {
		return nil, err
	}

	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		journey, err := txRepo.FindOwned(ctx, journeyID, userID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "journey not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load journey")
		}
		if journey.Status != enums.JourneyStatusInProgress {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "journey is not in progress").
				WithDetails(map[string]any{"status": journey.Status})
		}

		step, err := txRepo.FindStep(ctx, journeyID, stepID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "step not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load step")
		}

		updates := map[string]any{}
		if input.Progress != nil {
			updates["progress"] = *input.Progress
		}
		if input.Data != nil {
			updates["data"] = input.Data
		}

		if input.Status == nil {
			if len(updates) > 0 {
				if err := txRepo.UpdateStepFields(ctx, step.ID, updates); err != nil {
					return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: update step")
				}
			}
			return txRepo.TouchActivity(ctx, journeyID, s.now().UTC())
		}

		next := *input.Status
		if next == step.Status {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "step already in requested status").
				WithDetails(map[string]any{"status": step.Status})
		}
		if next == enums.StepStatusInProgress {
			// Activation is driven by completing the previous step; accepting
			// it here would break the single-active-step invariant.
			return pkgerrors.New(pkgerrors.CodeStateConflict, "steps cannot be activated directly")
		}
		if !step.Status.CanTransitionTo(next) {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "invalid step transition").
				WithDetails(map[string]any{"from": step.Status, "to": next})
		}

		updates["status"] = next
		applied, err := txRepo.UpdateStepGuarded(ctx, step.ID, step.Status, updates)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: complete step")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "step changed concurrently")
		}

		if err := s.advanceAfterCompletion(ctx, txRepo, journeyID, step.OrderIndex); err != nil {
			return err
		}
		return txRepo.TouchActivity(ctx, journeyID, s.now().UTC())
	}); err != nil {
		return nil, err
	}

	return s.GetJourney(ctx, userID, journeyID)
}

// advanceAfterCompletion activates the step after orderIndex, or completes
// the journey when no step follows.
func (s *service) advanceAfterCompletion(ctx context.Context, txRepo *Repository, journeyID uuid.UUID, orderIndex int) error {
	nextStep, err := txRepo.FindStepByOrder(ctx, journeyID, orderIndex+1)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load next step")
		}
		applied, err := txRepo.SetJourneyStatus(ctx, journeyID, enums.JourneyStatusInProgress, enums.JourneyStatusCompleted)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: complete journey")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "journey changed concurrently")
		}
		return nil
	}

	applied, err := txRepo.UpdateStepGuarded(ctx, nextStep.ID, enums.StepStatusPending, map[string]any{
		"status": enums.StepStatusInProgress,
	})
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: activate next step")
	}
	if !applied {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "next step changed concurrently")
	}
	return nil
}

// AbandonJourney retires an in-progress journey. Completed journeys stay
// completed and abandoning twice is a conflict.
func (s *service) AbandonJourney(ctx context.Context, userID string, journeyID uuid.UUID) (*JourneyDTO, error) {
	if err := s.dbClient.WithTx(ctx, func(tx *gorm.DB) error {
		txRepo := s.repo.WithTx(tx)

		if _, err := txRepo.FindOwned(ctx, journeyID, userID); err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "journey not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: load journey")
		}

		applied, err := txRepo.SetJourneyStatus(ctx, journeyID, enums.JourneyStatusInProgress, enums.JourneyStatusAbandoned)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "db: abandon journey")
		}
		if !applied {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "journey is not in progress")
		}
		return txRepo.TouchActivity(ctx, journeyID, s.now().UTC())
	}); err != nil {
		return nil, err
	}

	return s.GetJourney(ctx, userID, journeyID)
}

func validateUpdateStepInput(input UpdateStepInput) error {
	if input.Status == nil && input.Progress == nil && input.Data == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "no step fields to update")
	}
	if input.Status != nil && !input.Status.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid step status")
	}
	if input.Progress != nil && (*input.Progress < 0 || *input.Progress > 100) {
		return pkgerrors.New(pkgerrors.CodeValidation, "progress must be between 0 and 100")
	}
	return nil
}
