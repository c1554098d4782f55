package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/renohaus/renohaus-backend/api/middleware"
	"github.com/renohaus/renohaus-backend/api/responses"
	"github.com/renohaus/renohaus-backend/api/validators"
	"github.com/renohaus/renohaus-backend/internal/journeys"
	"github.com/renohaus/renohaus-backend/pkg/enums"
	pkgerrors "github.com/renohaus/renohaus-backend/pkg/errors"
	"github.com/renohaus/renohaus-backend/pkg/logger"
)

type startJourneyRequest struct {
	TemplateID string  `json:"template_id" validate:"required"`
	Title      *string `json:"title,omitempty" validate:"omitempty,max=255"`
}

// StartJourney handles journey creation from a template.
func StartJourney(svc journeys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}

		var payload startJourneyRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		journey, err := svc.StartJourney(r.Context(), userID, journeys.StartJourneyInput{
			TemplateID: payload.TemplateID,
			Title:      payload.Title,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, journey)
	}
}

// ListJourneys returns the caller's journey summaries.
func ListJourneys(svc journeys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}

		var status *enums.JourneyStatus
		if raw := validators.ParseQueryString(r, "status"); raw != nil {
			parsed, err := enums.ParseJourneyStatus(*raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			status = &parsed
		}

		summaries, err := svc.ListUserJourneys(r.Context(), userID, status)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"journeys": summaries})
	}
}

// GetJourney returns the full journey with steps and galleries.
func GetJourney(svc journeys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		journeyID, ok := pathUUID(w, r, logg, "journeyId")
		if !ok {
			return
		}

		journey, err := svc.GetJourney(r.Context(), userID, journeyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, journey)
	}
}

// AbandonJourney soft-retires an in-progress journey.
func AbandonJourney(svc journeys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		journeyID, ok := pathUUID(w, r, logg, "journeyId")
		if !ok {
			return
		}

		journey, err := svc.AbandonJourney(r.Context(), userID, journeyID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, journey)
	}
}

func callerID(w http.ResponseWriter, r *http.Request, logg *logger.Logger) (string, bool) {
	userID := middleware.UserIDFromContext(r.Context())
	if userID == "" {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "caller identity missing"))
		return "", false
	}
	return userID, true
}

func parseUUIDList(raw []string) ([]uuid.UUID, error) {
	ids := make([]uuid.UUID, 0, len(raw))
	for _, value := range raw {
		id, err := uuid.Parse(value)
		if err != nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid image id").
				WithDetails(map[string]any{"value": value})
		}
		ids = append(ids, id)
	}
	return ids, nil
}

func pathUUID(w http.ResponseWriter, r *http.Request, logg *logger.Logger, param string) (uuid.UUID, bool) {
	value, err := uuid.Parse(chi.URLParam(r, param))
	if err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid path id").
			WithDetails(map[string]any{"param": param}))
		return uuid.Nil, false
	}
	return value, true
}
