package controllers

import (
	"net/http"

	"github.com/renohaus/renohaus-backend/api/responses"
	"github.com/renohaus/renohaus-backend/api/validators"
	"github.com/renohaus/renohaus-backend/internal/journeys"
	dbtypes "github.com/renohaus/renohaus-backend/pkg/db/types"
	"github.com/renohaus/renohaus-backend/pkg/enums"
	"github.com/renohaus/renohaus-backend/pkg/logger"
)

type updateStepRequest struct {
	Status   *string         `json:"status,omitempty" validate:"omitempty,oneof=pending in_progress completed"`
	Progress *int            `json:"progress,omitempty" validate:"omitempty,min=0,max=100"`
	Data     dbtypes.JSONMap `json:"data,omitempty"`
}

// UpdateStep handles step progress, data, and status transitions.
func UpdateStep(svc journeys.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, ok := callerID(w, r, logg)
		if !ok {
			return
		}
		journeyID, ok := pathUUID(w, r, logg, "journeyId")
		if !ok {
			return
		}
		stepID, ok := pathUUID(w, r, logg, "stepId")
		if !ok {
			return
		}

		var payload updateStepRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := journeys.UpdateStepInput{
			Progress: payload.Progress,
			Data:     payload.Data,
		}
		if payload.Status != nil {
			status := enums.StepStatus(*payload.Status)
			input.Status = &status
		}

		journey, err := svc.UpdateStep(r.Context(), userID, journeyID, stepID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, journey)
	}
}
