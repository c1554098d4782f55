package controllers

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/renohaus/renohaus-backend/api/responses"
	"github.com/renohaus/renohaus-backend/internal/templates"
	"github.com/renohaus/renohaus-backend/pkg/logger"
)

func ListTemplates(registry *templates.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		responses.WriteSuccess(w, map[string]any{"templates": registry.ListTemplates()})
	}
}

func GetTemplate(registry *templates.Registry, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		tpl, err := registry.GetTemplate(chi.URLParam(r, "templateId"))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, tpl)
	}
}
