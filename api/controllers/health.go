package controllers

import (
	"context"
	"net/http"
	"time"

	"github.com/renohaus/renohaus-backend/api/responses"
	"github.com/renohaus/renohaus-backend/pkg/config"
	"github.com/renohaus/renohaus-backend/pkg/logger"
)

const envHeader = "X-RenoHaus-Env"

// Pinger is anything whose liveness the readiness probe should verify.
type Pinger interface {
	Ping(ctx context.Context) error
}

func HealthLive(cfg *config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)
		responses.WriteSuccess(w, map[string]string{"status": "live"})
	}
}

// HealthReady pings every wired dependency. Nil pingers are features that
// were not enabled and count as healthy.
func HealthReady(cfg *config.Config, logg *logger.Logger, deps map[string]Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(envHeader, cfg.App.Env)

		ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
		defer cancel()

		components := map[string]string{}
		ready := true
		for name, dep := range deps {
			if dep == nil {
				components[name] = "disabled"
				continue
			}
			if err := dep.Ping(ctx); err != nil {
				components[name] = "down"
				ready = false
				if logg != nil {
					logg.Error(logg.WithField(ctx, "component", name), "health.ready failed", err)
				}
				continue
			}
			components[name] = "up"
		}

		payload := map[string]any{"status": "ready", "components": components}
		if !ready {
			payload["status"] = "degraded"
			responses.WriteSuccessStatus(w, http.StatusServiceUnavailable, payload)
			return
		}
		responses.WriteSuccess(w, payload)
	}
}
