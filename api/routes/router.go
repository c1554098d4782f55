package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/renohaus/renohaus-backend/api/controllers"
	"github.com/renohaus/renohaus-backend/api/middleware"
	"github.com/renohaus/renohaus-backend/internal/images"
	"github.com/renohaus/renohaus-backend/internal/journeys"
	"github.com/renohaus/renohaus-backend/internal/templates"
	"github.com/renohaus/renohaus-backend/pkg/config"
	"github.com/renohaus/renohaus-backend/pkg/db"
	"github.com/renohaus/renohaus-backend/pkg/logger"
	"github.com/renohaus/renohaus-backend/pkg/metrics"
	pkgredis "github.com/renohaus/renohaus-backend/pkg/redis"
)

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP db.Pinger,
	redisClient *pkgredis.Client,
	httpMetrics *metrics.HTTPMetrics,
	registry *templates.Registry,
	journeysService journeys.Service,
	imagesService images.Service,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
		middleware.Metrics(httpMetrics),
	)

	readinessDeps := map[string]controllers.Pinger{
		"database": nil,
		"redis":    nil,
	}
	if dbP != nil {
		readinessDeps["database"] = dbP
	}
	if redisClient != nil {
		readinessDeps["redis"] = redisClient
	}

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, readinessDeps))
	})

	r.Handle("/metrics", promhttp.Handler())

	// The idempotency chain needs the fully matched chi pattern, so it is
	// attached per-endpoint rather than on the group.
	var idemStore pkgredis.IdempotencyStore
	if redisClient != nil {
		idemStore = redisClient
	}
	// The largest body any guarded route accepts is a full upload batch.
	maxIdemBody := cfg.Uploads.MaxUploadBytes() * int64(cfg.Uploads.MaxBatchSize)
	idem := middleware.Idempotency(idemStore, logg, maxIdemBody)

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Identity(logg))

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", controllers.ListTemplates(registry, logg))
			r.Get("/{templateId}", controllers.GetTemplate(registry, logg))
		})

		r.Route("/journeys", func(r chi.Router) {
			r.With(idem).Post("/", controllers.StartJourney(journeysService, logg))
			r.Get("/", controllers.ListJourneys(journeysService, logg))

			r.Route("/{journeyId}", func(r chi.Router) {
				r.Get("/", controllers.GetJourney(journeysService, logg))
				r.With(idem).Post("/abandon", controllers.AbandonJourney(journeysService, logg))

				r.Route("/steps/{stepId}", func(r chi.Router) {
					r.Patch("/", controllers.UpdateStep(journeysService, logg))
					r.With(idem).Post("/images", controllers.UploadStepImages(imagesService, cfg.Uploads, logg))
					r.Put("/images/order", controllers.ReorderStepImages(imagesService, logg))
				})

				r.Route("/images", func(r chi.Router) {
					r.Get("/", controllers.ListJourneyImages(imagesService, logg))
					r.With(idem).Post("/bulk-delete", controllers.BulkDeleteImages(imagesService, logg))
					r.Patch("/{imageId}", controllers.UpdateImage(imagesService, logg))
					r.Delete("/{imageId}", controllers.DeleteImage(imagesService, logg))
				})
			})
		})
	})

	return r
}
