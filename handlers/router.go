package handlers

import (
	"net/http"

	"github.com/adseawright/flight-price-backend/database"
	"github.com/adseawright/flight-price-backend/metrics"
	"github.com/adseawright/flight-price-backend/middleware"
	"github.com/adseawright/flight-price-backend/services"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"
)

// Handler serves the HTTP API.
type Handler struct {
	filters   *services.FilterService
	predictor *services.PredictionService
	store     *database.Store
	metrics   *metrics.MetricsRegistry
	logger    *logrus.Logger
}

func NewHandler(
	filters *services.FilterService,
	predictor *services.PredictionService,
	store *database.Store,
	metricsReg *metrics.MetricsRegistry,
	logger *logrus.Logger,
) *Handler {
	return &Handler{
		filters:   filters,
		predictor: predictor,
		store:     store,
		metrics:   metricsReg,
		logger:    logger,
	}
}

// NewRouter wires every endpoint behind the request id, logging, metrics and
// CORS middleware.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(h.logger))
	r.Use(middleware.Metrics(h.metrics))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", middleware.RequestIDHeader},
		ExposedHeaders:   []string{middleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Get("/seed-history", h.SeedHistory)
	r.Method(http.MethodGet, "/metrics", h.metrics.Handler())

	r.Get("/dropdown-data", h.DropdownData)
	r.Get("/departure-cities", h.Cascade(services.StageDepartureCities))
	r.Get("/destination-cities", h.Cascade(services.StageDestinations))
	r.Get("/available-stops-count", h.Cascade(services.StageStopsCounts))
	r.Get("/available-durations", h.Cascade(services.StageDurations))
	r.Get("/available-classes", h.Cascade(services.StageClasses))
	r.Get("/available-dep-daytimes", h.Cascade(services.StageDepDaytimes))
	r.Get("/available-arr-daytimes", h.Cascade(services.StageArrDaytimes))

	r.Post("/predict", h.Predict)

	return r
}
