package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/atinyakov/BikeGuard/internal/metrics"
	"github.com/atinyakov/BikeGuard/internal/middleware"
)

// MaxBodyBytes caps every request body.
const MaxBodyBytes = 10 << 10

// NewRouter constructs and returns an HTTP handler that serves the
// dashboard API, the device endpoint and the metrics page.
//
// Routes:
//
//	POST /api/register    → authHandler.Register
//	POST /api/login       → authHandler.Login
//	GET  /api/auth/check  → authHandler.Check
//	GET  /api/settings    → settingsHandler.Get
//	POST /api/logout      → authHandler.Logout       (session)
//	POST /api/settings    → settingsHandler.Update   (session)
//	GET  /api/data        → telemetryHandler.Data    (session)
//	GET  /api/latest      → telemetryHandler.Latest  (session)
//	POST /esp32/data      → ingestHandler.Data
//	GET  /metrics         → metrics.HandleMetrics
//
// Every route is wrapped in panic recovery, request logging, a body size
// limit and CORS for allowedOrigins. Only /api enforces a JSON content type;
// the device endpoint must acknowledge whatever it receives.
func NewRouter(
	authHandler *AuthHandler,
	settingsHandler *SettingsHandler,
	telemetryHandler *TelemetryHandler,
	ingestHandler *IngestHandler,
	sessions middleware.SessionChecker,
	logger *zap.Logger,
	allowedOrigins []string,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.Recoverer)
	// Log each request and its metadata
	r.Use(middleware.WithRequestLogging(logger))
	r.Use(chiMiddleware.RequestSize(MaxBodyBytes))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders:   []string{"Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/metrics", metrics.HandleMetrics)
	r.With(middleware.CloseConnection).Post("/esp32/data", ingestHandler.Data)

	r.Route("/api", func(r chi.Router) {
		// Only allow requests with Content-Type: application/json
		r.Use(chiMiddleware.AllowContentType("application/json"))

		// Public endpoints
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
		r.Get("/auth/check", authHandler.Check)
		r.Get("/settings", settingsHandler.Get)

		// Protected group: requires a live session cookie
		r.Group(func(r chi.Router) {
			r.Use(middleware.SessionAuth(sessions))
			r.Post("/logout", authHandler.Logout)
			r.Post("/settings", settingsHandler.Update)
			r.Get("/data", telemetryHandler.Data)
			r.Get("/latest", telemetryHandler.Latest)
		})
	})

	return r
}
