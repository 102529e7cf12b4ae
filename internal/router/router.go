package router

import (
	"net/http"

	"github.com/flarenet/platform/internal/middleware"
	"github.com/flarenet/platform/internal/modules/auth"
	"github.com/flarenet/platform/internal/modules/chat"
	"github.com/flarenet/platform/internal/modules/deployments"
	"github.com/flarenet/platform/internal/modules/health"
	"github.com/flarenet/platform/internal/modules/projects"
	"github.com/flarenet/platform/internal/modules/repos"
	"github.com/flarenet/platform/internal/telemetry"
)

// Setup creates and configures the HTTP router with all routes.
func Setup(
	jwtSecret string,
	authHandler *auth.Handler,
	projectsHandler *projects.Handler,
	deploymentsHandler *deployments.Handler,
	chatHandler *chat.Handler,
	reposHandler *repos.Handler,
	mwManager *middleware.Manager,
) http.Handler {
	mux := http.NewServeMux()

	healthHandler := health.NewHandler()
	authMiddleware := middleware.AuthMiddleware(jwtSecret)

	mux.HandleFunc("GET /health", telemetry.WithTracing("health", healthHandler.Health))
	mux.Handle("GET /metrics", healthHandler.Metrics())

	mux.HandleFunc("POST /auth/register", telemetry.WithTracing("auth.register", authHandler.Register))
	mux.HandleFunc("POST /auth/login", telemetry.WithTracing("auth.login", authHandler.Login))

	// Projects and deployments are authenticated but not admission-
	// gated: they write to the SQL store and publish events, neither
	// of which is a rate-limited downstream per spec.md §6.
	mux.Handle("POST /projects", middleware.Chain(
		http.HandlerFunc(telemetry.WithTracing("projects.create", projectsHandler.Create)),
		authMiddleware,
		mwManager.Idempotency,
	))
	mux.Handle("GET /projects/{id}", middleware.Chain(
		http.HandlerFunc(telemetry.WithTracing("projects.get", projectsHandler.Get)),
		authMiddleware,
	))
	mux.Handle("POST /projects/{id}/deployments", middleware.Chain(
		http.HandlerFunc(telemetry.WithTracing("deployments.create", deploymentsHandler.Create)),
		authMiddleware,
		mwManager.Idempotency,
	))
	mux.Handle("GET /projects/{id}/deployments", middleware.Chain(
		http.HandlerFunc(telemetry.WithTracing("deployments.list", deploymentsHandler.List)),
		authMiddleware,
	))
	mux.Handle("GET /deployments/{id}/logs", middleware.Chain(
		http.HandlerFunc(telemetry.WithTracing("deployments.logs", deploymentsHandler.Logs)),
		authMiddleware,
	))
	mux.Handle("POST /deployments/{id}/cancel", middleware.Chain(
		http.HandlerFunc(telemetry.WithTracing("deployments.cancel", deploymentsHandler.Cancel)),
		authMiddleware,
	))

	// Chat completions and repo validation call metered third-party
	// APIs, so both sit behind the admission gate.
	mux.Handle("POST /chat/completions", middleware.Chain(
		http.HandlerFunc(telemetry.WithTracing("chat.completions", chatHandler.Complete)),
		authMiddleware,
		mwManager.Admission,
	))
	mux.Handle("POST /repos/validate", middleware.Chain(
		http.HandlerFunc(telemetry.WithTracing("repos.validate", reposHandler.Validate)),
		authMiddleware,
		mwManager.Admission,
	))

	// Recovery sits innermost so Logging/Metrics' status recorders still
	// see the 500 it writes instead of losing the request to a panic.
	return middleware.Chain(mux,
		middleware.MetricsMiddleware,
		middleware.LoggingMiddleware,
		middleware.CORSMiddleware,
		middleware.RecoveryMiddleware,
	)
}
