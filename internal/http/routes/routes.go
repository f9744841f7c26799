// Package routes assembles the gateway simulator's HTTP router.
package routes

import (
	"net/http"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/janisto/prima-profile-e2e/internal/http/health"
	"github.com/janisto/prima-profile-e2e/internal/http/rpc"
	"github.com/janisto/prima-profile-e2e/internal/platform/auth"
	applog "github.com/janisto/prima-profile-e2e/internal/platform/logging"
	appmiddleware "github.com/janisto/prima-profile-e2e/internal/platform/middleware"
	profilesvc "github.com/janisto/prima-profile-e2e/internal/service/profile"
)

// Deps are the collaborators the simulator routes need.
type Deps struct {
	Auth     auth.Authenticator
	Profiles profilesvc.Service
	// Store names the profile backend in the health payload.
	Store   string
	Version string
}

// NewRouter builds the middleware stack, the huma API and every simulator route.
func NewRouter(deps Deps) http.Handler {
	router := chi.NewRouter()
	router.NotFound(appmiddleware.NotFound())
	router.MethodNotAllowed(appmiddleware.MethodNotAllowed())

	router.Use(
		appmiddleware.NoStore(),
		appmiddleware.RequestID(),
		chimiddleware.RealIP,
		chimiddleware.RequestSize(1<<20),
		applog.RequestLogger(),
		applog.AccessLogger(),
		appmiddleware.Recoverer(),
	)

	version := deps.Version
	if version == "" {
		version = "dev"
	}
	store := deps.Store
	if store == "" {
		store = "memory"
	}

	cfg := huma.DefaultConfig("Gateway Simulator", version)
	cfg.DocsPath = "/api-docs"
	api := humachi.New(router, cfg)

	router.Get("/health", health.Handler(store))
	rpc.Register(api, deps.Auth, deps.Profiles)
	return router
}
