package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/spec-kit/webapp-gateway/internal/api/http/handlers"
	"github.com/spec-kit/webapp-gateway/internal/config"
	"github.com/spec-kit/webapp-gateway/internal/domain"
	"github.com/spec-kit/webapp-gateway/internal/gate"
	"github.com/spec-kit/webapp-gateway/internal/observability"
)

// Paths the guards redirect between and the header links to.
const (
	LoginPath   = "/api/auth/login"
	LogoutPath  = "/api/auth/logout"
	HomePath    = "/api/home"
	ProfilePath = "/api/me"
	AdminPath   = "/api/admin/overview"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health   *handlers.HealthHandler
	Auth     *handlers.AuthHandler
	Session  *handlers.SessionHandler
	Header   *handlers.HeaderHandler
	Home     *handlers.HomeHandler
	// Items is nil when no local item store is configured.
	Items    *handlers.ItemsHandler
	Identity *IdentityMount
	Metrics  *observability.Metrics
	// Source selects which credential endpoints are exposed.
	Source string
}

// RegisterRoutes wires HTTP routes.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)
	if cfg.Metrics != nil {
		app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(cfg.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	guard := func(name string) gate.Options {
		return gate.Options{Name: name, Recorder: cfg.Metrics}
	}

	api := app.Group("/api", cfg.Identity.Handle)

	authGroup := api.Group("/auth")
	switch cfg.Source {
	case config.IdentitySourceGraphQL:
		authGroup.Post("/token", cfg.Auth.AttachToken)
	default:
		authGroup.Post("/signup", cfg.Auth.Signup)
		authGroup.Post("/login", cfg.Auth.Login)
	}
	authGroup.Get("/login", gate.AnonymousRoute(guard("login_page"), HomePath), cfg.Auth.LoginPage)
	authGroup.Post("/logout", cfg.Auth.Logout)

	api.Get("/me", cfg.Session.Me)
	api.Post("/me/refresh", cfg.Session.Refresh)
	api.Get("/header", cfg.Header.Header)

	api.Get("/home", gate.AuthRoute(guard("home"), LoginPath), cfg.Home.Home)
	api.Get("/admin/overview", gate.RoleAccess(guard("admin_overview"), domain.RoleAdmin), cfg.Home.AdminOverview)

	if cfg.Items != nil {
		items := api.Group("/items", gate.AuthRoute(guard("items"), LoginPath))
		items.Get("/", cfg.Items.List)
		items.Post("/", cfg.Items.Create)
		items.Get("/:id", cfg.Items.Get)
		items.Put("/:id", cfg.Items.Update)
		items.Delete("/:id", cfg.Items.Delete)
	}
}

// HeaderPaths returns the navigation targets served by RegisterRoutes.
func HeaderPaths() handlers.HeaderPaths {
	return handlers.HeaderPaths{Home: HomePath, Profile: ProfilePath, Logout: LogoutPath, Admin: AdminPath}
}
