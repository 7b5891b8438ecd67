package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/cometsur/checkin-sync/internal/api/handler"
	"github.com/cometsur/checkin-sync/internal/api/middleware"
	"github.com/cometsur/checkin-sync/internal/core/domain"
	"github.com/cometsur/checkin-sync/internal/core/ports"
)

// Dependencies are the services the operator API exposes.
type Dependencies struct {
	Auth       handler.Authenticator
	Registrar  handler.Registrar
	Session    handler.SessionSyncer
	Roster     handler.RosterSyncer
	Mutator    handler.Mutator
	Checkins   ports.CheckinService
	Dispatcher handler.ScanDispatcher
	Forum      handler.ForumRoom
	Checks     []handler.DependencyCheck

	// Registerer and Gatherer default to the global Prometheus registry.
	Registerer prometheus.Registerer
	Gatherer   prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies, log zerolog.Logger) *echo.Echo {
	if deps.Registerer == nil {
		deps.Registerer = prometheus.DefaultRegisterer
	}
	if deps.Gatherer == nil {
		deps.Gatherer = prometheus.DefaultGatherer
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "checkin_api",
		Registerer: deps.Registerer,
	}))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth, deps.Registrar)
	sessionHandler := handler.NewSessionHandler(deps.Auth, deps.Session)
	rosterHandler := handler.NewRosterHandler(deps.Roster)
	attendeeHandler := handler.NewAttendeeHandler(deps.Roster, deps.Mutator)
	checkinHandler := handler.NewCheckinHandler(deps.Checkins, deps.Dispatcher)
	forumHandler := handler.NewForumHandler(deps.Forum)

	// --- Auth routes ---
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/logout", authHandler.Logout)
	e.POST("/auth/register", authHandler.Register)

	// --- Session-scoped routes ---
	v1 := e.Group("/v1", middleware.RequireSession(deps.Auth))
	v1.GET("/session", sessionHandler.Get)
	v1.POST("/session/refresh", sessionHandler.Refresh)
	v1.GET("/session/changes", sessionHandler.Changes)

	v1.GET("/roster", rosterHandler.List)
	v1.POST("/roster/refresh", rosterHandler.Refresh)
	v1.GET("/roster/stats", rosterHandler.Stats)

	v1.GET("/forum/messages", forumHandler.List)
	v1.POST("/forum/messages", forumHandler.Send)

	// --- Moderator-only routes ---
	moderatorOnly := middleware.RBAC(domain.RoleModerator)
	v1.POST("/checkins", checkinHandler.Scan, moderatorOnly)
	v1.POST("/checkins/batch", checkinHandler.ScanBatch, moderatorOnly)
	v1.PUT("/attendees/:id", attendeeHandler.Update, moderatorOnly)
	v1.DELETE("/attendees/:id", attendeeHandler.Delete, moderatorOnly)

	// --- Health checks, metrics and docs (no session required) ---
	healthHandler := handler.NewHealthHandler()
	readinessHandler := handler.NewReadinessHandler(deps.Checks...)

	e.GET("/health", healthHandler.Liveness)           // liveness  – is the process alive?
	e.GET("/health/ready", readinessHandler.Readiness) // readiness – are dependencies up?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: deps.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}
