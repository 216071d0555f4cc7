package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	"github.com/smartwaste/civic-core/internal/api/handler"
	"github.com/smartwaste/civic-core/internal/api/middleware"
	"github.com/smartwaste/civic-core/internal/core/domain"
	"github.com/smartwaste/civic-core/internal/core/ports"
	"github.com/smartwaste/civic-core/internal/core/service"

	_ "github.com/smartwaste/civic-core/docs"
)

// Deps are the collaborators the HTTP API is built from.
type Deps struct {
	Sessions  *service.SessionFactory
	Tokens    ports.TokenIssuer
	Assistant ports.Assistant
	Hub       *service.ConversationHub
	Store     ports.SessionStore
	Backend   string
	JWTSecret string
	Log       zerolog.Logger

	// Registry and Gatherer default to the Prometheus globals.
	Registry prometheus.Registerer
	Gatherer prometheus.Gatherer
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Namespace:  "smartwaste",
		Subsystem:  "http",
		Registerer: d.Registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	// --- Dependencies ---
	authHandler := handler.NewAuthHandler(d.Sessions, d.Sessions.Registry(), d.Tokens, d.Hub)
	dashboardHandler := handler.NewDashboardHandler()
	assistantHandler := handler.NewAssistantHandler(d.Assistant, d.Hub)
	healthHandler := handler.NewHealthHandler(d.Backend, d.Store)

	authMW := middleware.Auth(d.JWTSecret)
	sessionMW := middleware.Session(d.Sessions)

	// --- Auth routes ---
	auth := e.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/quick-login", authHandler.QuickLogin)
	auth.GET("/roles", authHandler.Roles)
	auth.POST("/logout", authHandler.Logout, authMW)
	auth.GET("/me", authHandler.Me, authMW, sessionMW)
	auth.POST("/switch-role", authHandler.SwitchRole, authMW, sessionMW)

	// --- Authenticated API ---
	v1 := e.Group("/v1", authMW, sessionMW)
	v1.GET("/dashboard", dashboardHandler.Current)
	for _, role := range domain.Roles() {
		v1.GET("/dashboards/"+role.String(), dashboardHandler.ForRole, middleware.RBAC(role))
	}

	assistant := v1.Group("/assistant")
	assistant.GET("/quick-replies", assistantHandler.QuickReplies)
	assistant.POST("/respond", assistantHandler.Respond)
	assistant.POST("/conversations", assistantHandler.StartConversation)
	assistant.GET("/conversations/:id", assistantHandler.GetConversation)
	assistant.DELETE("/conversations/:id", assistantHandler.EndConversation)
	assistant.POST("/conversations/:id/messages", assistantHandler.PostMessage)
	assistant.POST("/conversations/:id/close", assistantHandler.CloseConversation)
	assistant.POST("/conversations/:id/open", assistantHandler.OpenConversation)

	// --- Health probes, metrics and docs (no auth required) ---
	e.GET("/health", healthHandler.Liveness)
	e.GET("/health/ready", healthHandler.Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: d.Gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e
}

// requestLogger logs one line per request through zerolog.
func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v echomiddleware.RequestLoggerValues) error {
			ev := log.Info()
			if v.Error != nil {
				ev = log.Warn().Err(v.Error)
			}
			ev.Str("method", v.Method).
				Str("uri", v.URI).
				Int("status", v.Status).
				Dur("latency", v.Latency).
				Str("request_id", v.RequestID).
				Msg("request")
			return nil
		},
	})
}
