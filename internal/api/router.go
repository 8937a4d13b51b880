package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"
	"go.mongodb.org/mongo-driver/mongo"

	_ "github.com/mardens/authgate/docs" // swagger docs

	"github.com/mardens/authgate/internal/api/handler"
	"github.com/mardens/authgate/internal/api/middleware"
	"github.com/mardens/authgate/internal/core/ports"
	"github.com/mardens/authgate/internal/infrastructure/http/handlers"
)

// Deps are the collaborators the router wires into handlers. Redis, Mongo,
// Audit and AuditReader are nil when the corresponding feature is disabled.
type Deps struct {
	AuthService ports.AuthService
	Identity    handlers.Pinger
	Redis       *redis.Client
	Mongo       *mongo.Client
	Audit       ports.AuditSink
	AuditReader ports.AuditReader

	Gate   middleware.GateOptions
	Cookie handler.CookieOptions
	Log    zerolog.Logger
	// Metrics receives the HTTP metrics and backs /metrics. Defaults to the
	// global Prometheus registry.
	Metrics *prometheus.Registry
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

	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if d.Metrics != nil {
		registerer, gatherer = d.Metrics, d.Metrics
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "authgate",
		Registerer: registerer,
	}))

	gate := d.Gate
	gate.Log = d.Log
	gate.Audit = d.Audit
	if gate.Skipper == nil {
		gate.Skipper = middleware.BypassPaths(middleware.DefaultBypassPaths...)
	}
	e.Use(middleware.Auth(d.AuthService, gate))

	// --- Health probes and tooling (bypass the gate) ---
	healthHandler := handlers.NewHealthHandler()
	healthDepsHandler := handlers.NewHealthDependenciesHandler(d.Identity, d.Redis, d.Mongo)

	e.GET("/health", healthHandler.Liveness)            // liveness  – is the process alive?
	e.GET("/health/ready", healthDepsHandler.Readiness) // readiness – is the identity service reachable?
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	// --- Auth routes (bypass the gate) ---
	authHandler := handler.NewAuthHandler(d.AuthService, d.Cookie, gate.DefaultUserAgent)
	e.POST("/auth/login", authHandler.Login)
	e.POST("/auth/register", authHandler.Register)

	// --- Gated routes ---
	userHandler := handler.NewUserHandler(d.AuthService, d.AuditReader)
	apiGroup := e.Group("/api")
	apiGroup.GET("/me", userHandler.Me)
	apiGroup.GET("/me/activity", userHandler.Activity)
	apiGroup.GET("/users", userHandler.List)

	return e
}

func requestLogger(log zerolog.Logger) echo.MiddlewareFunc {
	return echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogStatus:    true,
		LogURI:       true,
		LogMethod:    true,
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
