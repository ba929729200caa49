package api

import (
	"time"

	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/pagekeep/diary/docs"
	"github.com/pagekeep/diary/internal/api/handler"
	"github.com/pagekeep/diary/internal/api/middleware"
	"github.com/pagekeep/diary/internal/core/ports"
	"github.com/pagekeep/diary/internal/web"
)

// Deps are the collaborators the HTTP layer needs.
type Deps struct {
	Auth      ports.AuthService
	Entries   ports.EntryService
	Readiness []handler.Dependency

	// Location is the time zone entries are displayed and edited in.
	Location      *time.Location
	SecureCookies bool
	Log           zerolog.Logger

	// Registry receives the HTTP metrics; nil means the default registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(d Deps) (*echo.Echo, error) {
	renderer, err := web.NewRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handler.NewValidator()
	e.Renderer = renderer
	e.HTTPErrorHandler = NewHTTPErrorHandler(d.Log)

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(requestLogger(d.Log))
	e.Use(prometheusMiddleware(d.Registry))
	e.Use(middleware.Session(d.Auth, d.SecureCookies, d.Log))

	requirePage := middleware.RequireUser("/sign-in")
	requireAPI := middleware.RequireUser("")

	// --- Pages ---
	pages := handler.NewPageHandler(d.Auth, d.Entries, d.Location, d.SecureCookies, d.Log)
	e.GET("/", pages.Home)
	e.GET("/sign-in", pages.SignInForm)
	e.POST("/sign-in", pages.SignIn)
	e.POST("/verify", pages.Verify)
	e.POST("/sign-out", pages.SignOut)
	e.GET("/dashboard", pages.Dashboard, requirePage)
	e.GET("/entries", pages.Entries, requirePage)
	e.POST("/entries", pages.CreateEntry, requirePage)
	e.POST("/entries/:id", pages.UpdateEntry, requirePage)
	e.POST("/entries/:id/delete", pages.DeleteEntry, requirePage)

	// --- JSON API ---
	authHandler := handler.NewAuthHandler(d.Auth, d.SecureCookies)
	entryHandler := handler.NewEntryHandler(d.Entries, d.Location)

	v1 := e.Group("/api/v1")
	v1.POST("/auth/otp", authHandler.RequestOTP)
	v1.POST("/auth/sign-up", authHandler.SignUp)
	v1.POST("/auth/sign-in", authHandler.SignIn)
	v1.POST("/auth/verify", authHandler.Verify)
	v1.POST("/auth/sign-out", authHandler.SignOut)
	v1.GET("/me", authHandler.Me, requireAPI)
	v1.GET("/entries", entryHandler.List, requireAPI)
	v1.POST("/entries", entryHandler.Create, requireAPI)
	v1.GET("/entries/:id", entryHandler.Get, requireAPI)
	v1.PATCH("/entries/:id", entryHandler.Update, requireAPI)
	v1.DELETE("/entries/:id", entryHandler.Delete, requireAPI)

	// --- Ops (no auth required) ---
	e.GET("/health", handler.NewHealthHandler().Liveness)
	e.GET("/health/ready", handler.NewReadinessHandler(d.Readiness...).Readiness)
	e.GET("/metrics", metricsHandler(d.Registry))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	return e, nil
}

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
			if v.Status >= 500 {
				ev = log.Error().Err(v.Error)
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

func prometheusMiddleware(reg *prometheus.Registry) echo.MiddlewareFunc {
	if reg == nil {
		return echoprometheus.NewMiddleware("diary")
	}
	return echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "diary",
		Registerer: reg,
	})
}

func metricsHandler(reg *prometheus.Registry) echo.HandlerFunc {
	if reg == nil {
		return echoprometheus.NewHandler()
	}
	return echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: reg})
}
