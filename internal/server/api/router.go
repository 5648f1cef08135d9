package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"tgstash/internal/server/config"
)

// SetupRouter creates and configures the echo router with all routes and middleware.
func SetupRouter(handler *Handler, verifier TokenVerifier, cfg *config.Config) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HTTPErrorHandler = errorEnvelopeHandler

	// Global middleware
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{"GET", "POST", "OPTIONS"},
		AllowHeaders: []string{"Content-Type", adminTokenHeader},
	}))
	e.Use(RequestLogger())
	e.Use(Metrics())

	// Rate limiter on upload endpoint only
	uploadLimiter := NewRateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst)

	// Liveness & health
	e.GET("/", handler.HandleRoot)
	e.GET("/health", handler.HandleHealth)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))
	e.GET("/api/stats", handler.HandleStats)

	// Upload (admin token + rate limit)
	e.POST("/api/upload", handler.HandleUpload, RequireAdminToken(verifier), uploadLimiter.Middleware())

	// List
	e.GET("/api/files", handler.HandleFiles)

	// Download: path-style and query-style identifiers
	e.GET("/api/download/:id", handler.HandleDownload)
	e.GET("/api/download", handler.HandleDownload)

	return e
}

// errorEnvelopeHandler normalizes router-level errors (unknown route, wrong
// verb, oversized body) into the {"error": ...} envelope the handlers use.
func errorEnvelopeHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	msg := "internal server error"

	var he *echo.HTTPError
	if errors.As(err, &he) {
		code = he.Code
		if s, ok := he.Message.(string); ok {
			msg = s
		}
	}

	_ = c.JSON(code, echo.Map{"error": msg})
}
