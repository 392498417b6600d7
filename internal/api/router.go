// Package api serves the block store over HTTP.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/manav03panchal/timeblock/internal/logging"
)

// Config holds the dependencies for the router.
type Config struct {
	Store    BlockStore
	Logger   *slog.Logger
	Now      func() time.Time
	Calendar string // X-WR-CALNAME of the exported calendar
}

// NewRouter creates and configures a new Echo router.
func NewRouter(cfg *Config) *echo.Echo {
	logger := cfg.Logger
	if logger == nil {
		logger = logging.Logger()
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = errorHandler(logger)

	e.Use(middleware.RequestID())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"method", v.Method,
				"uri", v.URI,
				"status", v.Status,
				"latency", v.Latency,
				logging.KeyRequestID, v.RequestID,
			}
			if v.Error != nil {
				logger.Warn("request failed", append(attrs, logging.KeyError, v.Error)...)
				return nil
			}
			logger.Info("request", attrs...)
			return nil
		},
	}))
	e.Use(middleware.Recover())
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowHeaders: []string{echo.HeaderOrigin, echo.HeaderContentType, echo.HeaderAccept},
		MaxAge:       300,
	}))

	h := NewBlockHandler(cfg.Store, logger)
	if cfg.Now != nil {
		h.now = cfg.Now
	}
	if cfg.Calendar != "" {
		h.calendar = cfg.Calendar
	}

	e.GET("/health", h.Health)
	e.GET("/blocks", h.List)
	e.POST("/blocks", h.Create)
	e.GET("/blocks/:id", h.Get)
	e.PUT("/blocks/:id", h.Edit)
	e.DELETE("/blocks/:id", h.Delete)
	e.GET("/agenda", h.Agenda)
	e.GET("/calendar.ics", h.Calendar)

	logger.Debug("router initialized")
	return e
}
