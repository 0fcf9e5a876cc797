package web

import (
	"fmt"
	"net/http"
	"time"

	"github.com/Adda-Baaj/khobor-search/internal/logger"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// ServerOptions tunes NewServer.
type ServerOptions struct {
	// Metrics is mounted at /metrics when non-nil.
	Metrics http.Handler
	// Location is used to format card dates.
	Location *time.Location
}

// NewServer builds the echo instance with every route registered.
func NewServer(h *Handler, log logger.Logger, opts ServerOptions) (*echo.Echo, error) {
	log = logger.Ensure(log)

	renderer, err := newTemplateRenderer(opts.Location)
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Renderer = renderer
	e.Use(middleware.Recover())
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:   true,
		LogURIPath:  true,
		LogStatus:   true,
		LogLatency:  true,
		LogRemoteIP: true,
		LogError:    true,
		HandleError: true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := map[string]any{
				"method":     v.Method,
				"path":       v.URIPath,
				"status":     v.Status,
				"latency_ms": v.Latency.Milliseconds(),
				"remote_ip":  v.RemoteIP,
			}
			if v.Error != nil {
				entry["error"] = v.Error.Error()
				log.WarnObj("http request failed", "http_request", entry)
				return nil
			}
			log.DebugObj("http request", "http_request", entry)
			return nil
		},
	}))
	e.HTTPErrorHandler = jsonErrorHandler

	e.GET("/", h.index)
	e.POST("/search", h.searchPage)
	e.GET("/api/news", h.searchAPI)
	e.POST("/api/news", h.searchAPI)
	e.GET("/healthz", healthz)
	if opts.Metrics != nil {
		e.GET("/metrics", echo.WrapHandler(opts.Metrics))
	}
	return e, nil
}

func jsonErrorHandler(err error, c echo.Context) {
	code := http.StatusInternalServerError
	msg := http.StatusText(code)
	if he, ok := err.(*echo.HTTPError); ok {
		code = he.Code
		if he.Message != nil {
			msg = fmt.Sprint(he.Message)
		}
	}
	if c.Response().Committed {
		return
	}
	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]any{"error": msg})
}
