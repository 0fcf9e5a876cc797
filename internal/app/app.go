package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/Adda-Baaj/khobor-search/internal/articles"
	"github.com/Adda-Baaj/khobor-search/internal/config"
	"github.com/Adda-Baaj/khobor-search/internal/dates"
	"github.com/Adda-Baaj/khobor-search/internal/logger"
	"github.com/Adda-Baaj/khobor-search/internal/metrics"
	"github.com/Adda-Baaj/khobor-search/internal/search"
	"github.com/Adda-Baaj/khobor-search/internal/web"
	"github.com/Adda-Baaj/khobor-search/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-search/pkg/publishers"
	"github.com/labstack/echo/v4"
)

const shutdownTimeout = 10 * time.Second

// Runtime holds the object graph built from config: the search gateway, the
// optional publisher fan-out, the metrics recorder and the web handler.
type Runtime struct {
	cfg     *config.Config
	log     logger.Logger
	gateway *search.Gateway
	handler *web.Handler
	fanout  *publishers.Fanout
	metrics *metrics.Recorder
}

// New builds a runtime. Publishers are only built when a publishers file is configured.
func New(ctx context.Context, cfg *config.Config, log logger.Logger) (*Runtime, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	log = logger.Ensure(log)
	if ctx == nil {
		ctx = context.Background()
	}

	var recorder *metrics.Recorder
	if cfg.MetricsEnabled {
		recorder = metrics.NewRecorder()
	}

	normalizer := dates.NewNormalizer(cfg.DateLocation, log)
	if recorder != nil {
		normalizer = normalizer.WithObserver(recorder)
	}
	transformer := articles.NewTransformer(normalizer, log)
	if recorder != nil {
		transformer = transformer.WithRejectObserver(recorder)
	}

	gateway, err := search.NewGateway(search.Config{
		APIKey:       cfg.SerpAPIKey,
		BaseURL:      cfg.SerpAPIBaseURL,
		Engine:       cfg.SerpAPIEngine,
		Country:      cfg.SerpAPICountry,
		Language:     cfg.SerpAPILanguage,
		DefaultLimit: cfg.DefaultResultLimit,
	}, httpclient.NewRestyClient(cfg.RequestTimeout), transformer, log)
	if err != nil {
		return nil, fmt.Errorf("init search gateway: %w", err)
	}
	if recorder != nil {
		gateway = gateway.WithObserver(recorder)
	}
	log.InfoObj("search gateway ready", "gateway_config", map[string]any{
		"base_url":      cfg.SerpAPIBaseURL,
		"engine":        cfg.SerpAPIEngine,
		"country":       cfg.SerpAPICountry,
		"default_limit": cfg.DefaultResultLimit,
		"timeout":       cfg.RequestTimeout.String(),
	})

	fanout, err := buildFanout(ctx, cfg.PublishersFile, log)
	if err != nil {
		return nil, err
	}

	var sink web.EventSink
	if fanout.Size() > 0 {
		sink = fanout
	}
	handler := web.NewHandler(gateway, sink, log)
	if recorder != nil {
		handler.SetPublishObserver(recorder)
	}

	return &Runtime{
		cfg:     cfg,
		log:     log,
		gateway: gateway,
		handler: handler,
		fanout:  fanout,
		metrics: recorder,
	}, nil
}

func buildFanout(ctx context.Context, path string, log logger.Logger) (*publishers.Fanout, error) {
	if path == "" {
		log.DebugObj("no publishers file configured; search events are not published", "publishers_file", path)
		return publishers.NewFanout(nil, log), nil
	}

	cfgs, err := publishers.LoadConfigs(path)
	if err != nil {
		return nil, fmt.Errorf("load publishers: %w", err)
	}
	pubs, err := publishers.DefaultRegistry().BuildAll(ctx, cfgs, log)
	if err != nil {
		return nil, fmt.Errorf("build publishers: %w", err)
	}

	summaries := make([]map[string]string, 0, len(cfgs))
	for _, c := range cfgs {
		summaries = append(summaries, map[string]string{"id": c.ID, "type": c.Type})
	}
	log.InfoObj("publishers loaded", "publishers_meta", map[string]any{
		"count":      len(summaries),
		"publishers": summaries,
	})
	return publishers.NewFanout(pubs, log), nil
}

// Gateway exposes the search gateway for one-shot CLI searches.
func (r *Runtime) Gateway() *search.Gateway {
	return r.gateway
}

// Handler exposes the web handler, which also publishes successful searches.
func (r *Runtime) Handler() *web.Handler {
	return r.handler
}

// Server builds the HTTP server without starting it.
func (r *Runtime) Server() (*echo.Echo, error) {
	opts := web.ServerOptions{Location: r.cfg.DateLocation}
	if r.metrics != nil {
		opts.Metrics = r.metrics.Handler()
	}
	return web.NewServer(r.handler, r.log, opts)
}

// Serve runs the HTTP server until ctx is cancelled, then shuts it down gracefully.
func (r *Runtime) Serve(ctx context.Context) error {
	e, err := r.Server()
	if err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		r.log.InfoObj("http server listening", "listen_addr", r.cfg.ListenAddr)
		errCh <- e.Start(r.cfg.ListenAddr)
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("http server: %w", err)
	case <-ctx.Done():
	}

	r.log.InfoObj("http server shutting down", "reason", ctx.Err().Error())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http server shutdown: %w", err)
	}
	return nil
}

// Close waits for in-flight publishes and releases publisher clients.
func (r *Runtime) Close() error {
	if r == nil {
		return nil
	}
	r.handler.Wait()
	if err := r.fanout.Close(); err != nil {
		r.log.ErrorObj("publisher close failed", "error", err.Error())
		return err
	}
	return nil
}
