// Package search fetches news from SerpApi and turns the payload into sorted articles.
package search

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/Adda-Baaj/khobor-search/internal/articles"
	"github.com/Adda-Baaj/khobor-search/internal/domain"
	"github.com/Adda-Baaj/khobor-search/internal/logger"
	"github.com/Adda-Baaj/khobor-search/pkg/httpclient"
	"github.com/Adda-Baaj/khobor-search/pkg/serpapi"
)

// DefaultLimit is used when a caller passes a non-positive limit.
const DefaultLimit = 10

// Config carries everything the gateway needs to reach SerpApi.
type Config struct {
	APIKey       string
	BaseURL      string
	Engine       string
	Country      string
	Language     string
	DefaultLimit int
}

// Observer receives one call per finished gateway operation.
type Observer interface {
	ObserveSearch(op Op, outcome string, elapsed time.Duration)
}

// Gateway performs one upstream request per call and holds no per-request state.
type Gateway struct {
	client       *serpapi.Client
	transformer  *articles.Transformer
	log          logger.Logger
	observer     Observer
	defaultLimit int
	now          func() time.Time
}

// NewGateway wires a gateway. A nil http client falls back to resty with the default timeout.
func NewGateway(cfg Config, client httpclient.Client, transformer *articles.Transformer, log logger.Logger) (*Gateway, error) {
	log = logger.Ensure(log)
	sc, err := serpapi.NewClient(serpapi.Config{
		APIKey:   cfg.APIKey,
		BaseURL:  cfg.BaseURL,
		Engine:   cfg.Engine,
		Country:  cfg.Country,
		Language: cfg.Language,
	}, client)
	if err != nil {
		return nil, err
	}
	if transformer == nil {
		transformer = articles.NewTransformer(nil, log)
	}
	limit := cfg.DefaultLimit
	if limit <= 0 {
		limit = DefaultLimit
	}
	return &Gateway{
		client:       sc,
		transformer:  transformer,
		log:          log,
		defaultLimit: limit,
		now:          time.Now,
	}, nil
}

// WithObserver returns a copy that reports every operation to o.
func (g *Gateway) WithObserver(o Observer) *Gateway {
	cp := *g
	cp.observer = o
	return &cp
}

// FetchLatest returns the most recent articles matching query, newest first.
func (g *Gateway) FetchLatest(ctx context.Context, query string, limit int) ([]domain.Article, error) {
	return g.fetch(ctx, OpLatest, serpapi.Query{Text: query, Limit: g.limit(limit)})
}

// FetchByDate returns articles matching query restricted to a single YYYY-MM-DD day.
// A malformed date yields an unwrapped *ValidationError and no request is made.
func (g *Gateway) FetchByDate(ctx context.Context, date, query string, limit int) ([]domain.Article, error) {
	day, err := serpapi.FormatDateForTbs(date)
	if err != nil {
		g.log.WarnObj("rejecting by-date search", "invalid_date", map[string]any{
			"date":  date,
			"error": err.Error(),
		})
		g.observe(OpByDate, "validation", 0)
		return nil, &ValidationError{Message: InvalidDateMessage}
	}
	return g.fetch(ctx, OpByDate, serpapi.Query{Text: query, Limit: g.limit(limit), Day: day})
}

func (g *Gateway) limit(n int) int {
	if n <= 0 {
		return g.defaultLimit
	}
	return n
}

func (g *Gateway) fetch(ctx context.Context, op Op, q serpapi.Query) ([]domain.Article, error) {
	start := g.now()
	list, err := g.search(ctx, q)
	elapsed := g.now().Sub(start)

	if err != nil {
		g.log.ErrorObj("news search failed", "search_error", map[string]any{
			"op":    string(op),
			"query": q.Text,
			"day":   q.Day,
			"kind":  Kind(err),
			"error": err.Error(),
		})
		g.observe(op, Kind(err), elapsed)
		return nil, &FetchError{Op: op, Err: err}
	}

	g.log.DebugObj("news search completed", "search", map[string]any{
		"op":       string(op),
		"query":    q.Text,
		"day":      q.Day,
		"articles": len(list),
		"elapsed":  elapsed.String(),
	})
	g.observe(op, "ok", elapsed)
	return list, nil
}

func (g *Gateway) search(ctx context.Context, q serpapi.Query) ([]domain.Article, error) {
	resp, err := g.client.Search(ctx, q)
	if err != nil {
		return nil, classify(err)
	}
	if len(resp.NewsResults) == 0 {
		return []domain.Article{}, nil
	}

	raws := make([]domain.RawResult, 0, len(resp.NewsResults))
	for i, msg := range resp.NewsResults {
		var raw domain.RawResult
		if err := json.Unmarshal(msg, &raw); err != nil {
			g.transformer.Reject(articles.RejectUndecodable, map[string]any{
				"index": i,
				"error": err.Error(),
			})
			continue
		}
		raws = append(raws, raw)
	}
	return g.transformer.TransformAll(raws), nil
}

func classify(err error) error {
	var (
		status *serpapi.StatusError
		api    *serpapi.APIError
	)
	switch {
	case errors.As(err, &status):
		return &UpstreamTransportError{StatusCode: status.StatusCode, Message: status.Message}
	case errors.As(err, &api):
		return &UpstreamDataError{Message: api.Message}
	default:
		return &UnknownError{Err: err}
	}
}

func (g *Gateway) observe(op Op, outcome string, elapsed time.Duration) {
	if g.observer != nil {
		g.observer.ObserveSearch(op, outcome, elapsed)
	}
}
