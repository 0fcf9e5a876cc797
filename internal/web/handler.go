// Package web serves the search form, the HTML result cards and the JSON news API.
package web

import (
	"context"
	"errors"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/Adda-Baaj/khobor-search/internal/domain"
	"github.com/Adda-Baaj/khobor-search/internal/logger"
	"github.com/Adda-Baaj/khobor-search/internal/search"
	"github.com/Adda-Baaj/khobor-search/pkg/publishers"
	"github.com/labstack/echo/v4"
)

const (
	SearchTypeLatest = "latest"
	SearchTypeByDate = "byDate"

	msgEmptyQuery   = "Search query cannot be empty."
	msgDateRequired = "Date is required for date-based search."
	msgFetchFailed  = "Failed to fetch news: "

	publishTimeout = 10 * time.Second
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Searcher is the gateway surface the handler needs.
type Searcher interface {
	FetchLatest(ctx context.Context, query string, limit int) ([]domain.Article, error)
	FetchByDate(ctx context.Context, date, query string, limit int) ([]domain.Article, error)
}

// EventSink receives completed searches. *publishers.Fanout satisfies it.
type EventSink interface {
	Publish(ctx context.Context, evt publishers.SearchEvent) (int, error)
}

// PublishObserver is told the outcome of every background publish.
type PublishObserver interface {
	ObservePublish(err error)
}

// Request is the form (or JSON, or query string) a search is submitted with.
type Request struct {
	Query      string `form:"query" json:"query" query:"query"`
	SearchType string `form:"searchType" json:"searchType" query:"searchType"`
	Date       string `form:"date" json:"date" query:"date"`
	Limit      int    `form:"limit" json:"limit" query:"limit"`
}

// State is the outcome of one search as shown to the user.
// Articles is nil when the search did not run or failed.
type State struct {
	Articles  []domain.Article `json:"articles"`
	Error     string           `json:"error,omitempty"`
	Timestamp int64            `json:"timestamp"`

	// failure kind, used to pick the HTTP status of the JSON API
	kind failure
}

type failure int

const (
	failureNone failure = iota
	failureValidation
	failureUpstream
)

// Handler runs searches and publishes successful ones in the background.
type Handler struct {
	searcher Searcher
	sink     EventSink
	observer PublishObserver
	log      logger.Logger
	now      func() time.Time

	wg sync.WaitGroup
}

// NewHandler builds a handler. sink may be nil to disable publishing.
func NewHandler(searcher Searcher, sink EventSink, log logger.Logger) *Handler {
	return &Handler{
		searcher: searcher,
		sink:     sink,
		log:      logger.Ensure(log),
		now:      time.Now,
	}
}

// SetPublishObserver reports background publish outcomes to o. Call it before serving.
func (h *Handler) SetPublishObserver(o PublishObserver) {
	h.observer = o
}

// Search validates req, calls the gateway and returns the resulting state. It never returns an error;
// failures are carried in State.Error.
func (h *Handler) Search(ctx context.Context, req Request) State {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return State{Error: msgEmptyQuery, kind: failureValidation}
	}

	var (
		list []domain.Article
		err  error
	)
	if req.SearchType == SearchTypeByDate {
		if req.Date == "" {
			return State{Error: msgDateRequired, kind: failureValidation}
		}
		if !datePattern.MatchString(req.Date) {
			return State{Error: search.InvalidDateMessage, kind: failureValidation}
		}
		list, err = h.searcher.FetchByDate(ctx, req.Date, query, req.Limit)
	} else {
		list, err = h.searcher.FetchLatest(ctx, query, req.Limit)
	}

	stamp := h.now().UnixMilli()
	if err != nil {
		kind := failureUpstream
		var ve *search.ValidationError
		if errors.As(err, &ve) {
			kind = failureValidation
		}
		return State{Error: msgFetchFailed + err.Error(), Timestamp: stamp, kind: kind}
	}

	h.publishAsync(req, query, list)
	return State{Articles: list, Timestamp: stamp}
}

func (h *Handler) publishAsync(req Request, query string, list []domain.Article) {
	if h.sink == nil {
		return
	}
	searchType := SearchTypeLatest
	date := ""
	if req.SearchType == SearchTypeByDate {
		searchType = SearchTypeByDate
		date = req.Date
	}
	evt := publishers.NewSearchEvent(query, searchType, date, list, h.now())

	h.wg.Add(1)
	go func() {
		defer h.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
		defer cancel()

		_, err := h.sink.Publish(ctx, evt)
		if err != nil {
			h.log.WarnObj("search event publish failed", "publish_error", map[string]any{
				"event_id": evt.ID,
				"error":    err.Error(),
			})
		}
		if h.observer != nil {
			h.observer.ObservePublish(err)
		}
	}()
}

// Wait blocks until background publishes have finished.
func (h *Handler) Wait() {
	h.wg.Wait()
}

func (h *Handler) index(c echo.Context) error {
	return c.Render(http.StatusOK, pageTemplate, pageData{SearchType: SearchTypeLatest})
}

func (h *Handler) searchPage(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid search request")
	}
	state := h.Search(c.Request().Context(), req)
	return c.Render(http.StatusOK, pageTemplate, newPageData(req, state))
}

func (h *Handler) searchAPI(c echo.Context) error {
	var req Request
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid search request")
	}
	state := h.Search(c.Request().Context(), req)

	status := http.StatusOK
	switch state.kind {
	case failureValidation:
		status = http.StatusBadRequest
	case failureUpstream:
		status = http.StatusBadGateway
	}
	return c.JSON(status, state)
}

func healthz(c echo.Context) error {
	return c.String(http.StatusOK, "ok")
}
