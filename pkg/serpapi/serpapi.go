// Package serpapi talks to the SerpApi search endpoint using its Google News engine.
package serpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-search/pkg/httpclient"
	"github.com/mattn/go-runewidth"
)

const (
	DefaultBaseURL   = "https://serpapi.com/search.json"
	EngineGoogleNews = "google_news"
	DefaultCountry   = "in"
	DefaultTimeout   = 15 * time.Second
)

// ErrInvalidDate is returned when a date is not in YYYY-MM-DD form.
var ErrInvalidDate = errors.New("invalid date format for tbs filter, expected YYYY-MM-DD")

// Config describes how requests to SerpApi are built.
type Config struct {
	APIKey   string
	BaseURL  string
	Engine   string
	Country  string
	Language string
}

// Query is a single search request.
type Query struct {
	Text  string
	Limit int
	// Day restricts results to a single calendar day, already in MM/DD/YYYY form.
	Day string
}

// Response is the subset of the SerpApi payload the search flow consumes.
// NewsResults stay raw so one malformed record cannot fail the whole payload.
type Response struct {
	Error       string            `json:"error"`
	NewsResults []json.RawMessage `json:"news_results"`
}

// StatusError is returned for non-2xx responses.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d: %s", e.StatusCode, e.Message)
}

// APIError is returned when a successful response carries an error field.
type APIError struct {
	Message string
}

func (e *APIError) Error() string {
	return e.Message
}

// Client issues search requests. It holds no per-request state.
type Client struct {
	http httpclient.Client
	cfg  Config
}

// NewClient builds a client; a nil http client falls back to a resty client with the default timeout.
func NewClient(cfg Config, client httpclient.Client) (*Client, error) {
	cfg = sanitizeConfig(cfg)
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("serpapi api key is empty")
	}
	if client == nil {
		client = httpclient.NewRestyClient(DefaultTimeout)
	}
	return &Client{http: client, cfg: cfg}, nil
}

func sanitizeConfig(cfg Config) Config {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Engine = strings.TrimSpace(cfg.Engine)
	cfg.Country = strings.TrimSpace(cfg.Country)
	cfg.Language = strings.TrimSpace(cfg.Language)

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Engine == "" {
		cfg.Engine = EngineGoogleNews
	}
	if cfg.Country == "" {
		cfg.Country = DefaultCountry
	}
	return cfg
}

// Search performs the request and decodes the payload.
func (c *Client) Search(ctx context.Context, q Query) (*Response, error) {
	resp, err := c.http.Get(ctx, c.cfg.BaseURL, c.Params(q), map[string]string{"Accept": "application/json"})
	if err != nil {
		return nil, fmt.Errorf("serpapi request: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &StatusError{
			StatusCode: resp.StatusCode(),
			Message:    errorMessage(body, resp.StatusCode()),
		}
	}

	var out Response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode serpapi response: %w (body: %s)", err, responseSnippet(body))
	}
	if out.Error != "" {
		return nil, &APIError{Message: out.Error}
	}
	return &out, nil
}

// Params builds the outbound query string for q.
func (c *Client) Params(q Query) url.Values {
	params := url.Values{}
	params.Set("api_key", c.cfg.APIKey)
	params.Set("engine", c.cfg.Engine)
	params.Set("q", q.Text)
	params.Set("num", strconv.Itoa(q.Limit))
	params.Set("gl", c.cfg.Country)
	if c.cfg.Language != "" {
		params.Set("hl", c.cfg.Language)
	}
	if q.Day != "" {
		params.Set("tbs", fmt.Sprintf("cdr:1,cd_min:%s,cd_max:%s", q.Day, q.Day))
	}
	return params
}

// FormatDateForTbs converts YYYY-MM-DD into the MM/DD/YYYY form used by the tbs date range.
// The calendar itself is not validated; "2024-02-31" is passed through.
func FormatDateForTbs(isoDate string) (string, error) {
	parts := strings.Split(isoDate, "-")
	if len(parts) != 3 {
		return "", ErrInvalidDate
	}
	year, month, day := parts[0], parts[1], parts[2]
	if !isDigits(year, 4) || !isDigits(month, 2) || !isDigits(day, 2) {
		return "", ErrInvalidDate
	}
	return month + "/" + day + "/" + year, nil
}

func isDigits(s string, n int) bool {
	if len(s) != n {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// errorMessage extracts a human readable message from an error body, falling back to the status text.
func errorMessage(body []byte, status int) string {
	var payload struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Message != "" {
			return payload.Message
		}
		if payload.Error != "" {
			return payload.Error
		}
	}
	return http.StatusText(status)
}

func responseSnippet(body []byte) string {
	const maxLen = 512
	s := strings.TrimSpace(string(body))
	if len(s) > maxLen {
		return runewidth.Truncate(s, maxLen, "...")
	}
	if s == "" {
		return "<empty>"
	}
	return s
}
