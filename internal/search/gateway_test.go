package search

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/Adda-Baaj/khobor-search/internal/articles"
	"github.com/Adda-Baaj/khobor-search/internal/dates"
	"github.com/Adda-Baaj/khobor-search/pkg/httpclient"
)

var refTime = time.Date(2024, time.August, 2, 12, 0, 0, 0, time.UTC)

type recordingObserver struct {
	ops      []Op
	outcomes []string
}

func (r *recordingObserver) ObserveSearch(op Op, outcome string, _ time.Duration) {
	r.ops = append(r.ops, op)
	r.outcomes = append(r.outcomes, outcome)
}

func newTestGateway(t *testing.T, srv *httptest.Server) *Gateway {
	t.Helper()
	norm := dates.NewNormalizerWithClock(func() time.Time { return refTime }, time.UTC, nil)
	tr := articles.NewTransformer(norm, nil).WithIDSuffix(func() string { return "-x" })
	gw, err := NewGateway(Config{APIKey: "test-key", BaseURL: srv.URL}, httpclient.NewRestyClient(5*time.Second), tr, nil)
	if err != nil {
		t.Fatalf("NewGateway: %v", err)
	}
	return gw
}

func serve(t *testing.T, status int, body string, seen *url.Values) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if seen != nil {
			*seen = r.URL.Query()
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchLatestEndToEnd(t *testing.T) {
	var seen url.Values
	srv := serve(t, http.StatusOK, `{"news_results":[
		{"position":1,"link":"https://example.com/climate","title":"Climate talks resume","source":{"name":"Reuters"},"date":"1 hour ago"},
		{"position":2,"link":"https://example.com/notitle","source":"AP","date":"2 hours ago"}
	]}`, &seen)
	gw := newTestGateway(t, srv)

	got, err := gw.FetchLatest(context.Background(), "climate change", 0)
	if err != nil {
		t.Fatalf("FetchLatest: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected 1 article, got %d", len(got))
	}
	if got[0].Link != "https://example.com/climate" || got[0].Source != "Reuters" || got[0].Headline != "Climate talks resume" {
		t.Fatalf("unexpected article %+v", got[0])
	}

	if seen.Get("q") != "climate change" || seen.Get("engine") != "google_news" || seen.Get("api_key") != "test-key" {
		t.Fatalf("unexpected outbound params %v", seen)
	}
	if seen.Get("num") != "10" || seen.Get("gl") != "in" {
		t.Fatalf("expected default limit and country, got %v", seen)
	}
	if seen.Has("tbs") {
		t.Fatalf("latest search must not send tbs, got %q", seen.Get("tbs"))
	}
}

func TestFetchLatestStrictlyDescending(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"news_results":[
		{"position":1,"link":"https://x/1","title":"a","source":"s","date":"3 days ago"},
		{"position":2,"link":"https://x/2","title":"b","source":"s","date":"10 minutes ago"},
		{"position":3,"link":"https://x/3","title":"c","source":"s","date":"Jul 30, 2024"},
		{"position":4,"link":"https://x/4","title":"d","source":"s","date":"5 hours ago"}
	]}`, nil)
	gw := newTestGateway(t, srv)

	got, err := gw.FetchLatest(context.Background(), "q", 4)
	if err != nil {
		t.Fatalf("FetchLatest: %v", err)
	}
	if len(got) != 4 {
		t.Fatalf("expected 4 articles, got %d", len(got))
	}
	for i := 1; i < len(got); i++ {
		if !got[i-1].PublishedAt.After(got[i].PublishedAt) {
			t.Fatalf("not strictly descending at %d: %s then %s", i, got[i-1].PublishedAt, got[i].PublishedAt)
		}
	}
}

func TestFetchLatestEmptyResults(t *testing.T) {
	for _, body := range []string{`{}`, `{"news_results":[]}`} {
		gw := newTestGateway(t, serve(t, http.StatusOK, body, nil))
		got, err := gw.FetchLatest(context.Background(), "q", 5)
		if err != nil {
			t.Fatalf("%s: unexpected error %v", body, err)
		}
		if got == nil || len(got) != 0 {
			t.Fatalf("%s: expected empty non-nil slice, got %#v", body, got)
		}
	}
}

func TestFetchLatestSkipsUndecodableRecord(t *testing.T) {
	srv := serve(t, http.StatusOK, `{"news_results":[
		{"position":1,"link":"https://x/1","title":42,"source":"s"},
		{"position":2,"link":"https://x/2","title":"ok","source":"s"}
	]}`, nil)
	gw := newTestGateway(t, srv)

	got, err := gw.FetchLatest(context.Background(), "q", 2)
	if err != nil {
		t.Fatalf("FetchLatest: %v", err)
	}
	if len(got) != 1 || got[0].Headline != "ok" {
		t.Fatalf("expected only the decodable record, got %+v", got)
	}
}

func TestFetchLatestQuotaExceeded(t *testing.T) {
	gw := newTestGateway(t, serve(t, http.StatusOK, `{"error":"quota exceeded"}`, nil))
	obs := &recordingObserver{}
	gw = gw.WithObserver(obs)

	_, err := gw.FetchLatest(context.Background(), "q", 1)
	var dataErr *UpstreamDataError
	if !errors.As(err, &dataErr) {
		t.Fatalf("expected UpstreamDataError, got %v", err)
	}
	if !strings.Contains(err.Error(), "quota exceeded") {
		t.Fatalf("expected message to mention quota, got %q", err.Error())
	}
	if !strings.HasPrefix(err.Error(), "Failed to fetch latest news: ") {
		t.Fatalf("missing latest prefix: %q", err.Error())
	}
	if len(obs.outcomes) != 1 || obs.outcomes[0] != "upstream_data" {
		t.Fatalf("unexpected observed outcomes %v", obs.outcomes)
	}
}

func TestFetchByDateNon2xx(t *testing.T) {
	gw := newTestGateway(t, serve(t, http.StatusUnauthorized, `{"error":"Invalid API key."}`, nil))

	_, err := gw.FetchByDate(context.Background(), "2024-07-30", "q", 1)
	var te *UpstreamTransportError
	if !errors.As(err, &te) {
		t.Fatalf("expected UpstreamTransportError, got %v", err)
	}
	if te.StatusCode != http.StatusUnauthorized || te.Message != "Invalid API key." {
		t.Fatalf("unexpected transport error %+v", te)
	}
	want := "Failed to fetch news by date: SerpApi request failed: 401 Invalid API key."
	if err.Error() != want {
		t.Fatalf("got %q, want %q", err.Error(), want)
	}
}

func TestFetchByDateSendsTbs(t *testing.T) {
	var seen url.Values
	gw := newTestGateway(t, serve(t, http.StatusOK, `{"news_results":[]}`, &seen))

	if _, err := gw.FetchByDate(context.Background(), "2024-07-30", "elections", 7); err != nil {
		t.Fatalf("FetchByDate: %v", err)
	}
	if seen.Get("tbs") != "cdr:1,cd_min:07/30/2024,cd_max:07/30/2024" {
		t.Fatalf("unexpected tbs %q", seen.Get("tbs"))
	}
	if seen.Get("num") != "7" {
		t.Fatalf("unexpected num %q", seen.Get("num"))
	}
}

func TestFetchByDateInvalidDateMakesNoRequest(t *testing.T) {
	var calls int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()
	gw := newTestGateway(t, srv)

	for _, date := range []string{"", "30-07-2024", "2024/07/30", "2024-7-30", "20240730"} {
		_, err := gw.FetchByDate(context.Background(), date, "q", 1)
		var ve *ValidationError
		if !errors.As(err, &ve) {
			t.Fatalf("%q: expected ValidationError, got %v", date, err)
		}
		var fe *FetchError
		if errors.As(err, &fe) {
			t.Fatalf("%q: validation error must not be wrapped", date)
		}
		if err.Error() != InvalidDateMessage {
			t.Fatalf("%q: unexpected message %q", date, err.Error())
		}
	}
	if n := atomic.LoadInt32(&calls); n != 0 {
		t.Fatalf("expected no upstream calls, got %d", n)
	}
}

func TestFetchTransportFailureIsUnknown(t *testing.T) {
	srv := serve(t, http.StatusOK, `{}`, nil)
	gw := newTestGateway(t, srv)
	srv.Close()

	_, err := gw.FetchLatest(context.Background(), "q", 1)
	var ue *UnknownError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnknownError, got %v", err)
	}
	var fe *FetchError
	if !errors.As(err, &fe) || fe.Op != OpLatest {
		t.Fatalf("expected FetchError for latest, got %v", err)
	}
}

func TestFetchInvalidJSONIsUnknown(t *testing.T) {
	gw := newTestGateway(t, serve(t, http.StatusOK, `not json`, nil))

	_, err := gw.FetchByDate(context.Background(), "2024-07-30", "q", 1)
	var ue *UnknownError
	if !errors.As(err, &ue) {
		t.Fatalf("expected UnknownError, got %v", err)
	}
	if !strings.HasPrefix(err.Error(), "Failed to fetch news by date: ") {
		t.Fatalf("missing by-date prefix: %q", err.Error())
	}
}

func TestNewGatewayRequiresKey(t *testing.T) {
	if _, err := NewGateway(Config{}, nil, nil, nil); err == nil {
		t.Fatal("expected error without api key")
	}
}

func TestKind(t *testing.T) {
	cases := map[string]error{
		"ok":                 nil,
		"validation":         &ValidationError{Message: "x"},
		"upstream_transport": &FetchError{Op: OpLatest, Err: &UpstreamTransportError{StatusCode: 500}},
		"upstream_data":      &FetchError{Op: OpByDate, Err: &UpstreamDataError{Message: "x"}},
		"unknown":            errors.New("boom"),
	}
	for want, err := range cases {
		if got := Kind(err); got != want {
			t.Fatalf("Kind(%v) = %q, want %q", err, got, want)
		}
	}
}
