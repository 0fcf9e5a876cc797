package articles

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/Adda-Baaj/khobor-search/internal/dates"
	"github.com/Adda-Baaj/khobor-search/internal/domain"
)

var refTime = time.Date(2024, time.August, 2, 12, 0, 0, 0, time.UTC)

type countingObserver struct {
	reasons []RejectReason
}

func (c *countingObserver) ObserveReject(reason RejectReason) {
	c.reasons = append(c.reasons, reason)
}

func newTestTransformer() *Transformer {
	norm := dates.NewNormalizerWithClock(func() time.Time { return refTime }, time.UTC, nil)
	return NewTransformer(norm, nil).WithIDSuffix(func() string { return "-rand" })
}

func decodeRaw(t *testing.T, payload string) domain.RawResult {
	t.Helper()
	var raw domain.RawResult
	if err := json.Unmarshal([]byte(payload), &raw); err != nil {
		t.Fatalf("decode raw result: %v", err)
	}
	return raw
}

func TestTransformValidStringSource(t *testing.T) {
	tr := newTestTransformer()
	raw := decodeRaw(t, `{
		"position": 3,
		"link": "https://example.com/a",
		"title": "Monsoon arrives early",
		"source": "The Hindu",
		"date": "2 hours ago",
		"snippet": "Rains lash the coast"
	}`)

	art, ok := tr.Transform(raw)
	if !ok {
		t.Fatal("expected article, got reject")
	}
	if art.Source != "The Hindu" || art.Headline != "Monsoon arrives early" || art.Link != "https://example.com/a" {
		t.Fatalf("unexpected article %+v", art)
	}
	if art.ID != "https://example.com/a3" {
		t.Fatalf("unexpected id %q", art.ID)
	}
	if !art.PublishedAt.Equal(refTime.Add(-2 * time.Hour)) {
		t.Fatalf("unexpected published at %s", art.PublishedAt)
	}
	if art.Snippet != "Rains lash the coast" {
		t.Fatalf("snippet not carried through: %q", art.Snippet)
	}
}

func TestTransformObjectSources(t *testing.T) {
	tr := newTestTransformer()

	named := decodeRaw(t, `{"position":1,"link":"https://x/1","title":"t","source":{"name":"NDTV","icon":"i"}}`)
	if art, ok := tr.Transform(named); !ok || art.Source != "NDTV" {
		t.Fatalf("expected NDTV source, got %+v ok=%v", art, ok)
	}

	fallback := decodeRaw(t, `{"position":2,"link":"https://x/2","title":"t","source":{"authors":[],"label":"Mint"}}`)
	if art, ok := tr.Transform(fallback); !ok || art.Source != "Mint" {
		t.Fatalf("expected first string member as source, got %+v ok=%v", art, ok)
	}
}

func TestTransformRejectsBadSources(t *testing.T) {
	obs := &countingObserver{}
	tr := newTestTransformer().WithRejectObserver(obs)

	payloads := []string{
		`{"position":1,"link":"https://x/1","title":"t","source":null}`,
		`{"position":1,"link":"https://x/1","title":"t","source":12}`,
		`{"position":1,"link":"https://x/1","title":"t","source":{"count":3}}`,
		`{"position":1,"link":"https://x/1","title":"t"}`,
	}
	for _, p := range payloads {
		if _, ok := tr.Transform(decodeRaw(t, p)); ok {
			t.Fatalf("expected reject for %s", p)
		}
	}
	if len(obs.reasons) != len(payloads) {
		t.Fatalf("expected %d observed rejects, got %d", len(payloads), len(obs.reasons))
	}
	for _, r := range obs.reasons {
		if r != RejectSource {
			t.Fatalf("unexpected reason %s", r)
		}
	}
}

func TestTransformRejectsMissingLinkOrTitle(t *testing.T) {
	obs := &countingObserver{}
	tr := newTestTransformer().WithRejectObserver(obs)

	cases := []domain.RawResult{
		{Position: 1, Title: "t", Source: domain.Named("s")},
		{Position: 1, Link: "https://x", Source: domain.Named("s")},
		{Position: 1, Link: "   ", Title: "t", Source: domain.Named("s")},
		{Position: 1, Link: "https://x", Title: "", Source: domain.Named("s"), Date: "Jul 30, 2024"},
	}
	for i, raw := range cases {
		if _, ok := tr.Transform(raw); ok {
			t.Fatalf("case %d: expected reject", i)
		}
	}
	if len(obs.reasons) != len(cases) || obs.reasons[0] != RejectMissingFields {
		t.Fatalf("unexpected observed reasons %v", obs.reasons)
	}
}

func TestTransformUsesSuffixWithoutPosition(t *testing.T) {
	tr := newTestTransformer()
	art, ok := tr.Transform(domain.RawResult{Link: "https://x/a", Title: "t", Source: domain.Named("s")})
	if !ok {
		t.Fatal("expected article")
	}
	if art.ID != "https://x/a-rand" {
		t.Fatalf("unexpected id %q", art.ID)
	}
	if !art.PublishedAt.Equal(refTime) {
		t.Fatalf("missing date should default to now, got %s", art.PublishedAt)
	}
}

func TestDefaultSuffixIsRandom(t *testing.T) {
	tr := NewTransformer(nil, nil)
	raw := domain.RawResult{Link: "https://x/a", Title: "t", Source: domain.Named("s")}
	a, _ := tr.Transform(raw)
	b, _ := tr.Transform(raw)
	if a.ID == b.ID {
		t.Fatalf("expected distinct ids for position-less results, got %q twice", a.ID)
	}
}

func TestTransformAllFiltersAndSorts(t *testing.T) {
	tr := newTestTransformer()
	raws := []domain.RawResult{
		{Position: 1, Link: "https://x/old", Title: "old", Source: domain.Named("s"), Date: "3 days ago"},
		{Position: 2, Link: "https://x/bad", Source: domain.Named("s")},
		{Position: 3, Link: "https://x/new", Title: "new", Source: domain.Named("s"), Date: "5 minutes ago"},
		{Position: 4, Link: "https://x/mid", Title: "mid", Source: domain.Named("s"), Date: "yesterday"},
	}

	got := tr.TransformAll(raws)
	if len(got) != 3 {
		t.Fatalf("expected 3 articles, got %d", len(got))
	}
	want := []string{"new", "mid", "old"}
	for i, w := range want {
		if got[i].Headline != w {
			t.Fatalf("position %d: got %q, want %q", i, got[i].Headline, w)
		}
	}
}

func TestSortByPublishedDescIsStable(t *testing.T) {
	same := refTime
	list := []domain.Article{
		{ID: "a", PublishedAt: same},
		{ID: "b", PublishedAt: same.Add(time.Hour)},
		{ID: "c", PublishedAt: same},
		{ID: "d", PublishedAt: same},
	}
	SortByPublishedDesc(list)

	order := []string{"b", "a", "c", "d"}
	for i, id := range order {
		if list[i].ID != id {
			t.Fatalf("index %d: got %s, want %s", i, list[i].ID, id)
		}
	}
}
