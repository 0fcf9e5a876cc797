package articles

import (
	"sort"
	"strconv"
	"strings"

	"github.com/Adda-Baaj/khobor-search/internal/dates"
	"github.com/Adda-Baaj/khobor-search/internal/domain"
	"github.com/Adda-Baaj/khobor-search/internal/logger"
	"github.com/google/uuid"
)

// RejectReason explains why a raw result was dropped.
type RejectReason string

const (
	RejectSource        RejectReason = "invalid_source"
	RejectMissingFields RejectReason = "missing_link_or_title"
	RejectUndecodable   RejectReason = "undecodable"
)

// RejectObserver is notified for every dropped raw result.
type RejectObserver interface {
	ObserveReject(reason RejectReason)
}

// Transformer maps raw upstream results into articles.
type Transformer struct {
	normalizer *dates.Normalizer
	idSuffix   func() string
	log        logger.Logger
	observer   RejectObserver
}

// NewTransformer builds a transformer that dates articles with normalizer.
func NewTransformer(normalizer *dates.Normalizer, log logger.Logger) *Transformer {
	log = logger.Ensure(log)
	if normalizer == nil {
		normalizer = dates.NewNormalizer(nil, log)
	}
	return &Transformer{
		normalizer: normalizer,
		idSuffix:   uuid.NewString,
		log:        log,
	}
}

// WithIDSuffix returns a copy that disambiguates position-less IDs with fn.
func (t *Transformer) WithIDSuffix(fn func() string) *Transformer {
	cp := *t
	if fn != nil {
		cp.idSuffix = fn
	}
	return &cp
}

// WithRejectObserver returns a copy that reports rejects to o.
func (t *Transformer) WithRejectObserver(o RejectObserver) *Transformer {
	cp := *t
	cp.observer = o
	return &cp
}

// Transform returns the article for raw, or false when raw is unusable.
func (t *Transformer) Transform(raw domain.RawResult) (domain.Article, bool) {
	source, ok := raw.Source.Name()
	if !ok {
		t.Reject(RejectSource, map[string]any{
			"link":     raw.Link,
			"title":    raw.Title,
			"position": raw.Position,
		})
		return domain.Article{}, false
	}

	if strings.TrimSpace(raw.Link) == "" || strings.TrimSpace(raw.Title) == "" {
		t.Reject(RejectMissingFields, map[string]any{
			"link":     raw.Link,
			"title":    raw.Title,
			"source":   source,
			"position": raw.Position,
		})
		return domain.Article{}, false
	}

	var suffix string
	if raw.Position != 0 {
		suffix = strconv.Itoa(raw.Position)
	} else {
		suffix = t.idSuffix()
	}

	return domain.Article{
		ID:          raw.Link + suffix,
		Source:      source,
		Headline:    raw.Title,
		Link:        raw.Link,
		PublishedAt: t.normalizer.Normalize(raw.Date),
		Snippet:     raw.Snippet,
	}, true
}

// TransformAll transforms every raw result, drops rejects and sorts newest first.
func (t *Transformer) TransformAll(raws []domain.RawResult) []domain.Article {
	out := make([]domain.Article, 0, len(raws))
	for _, raw := range raws {
		if art, ok := t.Transform(raw); ok {
			out = append(out, art)
		}
	}
	SortByPublishedDesc(out)
	return out
}

// Reject logs a dropped record and notifies the observer.
func (t *Transformer) Reject(reason RejectReason, record map[string]any) {
	if record == nil {
		record = map[string]any{}
	}
	record["reason"] = string(reason)
	t.log.WarnObj("skipping news result", "rejected_result", record)
	if t.observer != nil {
		t.observer.ObserveReject(reason)
	}
}

// SortByPublishedDesc orders articles newest first. Equal timestamps keep their input order.
func SortByPublishedDesc(list []domain.Article) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].PublishedAt.After(list[j].PublishedAt)
	})
}
