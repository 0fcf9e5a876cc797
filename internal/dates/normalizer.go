// Package dates turns the free-form publication dates returned by news search
// providers ("2 hours ago", "Jul 30, 2024", "yesterday") into timestamps.
package dates

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-search/internal/logger"
	"github.com/araddon/dateparse"
)

// Method reports how a date string was resolved.
type Method int

const (
	MethodMissing Method = iota
	MethodAbsolute
	MethodRelative
	MethodFallback
)

func (m Method) String() string {
	switch m {
	case MethodMissing:
		return "missing"
	case MethodAbsolute:
		return "absolute"
	case MethodRelative:
		return "relative"
	case MethodFallback:
		return "fallback"
	default:
		return "unknown"
	}
}

// serpAPILayout is the absolute format Google News results carry on SerpApi.
const serpAPILayout = "01/02/2006, 03:04 PM, -0700 MST"

// Timestamps outside these years are treated as unparsed. Years past 9999 cannot be encoded as RFC 3339.
const (
	minYear = 1
	maxYear = 9999
)

func inRange(t time.Time) bool {
	y := t.Year()
	return y >= minYear && y <= maxYear
}

type relativePattern struct {
	re    *regexp.Regexp
	max   int64
	shift func(now time.Time, n int) time.Time
}

// Checked in order; the first match wins.
var relativePatterns = []relativePattern{
	{
		re:    regexp.MustCompile(`(?i)(\d+)\s+minute(s)?\s+ago`),
		max:   math.MaxInt64 / int64(time.Minute),
		shift: func(now time.Time, n int) time.Time {
			return now.Add(-time.Duration(n) * time.Minute)
		},
	},
	{
		re:    regexp.MustCompile(`(?i)(\d+)\s+hour(s)?\s+ago`),
		max:   math.MaxInt64 / int64(time.Hour),
		shift: func(now time.Time, n int) time.Time {
			return now.Add(-time.Duration(n) * time.Hour)
		},
	},
	{
		re:    regexp.MustCompile(`(?i)(\d+)\s+day(s)?\s+ago`),
		max:   math.MaxInt32,
		shift: func(now time.Time, n int) time.Time {
			return now.AddDate(0, 0, -n)
		},
	},
}

// Observer is told which rule resolved each date string.
type Observer interface {
	ObserveDate(method Method)
}

// Normalizer resolves date strings against an injectable clock. It is safe for concurrent use.
type Normalizer struct {
	now      func() time.Time
	loc      *time.Location
	log      logger.Logger
	observer Observer
}

// NewNormalizer builds a normalizer using the wall clock.
func NewNormalizer(loc *time.Location, log logger.Logger) *Normalizer {
	return NewNormalizerWithClock(time.Now, loc, log)
}

// NewNormalizerWithClock builds a normalizer with a custom time source.
// Zone-less absolute dates are interpreted in loc (UTC when nil).
func NewNormalizerWithClock(now func() time.Time, loc *time.Location, log logger.Logger) *Normalizer {
	if now == nil {
		now = time.Now
	}
	if loc == nil {
		loc = time.UTC
	}
	return &Normalizer{
		now: now,
		loc: loc,
		log: logger.Ensure(log),
	}
}

// WithObserver returns a copy that reports every resolution to o.
func (n *Normalizer) WithObserver(o Observer) *Normalizer {
	cp := *n
	cp.observer = o
	return &cp
}

// Normalize returns the timestamp for raw. It never fails: unparseable input resolves to now.
func (n *Normalizer) Normalize(raw string) time.Time {
	t, _ := n.Resolve(raw)
	return t
}

// Resolve is Normalize that also reports which rule produced the timestamp.
func (n *Normalizer) Resolve(raw string) (time.Time, Method) {
	t, method := n.resolve(raw)
	if n.observer != nil {
		n.observer.ObserveDate(method)
	}
	return t, method
}

func (n *Normalizer) resolve(raw string) (time.Time, Method) {
	now := n.now().In(n.loc)

	s := strings.TrimSpace(raw)
	if s == "" {
		return now, MethodMissing
	}

	if t, ok := n.parseAbsolute(s); ok {
		return t, MethodAbsolute
	}

	if t, ok := parseRelative(s, now); ok {
		return t, MethodRelative
	}

	n.log.WarnObj("could not parse date string; falling back to now", "date_fallback", map[string]any{
		"input": raw,
	})
	return now, MethodFallback
}

func (n *Normalizer) parseAbsolute(s string) (t time.Time, ok bool) {
	if parsed, err := time.Parse(serpAPILayout, s); err == nil && inRange(parsed) {
		return parsed, true
	}

	// dateparse can panic on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			t, ok = time.Time{}, false
		}
	}()

	parsed, err := dateparse.ParseIn(s, n.loc)
	if err != nil || parsed.IsZero() || !inRange(parsed) {
		return time.Time{}, false
	}
	return parsed, true
}

func parseRelative(s string, now time.Time) (time.Time, bool) {
	for _, p := range relativePatterns {
		m := p.re.FindStringSubmatch(s)
		if m == nil {
			continue
		}
		v, err := strconv.ParseInt(m[1], 10, 64)
		if err != nil || v > p.max {
			continue
		}
		if t := p.shift(now, int(v)); inRange(t) {
			return t, true
		}
	}

	if strings.EqualFold(s, "yesterday") {
		return now.AddDate(0, 0, -1), true
	}
	return time.Time{}, false
}
