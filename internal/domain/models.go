package domain

import (
	"bytes"
	"encoding/json"
	"time"
)

// Article is a validated news item ready to be rendered. Values are never mutated after construction.
type Article struct {
	ID          string    `json:"id"`
	Source      string    `json:"source"`
	Headline    string    `json:"headline"`
	Link        string    `json:"link"`
	PublishedAt time.Time `json:"published_datetime"`
	Snippet     string    `json:"snippet,omitempty"`
}

// RawResult is a single untransformed entry of the upstream news_results list.
type RawResult struct {
	Position int        `json:"position"`
	Link     string     `json:"link"`
	Title    string     `json:"title"`
	Source   SourceName `json:"source"`
	Date     string     `json:"date"`
	Snippet  string     `json:"snippet"`
}

// SourceName is the resolved publisher of a raw result: either Named or Unresolvable.
// The zero value is Unresolvable.
type SourceName struct {
	name     string
	resolved bool
}

// Named returns a resolved source. An empty name is Unresolvable.
func Named(name string) SourceName {
	if name == "" {
		return Unresolvable()
	}
	return SourceName{name: name, resolved: true}
}

// Unresolvable returns a source that cannot be attributed to a publisher.
func Unresolvable() SourceName {
	return SourceName{}
}

// Name returns the publisher name and whether the source resolved.
func (s SourceName) Name() (string, bool) {
	return s.name, s.resolved
}

// UnmarshalJSON accepts a plain string, an object carrying a name, or any other object
// whose first string member is taken as the name. Everything else is Unresolvable.
func (s *SourceName) UnmarshalJSON(data []byte) error {
	*s = parseSourceName(data)
	return nil
}

func parseSourceName(data []byte) SourceName {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return Unresolvable()
	}

	switch data[0] {
	case '"':
		var name string
		if err := json.Unmarshal(data, &name); err != nil {
			return Unresolvable()
		}
		return Named(name)
	case '{':
		return parseSourceObject(data)
	default:
		return Unresolvable()
	}
}

func parseSourceObject(data []byte) SourceName {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return Unresolvable()
	}
	if raw, ok := fields["name"]; ok {
		var name string
		if err := json.Unmarshal(raw, &name); err == nil && name != "" {
			return Named(name)
		}
	}

	// Maps lose member order, so walk the object again with a decoder.
	dec := json.NewDecoder(bytes.NewReader(data))
	if _, err := dec.Token(); err != nil {
		return Unresolvable()
	}
	for dec.More() {
		if _, err := dec.Token(); err != nil {
			return Unresolvable()
		}
		var value json.RawMessage
		if err := dec.Decode(&value); err != nil {
			return Unresolvable()
		}
		var str string
		if err := json.Unmarshal(value, &str); err == nil {
			return Named(str)
		}
	}
	return Unresolvable()
}
