package publishers

import (
	"time"

	"github.com/Adda-Baaj/khobor-search/internal/domain"
	"github.com/google/uuid"
)

// SearchEvent describes one successful search and the articles it returned.
type SearchEvent struct {
	ID           string           `json:"id"`
	Query        string           `json:"query"`
	SearchType   string           `json:"search_type"`
	Date         string           `json:"date,omitempty"`
	ArticleCount int              `json:"article_count"`
	Articles     []domain.Article `json:"articles"`
	CollectedAt  time.Time        `json:"collected_at"`
}

// NewSearchEvent stamps a fresh event id and the collection time.
func NewSearchEvent(query, searchType, date string, list []domain.Article, at time.Time) SearchEvent {
	if list == nil {
		list = []domain.Article{}
	}
	return SearchEvent{
		ID:           uuid.NewString(),
		Query:        query,
		SearchType:   searchType,
		Date:         date,
		ArticleCount: len(list),
		Articles:     list,
		CollectedAt:  at.UTC(),
	}
}

// Attributes are the routing attributes attached to queue messages.
func (e SearchEvent) Attributes() map[string]string {
	return map[string]string{
		"event_id":    e.ID,
		"search_type": e.SearchType,
	}
}
