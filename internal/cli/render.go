package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/Adda-Baaj/khobor-search/internal/domain"
	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"
)

const (
	defaultWidth = 80
	minWidth     = 30

	cardDateLayout = "Jan 2, 2006 at 3:04 PM"
	noDate         = "Date not available"
	noResults      = "No news articles found for your query."
)

var (
	colorPrimary = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorBody    = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorDim     = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorBorder  = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}
	colorGreen   = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			PaddingLeft(1).
			PaddingRight(1)

	headlineStyle = lipgloss.NewStyle().
			Foreground(colorPrimary).
			Bold(true)

	sourceStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	timeStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	snippetStyle = lipgloss.NewStyle().
			Foreground(colorBody)

	linkStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	emptyStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)
)

// cardRenderer prints articles as bordered terminal cards.
type cardRenderer struct {
	width int
	loc   *time.Location
}

func newCardRenderer(width int, loc *time.Location) cardRenderer {
	if width < minWidth {
		width = minWidth
	}
	if loc == nil {
		loc = time.UTC
	}
	return cardRenderer{width: width, loc: loc}
}

// Render returns every card separated by a newline, or the empty-state line.
func (r cardRenderer) Render(list []domain.Article) string {
	if len(list) == 0 {
		return emptyStyle.Render(noResults) + "\n"
	}
	var b strings.Builder
	for i, a := range list {
		b.WriteString(r.card(i+1, a))
		b.WriteString("\n")
	}
	return b.String()
}

func (r cardRenderer) card(n int, a domain.Article) string {
	// border and padding take four columns
	inner := r.width - 4

	lines := []string{
		headlineStyle.Render(runewidth.Truncate(fmt.Sprintf("%d. %s", n, a.Headline), inner, "…")),
		sourceStyle.Render(runewidth.Truncate(a.Source, inner/2, "…")) + " " + timeStyle.Render("· "+r.date(a.PublishedAt)),
	}
	if snippet := strings.TrimSpace(a.Snippet); snippet != "" {
		lines = append(lines, snippetStyle.Width(inner).Render(snippet))
	}
	lines = append(lines, linkStyle.Render(runewidth.Truncate(a.Link, inner, "…")))

	return cardStyle.Width(r.width - 2).Render(strings.Join(lines, "\n"))
}

func (r cardRenderer) date(t time.Time) string {
	if t.IsZero() {
		return noDate
	}
	return t.In(r.loc).Format(cardDateLayout)
}
