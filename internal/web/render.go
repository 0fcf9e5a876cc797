package web

import (
	"embed"
	"html/template"
	"io"
	"time"

	"github.com/Adda-Baaj/khobor-search/internal/domain"
	"github.com/labstack/echo/v4"
)

const pageTemplate = "page.html"

// cardDateLayout renders like "July 30, 2024 at 7:00 AM".
const cardDateLayout = "January 2, 2006 at 3:04 PM"

//go:embed templates/*.html
var templateFS embed.FS

type pageData struct {
	Query      string
	SearchType string
	Date       string
	Searched   bool
	Articles   []domain.Article
	Error      string
}

func newPageData(req Request, state State) pageData {
	searchType := SearchTypeLatest
	if req.SearchType == SearchTypeByDate {
		searchType = SearchTypeByDate
	}
	return pageData{
		Query:      req.Query,
		SearchType: searchType,
		Date:       req.Date,
		Searched:   true,
		Articles:   state.Articles,
		Error:      state.Error,
	}
}

// templateRenderer implements echo.Renderer over the embedded templates.
type templateRenderer struct {
	tmpl *template.Template
}

func newTemplateRenderer(loc *time.Location) (*templateRenderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	funcs := template.FuncMap{
		"cardDate": func(t time.Time) string {
			if t.IsZero() {
				return "Date not available"
			}
			return t.In(loc).Format(cardDateLayout)
		},
		"isoDate": func(t time.Time) string {
			return t.UTC().Format(time.RFC3339)
		},
	}
	tmpl, err := template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, err
	}
	return &templateRenderer{tmpl: tmpl}, nil
}

func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.tmpl.ExecuteTemplate(w, name, data)
}
