package views

import (
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"github.com/gin-gonic/gin/render"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

//go:embed templates/*.html
var templatesFS embed.FS

// Pages rendered inside base.html
var pages = []string{"index.html", "detail.html", "404.html", "500.html"}

// Renderer is a gin render.HTMLRender holding one template set per page
type Renderer struct {
	templates map[string]*template.Template
}

// NewRenderer parses the embedded templates. Dates are shown in loc and
// numbers are formatted for lang.
func NewRenderer(loc *time.Location, lang language.Tag) (*Renderer, error) {
	if loc == nil {
		loc = time.UTC
	}
	printer := message.NewPrinter(lang)

	funcs := template.FuncMap{
		"date": func(t time.Time) string {
			return t.In(loc).Format("2006-01-02 15:04")
		},
		"safe": func(s string) template.HTML {
			return template.HTML(s)
		},
		"number": func(n any) string {
			return printer.Sprintf("%d", n)
		},
		"lang": func() string {
			return lang.String()
		},
	}

	r := &Renderer{templates: make(map[string]*template.Template)}
	for _, page := range pages {
		tmpl, err := template.New("base.html").Funcs(funcs).ParseFS(templatesFS, "templates/base.html", "templates/"+page)
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", page, err)
		}
		r.templates[page] = tmpl
	}
	return r, nil
}

// Instance implements render.HTMLRender
func (r *Renderer) Instance(name string, data any) render.Render {
	tmpl, ok := r.templates[name]
	if !ok {
		return missingTemplate(name)
	}
	return render.HTML{Template: tmpl, Name: "base.html", Data: data}
}

type missingTemplate string

func (m missingTemplate) Render(w http.ResponseWriter) error {
	return fmt.Errorf("html template %q is not defined", string(m))
}

func (m missingTemplate) WriteContentType(w http.ResponseWriter) {
	render.HTML{}.WriteContentType(w)
}
