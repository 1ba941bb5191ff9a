// Package markdown renders post bodies to HTML and derives plain-text
// excerpts from them.
//
// Two pipelines exist. The save-time pipeline enables the "extra" syntax
// set (tables, fenced code, footnotes, definition lists) plus code
// highlighting. The detail-page pipeline additionally emits a table of
// contents ahead of the document whenever the body has headings.
package markdown

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/alecthomas/chroma/v2"
	chromahtml "github.com/alecthomas/chroma/v2/formatters/html"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/russross/blackfriday/v2"
	"golang.org/x/net/html"
)

// ExcerptLength is the number of characters kept when deriving an excerpt
const ExcerptLength = 54

// DefaultStyle is the chroma style used when none is configured
const DefaultStyle = "friendly"

const extraExtensions = blackfriday.CommonExtensions | blackfriday.Footnotes

var (
	defaultRenderer = New()
	tocRenderer     = New(WithTOC())
)

// Renderer converts Markdown source to HTML. It is safe for concurrent use.
type Renderer struct {
	toc       bool
	style     *chroma.Style
	formatter *chromahtml.Formatter
}

// Option configures a Renderer
type Option func(*Renderer)

// WithTOC prepends a <nav> table of contents when headings are present
func WithTOC() Option {
	return func(r *Renderer) {
		r.toc = true
	}
}

// WithStyle selects the chroma style; unknown names fall back to chroma's default
func WithStyle(name string) Option {
	return func(r *Renderer) {
		if name != "" {
			r.style = styles.Get(name)
		}
	}
}

// New creates a Renderer with the "extra" extensions and code highlighting
func New(opts ...Option) *Renderer {
	r := &Renderer{
		style:     styles.Get(DefaultStyle),
		formatter: chromahtml.New(chromahtml.WithClasses(true)),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Render converts src to HTML
func (r *Renderer) Render(src string) string {
	flags := blackfriday.CommonHTMLFlags
	if r.toc {
		flags |= blackfriday.TOC
	}

	renderer := &highlightRenderer{
		HTMLRenderer: blackfriday.NewHTMLRenderer(blackfriday.HTMLRendererParameters{Flags: flags}),
		parent:       r,
	}

	src = strings.ReplaceAll(src, "\r\n", "\n")
	out := blackfriday.Run([]byte(src),
		blackfriday.WithExtensions(extraExtensions),
		blackfriday.WithRenderer(renderer),
	)
	return string(out)
}

// CSS returns the stylesheet matching the classes emitted for code blocks
func (r *Renderer) CSS() (string, error) {
	var buf bytes.Buffer
	if err := r.formatter.WriteCSS(&buf, r.style); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func (r *Renderer) highlight(w io.Writer, code, lang string) error {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(code)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}

	iterator, err := chroma.Coalesce(lexer).Tokenise(nil, code)
	if err != nil {
		return err
	}

	io.WriteString(w, `<div class="codehilite">`)
	if err := r.formatter.Format(w, r.style, iterator); err != nil {
		return err
	}
	io.WriteString(w, "</div>\n")
	return nil
}

// highlightRenderer routes code blocks through chroma and everything else
// through the stock blackfriday HTML renderer.
type highlightRenderer struct {
	*blackfriday.HTMLRenderer
	parent *Renderer
}

func (h *highlightRenderer) RenderNode(w io.Writer, node *blackfriday.Node, entering bool) blackfriday.WalkStatus {
	if node.Type == blackfriday.CodeBlock {
		var buf bytes.Buffer
		lang := ""
		if fields := strings.Fields(string(node.CodeBlockData.Info)); len(fields) > 0 {
			lang = fields[0]
		}
		if err := h.parent.highlight(&buf, string(node.Literal), lang); err == nil {
			w.Write(buf.Bytes())
			return blackfriday.GoToNext
		}
	}
	return h.HTMLRenderer.RenderNode(w, node, entering)
}

// ToHTML renders src with the save-time pipeline
func ToHTML(src string) string {
	return defaultRenderer.Render(src)
}

// ToHTMLWithTOC renders src with the detail-page pipeline
func ToHTMLWithTOC(src string) string {
	return tocRenderer.Render(src)
}

// StripTags removes every HTML tag from s, keeping the text content
// with entities decoded.
func StripTags(s string) string {
	z := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	for {
		switch z.Next() {
		case html.ErrorToken:
			return b.String()
		case html.TextToken:
			b.Write(z.Text())
		}
	}
}

// Truncate returns the first n characters of s
func Truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}

// Excerpt derives a plain-text summary of a Markdown body
func Excerpt(body string) string {
	return Truncate(StripTags(ToHTML(body)), ExcerptLength)
}
