package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"io/fs"
	"path"
	"sync"
	texttemplate "text/template"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/renderer/html"
)

// Rendered is the output of Renderer.Render.
type Rendered struct {
	Metadata map[string]any
	HTML     string
	Text     string
}

type parsedTemplate struct {
	meta map[string]any
	body *texttemplate.Template
}

// Renderer reads templates from fsys. Markdown templates live at the root
// and layouts under layouts/. Parsed templates are cached.
type Renderer struct {
	fsys fs.FS
	md   goldmark.Markdown

	mu        sync.Mutex
	templates map[string]*parsedTemplate
	layouts   map[string]*template.Template
}

func NewRenderer(fsys fs.FS) *Renderer {
	return &Renderer{
		fsys: fsys,
		md: goldmark.New(
			goldmark.WithExtensions(extension.Linkify, extension.Strikethrough),
			goldmark.WithRendererOptions(html.WithHardWraps()),
		),
		templates: make(map[string]*parsedTemplate),
		layouts:   make(map[string]*template.Template),
	}
}

// Render expands the named template with data and wraps it in layout.
func (r *Renderer) Render(layout, name string, data any) (*Rendered, error) {
	tmpl, err := r.template(name)
	if err != nil {
		return nil, err
	}

	var text bytes.Buffer
	if err := tmpl.body.Execute(&text, data); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRenderFailed, name, err)
	}

	var content bytes.Buffer
	if err := r.md.Convert(text.Bytes(), &content); err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRenderFailed, name, err)
	}

	lay, err := r.layout(layout)
	if err != nil {
		return nil, err
	}

	var out bytes.Buffer
	if err := lay.Execute(&out, map[string]any{
		"Content":  template.HTML(content.String()), //nolint:gosec // goldmark escapes raw HTML by default
		"Metadata": tmpl.meta,
	}); err != nil {
		return nil, fmt.Errorf("%w: layout %s: %w", ErrRenderFailed, layout, err)
	}

	return &Rendered{Metadata: tmpl.meta, HTML: out.String(), Text: text.String()}, nil
}

func (r *Renderer) template(name string) (*parsedTemplate, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.templates[name]; ok {
		return t, nil
	}

	raw, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrTemplateNotFound, name)
	}
	meta, body, err := splitFrontmatter(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	tmpl, err := texttemplate.New(name).Option("missingkey=zero").Parse(string(body))
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrRenderFailed, name, err)
	}

	t := &parsedTemplate{meta: meta, body: tmpl}
	r.templates[name] = t
	return t, nil
}

func (r *Renderer) layout(name string) (*template.Template, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if l, ok := r.layouts[name]; ok {
		return l, nil
	}

	raw, err := fs.ReadFile(r.fsys, path.Join("layouts", name))
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrLayoutNotFound, name)
	}
	l, err := template.New(name).Parse(string(raw))
	if err != nil {
		return nil, fmt.Errorf("%w: layout %s: %w", ErrRenderFailed, name, err)
	}
	r.layouts[name] = l
	return l, nil
}
