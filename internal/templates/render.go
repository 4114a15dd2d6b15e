// Package templates renders the viewer's HTML pages and the legend fragments
// patched in over Datastar SSE.
package templates

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
)

//go:embed fragments/*.html pages/*.html
var embedded embed.FS

var patterns = []string{"fragments/*.html", "pages/*.html"}

// funcMap provides common template functions.
var funcMap = template.FuncMap{
	// dict creates a map from key-value pairs, useful for passing multiple values to nested templates
	"dict": func(values ...any) map[string]any {
		if len(values)%2 != 0 {
			return nil
		}
		m := make(map[string]any, len(values)/2)
		for i := 0; i < len(values); i += 2 {
			key, ok := values[i].(string)
			if !ok {
				continue
			}
			m[key] = values[i+1]
		}
		return m
	},
	"toggleOpen":  ToggleOpen,
	"postChecked": PostChecked,
	"openSignal":  OpenSignal,
	"openSignals": OpenSignals,
	"pathEscape":  url.PathEscape,
}

// OpenSignal is the local signal holding a section's open state.
func OpenSignal(key string) string {
	return "_open_" + key
}

// OpenSignals returns the data-signals value initialising a section's open state.
func OpenSignals(key string, open bool) string {
	return fmt.Sprintf(`{"%s":%t}`, OpenSignal(key), open)
}

// ToggleOpen flips a section's open state in the browser.
func ToggleOpen(key string) template.JS {
	s := OpenSignal(key)
	return template.JS(fmt.Sprintf("$%s = !$%s", s, s))
}

// PostChecked posts a checkbox's state to url as the checked query parameter.
func PostChecked(url, key string) template.JS {
	return template.JS(fmt.Sprintf("@post('%s?checked=' + $%s)", template.JSEscapeString(url), key))
}

// Renderer manages HTML templates.
type Renderer struct {
	templates *template.Template
	mu        sync.RWMutex
}

// New creates a new template renderer. Templates come from webDir/templates
// when it exists, otherwise from the embedded defaults.
func New(webDir string) (*Renderer, error) {
	tmpl, err := parse(webDir)
	if err != nil {
		return nil, err
	}
	return &Renderer{templates: tmpl}, nil
}

// Source reports where templates for webDir are loaded from.
func Source(webDir string) string {
	if dir := overrideDir(webDir); dir != "" {
		return dir
	}
	return "embedded"
}

func overrideDir(webDir string) string {
	if webDir == "" {
		return ""
	}
	dir := filepath.Join(webDir, "templates")
	if info, err := os.Stat(dir); err == nil && info.IsDir() {
		return dir
	}
	return ""
}

func parse(webDir string) (*template.Template, error) {
	var fsys fs.FS = embedded
	if dir := overrideDir(webDir); dir != "" {
		fsys = os.DirFS(dir)
	}
	tmpl, err := template.New("").Funcs(funcMap).ParseFS(fsys, patterns...)
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return tmpl, nil
}

// Render renders a named template to a string.
func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.RenderToBuffer(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// RenderToBuffer renders a named template to a buffer.
func (r *Renderer) RenderToBuffer(buf *bytes.Buffer, name string, data any) error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return r.templates.ExecuteTemplate(buf, name, data)
}

// MustRender renders a template and panics on error.
// Use only when you're certain the template exists.
func (r *Renderer) MustRender(name string, data any) string {
	s, err := r.Render(name, data)
	if err != nil {
		panic(err)
	}
	return s
}

// Names returns the defined template names, sorted.
func (r *Renderer) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var names []string
	for _, t := range r.templates.Templates() {
		if t.Name() != "" && !strings.HasSuffix(t.Name(), ".html") {
			names = append(names, t.Name())
		}
	}
	slices.Sort(names)
	return names
}

// Reload reloads templates (useful for dev hot-reload).
func (r *Renderer) Reload(webDir string) error {
	tmpl, err := parse(webDir)
	if err != nil {
		return err
	}

	r.mu.Lock()
	r.templates = tmpl
	r.mu.Unlock()

	return nil
}
