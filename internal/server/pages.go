package server

import (
	"errors"
	"net/http"

	"github.com/joeblew999/plat-viewer/internal/api/control"
	"github.com/joeblew999/plat-viewer/internal/service"
	"github.com/joeblew999/plat-viewer/internal/style"
)

// loaderPage is the data of the loader form.
type loaderPage struct {
	Title         string
	Error         string
	TileURL       string
	StyleLocation string
	Styles        []service.StyleInfo
}

// viewerPage is the data of the map page.
type viewerPage struct {
	Title            string
	Error            string
	LegendURL        string
	Style            style.MapStyle
	View             service.MapView
	HiddenProperties []string
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		http.NotFound(w, r)
		return
	}
	for _, link := range s.links.RootLinks() {
		w.Header().Add("Link", link)
	}
	s.handleViewer(w, r)
}

// handleViewer shows the loader form until a tile URL is given, then loads
// the style and opens a viewer session. A style that fails to load leaves
// the page uninitialized with an error panel.
func (s *Server) handleViewer(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()
	tileURL := q.Get("url")
	location := q.Get("style")
	if !q.Has("style") {
		location = s.config.Style
	}

	if tileURL == "" {
		page := loaderPage{
			Title:         "plat-viewer",
			TileURL:       s.config.TileURL,
			StyleLocation: location,
		}
		if styles, err := s.services.Style.List(ctx); err == nil {
			page.Styles = styles
		} else {
			s.logger.Warn("listing styles: %s", err)
		}
		s.renderPage(w, http.StatusOK, "loader-page", page)
		return
	}

	page := viewerPage{Title: "plat-viewer", HiddenProperties: service.HiddenProperties}

	doc, err := s.services.Style.Load(ctx, location)
	if err != nil {
		status := http.StatusUnprocessableEntity
		if errors.Is(err, service.ErrInvalidStyle) {
			status = http.StatusBadRequest
		}
		page.Error = err.Error()
		s.renderPage(w, status, "viewer-page", page)
		return
	}

	session, err := s.sessions.Create(doc, tileURL, s.services.Source.StyleSources(tileURL))
	if err != nil {
		s.logger.Error("creating session: %s", err)
		page.Error = err.Error()
		s.renderPage(w, http.StatusInternalServerError, "viewer-page", page)
		return
	}

	view, err := s.services.Tile.View(ctx, tileURL)
	if err != nil {
		s.logger.Debug("session %s: map view from %s: %s", session.ID, tileURL, err)
	}

	page.LegendURL = control.BaseURL(session.ID)
	page.Style = session.Style
	page.View = view
	s.renderPage(w, http.StatusOK, "viewer-page", page)
}

func (s *Server) renderPage(w http.ResponseWriter, status int, name string, data any) {
	html, err := s.renderer.Render(name, data)
	if err != nil {
		s.logger.Error("rendering %s: %s", name, err)
		http.Error(w, "Rendering failed", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	w.Write([]byte(html))
}
