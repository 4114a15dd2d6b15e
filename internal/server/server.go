package server

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/jamesrr39/goutil/httpextra"
	"github.com/jamesrr39/goutil/logpkg"
	"github.com/jmoiron/sqlx"

	"github.com/joeblew999/plat-viewer/internal/api"
	"github.com/joeblew999/plat-viewer/internal/api/control"
	"github.com/joeblew999/plat-viewer/internal/db"
	"github.com/joeblew999/plat-viewer/internal/humastar"
	"github.com/joeblew999/plat-viewer/internal/service"
	"github.com/joeblew999/plat-viewer/internal/templates"
	"github.com/joeblew999/plat-viewer/internal/viewer"
)

// Config holds the server configuration.
type Config struct {
	Host    string
	Port    string
	DataDir string
	WebDir  string // Optional override of templates and static files
	// TileURL and Style prefill the loader form.
	TileURL     string
	Style       string
	MaxSessions int
	// NoDB skips opening DuckDB; the features endpoint then answers 503.
	NoDB   bool
	Logger *logpkg.Logger
}

// Server is the viewer HTTP server.
type Server struct {
	config   Config
	logger   *logpkg.Logger
	mux      *http.ServeMux
	humaAPI  huma.API
	db       *sqlx.DB
	services *api.Services
	renderer *templates.Renderer
	sessions *viewer.Manager
	links    *humastar.Links
}

// New creates a new viewer server.
func New(ctx context.Context, cfg Config) (*Server, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = logpkg.NewLogger(os.Stderr, logpkg.LogLevelInfo)
	}

	renderer, err := templates.New(cfg.WebDir)
	if err != nil {
		return nil, fmt.Errorf("loading templates: %w", err)
	}
	logger.Info("templates loaded from %s", templates.Source(cfg.WebDir))

	s := &Server{
		config:   cfg,
		logger:   logger,
		mux:      http.NewServeMux(),
		renderer: renderer,
		sessions: viewer.NewManager(logger, cfg.MaxSessions),
	}

	// Create Huma API with humago (pure stdlib) adapter
	humaConfig := huma.DefaultConfig("plat-viewer API", "1.0.0")
	humaConfig.Info.Description = "Map viewer API: style documents, legend groups, layer visibility, tile sources and features."
	humaConfig.Servers = []*huma.Server{
		{URL: fmt.Sprintf("http://%s:%s", cfg.Host, cfg.Port), Description: "Local server"},
	}
	// Disable $schema property in responses (cleaner JSON)
	humaConfig.CreateHooks = []func(huma.Config) huma.Config{}
	// Links are generated once every route is registered.
	humaConfig.Transformers = append(humaConfig.Transformers, func(ctx huma.Context, status string, v any) (any, error) {
		return s.links.Transformer()(ctx, status, v)
	})
	s.humaAPI = humago.New(s.mux, humaConfig)

	s.services = &api.Services{
		Style:  service.NewStyleService(logger, cfg.DataDir, nil),
		Tile:   service.NewTileService(cfg.DataDir, nil),
		Source: service.NewSourceService(cfg.DataDir),
	}

	if !cfg.NoDB {
		conn, err := db.Open(ctx, logger, db.Config{DataDir: cfg.DataDir, DBName: "viewer"})
		if err != nil {
			logger.Warn("DuckDB not available, feature queries disabled: %s", err)
		} else {
			s.db = conn
			s.services.Feature = service.NewFeatureService(conn, s.services.Source)
		}
	}

	s.routes()
	return s, nil
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

// OpenAPI returns the generated OpenAPI document.
func (s *Server) OpenAPI() *huma.OpenAPI {
	return s.humaAPI.OpenAPI()
}

// Services returns the services behind the API.
func (s *Server) Services() *api.Services {
	return s.services
}

// Sessions returns the live viewer sessions.
func (s *Server) Sessions() *viewer.Manager {
	return s.sessions
}

// HTTPServer returns an http.Server for addr. Write timeouts are disabled so
// legend event streams stay open.
func (s *Server) HTTPServer(addr string) *http.Server {
	srv := httpextra.NewServerWithTimeouts()
	srv.Addr = addr
	srv.Handler = s
	srv.WriteTimeout = 0
	return srv
}

// Close closes server resources.
func (s *Server) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Server) routes() {
	// REST API (OpenAPI-documented JSON endpoints)
	huma.AutoRegister(s.humaAPI, api.NewAPIHandler(s.services))
	huma.AutoRegister(s.humaAPI, api.NewInfoHandler(s.config.DataDir, s.config.TileURL, s.db != nil))
	huma.AutoRegister(s.humaAPI, api.NewFeatureHandler(s.services.Feature))

	// Legend SSE routes using Huma + Datastar SDK
	huma.AutoRegister(s.humaAPI, control.NewHandler(s.sessions, s.services.Source, s.services.Tile, s.renderer, s.logger))

	s.links = humastar.AutoLinks(s.humaAPI, control.Tag)

	// Static files and local tile archives
	if s.config.WebDir != "" {
		staticDir := filepath.Join(s.config.WebDir, "static")
		s.mux.Handle("/static/", http.StripPrefix("/static/", http.FileServer(http.Dir(staticDir))))
	}
	tilesDir := filepath.Join(s.config.DataDir, "tiles")
	s.mux.Handle("/tiles/", http.StripPrefix("/tiles/", s.handleTiles(tilesDir)))

	// Page routes
	s.mux.HandleFunc("/viewer", s.handleViewer)
	s.mux.HandleFunc("/", s.handleRoot)
}

// handleTiles serves local PMTiles archives to the browser map, which reads
// them with range requests from any origin.
func (s *Server) handleTiles(tilesDir string) http.Handler {
	files := http.FileServer(http.Dir(tilesDir))
	return httpextra.CorsAllowAnythingMiddleware()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Expose-Headers", "Content-Length, Content-Range, Accept-Ranges, ETag")
		files.ServeHTTP(w, r)
	}))
}
