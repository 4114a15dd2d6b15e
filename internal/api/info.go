package api

import (
	"context"

	"github.com/danielgtaylor/huma/v2"
)

// InfoHandler reports what the running service was started with.
type InfoHandler struct {
	dataDir string
	tileURL string
	dbOK    bool
}

func NewInfoHandler(dataDir, tileURL string, dbOK bool) *InfoHandler {
	return &InfoHandler{dataDir: dataDir, tileURL: tileURL, dbOK: dbOK}
}

func (h *InfoHandler) RegisterRoutes(api huma.API) {
	huma.Get(api, "/api/v1/info", h.GetInfo, huma.OperationTags("health"))
}

type InfoBody struct {
	Name     string   `json:"name" doc:"Service name"`
	Version  string   `json:"version" doc:"Service version"`
	DataDir  string   `json:"data_dir" doc:"Data directory path"`
	TileURL  string   `json:"tile_url,omitempty" doc:"Default tile base URL"`
	DB       bool     `json:"db" doc:"Whether database is available"`
	Features []string `json:"features" doc:"Available features"`
}

func (h *InfoHandler) GetInfo(ctx context.Context, input *struct{}) (*struct{ Body InfoBody }, error) {
	features := []string{"legend", "styles", "pmtiles"}
	if h.dbOK {
		features = append(features, "geoparquet", "duckdb")
	}
	return &struct{ Body InfoBody }{Body: InfoBody{
		Name:     "plat-viewer",
		Version:  "0.1.0",
		DataDir:  h.dataDir,
		TileURL:  h.tileURL,
		DB:       h.dbOK,
		Features: features,
	}}, nil
}
