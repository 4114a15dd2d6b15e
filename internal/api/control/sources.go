package control

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-viewer/internal/humastar"
	"github.com/joeblew999/plat-viewer/internal/service"
)

// sourcesData is the data of the legend-sources fragment.
type sourcesData struct {
	Sources []service.VectorSource
}

// GetSources fills the Sources tab with the session's vector archives.
func (h *Handler) GetSources(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	s, err := h.session(input.Session)
	if err != nil {
		return nil, err
	}

	data := sourcesData{}
	if s.TileURL != "" && h.sources != nil {
		view := service.DefaultView
		if h.tiles != nil {
			if v, err := h.tiles.View(ctx, s.TileURL); err == nil {
				view = v
			} else {
				h.Logger.Warn("session %s: reading map view: %s", s.ID, err)
			}
		}
		data.Sources = h.sources.Vector(s.TileURL, view)
	}

	return h.Stream(func(sse humastar.SSE) {
		sse.Patch(h.Render("legend-sources", data), "#legend-sources")
	}), nil
}
