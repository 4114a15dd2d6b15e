package control

import (
	"context"

	"github.com/danielgtaylor/huma/v2"

	"github.com/joeblew999/plat-viewer/internal/humastar"
)

// Events streams the session's checkbox changes and renderer errors to the
// legend status line until the client disconnects or the session ends.
func (h *Handler) Events(ctx context.Context, input *SessionInput) (*huma.StreamResponse, error) {
	s, err := h.session(input.Session)
	if err != nil {
		return nil, err
	}

	return h.Stream(func(sse humastar.SSE) {
		ch := s.Bus.Subscribe()
		defer s.Bus.Unsubscribe(ch)

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-ch:
				if !ok {
					return
				}
				sse.Patch(h.Render("legend-status", ev), "#legend-status")
			}
		}
	}), nil
}
