// Package humastar serves Datastar fragments and signals from Huma
// operations.
//
// A handler embeds [Handler], returns [Handler.Stream] from a Huma operation
// and patches rendered templates into the page:
//
//	func (h *LegendHandler) Get(ctx context.Context, in *SessionInput) (*huma.StreamResponse, error) {
//	    return h.Stream(func(sse humastar.SSE) {
//	        sse.Replace(h.Render("legend", data), "#legend")
//	    }), nil
//	}
//
// The package also derives RFC 8288 Link headers from the OpenAPI document
// ([AutoLinks]), paginates list bodies ([PageBody]) and expands resource
// actions ([ActionsFor]).
package humastar

import (
	"github.com/danielgtaylor/huma/v2"
	"github.com/jamesrr39/goutil/logpkg"

	"github.com/joeblew999/plat-viewer/internal/templates"
)

// Handler is embedded by handlers that answer with Datastar event streams.
type Handler struct {
	Renderer *templates.Renderer
	Logger   *logpkg.Logger
}

// Stream wraps fn in a Huma stream response.
func (h *Handler) Stream(fn func(sse SSE)) *huma.StreamResponse {
	return &huma.StreamResponse{
		Body: func(ctx huma.Context) {
			fn(NewSSE(ctx))
		},
	}
}

// Render renders a named template. A failure is logged and the
// legend-error fragment is returned in its place.
func (h *Handler) Render(name string, data any) string {
	html, err := h.Renderer.Render(name, data)
	if err == nil {
		return html
	}
	h.Logger.Error("rendering %s: %s", name, err)
	if errHTML, err := h.Renderer.Render("legend-error", "Rendering failed: "+name); err == nil {
		return errHTML
	}
	return ""
}

// EmptyInput is the input of operations without parameters.
type EmptyInput struct{}
