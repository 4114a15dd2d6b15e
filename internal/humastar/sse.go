package humastar

import (
	"strings"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humago"
	"github.com/starfederation/datastar-go/datastar"
)

// SSE writes Datastar events to a Huma stream.
type SSE struct {
	*datastar.ServerSentEventGenerator
}

// NewSSE starts a Datastar stream on the request behind ctx. ctx must come
// from the humago adapter.
func NewSSE(ctx huma.Context) SSE {
	r, w := humago.Unwrap(ctx)
	return SSE{datastar.NewSSE(w, r)}
}

// Patch replaces the children of the element matching selector.
func (s SSE) Patch(html, selector string) {
	s.PatchElements(html, datastar.WithSelector(selector), datastar.WithModeInner(), datastar.WithViewTransitions())
}

// Replace replaces the element matching selector.
func (s SSE) Replace(html, selector string) {
	s.PatchElements(html, datastar.WithSelector(selector), datastar.WithModeOuter(), datastar.WithViewTransitions())
}

// Signals patches signals. Nothing is sent for an empty map.
func (s SSE) Signals(signals map[string]any) {
	if len(signals) == 0 {
		return
	}
	s.MarshalAndPatchSignals(signals)
}

// Error sets the page's error signal.
func (s SSE) Error(msg string) {
	s.MarshalAndPatchSignals(map[string]any{"error": msg})
}

// Script runs browser code. Blank scripts are not sent.
func (s SSE) Script(script string) {
	if strings.TrimSpace(script) == "" {
		return
	}
	s.ExecuteScript(script)
}
