// Package viewer binds legends to browser maps: one session per open viewer
// page, each with its own legend state and map renderer.
package viewer

import (
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/joeblew999/plat-viewer/internal/legend"
	"github.com/joeblew999/plat-viewer/internal/style"
)

// Update is a visibility change waiting to be sent to the browser map.
type Update struct {
	ID         string            `json:"id"`
	Visibility legend.Visibility `json:"visibility"`
}

// MapRenderer mirrors the layer visibility of one browser map. It accepts
// only the layer ids declared in the map's style.
type MapRenderer struct {
	mu         sync.Mutex
	visibility map[string]legend.Visibility
	pending    []Update
}

// NewMapRenderer returns a renderer for the layers of ms, all visible.
func NewMapRenderer(ms style.MapStyle) *MapRenderer {
	r := &MapRenderer{visibility: make(map[string]legend.Visibility, len(ms.Layers))}
	for _, id := range ms.LayerIDs() {
		r.visibility[id] = legend.Visible
	}
	return r
}

// SetLayerVisibility implements legend.Renderer.
func (r *MapRenderer) SetLayerVisibility(id string, v legend.Visibility) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.visibility[id]; !ok {
		return fmt.Errorf("%w: %q is not in the map style", legend.ErrUnknownLayer, id)
	}
	r.visibility[id] = v
	r.pending = append(r.pending, Update{ID: id, Visibility: v})
	return nil
}

// Visibility returns the current visibility of a layer.
func (r *MapRenderer) Visibility(id string) (legend.Visibility, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.visibility[id]
	return v, ok
}

// Drain returns the queued updates and clears the queue.
func (r *MapRenderer) Drain() []Update {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := r.pending
	r.pending = nil
	return out
}

// Script returns browser code applying updates to window.viewer, or "" if
// there are none.
func Script(updates []Update) string {
	if len(updates) == 0 {
		return ""
	}
	var b strings.Builder
	for _, u := range updates {
		id, _ := json.Marshal(u.ID)
		v, _ := json.Marshal(string(u.Visibility))
		fmt.Fprintf(&b, "window.viewer && window.viewer.setLayerVisibility(%s,%s);", id, v)
	}
	return b.String()
}
