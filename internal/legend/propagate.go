package legend

import (
	"errors"
	"fmt"

	"github.com/joeblew999/plat-viewer/internal/style"
)

// Visibility is a layer's layout visibility as understood by the renderer.
type Visibility string

const (
	Visible Visibility = "visible"
	Hidden  Visibility = "none"
)

// VisibilityOf maps a checkbox state to a visibility.
func VisibilityOf(checked bool) Visibility {
	if checked {
		return Visible
	}
	return Hidden
}

var (
	ErrUnknownGroup = errors.New("unknown group")
	ErrUnknownLayer = errors.New("unknown layer")
)

// Renderer is the map that owns layer visibility.
type Renderer interface {
	SetLayerVisibility(id string, v Visibility) error
}

// SetLayersVisibility sets v on each layer in order. It stops at the first
// rejected layer; layers set before it stay changed.
func SetLayersVisibility(r Renderer, layers []style.Layer, v Visibility) error {
	for _, l := range layers {
		if err := r.SetLayerVisibility(l.ID, v); err != nil {
			return fmt.Errorf("setting %s on layer %q: %w", v, l.ID, err)
		}
	}
	return nil
}

// Propagate applies checked to the group name and everything below it.
// Every layer id under the group is set exactly once. It returns the names
// of the group and its descendants, whose checkboxes now read checked.
func Propagate(tree Tree, name string, checked bool, r Renderer) ([]string, error) {
	if _, ok := tree[name]; !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}

	groups := append([]string{name}, tree.Descendants(name)...)
	if err := SetLayersVisibility(r, tree.Layers(name), VisibilityOf(checked)); err != nil {
		return groups, err
	}
	return groups, nil
}
