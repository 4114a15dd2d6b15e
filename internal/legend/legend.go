package legend

import (
	"fmt"
	"strconv"
)

// Kind says which checkbox a Change refers to.
type Kind string

const (
	KindGroup Kind = "group"
	KindLayer Kind = "layer"
)

// Change is one checkbox whose state changed. Key is the checkbox's signal key.
type Change struct {
	Kind    Kind   `json:"kind" doc:"Checkbox kind" enum:"group,layer"`
	Name    string `json:"name" doc:"Group name or layer id"`
	Key     string `json:"key" doc:"Signal key bound to the checkbox"`
	Checked bool   `json:"checked" doc:"New checkbox state"`
}

// Legend is the checkbox state of one legend bound to one renderer.
// Every checkbox starts checked. A Legend is not safe for concurrent use.
type Legend struct {
	tree     Tree
	renderer Renderer

	groups    map[string]bool
	layers    map[string]bool
	groupKeys map[string]string
	layerKeys map[string]string
}

// New returns a legend over tree. Signal keys are assigned in legend order.
func New(tree Tree, r Renderer) *Legend {
	l := &Legend{
		tree:      tree,
		renderer:  r,
		groups:    make(map[string]bool),
		layers:    make(map[string]bool),
		groupKeys: make(map[string]string),
		layerKeys: make(map[string]string),
	}

	for _, name := range tree.Names() {
		if _, ok := tree[name]; !ok {
			continue
		}
		l.groupKeys[name] = "g" + strconv.Itoa(len(l.groupKeys))
		l.groups[name] = true
		for _, layer := range tree[name].Layers {
			if _, ok := l.layerKeys[layer.ID]; ok {
				continue
			}
			l.layerKeys[layer.ID] = "l" + strconv.Itoa(len(l.layerKeys))
			l.layers[layer.ID] = true
		}
	}
	return l
}

// Tree returns the legend's group tree.
func (l *Legend) Tree() Tree { return l.tree }

// GroupKey returns the signal key of a group checkbox.
func (l *Legend) GroupKey(name string) string { return l.groupKeys[name] }

// LayerKey returns the signal key of a layer checkbox.
func (l *Legend) LayerKey(id string) string { return l.layerKeys[id] }

// GroupChecked reports whether a group checkbox is checked.
func (l *Legend) GroupChecked(name string) bool { return l.groups[name] }

// LayerChecked reports whether a layer checkbox is checked.
func (l *Legend) LayerChecked(id string) bool { return l.layers[id] }

// Signals returns the state of every checkbox keyed by signal key.
func (l *Legend) Signals() map[string]any {
	out := make(map[string]any, len(l.groupKeys)+len(l.layerKeys))
	for name, key := range l.groupKeys {
		out[key] = l.groups[name]
	}
	for id, key := range l.layerKeys {
		out[key] = l.layers[id]
	}
	return out
}

// Toggle handles a group header checkbox. The group's subtree is propagated
// to the renderer and every checkbox under it is forced to checked. The
// checkbox state is updated even when the renderer rejects a layer; the
// error is returned alongside the changes.
func (l *Legend) Toggle(name string, checked bool) ([]Change, error) {
	groups, err := Propagate(l.tree, name, checked, l.renderer)
	if groups == nil {
		return nil, err
	}

	var changes []Change
	for _, g := range groups {
		if l.groups[g] != checked {
			l.groups[g] = checked
			changes = append(changes, Change{Kind: KindGroup, Name: g, Key: l.groupKeys[g], Checked: checked})
		}
	}
	for _, layer := range l.tree.Layers(name) {
		if l.layers[layer.ID] != checked {
			l.layers[layer.ID] = checked
			changes = append(changes, Change{Kind: KindLayer, Name: layer.ID, Key: l.layerKeys[layer.ID], Checked: checked})
		}
	}
	return changes, err
}

// ToggleLayer handles a single layer row checkbox. Only that layer changes.
func (l *Legend) ToggleLayer(id string, checked bool) ([]Change, error) {
	key, ok := l.layerKeys[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownLayer, id)
	}

	var changes []Change
	if l.layers[id] != checked {
		l.layers[id] = checked
		changes = append(changes, Change{Kind: KindLayer, Name: id, Key: key, Checked: checked})
	}
	if err := l.renderer.SetLayerVisibility(id, VisibilityOf(checked)); err != nil {
		return changes, fmt.Errorf("setting %s on layer %q: %w", VisibilityOf(checked), id, err)
	}
	return changes, nil
}
