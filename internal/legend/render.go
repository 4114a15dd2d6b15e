package legend

import (
	"fmt"
	"strings"

	"github.com/joeblew999/plat-viewer/internal/style"
)

// PlaceholderColor is shown for layers without a plain string color.
const PlaceholderColor = "#cccccc"

// Section is the view model of one legend section.
type Section struct {
	Name     string    `json:"name" doc:"Group name"`
	Key      string    `json:"key" doc:"Signal key of the header checkbox"`
	Checked  bool      `json:"checked" doc:"Header checkbox state"`
	Expanded bool      `json:"expanded" doc:"Whether the body starts open"`
	Sections []Section `json:"sections,omitempty" doc:"Nested sections of a composite group"`
	Rows     []Row     `json:"rows,omitempty" doc:"Layer rows of a leaf group"`
}

// Row is one layer line of a leaf section.
type Row struct {
	ID      string `json:"id" doc:"Layer id"`
	Key     string `json:"key" doc:"Signal key of the row checkbox"`
	Color   string `json:"color" doc:"Swatch color"`
	Checked bool   `json:"checked" doc:"Row checkbox state"`
}

// Render builds the section for group name. Only the top-level section
// (nested false) starts expanded. Composite groups get one nested section per
// child; leaf groups get one row per layer.
func (l *Legend) Render(name string, nested bool) (Section, error) {
	return l.render(name, nested, map[string]bool{})
}

func (l *Legend) render(name string, nested bool, visiting map[string]bool) (Section, error) {
	g, ok := l.tree[name]
	if !ok {
		return Section{}, fmt.Errorf("%w: %q", ErrUnknownGroup, name)
	}
	visiting[name] = true
	defer delete(visiting, name)

	s := Section{
		Name:     name,
		Key:      l.groupKeys[name],
		Checked:  l.groups[name],
		Expanded: !nested,
	}

	if g.IsComposite() {
		for _, child := range g.Children {
			if visiting[child] {
				continue
			}
			cs, err := l.render(child, true, visiting)
			if err != nil {
				return Section{}, err
			}
			s.Sections = append(s.Sections, cs)
		}
		return s, nil
	}

	for _, layer := range g.Layers {
		s.Rows = append(s.Rows, Row{
			ID:      layer.ID,
			Key:     l.layerKeys[layer.ID],
			Color:   Swatch(layer),
			Checked: l.layers[layer.ID],
		})
	}
	return s, nil
}

// Sections renders the legend's top-level sections: root, OSM, Satellite.
func (l *Legend) Sections() ([]Section, error) {
	var out []Section
	for _, name := range []string{RootGroup, OSMGroup, SatelliteGroup} {
		s, err := l.Render(name, false)
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, nil
}

// Swatch returns the legend color of a layer: the first paint property whose
// key contains "color", if it is a plain string.
func Swatch(layer style.Layer) string {
	for _, p := range layer.Paint {
		if !strings.Contains(strings.ToLower(p.Key), "color") {
			continue
		}
		if s, ok := p.Value.(string); ok {
			return s
		}
		return PlaceholderColor
	}
	return PlaceholderColor
}
