package style

import (
	_ "embed"
	"errors"
	"fmt"
	"sync"

	"gopkg.in/yaml.v3"
)

// Document is a layer declaration together with its top-level order.
// It is immutable once parsed.
type Document struct {
	Order  []string
	Layers *Declaration
}

// Group names the legend uses for its own groups. A document may not declare
// them as top-level keys.
const (
	RootGroup      = "Overture"
	OSMGroup       = "OSM"
	SatelliteGroup = "Satellite"
)

var (
	// ErrNoLayers is returned when a style document declares no layers.
	ErrNoLayers = errors.New("style document has no layers")
	// ErrReservedGroup is returned when a top-level key is a fixed group name.
	ErrReservedGroup = errors.New("reserved group name")
)

// IsReservedGroup reports whether name is one of the fixed group names.
func IsReservedGroup(name string) bool {
	switch name {
	case RootGroup, OSMGroup, SatelliteGroup:
		return true
	}
	return false
}

// rawDocument accepts both the short keys and the names used by the
// JavaScript style modules (layerOrder, allLayers).
type rawDocument struct {
	Order      []string     `yaml:"order"`
	LayerOrder []string     `yaml:"layerOrder"`
	Layers     *Declaration `yaml:"layers"`
	AllLayers  *Declaration `yaml:"allLayers"`
}

// Parse decodes a YAML or JSON style document.
func Parse(data []byte) (*Document, error) {
	var raw rawDocument
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parsing style document: %w", err)
	}

	doc := &Document{Order: raw.Order, Layers: raw.Layers}
	if doc.Order == nil {
		doc.Order = raw.LayerOrder
	}
	if doc.Layers == nil {
		doc.Layers = raw.AllLayers
	}
	if doc.Layers.Len() == 0 {
		return nil, ErrNoLayers
	}
	for _, key := range doc.Layers.Keys() {
		if IsReservedGroup(key) {
			return nil, fmt.Errorf("%w: %q", ErrReservedGroup, key)
		}
	}
	return doc, nil
}

// Flatten returns the document's layers in painter's order.
func (d *Document) Flatten() []Layer {
	return Flatten(d.Layers, d.Order)
}

//go:embed default.yaml
var defaultYAML []byte

var loadDefault = sync.OnceValues(func() (*Document, error) {
	return Parse(defaultYAML)
})

// Default returns the built-in style document.
func Default() *Document {
	doc, err := loadDefault()
	if err != nil {
		panic("style: built-in default is invalid: " + err.Error())
	}
	return doc
}
