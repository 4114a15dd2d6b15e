// Package style holds layer declarations, flattens them into painter's order,
// and builds MapLibre style documents from them.
package style

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"gopkg.in/yaml.v3"
)

// Layer is one paintable unit of a map style. Identity is by ID.
type Layer struct {
	ID          string         `json:"id" yaml:"id" doc:"Unique layer identifier" example:"buildings"`
	Type        string         `json:"type,omitempty" yaml:"type" doc:"MapLibre layer type" example:"fill"`
	Source      string         `json:"source,omitempty" yaml:"source" doc:"Source name" example:"buildings"`
	SourceLayer string         `json:"source-layer,omitempty" yaml:"source-layer" doc:"Layer inside a vector source" example:"buildings"`
	MinZoom     *float64       `json:"minzoom,omitempty" yaml:"minzoom" doc:"Minimum zoom"`
	MaxZoom     *float64       `json:"maxzoom,omitempty" yaml:"maxzoom" doc:"Maximum zoom"`
	Filter      any            `json:"filter,omitempty" yaml:"filter" doc:"Filter expression"`
	Layout      Properties     `json:"layout,omitempty" yaml:"layout" doc:"Layout properties"`
	Paint       Properties     `json:"paint,omitempty" yaml:"paint" doc:"Paint properties"`
	Metadata    map[string]any `json:"metadata,omitempty" yaml:"metadata" doc:"Arbitrary metadata"`
}

// Fixed raster base layers. They are not part of any declaration.
var (
	OSMLayer       = Layer{ID: "osm", Type: "raster", Source: "osm"}
	SatelliteLayer = Layer{ID: "satellite", Type: "raster", Source: "satellite"}
)

// BaseLayers returns the fixed base layers, bottom first.
func BaseLayers() []Layer {
	return []Layer{SatelliteLayer, OSMLayer}
}

// Property is a single layout or paint entry.
type Property struct {
	Key   string
	Value any
}

// Properties is an ordered property list. It decodes from and encodes to an
// object, keeping the author's key order.
type Properties []Property

// Get returns the value stored under key.
func (p Properties) Get(key string) (any, bool) {
	for _, prop := range p {
		if prop.Key == key {
			return prop.Value, true
		}
	}
	return nil, false
}

// With returns a copy of p with key set to value. An existing key keeps its position.
func (p Properties) With(key string, value any) Properties {
	out := make(Properties, len(p), len(p)+1)
	copy(out, p)
	for i := range out {
		if out[i].Key == key {
			out[i].Value = value
			return out
		}
	}
	return append(out, Property{Key: key, Value: value})
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (p *Properties) UnmarshalYAML(value *yaml.Node) error {
	value = resolve(value)
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: expected a mapping of properties", value.Line)
	}

	props := make(Properties, 0, len(value.Content)/2)
	for i := 0; i+1 < len(value.Content); i += 2 {
		var v any
		if err := value.Content[i+1].Decode(&v); err != nil {
			return fmt.Errorf("property %q: %w", value.Content[i].Value, err)
		}
		props = props.With(value.Content[i].Value, v)
	}
	*p = props
	return nil
}

// UnmarshalJSON decodes through YAML, which accepts JSON and keeps key order.
func (p *Properties) UnmarshalJSON(data []byte) error {
	var node yaml.Node
	if err := yaml.Unmarshal(data, &node); err != nil {
		return err
	}
	if len(node.Content) == 0 {
		*p = nil
		return nil
	}
	return p.UnmarshalYAML(node.Content[0])
}

// MarshalJSON writes the properties as a JSON object in order.
func (p Properties) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, prop := range p {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(prop.Key)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(prop.Value)
		if err != nil {
			return nil, fmt.Errorf("property %q: %w", prop.Key, err)
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Schema describes Properties as a free-form object in the OpenAPI spec.
func (p Properties) Schema(r huma.Registry) *huma.Schema {
	return &huma.Schema{
		Type:                 huma.TypeObject,
		AdditionalProperties: true,
	}
}

func resolve(n *yaml.Node) *yaml.Node {
	for n.Kind == yaml.AliasNode && n.Alias != nil {
		n = n.Alias
	}
	return n
}
