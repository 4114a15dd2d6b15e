package style

// Source is a MapLibre source definition.
type Source struct {
	Type        string   `json:"type" doc:"Source type" example:"vector" enum:"vector,raster"`
	URL         string   `json:"url,omitempty" doc:"TileJSON or pmtiles:// URL"`
	Tiles       []string `json:"tiles,omitempty" doc:"Tile URL templates"`
	TileSize    int      `json:"tileSize,omitempty" doc:"Tile size in pixels"`
	Attribution string   `json:"attribution,omitempty" doc:"Attribution HTML"`
	MaxZoom     int      `json:"maxzoom,omitempty" doc:"Maximum zoom of the source"`
}

// Light is the global light of a MapLibre style.
type Light struct {
	Anchor    string  `json:"anchor"`
	Color     string  `json:"color"`
	Intensity float64 `json:"intensity"`
}

// MapStyle is a MapLibre style document (version 8).
type MapStyle struct {
	Version int               `json:"version" doc:"Style spec version" example:"8"`
	Light   *Light            `json:"light,omitempty" doc:"Global light"`
	Glyphs  string            `json:"glyphs,omitempty" doc:"Glyph URL template"`
	Sources map[string]Source `json:"sources" doc:"Named sources"`
	Layers  []Layer           `json:"layers" doc:"Layers in painter's order"`
}

// GlyphsURL serves the fonts referenced by the built-in style.
const GlyphsURL = "https://demotiles.maplibre.org/font/{fontstack}/{range}.pbf"

// BaseSources returns the raster sources behind the fixed base layers.
func BaseSources() map[string]Source {
	return map[string]Source{
		OSMLayer.Source: {
			Type:        "raster",
			Tiles:       []string{"https://a.tile.openstreetmap.org/{z}/{x}/{y}.png"},
			TileSize:    256,
			Attribution: "&copy; OpenStreetMap Contributors",
			MaxZoom:     19,
		},
		SatelliteLayer.Source: {
			Type:        "raster",
			Tiles:       []string{"https://services.arcgisonline.com/arcgis/rest/services/World_Imagery/MapServer/tile/{z}/{y}/{x}"},
			TileSize:    256,
			Attribution: "&copy; ArcGIS World Imagery",
			MaxZoom:     18,
		},
	}
}

// Build returns the full map style: base sources plus vector, base layers
// first, then the document's layers in painter's order.
func Build(doc *Document, vector map[string]Source) MapStyle {
	sources := BaseSources()
	for name, src := range vector {
		sources[name] = src
	}

	layers := BaseLayers()
	if doc != nil {
		layers = append(layers, doc.Flatten()...)
	}

	return MapStyle{
		Version: 8,
		Light:   &Light{Anchor: "viewport", Color: "white", Intensity: 0.8},
		Glyphs:  GlyphsURL,
		Sources: sources,
		Layers:  layers,
	}
}

// LayerIDs returns the ids of every layer in the style.
func (s MapStyle) LayerIDs() []string {
	ids := make([]string, len(s.Layers))
	for i, l := range s.Layers {
		ids[i] = l.ID
	}
	return ids
}
