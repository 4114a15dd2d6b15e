package style

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseYAML(t *testing.T) {
	doc, err := Parse([]byte(`
order: [Transportation, Water]
layers:
  Water:
    id: water
    type: fill
    paint:
      fill-opacity: 0.5
      fill-color: "#3063d2"
  Transportation:
    primary:
      id: primary
      type: line
    footway:
      - id: footway
        type: line
      - id: steps
        type: line
  Notes: just a string
`))
	require.NoError(t, err)

	assert.Equal(t, []string{"Transportation", "Water"}, doc.Order)
	assert.Equal(t, []string{"Water", "Transportation", "Notes"}, doc.Layers.Keys())

	n, ok := doc.Layers.Get("Water")
	require.True(t, ok)
	water, ok := n.(LayerNode)
	require.True(t, ok)
	assert.Equal(t, "fill", water.Layer.Type)
	assert.Equal(t, "fill-opacity", water.Layer.Paint[0].Key)
	assert.Equal(t, "fill-color", water.Layer.Paint[1].Key)

	n, _ = doc.Layers.Get("Transportation")
	nested, ok := n.(*Declaration)
	require.True(t, ok)
	assert.Equal(t, []string{"primary", "footway"}, nested.Keys())

	n, ok = doc.Layers.Get("Notes")
	assert.True(t, ok)
	assert.Nil(t, n)

	assert.Equal(t, []string{"primary", "footway", "steps", "water"}, ids(doc.Flatten()))
}

func TestParseRejectsFixedGroupNames(t *testing.T) {
	for _, name := range []string{RootGroup, OSMGroup, SatelliteGroup} {
		_, err := Parse([]byte("order: [" + name + ", A]\nlayers:\n  " + name + ": [{id: x1}]\n  A: [{id: a1}]\n"))
		assert.ErrorIs(t, err, ErrReservedGroup, name)
	}

	doc, err := Parse([]byte("layers:\n  roads:\n    OSM: {id: osm-roads}\n"))
	require.NoError(t, err, "nested keys are not groups")
	assert.Equal(t, []string{"osm-roads"}, ids(doc.Flatten()))
}

func TestParseJSONModuleNames(t *testing.T) {
	doc, err := Parse([]byte(`{
  "layerOrder": ["B", "A"],
  "allLayers": {
    "A": [{"id": "a1"}, {"id": "a2"}],
    "B": {"id": "b1"}
  }
}`))
	require.NoError(t, err)
	assert.Equal(t, []string{"b1", "a1", "a2"}, ids(doc.Flatten()))
}

func TestParseGroupTag(t *testing.T) {
	// Without the tag a mapping with a scalar id would be read as a layer.
	doc, err := Parse([]byte(`
order: [Odd]
layers:
  Odd: !group
    id: {id: inner, type: line}
`))
	require.NoError(t, err)

	n, _ := doc.Layers.Get("Odd")
	_, ok := n.(*Declaration)
	require.True(t, ok)
	assert.Equal(t, []string{"inner"}, ids(doc.Flatten()))
}

func TestParseErrors(t *testing.T) {
	_, err := Parse([]byte(`order: [a]`))
	assert.ErrorIs(t, err, ErrNoLayers)

	_, err = Parse([]byte(`layers: [1, 2]`))
	assert.Error(t, err)

	_, err = Parse([]byte(`layers: {a: {id: x, paint: 3}}`))
	assert.Error(t, err)
}

func TestDefault(t *testing.T) {
	doc := Default()
	assert.Equal(t, []string{"land", "landuse", "water", "buildings", "roads", "placenames", "places", "boundary"}, doc.Order)
	assert.Empty(t, DuplicateIDs(doc.Layers))

	flat := doc.Flatten()
	assert.Equal(t, "land", flat[0].ID)
	assert.Equal(t, "boundary", flat[len(flat)-1].ID)
	assert.Contains(t, ids(flat), "roads-minor")

	color, ok := flat[0].Paint.Get("fill-color")
	require.True(t, ok)
	assert.Equal(t, "#ccdae8", color)
}

func TestPropertiesJSON(t *testing.T) {
	l := Layer{ID: "x", Type: "line", Paint: Properties{}.With("line-width", 2).With("line-color", "#fff")}
	data, err := json.Marshal(l)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"x","type":"line","paint":{"line-width":2,"line-color":"#fff"}}`, string(data))
	assert.Contains(t, string(data), `"line-width":2,"line-color":"#fff"`)

	var back Layer
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, "line-width", back.Paint[0].Key)
	assert.Equal(t, "line-color", back.Paint[1].Key)
}

func TestBuild(t *testing.T) {
	doc := Default()
	ms := Build(doc, map[string]Source{
		"roads": {Type: "vector", URL: "pmtiles://https://example.com/roads.pmtiles"},
	})

	assert.Equal(t, 8, ms.Version)
	assert.Contains(t, ms.Sources, "osm")
	assert.Contains(t, ms.Sources, "satellite")
	assert.Contains(t, ms.Sources, "roads")

	layerIDs := ms.LayerIDs()
	assert.Equal(t, []string{"satellite", "osm", "land"}, layerIDs[:3])
	assert.Len(t, layerIDs, 2+len(doc.Flatten()))
}
