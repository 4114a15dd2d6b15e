package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func ids(layers []Layer) []string {
	out := make([]string, len(layers))
	for i, l := range layers {
		out[i] = l.ID
	}
	return out
}

func exampleDecl() *Declaration {
	return NewDeclaration().
		Set("A", LayerList{{ID: "a1"}, {ID: "a2"}}).
		Set("B", LayerNode{Layer: Layer{ID: "b1"}})
}

func TestFlatten(t *testing.T) {
	decl := exampleDecl()

	t.Run("order sets group sequence", func(t *testing.T) {
		assert.Equal(t, []string{"a1", "a2", "b1"}, ids(Flatten(decl, []string{"A", "B"})))
		assert.Equal(t, []string{"b1", "a1", "a2"}, ids(Flatten(decl, []string{"B", "A"})))
	})

	t.Run("keys missing from order are excluded", func(t *testing.T) {
		assert.Equal(t, []string{"b1"}, ids(Flatten(decl, []string{"B"})))
	})

	t.Run("unknown order keys are skipped", func(t *testing.T) {
		assert.Equal(t, []string{"a1", "a2"}, ids(Flatten(decl, []string{"A", "C"})))
	})

	t.Run("empty order uses declaration order", func(t *testing.T) {
		assert.Equal(t, []string{"a1", "a2", "b1"}, ids(Flatten(decl, nil)))
	})

	t.Run("nil declaration", func(t *testing.T) {
		assert.Empty(t, Flatten(nil, []string{"A"}))
	})
}

func TestFlattenNested(t *testing.T) {
	transport := NewDeclaration().
		Set("primary", LayerNode{Layer: Layer{ID: "primary"}}).
		Set("footway", LayerList{{ID: "footway"}, {ID: "steps"}}).
		Set("rail", NewDeclaration().Set("tram", LayerNode{Layer: Layer{ID: "tram"}}))

	decl := NewDeclaration().
		Set("Water", LayerNode{Layer: Layer{ID: "water"}}).
		Set("Transportation", transport)

	// The outer order is not carried into the nested declaration.
	got := Flatten(decl, []string{"Transportation", "Water"})
	assert.Equal(t, []string{"primary", "footway", "steps", "tram", "water"}, ids(got))

	assert.Equal(t, []string{"primary", "footway", "steps", "tram"}, ids(FlattenKey(decl, "Transportation")))
	assert.Nil(t, FlattenKey(decl, "Missing"))
}

func TestFlattenSkipsShapelessValues(t *testing.T) {
	decl := exampleDecl().Set("Broken", nil)

	assert.True(t, decl.Has("Broken"))
	assert.Equal(t, []string{"a1", "a2", "b1"}, ids(Flatten(decl, []string{"A", "Broken", "B"})))
	assert.Empty(t, FlattenKey(decl, "Broken"))
}

func TestFlattenIsDeterministic(t *testing.T) {
	doc := Default()
	first := Flatten(doc.Layers, doc.Order)
	for i := 0; i < 5; i++ {
		assert.Equal(t, ids(first), ids(Flatten(doc.Layers, doc.Order)))
	}
}

func TestDuplicateIDs(t *testing.T) {
	assert.Empty(t, DuplicateIDs(exampleDecl()))

	decl := exampleDecl().
		Set("C", LayerList{{ID: "a1"}, {ID: "c1"}}).
		Set("D", NewDeclaration().Set("x", LayerNode{Layer: Layer{ID: "a1"}}))
	assert.Equal(t, []string{"a1"}, DuplicateIDs(decl))
}
