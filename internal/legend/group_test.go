package legend

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joeblew999/plat-viewer/internal/style"
)

func layerIDs(layers []style.Layer) []string {
	out := make([]string, len(layers))
	for i, l := range layers {
		out[i] = l.ID
	}
	return out
}

func exampleDecl() *style.Declaration {
	return style.NewDeclaration().
		Set("A", style.LayerList{{ID: "a1"}, {ID: "a2"}}).
		Set("B", style.LayerNode{Layer: style.Layer{ID: "b1"}})
}

func TestBuildGroups(t *testing.T) {
	tree := BuildGroups(exampleDecl(), []string{"A", "B"})

	require.Len(t, tree, 5)
	assert.Equal(t, []string{"A", "B"}, tree[RootGroup].Children)
	assert.Empty(t, tree[RootGroup].Layers)
	assert.Equal(t, []string{"a1", "a2"}, layerIDs(tree["A"].Layers))
	assert.Equal(t, []string{"b1"}, layerIDs(tree["B"].Layers))
	assert.Equal(t, []string{"osm"}, layerIDs(tree[OSMGroup].Layers))
	assert.Equal(t, []string{"satellite"}, layerIDs(tree[SatelliteGroup].Layers))
	assert.Empty(t, tree[OSMGroup].Children)
}

func TestBuildGroupsSkipsMissingKeys(t *testing.T) {
	tree := BuildGroups(exampleDecl(), []string{"A", "C"})

	assert.Len(t, tree, 4)
	assert.Equal(t, []string{"A"}, tree[RootGroup].Children)
	assert.NotContains(t, tree, "C")
	assert.NotContains(t, tree, "B")
}

func TestBuildGroupsDedupesOrder(t *testing.T) {
	tree := BuildGroups(exampleDecl(), []string{"B", "A", "B"})

	assert.Len(t, tree, 5)
	assert.Equal(t, []string{"B", "A"}, tree[RootGroup].Children)
}

func TestBuildGroupsKeepsFixedGroups(t *testing.T) {
	for _, name := range []string{RootGroup, OSMGroup, SatelliteGroup} {
		t.Run(name, func(t *testing.T) {
			decl := style.NewDeclaration().
				Set(name, style.LayerList{{ID: "x1"}}).
				Set("A", style.LayerList{{ID: "a1"}})

			tree := BuildGroups(decl, []string{name, "A"})

			assert.Len(t, tree, 4)
			assert.Equal(t, []string{"A"}, tree[RootGroup].Children)
			assert.Empty(t, tree[RootGroup].Layers)
			assert.Equal(t, []string{"osm"}, layerIDs(tree[OSMGroup].Layers))
			assert.Equal(t, []string{"satellite"}, layerIDs(tree[SatelliteGroup].Layers))
			assert.Equal(t, []string{"a1"}, layerIDs(tree.Layers(RootGroup)))
		})
	}
}

func TestBuildGroupsNestedKeyIsOneGroup(t *testing.T) {
	decl := style.NewDeclaration().Set("roads", style.NewDeclaration().
		Set("major", style.LayerList{{ID: "motorway"}, {ID: "primary"}}).
		Set("minor", style.LayerNode{Layer: style.Layer{ID: "minor"}}))

	tree := BuildGroups(decl, []string{"roads"})
	assert.Equal(t, []string{"motorway", "primary", "minor"}, layerIDs(tree["roads"].Layers))
	assert.False(t, tree["roads"].IsComposite())
}

func TestBuildGroupsIsDeterministic(t *testing.T) {
	doc := style.Default()
	assert.Equal(t, BuildDocument(doc), BuildDocument(doc))
	assert.Len(t, BuildDocument(doc), len(doc.Order)+3)
}

func TestTreeWalks(t *testing.T) {
	tree := Tree{
		"root": {Name: "root", Children: []string{"x", "y"}},
		"x":    {Name: "x", Children: []string{"z"}, Layers: []style.Layer{{ID: "x1"}}},
		"y":    {Name: "y", Layers: []style.Layer{{ID: "y1"}, {ID: "shared"}}},
		"z":    {Name: "z", Children: []string{"x", "ghost"}, Layers: []style.Layer{{ID: "z1"}, {ID: "shared"}}},
	}

	assert.Equal(t, []string{"x", "z", "y"}, tree.Descendants("root"))
	assert.Equal(t, []string{"z"}, tree.Descendants("x"))
	assert.Empty(t, tree.Descendants("y"))

	assert.Equal(t, []string{"x1", "z1", "shared", "y1"}, layerIDs(tree.Layers("root")))
	assert.Nil(t, tree.Layers("missing"))
}

func TestTreeNames(t *testing.T) {
	tree := BuildGroups(exampleDecl(), []string{"B", "A"})
	assert.Equal(t, []string{RootGroup, "B", "A", OSMGroup, SatelliteGroup}, tree.Names())
}
