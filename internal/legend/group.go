// Package legend builds the legend's group tree from a layer declaration and
// cascades checkbox toggles into layer visibility changes.
package legend

import (
	"github.com/joeblew999/plat-viewer/internal/style"
)

// Fixed group names.
const (
	RootGroup      = style.RootGroup
	OSMGroup       = style.OSMGroup
	SatelliteGroup = style.SatelliteGroup
)

// Group is one collapsible legend section. A group with children is
// composite; its own Layers are normally empty.
type Group struct {
	Name     string        `json:"name" doc:"Group name" example:"roads"`
	Layers   []style.Layer `json:"layers" doc:"Layers owned directly by the group"`
	Children []string      `json:"children" doc:"Child group names in legend order"`
}

// Tree maps group names to groups.
type Tree map[string]Group

// BuildGroups builds the group tree for decl and order: the two base groups,
// the root group whose children are the order keys present in decl, and one
// leaf group per such key. Keys in order but missing from decl are skipped,
// as are keys named like a fixed group; style.Parse rejects those.
func BuildGroups(decl *style.Declaration, order []string) Tree {
	tree := Tree{
		OSMGroup:       {Name: OSMGroup, Layers: []style.Layer{style.OSMLayer}, Children: []string{}},
		SatelliteGroup: {Name: SatelliteGroup, Layers: []style.Layer{style.SatelliteLayer}, Children: []string{}},
	}

	children := []string{}
	seen := make(map[string]bool)
	for _, key := range order {
		if seen[key] || !decl.Has(key) || style.IsReservedGroup(key) {
			continue
		}
		seen[key] = true
		children = append(children, key)
		layers := style.FlattenKey(decl, key)
		if layers == nil {
			layers = []style.Layer{}
		}
		tree[key] = Group{Name: key, Layers: layers, Children: []string{}}
	}

	tree[RootGroup] = Group{Name: RootGroup, Layers: []style.Layer{}, Children: children}
	return tree
}

// BuildDocument builds the group tree of a parsed style document.
func BuildDocument(doc *style.Document) Tree {
	return BuildGroups(doc.Layers, doc.Order)
}

// Names returns group names in legend order: root, its descendants depth
// first, then the base groups.
func (t Tree) Names() []string {
	names := []string{RootGroup}
	names = append(names, t.Descendants(RootGroup)...)
	return append(names, OSMGroup, SatelliteGroup)
}

// Descendants returns the names of every group below name, depth first.
// Each name appears once even if reachable through several parents.
func (t Tree) Descendants(name string) []string {
	var out []string
	seen := map[string]bool{name: true}
	var walk func(string)
	walk = func(n string) {
		for _, child := range t[n].Children {
			if seen[child] {
				continue
			}
			seen[child] = true
			if _, ok := t[child]; !ok {
				continue
			}
			out = append(out, child)
			walk(child)
		}
	}
	walk(name)
	return out
}

// Layers returns every layer under name: its own, then its descendants'.
// A layer id is returned once.
func (t Tree) Layers(name string) []style.Layer {
	g, ok := t[name]
	if !ok {
		return nil
	}

	var out []style.Layer
	seen := make(map[string]bool)
	add := func(layers []style.Layer) {
		for _, l := range layers {
			if seen[l.ID] {
				continue
			}
			seen[l.ID] = true
			out = append(out, l)
		}
	}

	add(g.Layers)
	for _, d := range t.Descendants(name) {
		add(t[d].Layers)
	}
	return out
}

// IsComposite reports whether the group has children.
func (g Group) IsComposite() bool {
	return len(g.Children) > 0
}
