package style

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Node is the value stored under a declaration key: a LayerNode, a LayerList
// or a nested *Declaration.
type Node interface {
	node()
}

// LayerNode is a key holding a single layer.
type LayerNode struct {
	Layer Layer
}

// LayerList is a key holding layers in painter's order.
type LayerList []Layer

func (LayerNode) node()    {}
func (LayerList) node()    {}
func (*Declaration) node() {}

// Entry is one key of a declaration. Node is nil when the source value had no
// usable shape; such keys exist but contribute no layers.
type Entry struct {
	Key  string
	Node Node
}

// Declaration maps group keys to layers or nested declarations, keeping
// insertion order. The zero value and nil are empty declarations.
type Declaration struct {
	entries []Entry
	index   map[string]int
}

// NewDeclaration returns an empty declaration.
func NewDeclaration() *Declaration {
	return &Declaration{index: make(map[string]int)}
}

// Set stores n under key and returns d. A repeated key keeps its first position.
func (d *Declaration) Set(key string, n Node) *Declaration {
	if d.index == nil {
		d.index = make(map[string]int)
	}
	if i, ok := d.index[key]; ok {
		d.entries[i].Node = n
		return d
	}
	d.index[key] = len(d.entries)
	d.entries = append(d.entries, Entry{Key: key, Node: n})
	return d
}

// Get returns the node under key.
func (d *Declaration) Get(key string) (Node, bool) {
	if d == nil {
		return nil, false
	}
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}
	return d.entries[i].Node, true
}

// Has reports whether key is declared, whatever its value.
func (d *Declaration) Has(key string) bool {
	_, ok := d.Get(key)
	return ok
}

// Keys returns the declared keys in order.
func (d *Declaration) Keys() []string {
	if d == nil {
		return nil
	}
	keys := make([]string, len(d.entries))
	for i, e := range d.entries {
		keys[i] = e.Key
	}
	return keys
}

// Entries returns a copy of the entries in order.
func (d *Declaration) Entries() []Entry {
	if d == nil {
		return nil
	}
	out := make([]Entry, len(d.entries))
	copy(out, d.entries)
	return out
}

// Len returns the number of keys.
func (d *Declaration) Len() int {
	if d == nil {
		return 0
	}
	return len(d.entries)
}

// groupTag forces a mapping to decode as a nested group even when it has an id key.
const groupTag = "!group"

// UnmarshalYAML implements yaml.Unmarshaler.
//
// Sequences decode to LayerList. A mapping tagged !group decodes to a nested
// declaration; otherwise a mapping with a scalar id decodes to a LayerNode and
// any other mapping to a nested declaration. Other values decode to nil nodes.
func (d *Declaration) UnmarshalYAML(value *yaml.Node) error {
	value = resolve(value)
	if value.Kind != yaml.MappingNode {
		return fmt.Errorf("line %d: declaration must be a mapping", value.Line)
	}

	decl := NewDeclaration()
	for i := 0; i+1 < len(value.Content); i += 2 {
		key := value.Content[i].Value
		n, err := decodeNode(value.Content[i+1])
		if err != nil {
			return fmt.Errorf("key %q: %w", key, err)
		}
		decl.Set(key, n)
	}
	*d = *decl
	return nil
}

func decodeNode(value *yaml.Node) (Node, error) {
	tag := value.Tag
	value = resolve(value)

	switch value.Kind {
	case yaml.SequenceNode:
		var layers []Layer
		if err := value.Decode(&layers); err != nil {
			return nil, err
		}
		return LayerList(layers), nil

	case yaml.MappingNode:
		if tag != groupTag && hasScalarKey(value, "id") {
			var l Layer
			if err := value.Decode(&l); err != nil {
				return nil, err
			}
			return LayerNode{Layer: l}, nil
		}
		nested := NewDeclaration()
		if err := nested.UnmarshalYAML(value); err != nil {
			return nil, err
		}
		return nested, nil
	}

	return nil, nil
}

func hasScalarKey(m *yaml.Node, key string) bool {
	for i := 0; i+1 < len(m.Content); i += 2 {
		if m.Content[i].Value == key {
			return resolve(m.Content[i+1]).Kind == yaml.ScalarNode
		}
	}
	return false
}
