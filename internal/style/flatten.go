package style

// Flatten returns the layers of decl in painter's order (bottom first).
//
// With an empty order every key is visited in declaration order. Otherwise
// keys are visited in order and keys missing from decl are skipped. Nested
// declarations are always visited in full, in their own key order.
func Flatten(decl *Declaration, order []string) []Layer {
	var out []Layer
	if len(order) == 0 {
		for _, e := range decl.Entries() {
			out = appendNode(out, e.Node)
		}
		return out
	}
	for _, key := range order {
		if n, ok := decl.Get(key); ok {
			out = appendNode(out, n)
		}
	}
	return out
}

// FlattenKey returns every layer under a single key, however deeply nested.
func FlattenKey(decl *Declaration, key string) []Layer {
	n, ok := decl.Get(key)
	if !ok {
		return nil
	}
	return appendNode(nil, n)
}

func appendNode(dst []Layer, n Node) []Layer {
	switch n := n.(type) {
	case LayerNode:
		return append(dst, n.Layer)
	case LayerList:
		return append(dst, n...)
	case *Declaration:
		return append(dst, Flatten(n, nil)...)
	}
	return dst
}

// DuplicateIDs returns the ids that occur more than once anywhere in decl,
// in order of their second occurrence.
func DuplicateIDs(decl *Declaration) []string {
	seen := make(map[string]int)
	var dups []string
	for _, l := range Flatten(decl, nil) {
		seen[l.ID]++
		if seen[l.ID] == 2 {
			dups = append(dups, l.ID)
		}
	}
	return dups
}
