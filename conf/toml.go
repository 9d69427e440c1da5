package conf

import (
	"fmt"
	"sort"

	toml "github.com/pelletier/go-toml"
)

func parseTOML(data []byte) (*Map, error) {
	tree, err := toml.LoadBytes(data)
	if err != nil {
		return nil, err
	}
	return fromTree(tree), nil
}

// fromTree converts a TOML tree into an ordered Map. The go-toml v1 tree
// keeps per-key source positions, which restore declaration order the same
// way a round-tripping TOML parser would.
func fromTree(tree *toml.Tree) *Map {
	keys := tree.Keys()
	sort.Slice(keys, func(i, j int) bool {
		pi := tree.GetPositionPath([]string{keys[i]})
		pj := tree.GetPositionPath([]string{keys[j]})
		if pi.Line != pj.Line {
			return pi.Line < pj.Line
		}
		return pi.Col < pj.Col
	})
	m := NewMap()
	for _, key := range keys {
		m.Set(key, fromTOMLValue(tree.GetPath([]string{key})))
	}
	return m
}

func fromTOMLValue(v any) Value {
	switch v := v.(type) {
	case *toml.Tree:
		return fromTree(v)
	case []*toml.Tree:
		out := make([]Value, 0, len(v))
		for _, tree := range v {
			out = append(out, fromTree(tree))
		}
		return out
	case []any:
		out := make([]Value, 0, len(v))
		for _, e := range v {
			out = append(out, fromTOMLValue(e))
		}
		return out
	case string:
		return v
	default:
		// non-string scalars only ever appear under ignored keys
		return fmt.Sprint(v)
	}
}
