// The conf-package is the parsing collaborator of the policy engine: it turns
// TOML, YAML, JSON or JSONC bytes into a generic, order-preserving tree of
// maps, lists and strings. The engine itself only ever sees this tree.
package conf

// Value is one node of a parsed configuration tree: a string scalar, a
// []Value sequence or an ordered *Map.
type Value any

// Map is a string-keyed mapping that remembers insertion order. Declaration
// order of rules in the source document survives parsing through it.
type Map struct {
	keys   []string
	values map[string]Value
}

func NewMap() *Map {
	return &Map{values: map[string]Value{}}
}

// Set stores v under key, appending key to the order on first insertion.
func (m *Map) Set(key string, v Value) {
	if _, ok := m.values[key]; !ok {
		m.keys = append(m.keys, key)
	}
	m.values[key] = v
}

func (m *Map) Get(key string) (Value, bool) {
	v, ok := m.values[key]
	return v, ok
}

// Keys returns all keys in insertion order.
func (m *Map) Keys() []string {
	keys := make([]string, len(m.keys))
	copy(keys, m.keys)
	return keys
}

func (m *Map) Len() int {
	return len(m.keys)
}
