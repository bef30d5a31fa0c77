package schema

// OrderedMap is a string keyed container that remembers insertion order.
// Positions are dense and zero-based; deleting an entry shifts every later
// entry one position to the left.
type OrderedMap[V any] struct {
	keys  []string
	items map[string]V
	pos   map[string]int
}

// NewOrderedMap creates an empty OrderedMap.
func NewOrderedMap[V any]() *OrderedMap[V] {
	return &OrderedMap[V]{
		items: make(map[string]V),
		pos:   make(map[string]int),
	}
}

// Add appends v under key. It returns false and leaves the map untouched
// when key is already present.
func (m *OrderedMap[V]) Add(key string, v V) bool {
	if _, ok := m.items[key]; ok {
		return false
	}
	m.pos[key] = len(m.keys)
	m.keys = append(m.keys, key)
	m.items[key] = v
	return true
}

// Get returns the value stored under key.
func (m *OrderedMap[V]) Get(key string) (V, bool) {
	v, ok := m.items[key]
	return v, ok
}

// Has reports whether key is present.
func (m *OrderedMap[V]) Has(key string) bool {
	_, ok := m.items[key]
	return ok
}

// Position returns the zero-based position of key, or -1.
func (m *OrderedMap[V]) Position(key string) int {
	if p, ok := m.pos[key]; ok {
		return p
	}
	return -1
}

// At returns the value at position i.
func (m *OrderedMap[V]) At(i int) (V, bool) {
	if i < 0 || i >= len(m.keys) {
		var zero V
		return zero, false
	}
	return m.items[m.keys[i]], true
}

// Delete removes key and reports whether it was present.
func (m *OrderedMap[V]) Delete(key string) bool {
	p, ok := m.pos[key]
	if !ok {
		return false
	}
	m.keys = append(m.keys[:p], m.keys[p+1:]...)
	delete(m.items, key)
	delete(m.pos, key)
	for i := p; i < len(m.keys); i++ {
		m.pos[m.keys[i]] = i
	}
	return true
}

// Rename moves the value stored under oldKey to newKey without changing its
// position. It returns false and leaves the map untouched when oldKey is
// missing or newKey is already taken.
func (m *OrderedMap[V]) Rename(oldKey, newKey string) bool {
	p, ok := m.pos[oldKey]
	if !ok {
		return false
	}
	if oldKey == newKey {
		return true
	}
	if _, taken := m.items[newKey]; taken {
		return false
	}
	m.items[newKey] = m.items[oldKey]
	delete(m.items, oldKey)
	delete(m.pos, oldKey)
	m.pos[newKey] = p
	m.keys[p] = newKey
	return true
}

// Len returns the number of entries.
func (m *OrderedMap[V]) Len() int {
	return len(m.keys)
}

// Keys returns the keys in position order.
func (m *OrderedMap[V]) Keys() []string {
	out := make([]string, len(m.keys))
	copy(out, m.keys)
	return out
}

// Values returns the values in position order.
func (m *OrderedMap[V]) Values() []V {
	out := make([]V, 0, len(m.keys))
	for _, k := range m.keys {
		out = append(out, m.items[k])
	}
	return out
}
