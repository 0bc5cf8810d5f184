package store

// table keeps rows by key and remembers the order they were first inserted in.
type table[K comparable, V any] struct {
	rows  map[K]*V
	order []K
}

func newTable[K comparable, V any]() table[K, V] {
	return table[K, V]{rows: make(map[K]*V)}
}

func (t *table[K, V]) get(k K) (*V, bool) {
	v, ok := t.rows[k]
	return v, ok
}

// put stores v under k. Replacing an existing key keeps its position.
func (t *table[K, V]) put(k K, v V) {
	if _, ok := t.rows[k]; !ok {
		t.order = append(t.order, k)
	}
	t.rows[k] = &v
}

func (t *table[K, V]) remove(k K) {
	if _, ok := t.rows[k]; !ok {
		return
	}
	delete(t.rows, k)
	for i, key := range t.order {
		if key == k {
			t.order = append(t.order[:i], t.order[i+1:]...)
			break
		}
	}
}

func (t *table[K, V]) len() int {
	return len(t.order)
}

// each calls fn for every row in insertion order until fn returns false.
func (t *table[K, V]) each(fn func(*V) bool) {
	for _, k := range t.order {
		if !fn(t.rows[k]) {
			return
		}
	}
}

// values returns copies of all rows in insertion order.
func (t *table[K, V]) values() []V {
	out := make([]V, 0, len(t.order))
	for _, k := range t.order {
		out = append(out, *t.rows[k])
	}
	return out
}
