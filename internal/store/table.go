package store

// table is a map that remembers insertion order.
// Values are replaced wholesale on update and keep their original position.
type table[T any] struct {
	order []string
	rows  map[string]T
}

func newTable[T any]() *table[T] {
	return &table[T]{rows: map[string]T{}}
}

func (t *table[T]) get(id string) (T, bool) {
	v, ok := t.rows[id]
	return v, ok
}

func (t *table[T]) has(id string) bool {
	_, ok := t.rows[id]
	return ok
}

func (t *table[T]) put(id string, v T) {
	if _, ok := t.rows[id]; !ok {
		t.order = append(t.order, id)
	}
	t.rows[id] = v
}

// find returns the first value in insertion order matching pred.
func (t *table[T]) find(pred func(T) bool) (T, bool) {
	for _, id := range t.order {
		if v := t.rows[id]; pred(v) {
			return v, true
		}
	}
	var zero T
	return zero, false
}

// filter returns the values matching pred, keeping their order. Callers
// copy rows with values under the lock and filter after releasing it.
func filter[T any](values []T, pred func(T) bool) []T {
	out := []T{}
	for _, v := range values {
		if pred(v) {
			out = append(out, v)
		}
	}
	return out
}

// values returns a copy of all values in insertion order.
func (t *table[T]) values() []T {
	out := make([]T, 0, len(t.order))
	for _, id := range t.order {
		out = append(out, t.rows[id])
	}
	return out
}

func (t *table[T]) len() int {
	return len(t.order)
}

// load replaces the contents with values keyed by key.
func (t *table[T]) load(values []T, key func(T) string) {
	t.order = t.order[:0]
	t.rows = make(map[string]T, len(values))
	for _, v := range values {
		t.put(key(v), v)
	}
}
