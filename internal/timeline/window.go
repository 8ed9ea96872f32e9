package timeline

// Window is a bounded FIFO of the most recent items. Pushing into a full
// window evicts the oldest entry.
type Window[T any] struct {
	capacity int
	items    []T
}

// NewWindow creates an empty window holding at most capacity items.
func NewWindow[T any](capacity int) *Window[T] {
	return &Window[T]{capacity: capacity, items: make([]T, 0, capacity)}
}

// Push appends item, evicting from the front until it fits.
func (w *Window[T]) Push(item T) {
	if w.capacity <= 0 {
		return
	}
	for len(w.items) >= w.capacity {
		w.items = w.items[1:]
	}
	w.items = append(w.items, item)
}

// ContainsFunc reports whether any item satisfies match.
func (w *Window[T]) ContainsFunc(match func(T) bool) bool {
	for _, it := range w.items {
		if match(it) {
			return true
		}
	}
	return false
}

func (w *Window[T]) Len() int { return len(w.items) }

func (w *Window[T]) Cap() int { return w.capacity }

// Items returns a copy of the contents, oldest first.
func (w *Window[T]) Items() []T {
	out := make([]T, len(w.items))
	copy(out, w.items)
	return out
}

func (w *Window[T]) clone() *Window[T] {
	c := NewWindow[T](w.capacity)
	c.items = append(c.items, w.items...)
	return c
}
