package liveops

// Ring keeps the most recent items up to a fixed capacity. Items are listed
// newest first; pushing into a full ring evicts the oldest entry.
type Ring[T any] struct {
	items []T
	next  int
	size  int
}

// NewRing allocates a ring holding at most capacity items.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity < 0 {
		capacity = 0
	}
	return &Ring[T]{items: make([]T, capacity)}
}

// Cap returns the ring capacity.
func (r *Ring[T]) Cap() int { return len(r.items) }

// Len returns the number of retained items.
func (r *Ring[T]) Len() int { return r.size }

// Push prepends an item.
func (r *Ring[T]) Push(item T) {
	capacity := len(r.items)
	if capacity == 0 {
		return
	}
	r.items[r.next] = item
	r.next = (r.next + 1) % capacity
	if r.size < capacity {
		r.size++
	}
}

// Truncate drops the oldest items until at most limit remain.
func (r *Ring[T]) Truncate(limit int) {
	if limit < 0 {
		limit = 0
	}
	if limit >= r.size {
		return
	}
	var zero T
	for i := limit; i < r.size; i++ {
		r.items[r.index(i)] = zero
	}
	r.size = limit
}

// At returns the item at position i, 0 being the newest.
func (r *Ring[T]) At(i int) (T, bool) {
	if i < 0 || i >= r.size {
		var zero T
		return zero, false
	}
	return r.items[r.index(i)], true
}

// Items returns a newest-first copy of the retained items.
func (r *Ring[T]) Items() []T {
	out := make([]T, r.size)
	for i := range r.size {
		out[i] = r.items[r.index(i)]
	}
	return out
}

func (r *Ring[T]) index(i int) int {
	capacity := len(r.items)
	return ((r.next-1-i)%capacity + capacity) % capacity
}
