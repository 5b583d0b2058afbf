package history

// DefaultCapacity is the number of frames kept for rendering.
const DefaultCapacity = 100

// #region ring
// Ring is a fixed-capacity FIFO. Push is O(1); once full, each push
// overwrites the oldest entry. Not safe for concurrent use; the owner
// serializes access.
type Ring[T any] struct {
	buf   []T
	start int // index of the oldest entry
	size  int
}

// NewRing creates a ring holding at most capacity entries.
// A non-positive capacity falls back to DefaultCapacity.
func NewRing[T any](capacity int) *Ring[T] {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Ring[T]{buf: make([]T, capacity)}
}

// Push appends v, evicting the oldest entry when the ring is full.
func (r *Ring[T]) Push(v T) {
	if r.size < len(r.buf) {
		r.buf[(r.start+r.size)%len(r.buf)] = v
		r.size++
		return
	}
	r.buf[r.start] = v
	r.start = (r.start + 1) % len(r.buf)
}

// Len returns the number of stored entries.
func (r *Ring[T]) Len() int { return r.size }

// Cap returns the fixed capacity.
func (r *Ring[T]) Cap() int { return len(r.buf) }

// Last returns the newest entry.
func (r *Ring[T]) Last() (T, bool) {
	var zero T
	if r.size == 0 {
		return zero, false
	}
	return r.buf[(r.start+r.size-1)%len(r.buf)], true
}

// Slice copies the entries out oldest-first. The result never aliases the
// ring's storage, so it can be handed to readers as an immutable view.
func (r *Ring[T]) Slice() []T {
	out := make([]T, r.size)
	n := copy(out, r.buf[r.start:min(r.start+r.size, len(r.buf))])
	copy(out[n:], r.buf[:r.size-n])
	return out
}

// Reset drops all entries without releasing storage.
func (r *Ring[T]) Reset() {
	var zero T
	for i := range r.buf {
		r.buf[i] = zero
	}
	r.start, r.size = 0, 0
}

// #endregion ring
