package world

import "fmt"

// ID is a generation-checked handle into an Arena of T. The zero ID never
// resolves. Recycling a slot bumps its generation so handles to the removed
// value resolve to not-found instead of aliasing the new one.
type ID[T any] struct {
	index uint32
	gen   uint32
}

// IsZero reports whether the handle was never assigned.
func (id ID[T]) IsZero() bool { return id.gen == 0 }

func (id ID[T]) String() string {
	if id.IsZero() {
		return "#none"
	}
	return fmt.Sprintf("#%d.%d", id.index, id.gen)
}

type slot[T any] struct {
	val  T
	gen  uint32 // current generation, bumped on removal
	live bool
}

// Arena is flat storage addressed by ID. It is not synchronized; the owning
// World guards it.
type Arena[T any] struct {
	slots []slot[T]
	free  []uint32
	count int
}

// Insert stores v and returns its handle.
func (a *Arena[T]) Insert(v T) ID[T] {
	var idx uint32
	if n := len(a.free); n > 0 {
		idx = a.free[n-1]
		a.free = a.free[:n-1]
	} else {
		idx = uint32(len(a.slots))
		a.slots = append(a.slots, slot[T]{})
	}
	s := &a.slots[idx]
	s.gen++
	s.live = true
	s.val = v
	a.count++
	return ID[T]{index: idx, gen: s.gen}
}

// Get resolves a handle. The pointer is valid until the next Insert.
func (a *Arena[T]) Get(id ID[T]) (*T, bool) {
	if id.IsZero() || int(id.index) >= len(a.slots) {
		return nil, false
	}
	s := &a.slots[id.index]
	if !s.live || s.gen != id.gen {
		return nil, false
	}
	return &s.val, true
}

// Contains reports whether id still resolves.
func (a *Arena[T]) Contains(id ID[T]) bool {
	_, ok := a.Get(id)
	return ok
}

// Remove drops the value behind id. Removing a stale handle is a no-op and
// returns false.
func (a *Arena[T]) Remove(id ID[T]) bool {
	if !a.Contains(id) {
		return false
	}
	s := &a.slots[id.index]
	var zero T
	s.val = zero
	s.live = false
	a.free = append(a.free, id.index)
	a.count--
	return true
}

// Len returns the number of live values.
func (a *Arena[T]) Len() int { return a.count }

// Each visits live values in slot order until fn returns false.
func (a *Arena[T]) Each(fn func(ID[T], *T) bool) {
	for i := range a.slots {
		s := &a.slots[i]
		if !s.live {
			continue
		}
		if !fn(ID[T]{index: uint32(i), gen: s.gen}, &s.val) {
			return
		}
	}
}
