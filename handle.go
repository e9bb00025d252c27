package gc

import "github.com/shadowgc/shadowgc/internal/objheap"

// Handle is a rooted reference to a managed object of type T. A Handle
// is safe to dereference for as long as the Scope it was allocated or
// promoted in (its brand) is still alive; see doc.go.
//
// The zero Handle[T] is not usable; every Handle in circulation was
// returned by [Alloc], [ToLocal], [Result], or Clone.
type Handle[T Tracer] struct {
	slot  **objheap.Header
	scope *Scope
}

// Deref returns a pointer to the referenced object's payload, or
// ErrDeadScope if h's brand has exited.
func (h Handle[T]) Deref() (*T, error) {
	if !h.scope.alive() {
		return nil, ErrDeadScope
	}
	return (*T)((*h.slot).Payload), nil
}

// Clone returns a new Handle aliasing the same object, rooted in the
// same scope as h. It is equivalent to reading through h and promoting
// the result again, but skips the Trace/ToLocal round trip, so it does
// not consume a fresh slot in h.scope: it shares h's.
func (h Handle[T]) Clone() Handle[T] {
	return h
}

// ToHeap demotes h into an opaque heap-stored reference suitable for
// storing inside another managed object's fields. The returned
// HeapRef carries no scope brand and is never invalidated by any
// Scope exiting; it becomes dangling only when nothing reachable from
// a live root traces to it, at which point the collector reclaims the
// object it refers to.
func (h Handle[T]) ToHeap() HeapRef[T] {
	return HeapRef[T]{obj: *h.slot}
}
