package gc

import "github.com/shadowgc/shadowgc/internal/objheap"

// Tracer is the contract every managed object type must fulfill: given a
// Visitor, visit each heap-stored reference field reachable from the
// receiver, including through inline aggregates, exactly once.
// Implementations must be total, pure, and must not allocate, enter a
// Scope, or block; see doc.go for why a wrong implementation is unsafe
// in the same sense an unsafe.Pointer misuse is.
//
// GCTrace must be declared on the value type, not a pointer to it: Alloc
// and the rest of this package are generic over T Tracer, and a type
// whose GCTrace has a pointer receiver does not itself satisfy Tracer.
type Tracer interface {
	GCTrace(v *Visitor)
}

// Visitor is passed to Tracer.GCTrace. It carries no exported state: its
// only purpose is to be threaded through to [Visit] calls, the same way
// original_source/src/gc.rs's trace routines thread a GcCell::trace call
// through every field without the field needing to know about the mark
// phase's bookkeeping.
type Visitor struct {
	visit func(*objheap.Header)
}

// Visit marks and, if this is the first time it has been reached this
// mark phase, traces the object ref points to. Safe to call on a nil or
// already-visited HeapRef; both are no-ops.
//
// This is a free function, not a method on Visitor or HeapRef, because
// Go methods cannot introduce new type parameters: crossing from a typed
// HeapRef[T] to the type-erased internal/objheap.Header that actually
// does the marking needs T once, right here.
func Visit[T Tracer](v *Visitor, ref HeapRef[T]) {
	if ref.obj == nil {
		return
	}
	v.visit(ref.obj)
}

// HeapRef is an opaque reference storable inside a managed object's
// fields. It carries no scope brand and has no method that yields a
// borrow of its payload; the only way to read through it is to promote
// it into a Handle via ToLocal in some currently active Scope.
type HeapRef[T Tracer] struct {
	obj *objheap.Header
}

// IsNil reports whether this reference points at nothing. A HeapRef
// field in a managed object that was never assigned is the zero
// HeapRef[T], which is always nil; Visit and ToLocal both treat a nil
// HeapRef as a no-op.
func (r HeapRef[T]) IsNil() bool { return r.obj == nil }

// ToLocal promotes a heap-stored reference into a Handle rooted in s:
// push a fresh slot in s, write the referenced object into it, and brand
// the result with s. Returns ErrDeadScope if s is not alive, or
// ErrNotTopScope if s is alive but not the top-most active scope
// (promoting a handle is an allocation in s's block, so it is subject to
// the same top-most-scope restriction as Alloc).
func ToLocal[T Tracer](ref HeapRef[T], s *Scope) (Handle[T], error) {
	if err := s.requireTop(); err != nil {
		return Handle[T]{}, err
	}
	slotAddr := s.gc.pool.SlotAddr(s.gc.pool.PushSlot(ref.obj))
	return Handle[T]{slot: slotAddr, scope: s}, nil
}
