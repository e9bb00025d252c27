// Package objheap implements the managed-object header and the
// all-allocations chain walked during sweep.
//
// This is the Go-shaped equivalent of gc_blocks.go's objHeader and of
// original_source/src/alloc.rs's GcHeader/GcCell: every object placed on
// the GC heap gets one Header, holding a type-erased trace routine, an
// optional finalizer, a mark bit, and a link to the previously-allocated
// object. Unlike gc_blocks.go this package never performs raw memory
// placement itself: the payload is an ordinary Go allocation, because a
// user type's fields may themselves be ordinary Go pointers (strings,
// slices, other headers) that the host runtime's own collector must keep
// scanning; see the root package's doc comment for why.
package objheap

import "unsafe"

// Header is the metadata record prepended, conceptually, to every
// GC-managed object. The payload itself lives at the Go address stored in
// Payload; Header never interprets that address beyond passing it to the
// trace/finalize closures bound at construction time.
type Header struct {
	// Next links to the next-older object still in the chain (after a
	// sweep, the next-older survivor), forming the all-allocations chain
	// swept from the head.
	Next *Header

	trace    func(payload unsafe.Pointer, visit func(*Header))
	finalize func(payload unsafe.Pointer)

	// Payload is the address of the managed value. Opaque outside this
	// package and the gc package that constructed it.
	Payload unsafe.Pointer

	// Size is the size in bytes of the managed value, as reported by
	// unsafe.Sizeof at construction time. Used for heap-growth accounting
	// (gcconfig.Config.MinHeapGrowthBytes) and for gcstats.Snapshot's
	// byte counters; never consulted by mark or sweep themselves.
	Size int

	marked bool
}

// New places value on the Go heap and returns a Header describing it.
// trace and finalize are bound to the concrete type T by the caller (the
// gc package, which knows T); finalize may be nil if T has no
// user-defined finalizer.
func New[T any](value T, trace func(*T, func(*Header)), finalize func(*T)) *Header {
	payload := new(T)
	*payload = value

	h := &Header{
		Payload: unsafe.Pointer(payload),
		Size:    int(unsafe.Sizeof(value)),
	}
	h.trace = func(p unsafe.Pointer, visit func(*Header)) {
		trace((*T)(p), visit)
	}
	if finalize != nil {
		h.finalize = func(p unsafe.Pointer) {
			finalize((*T)(p))
		}
	}
	return h
}

// Marked reports whether this header's mark bit is currently set.
func (h *Header) Marked() bool { return h.marked }

// Mark sets the mark bit. Returns true if the bit was already set (the
// caller should not re-trace in that case; this is what makes marking a
// cyclic object graph safe).
func (h *Header) Mark() (alreadyMarked bool) {
	alreadyMarked = h.marked
	h.marked = true
	return alreadyMarked
}

// Unmark clears the mark bit. Mark and sweep do not call it: Chain.Sweep
// clears each survivor's bit itself, so every mark phase starts with all
// bits clear.
func (h *Header) Unmark() { h.marked = false }

// Trace invokes the bound trace routine, passing visit to be called once
// per heap-stored reference reachable from this object's payload.
func (h *Header) Trace(visit func(*Header)) {
	if h.trace != nil {
		h.trace(h.Payload, visit)
	}
}

// Finalize runs the bound finalizer exactly once, if one was bound. It is
// the caller's responsibility (objheap.Chain.Sweep) to ensure this is
// never called twice for the same Header.
func (h *Header) Finalize() {
	if h.finalize != nil {
		h.finalize(h.Payload)
	}
}

// Chain is the singly linked list of every object allocated by one GC
// instance that has survived every sweep so far, threaded through
// Header.Next in reverse allocation order (most recent first), the same
// shape as original_source/src/alloc.rs's Allocator.head and
// gc_blocks.go's scanList, adapted to a non-relocating Go heap.
type Chain struct {
	head *Header
}

// Push links h at the head of the chain.
func (c *Chain) Push(h *Header) {
	h.Next = c.head
	c.head = h
}

// Head returns the most recently pushed object, or nil if the chain is
// empty. Exposed for tests that want to walk the chain directly.
func (c *Chain) Head() *Header { return c.head }

// Sweep unmarks every live object as it is found, unlinks and finalizes
// every unmarked object, and returns the number of objects it freed and
// the sum of their Size. Mirrors original_source/src/gc.rs's Gc::sweep
// exactly, including the "update prev pointers of survivors while
// walking" trick (comment there renders it as maintaining `prev`; here
// Header.Next plays that role).
func (c *Chain) Sweep() (freed int, freedBytes int64) {
	var newHead *Header
	var lastLive *Header

	current := c.head
	for current != nil {
		next := current.Next
		if current.marked {
			current.marked = false
			if lastLive == nil {
				newHead = current
			} else {
				lastLive.Next = current
			}
			lastLive = current
		} else {
			// Unlink before finalizing, so the finalizer never runs on an
			// object the chain still reaches.
			if lastLive == nil {
				c.head = next
			} else {
				lastLive.Next = next
			}
			current.Next = nil
			current.Finalize()
			freed++
			freedBytes += int64(current.Size)
		}
		current = next
	}
	if lastLive != nil {
		lastLive.Next = nil
	}
	c.head = newHead
	return freed, freedBytes
}

// MarkAndTrace marks h live and, if it was not already marked, traces
// it, recursing into MarkAndTrace for every heap-stored reference the
// trace routine reports. The already-marked check makes this safe on
// cyclic graphs: the recursion bottoms out the moment it revisits any
// object already on the current mark phase's frontier.
//
// This is deliberately free of type parameters: by the time a Header
// exists its trace closure is already bound to a concrete T (see New),
// so walking the object graph never needs to know T again. The gc
// package's Visit[T] exists only to cross that type-erasure boundary
// once, from a typed HeapRef[T] into this function.
func MarkAndTrace(h *Header) {
	if h == nil {
		return
	}
	if h.Mark() {
		return
	}
	h.Trace(MarkAndTrace)
}

// SweepAll finalizes every object unconditionally, regardless of mark
// state, and empties the chain. Used by GC.Close, the Go-shaped
// counterpart of original_source/src/gc.rs's impl Drop for Gc.
func (c *Chain) SweepAll() (freed int, freedBytes int64) {
	current := c.head
	for current != nil {
		next := current.Next
		c.head = next
		current.Next = nil
		current.Finalize()
		freed++
		freedBytes += int64(current.Size)
		current = next
	}
	c.head = nil
	return freed, freedBytes
}
