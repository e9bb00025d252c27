// Package gc implements a precise, single-threaded mark-and-sweep
// tracing garbage collector organized around a V8-style handle-scope
// discipline.
//
// # Why handles
//
// References this package's callers hold are never kept as bare Go
// pointers across a call that might trigger a collection (any call to
// [Alloc] may). Instead every live reference a caller holds is rooted in
// a [Handle], a double indirection (slot in a [Scope]'s block → object on
// the GC heap) that [GC.CollectAll] walks as part of its root set before
// every collection. A bare Go pointer to a managed payload is never
// exposed by this package's public API; the only way to read a payload
// is through Handle.Deref, and the only way to get a Handle is to
// allocate one or promote a [HeapRef] in an active [Scope].
//
// # Rooted vs heap-stored references
//
// A [Handle][T] is safe to dereference for as long as its owning Scope
// is still on the active call stack. A [HeapRef][T] is the form a
// reference takes once it is stored inside another managed object's
// fields: it carries no scope brand and cannot be dereferenced
// directly; [ToLocal] promotes it back into a Handle in some currently
// active Scope.
//
// # Scope brand
//
// Go has no generative invariant lifetimes, so the brand tying a Handle
// to its Scope is a run-time check: a Handle's brand is the *Scope
// pointer it was allocated from, and exiting that scope (by returning
// from the body passed to [Run] or [Nested]) marks the pointer dead.
// Using a Handle, or allocating through a Scope, after the owning Scope
// (or an ancestor) has exited returns [ErrDeadScope] rather than being
// rejected at compile time. See DESIGN.md for why pointer identity is
// used here instead of a separate generation counter.
//
// # Hand-written Trace implementations are unsafe
//
// A type's [Tracer.GCTrace] method must visit every [HeapRef] field
// reachable from its payload, including through inline aggregates,
// exactly once. It must not allocate or enter a Scope, and it must not
// block. A wrong implementation (a missed field, a double visit with
// different targets, a read of unrelated memory) causes undefined
// behavior in the same sense a wrong unsafe.Pointer cast does: the
// symptom is usually a live object collected out from under a live
// Handle. [ReflectTrace] exists as a slower default for callers who
// don't want to hand-write GCTrace; it finds HeapRef values only through
// exported fields.
package gc
