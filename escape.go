package gc

import (
	"fmt"

	"github.com/shadowgc/shadowgc/gcstats"
	"github.com/shadowgc/shadowgc/internal/objheap"
)

// EscapeScope wraps a child scope together with a slot reserved in the
// parent before the child was entered. That ordering, reserve the parent
// slot, then record the child's entry mark, is what lets the slot
// survive TruncateTo(entryMark) when the child exits: it sits below the
// mark, not above it.
type EscapeScope struct {
	child  *Scope
	parent *Scope
	slot   **objheap.Header
	used   bool
}

// Scope returns the child scope body runs in. Allocations inside body
// should go through this, not the parent passed to WithEscape.
func (e *EscapeScope) Scope() *Scope {
	return e.child
}

// WithEscape reserves a slot in parent, enters a child scope beneath it,
// runs body with an EscapeScope wrapping that child, and exits the child
// scope before returning body's result. Exactly one Handle escaped via
// Escape during body survives the child's exit; if Escape was never
// called, the reserved slot stays empty (nil, skipped by mark) until the
// parent scope exits and truncates it away.
func WithEscape[R any](parent *Scope, body func(*EscapeScope) R) R {
	reserved := parent.gc.pool.SlotAddr(parent.gc.pool.PushSlot(nil))
	child := parent.gc.enterScope(parent)
	defer parent.gc.exitScope(child)

	e := &EscapeScope{child: child, parent: parent, slot: reserved}
	return body(e)
}

// Escape copies the object h refers to into e's reserved parent slot.
// May be called at most once per EscapeScope; a second call returns
// ErrDoubleEscape without modifying the slot. Returns ErrDeadScope if h's
// own scope has already exited.
func Escape[T Tracer](e *EscapeScope, h Handle[T]) error {
	if e.used {
		return fmt.Errorf("gc: escape: %w", ErrDoubleEscape)
	}
	if !h.scope.alive() {
		return fmt.Errorf("gc: escape: %w", ErrDeadScope)
	}
	e.used = true
	*e.slot = *h.slot
	e.parent.gc.recordEvent(gcstats.EventEscape, "")
	return nil
}

// Result reports whether Escape was ever called on e, and if so returns
// a Handle branded by the parent scope rooting the escaped object. The
// boolean return models the "absent, not a dangling null" requirement
// for the case where the child scope never escaped anything.
func Result[T Tracer](e *EscapeScope) (Handle[T], bool) {
	if !e.used {
		return Handle[T]{}, false
	}
	return Handle[T]{slot: e.slot, scope: e.parent}, true
}
