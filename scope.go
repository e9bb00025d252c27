package gc

import (
	"fmt"

	"github.com/shadowgc/shadowgc/gcstats"
)

// Scope is a nested region of the handle block pool: it records the
// high-water mark at entry and restores it at exit. Grounded on
// original_source/src/handle.rs's HandleScope and
// other_examples/g-dx-clara__gc.go's OpenScope/CloseScope (which records
// len(roots) on open and slices back to it on close, the same
// truncate-to-entry-mark shape, minus the block-pool indirection).
//
// A Scope's brand is its own pointer identity: Handles allocated through
// it store *Scope, and two distinct Scopes are never pointer-equal, even
// when one textually encloses the other. Exit sets dead, which
// invalidates every Handle and HeapRef promotion branded by this Scope
// from that point on.
type Scope struct {
	gc        *GC
	parent    *Scope
	entryMark int
	dead      bool
}

// Nested enters a child scope, invokes body with it, and exits the child
// scope unconditionally (via defer, so it exits even if body panics),
// returning body's result.
//
// This is a free function, not a method on Scope, because Go does not
// allow a method to introduce a type parameter the receiver's type
// doesn't already have: the same reason [Alloc] and [ToLocal] are free
// functions rather than methods.
func Nested[R any](s *Scope, body func(*Scope) R) R {
	child := s.gc.enterScope(s)
	defer s.gc.exitScope(child)
	return body(child)
}

// requireTop returns ErrDeadScope if s has exited, or ErrNotTopScope if
// s is alive but is not currently the top-most active scope: only the
// top-most active scope may perform handle allocations.
func (s *Scope) requireTop() error {
	if s.dead {
		return fmt.Errorf("gc: scope: %w", ErrDeadScope)
	}
	if s.gc.closed {
		return fmt.Errorf("gc: scope: %w", ErrGCClosed)
	}
	if s.gc.top != s {
		return fmt.Errorf("gc: scope: %w", ErrNotTopScope)
	}
	return nil
}

// alive reports whether s has not exited. Unlike requireTop, this does
// not require s to be the top-most scope: reading through a Handle
// rooted in an enclosing, still-active scope while a nested scope is
// running is legal; only allocating through a non-top-most scope is not.
func (s *Scope) alive() bool {
	return !s.dead && !s.gc.closed
}

// enterScope and exitScope are GC methods (not Scope methods) because
// they mutate GC.top and the GC's block pool cursor, bookkeeping that
// belongs to the collector instance, not to any one scope.
func (g *GC) enterScope(parent *Scope) *Scope {
	s := &Scope{
		gc:        g,
		parent:    parent,
		entryMark: g.pool.Next(),
	}
	g.top = s
	g.recordEvent(gcstats.EventScopeEnter, "")
	return s
}

func (g *GC) exitScope(s *Scope) {
	if s.dead {
		return
	}
	s.dead = true
	g.pool.TruncateTo(s.entryMark)
	g.top = s.parent
	g.recordEvent(gcstats.EventScopeExit, "")
}
