package gc

import "errors"

// Sentinel errors returned by this package's operations. A broken
// GCTrace implementation is undefined behavior, not a reportable
// condition, so it has no sentinel here; see doc.go.
var (
	// ErrOutOfMemory is returned by Alloc when a configured
	// gcconfig.Config.MaxLiveObjects or MaxSlots budget would be
	// exceeded after Alloc's collection step (which, under the threshold
	// policy, runs a collection only once a threshold is crossed).
	ErrOutOfMemory = errors.New("gc: out of memory")

	// ErrDeadScope is returned by any operation performed on, or
	// through a Handle rooted in, a Scope that has already exited.
	ErrDeadScope = errors.New("gc: scope is no longer active")

	// ErrNotTopScope is returned by Alloc when called on a Scope that
	// is alive but not the top-most active scope.
	ErrNotTopScope = errors.New("gc: scope is not the top-most active scope")

	// ErrDoubleEscape is returned by Escape when called more than once
	// on the same EscapeScope.
	ErrDoubleEscape = errors.New("gc: escape slot already used")

	// ErrGCClosed is returned by Alloc and ToLocal once GC.Close has
	// run.
	ErrGCClosed = errors.New("gc: instance is closed")
)
