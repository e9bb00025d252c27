package gc

import (
	"fmt"
	"time"

	"github.com/shadowgc/shadowgc/gcconfig"
	"github.com/shadowgc/shadowgc/gcstats"
	"github.com/shadowgc/shadowgc/internal/objheap"
	"github.com/shadowgc/shadowgc/internal/slots"
)

// GC is one collector instance: an object heap, a handle block pool, and
// the currently active scope stack. A GC is not safe for concurrent use:
// there is no internal synchronization, the same single-threaded
// cooperative model original_source/src/gc.rs assumes throughout.
type GC struct {
	cfg gcconfig.Config

	pool  *slots.Pool
	chain objheap.Chain

	top    *Scope
	closed bool

	liveObjects int
	allocsSince int
	bytesSince  int64

	recorder gcstats.Recorder
	stats    gcstats.Snapshot
}

// New constructs a GC from cfg. A zero Config is normalized to
// gcconfig.Default(); callers who want a specific block capacity or
// budget should start from gcconfig.Default() themselves and override
// fields, since New does not distinguish an explicitly-zeroed field from
// one the caller never set.
func New(cfg gcconfig.Config) *GC {
	if cfg == (gcconfig.Config{}) {
		cfg = gcconfig.Default()
	}
	cfg = cfg.Normalize()

	g := &GC{
		cfg:  cfg,
		pool: slots.New(cfg.BlockCapacity),
	}
	if cfg.Verbose {
		g.recorder = gcstats.WriterRecorder{}
	}
	return g
}

// SetRecorder installs r as the instrumentation sink for every
// subsequent event this GC reports. Passing nil disables instrumentation
// even if Config.Verbose is true.
func (g *GC) SetRecorder(r gcstats.Recorder) {
	g.recorder = r
}

// Stats returns a snapshot of this GC's lifetime counters. NumGC, LastGC,
// ObjectsLive and ObjectsFreed are updated by each collection; LiveBytes
// and TotalAllocBytes also change on every Alloc, and LiveBytes on Close.
func (g *GC) Stats() gcstats.Snapshot {
	return g.stats
}

// Run opens the outermost scope, runs body in it, and exits it before
// returning body's result. This is the only way to obtain a *Scope for a
// freshly constructed GC: every other Scope is reached by nesting
// beneath this one via Nested.
func Run[R any](g *GC, body func(*Scope) R) R {
	root := g.enterScope(nil)
	defer g.exitScope(root)
	return body(root)
}

// Close sweeps every object still in this GC's all-allocations chain,
// live or not, running each one's finalizer exactly once, returns how
// many it swept, and marks the GC closed: from then on Alloc and ToLocal
// return ErrGCClosed, while Handle.Deref and Escape report ErrDeadScope.
// A second Close returns 0. This is the Go-shaped counterpart of
// original_source/src/gc.rs's impl Drop for Gc, made explicit because Go
// has no destructors a caller can rely on running at a predictable time.
func (g *GC) Close() int {
	if g.closed {
		return 0
	}
	g.closed = true
	freed, freedBytes := g.chain.SweepAll()
	g.liveObjects = 0
	g.stats.LiveBytes -= freedBytes
	g.recordEvent(gcstats.EventSweepFreed, fmt.Sprintf("%d (close)", freed))
	return freed
}

// Alloc places value on the GC heap, roots it with a fresh slot in s,
// and returns the resulting Handle. A collection runs first, per
// Config.CollectEveryAlloc or the threshold policy, exactly as every
// other allocation path does.
//
// This is a free function, not a method on Scope, for the same reason
// ToLocal and Nested are: Go does not allow a method to carry a type
// parameter its receiver's type doesn't already have.
func Alloc[T Tracer](s *Scope, value T) (Handle[T], error) {
	if err := s.requireTop(); err != nil {
		return Handle[T]{}, err
	}
	g := s.gc

	g.maybeCollect()

	if g.cfg.MaxLiveObjects > 0 && g.liveObjects+1 > g.cfg.MaxLiveObjects {
		return Handle[T]{}, fmt.Errorf("gc: alloc: %w", ErrOutOfMemory)
	}
	if g.cfg.MaxSlots > 0 && g.pool.Next()+1 > g.cfg.MaxSlots {
		return Handle[T]{}, fmt.Errorf("gc: alloc: %w", ErrOutOfMemory)
	}

	var finalize func(*T)
	if _, ok := Tracer(value).(Finalizer); ok {
		finalize = func(p *T) {
			if f, ok := Tracer(*p).(Finalizer); ok {
				f.GCFinalize()
			}
		}
	}

	h := objheap.New(value,
		func(p *T, visit func(*objheap.Header)) {
			(*p).GCTrace(&Visitor{visit: visit})
		},
		finalize,
	)
	g.chain.Push(h)
	g.liveObjects++
	g.allocsSince++
	g.bytesSince += int64(h.Size)
	g.stats.LiveBytes += int64(h.Size)
	g.stats.TotalAllocBytes += int64(h.Size)

	slot := g.pool.SlotAddr(g.pool.PushSlot(h))
	g.recordEvent(gcstats.EventAlloc, fmt.Sprintf("%T (%d bytes)", value, h.Size))
	return Handle[T]{slot: slot, scope: s}, nil
}

// CollectAll runs one mark-sweep pass unconditionally, regardless of
// Config's collection policy. Mark walks internal/slots positions
// [0, Next()); sweep walks the all-allocations chain. Never returns a
// non-nil error today (collection performs no allocation of its own),
// but returns error to leave room for a future incremental mode without
// a breaking signature change.
func (g *GC) CollectAll() error {
	g.collect()
	return nil
}

// maybeCollect runs a collection if Config.CollectEveryAlloc is set, or
// if the threshold policy (MinAllocsBetweenCollections,
// MinHeapGrowthBytes) has been crossed since the previous collection.
func (g *GC) maybeCollect() {
	if g.cfg.CollectEveryAlloc {
		g.collect()
		return
	}
	if g.cfg.MinAllocsBetweenCollections > 0 && g.allocsSince >= g.cfg.MinAllocsBetweenCollections {
		g.collect()
		return
	}
	if g.cfg.MinHeapGrowthBytes > 0 && g.bytesSince >= g.cfg.MinHeapGrowthBytes {
		g.collect()
	}
}

func (g *GC) collect() {
	g.recordEvent(gcstats.EventMarkStart, "")
	g.pool.ForEachLive(func(h *objheap.Header) {
		g.recordEvent(gcstats.EventMarkObject, "")
		objheap.MarkAndTrace(h)
	})

	g.recordEvent(gcstats.EventSweepStart, "")
	freed, freedBytes := g.chain.Sweep()
	g.liveObjects -= freed

	g.allocsSince = 0
	g.bytesSince = 0
	g.stats.NumGC++
	g.stats.LastGC = time.Now()
	g.stats.ObjectsFreed += int64(freed)
	g.stats.ObjectsLive = int64(g.liveObjects)
	g.stats.LiveBytes -= freedBytes
	g.recordEvent(gcstats.EventSweepFreed, fmt.Sprintf("%d (%d bytes)", freed, freedBytes))
}

func (g *GC) recordEvent(evt gcstats.Event, detail string) {
	if g.recorder != nil {
		g.recorder.Record(evt, detail)
	}
}
