// Package gcstats provides optional verbose instrumentation and
// point-in-time statistics: an opt-in recorder that logs every
// allocation, mark, sweep, and scope entry/exit, plus a lifetime-counter
// snapshot.
//
// Grounded on runtime/debug/garbage.go's GCStats and
// runtime/metrics/metrics.go's Sample/Read, both stub packages in the
// retrieval slice mirroring the real stdlib runtime/debug and
// runtime/metrics surface; this package gives that same shape real
// content for a second-level collector instead of leaving it unplumbed.
package gcstats

import (
	"fmt"
	"io"
	"time"

	"github.com/inhies/go-bytesize"
)

// Event is the kind of occurrence a Recorder is told about.
type Event int

const (
	EventAlloc Event = iota
	EventScopeEnter
	EventScopeExit
	EventMarkStart
	EventMarkObject
	EventSweepStart
	EventSweepFreed
	EventEscape
)

func (e Event) String() string {
	switch e {
	case EventAlloc:
		return "alloc"
	case EventScopeEnter:
		return "scope-enter"
	case EventScopeExit:
		return "scope-exit"
	case EventMarkStart:
		return "mark-start"
	case EventMarkObject:
		return "mark-object"
	case EventSweepStart:
		return "sweep-start"
	case EventSweepFreed:
		return "sweep-freed"
	case EventEscape:
		return "escape"
	default:
		return "event"
	}
}

// Recorder receives one call per instrumented occurrence. detail is a
// short, human-readable description (e.g. an address or a count); it is
// intentionally untyped so the collector never has to allocate to report
// an event during a mark/sweep pass it is itself in the middle of.
type Recorder interface {
	Record(evt Event, detail string)
}

// WriterRecorder is the default Recorder installed by GC.New when
// Config.Verbose is true and no recorder was set explicitly. It writes
// one line per event to w (io.Discard drops everything, the zero value).
type WriterRecorder struct {
	W io.Writer
}

func (r WriterRecorder) Record(evt Event, detail string) {
	w := r.W
	if w == nil {
		w = io.Discard
	}
	if detail == "" {
		fmt.Fprintf(w, "[gc] %s\n", evt)
		return
	}
	fmt.Fprintf(w, "[gc] %s: %s\n", evt, detail)
}

// Snapshot is a point-in-time view of one GC instance's lifetime
// counters, the shape of runtime/debug.GCStats given real fields.
type Snapshot struct {
	LastGC          time.Time
	NumGC           int64
	ObjectsLive     int64
	ObjectsFreed    int64
	LiveBytes       int64
	TotalAllocBytes int64
}

// String formats LiveBytes/TotalAllocBytes with go-bytesize, the same
// human-readable-size convention used by tools that report heap usage.
func (s Snapshot) String() string {
	live := bytesize.New(float64(s.LiveBytes))
	total := bytesize.New(float64(s.TotalAllocBytes))
	return fmt.Sprintf(
		"gc #%d at %s: %d live object(s) (%s), %d freed, %s allocated total",
		s.NumGC, s.LastGC.Format(time.RFC3339), s.ObjectsLive, live, s.ObjectsFreed, total,
	)
}
