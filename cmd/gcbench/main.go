// Command gcbench drives an allocation storm against a configurable GC
// instance and prints its verbose event stream and final stats.
//
// Usage:
//
//	gcbench -n 100000 -block-capacity 64 -verbose
//
// This is a demo binary, not a test runner: it exists to make the
// collector's behavior observable from a terminal, the same role
// cmd/racedetector plays for its own library.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	gc "github.com/shadowgc/shadowgc"
	"github.com/shadowgc/shadowgc/gcconfig"
	"github.com/shadowgc/shadowgc/gcstats"
)

type node struct {
	value int
	next  gc.HeapRef[node]
}

func (n node) GCTrace(v *gc.Visitor) {
	gc.Visit(v, n.next)
}

func main() {
	var (
		n             = flag.Int("n", 10000, "number of allocations to perform")
		blockCapacity = flag.Int("block-capacity", 0, "slots per handle block (0 = page-sized default)")
		verbose       = flag.Bool("verbose", false, "log every allocation, mark, sweep, and scope event")
		collectEvery  = flag.Bool("collect-every-alloc", true, "run a full collection before every allocation")
	)
	flag.Parse()

	cfg := gcconfig.Default()
	if *blockCapacity > 0 {
		cfg.BlockCapacity = *blockCapacity
	}
	cfg.CollectEveryAlloc = *collectEvery
	cfg.Verbose = *verbose

	out := colorable.NewColorable(os.Stdout)
	color := isatty.IsTerminal(os.Stdout.Fd())

	g := gc.New(cfg)
	if *verbose {
		g.SetRecorder(gcstats.WriterRecorder{W: out})
	}

	gc.Run(g, func(s *gc.Scope) struct{} {
		var tail gc.HeapRef[node]
		for i := 0; i < *n; i++ {
			h, err := gc.Alloc(s, node{value: i, next: tail})
			if err != nil {
				fmt.Fprintf(out, "gcbench: alloc %d: %v\n", i, err)
				os.Exit(1)
			}
			tail = h.ToHeap()
		}
		return struct{}{}
	})

	stats := g.Stats()
	if color {
		fmt.Fprintf(out, "\033[1;32m%s\033[0m\n", stats.String())
	} else {
		fmt.Fprintln(out, stats.String())
	}

	freed := g.Close()
	fmt.Fprintf(out, "gcbench: closed, %d object(s) swept on shutdown\n", freed)
}
