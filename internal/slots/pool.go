// Package slots implements the handle block pool: the shadow stack that
// the collector walks as its root set.
//
// Grounded on gc_blocks.go's block abstraction (fixed-capacity blocks,
// chained in insertion order, never freed or resized while live) and on
// original_source/src/handle.rs's HandleScopeData (next/limit bump
// allocation inside the current block, grow by appending a new block
// when exhausted). Unlike handle.rs, blocks are never returned to the
// pool when a scope exits: a slot's address must stay valid across every
// later allocation and collection for as long as the pool exists, which
// rules out handle.rs's free_unused_blocks behavior.
package slots

import "github.com/shadowgc/shadowgc/internal/objheap"

// block is a fixed-capacity, append-only array of slot cells. Once
// created its cells slice is never regrown, so an address taken into it
// stays valid for the block's entire lifetime.
type block struct {
	cells []*objheap.Header
}

// Pool is the append-only chain of handle blocks plus the logical cursor
// into their concatenation.
type Pool struct {
	blocks   []*block
	capacity int
	next     int
}

// New creates an empty pool whose blocks each hold capacity slots.
// capacity must be > 0; the test harness is expected to exercise very
// small values (1-4) to drive the block-growth path.
func New(capacity int) *Pool {
	if capacity <= 0 {
		capacity = 1
	}
	return &Pool{capacity: capacity}
}

// Capacity returns the per-block slot capacity this pool was created with.
func (p *Pool) Capacity() int { return p.capacity }

// Next returns the logical index of the next free slot: the high-water
// mark a Scope records on entry and restores on exit.
func (p *Pool) Next() int { return p.next }

// locate converts a logical slot index into a (block, offset) pair,
// allocating blocks up to and including the one that contains it if
// necessary.
func (p *Pool) locate(i int) (blockIndex, offset int) {
	blockIndex = i / p.capacity
	offset = i % p.capacity
	for blockIndex >= len(p.blocks) {
		p.blocks = append(p.blocks, &block{cells: make([]*objheap.Header, p.capacity)})
	}
	return blockIndex, offset
}

// PushSlot appends obj at the current cursor, growing the block chain if
// the current block is full, and returns the slot's logical index. The
// cursor is advanced by one. Amortized O(1).
func (p *Pool) PushSlot(obj *objheap.Header) int {
	i := p.next
	blockIndex, offset := p.locate(i)
	p.blocks[blockIndex].cells[offset] = obj
	p.next++
	return i
}

// TruncateTo sets the cursor back to n. Slots at positions >= n become
// logically absent; their contents are not inspected by future mark
// phases, but are intentionally left as-is rather than zeroed: a
// subsequent PushSlot will overwrite them, and nothing reads a slot above
// the cursor.
func (p *Pool) TruncateTo(n int) {
	p.next = n
}

// ForEachLive invokes f on every live slot's current header pointer, in
// positions [0, Next()). A nil entry (a slot pushed with a nil header,
// as the gc package's WithEscape does to reserve its escape slot, or a
// nil written through SlotAddr) is skipped.
func (p *Pool) ForEachLive(f func(*objheap.Header)) {
	remaining := p.next
	for bi := 0; remaining > 0; bi++ {
		n := remaining
		if n > p.capacity {
			n = p.capacity
		}
		blk := p.blocks[bi]
		for i := 0; i < n; i++ {
			if h := blk.cells[i]; h != nil {
				f(h)
			}
		}
		remaining -= n
	}
}

// SlotAddr returns the address of slot i's cell. The address is stable
// for as long as the owning block exists (i.e. forever, for the lifetime
// of the Pool) because blocks are never resized or moved once allocated;
// growth only ever appends a new block.
func (p *Pool) SlotAddr(i int) **objheap.Header {
	blockIndex, offset := p.locate(i)
	return &p.blocks[blockIndex].cells[offset]
}
