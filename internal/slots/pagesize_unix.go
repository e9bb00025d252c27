//go:build linux || darwin || freebsd || netbsd || openbsd

package slots

import (
	"unsafe"

	"golang.org/x/sys/unix"
)

// DefaultCapacity returns the number of pointer-sized slots that fit in
// one host memory page, the same sizing rationale
// original_source/src/handle.rs spells out in its BLOCK_SIZE comment
// ("Surely pages are at least 4kB!"), computed here from the real page
// size instead of a hardcoded constant.
func DefaultCapacity() int {
	pageSize := unix.Getpagesize()
	slotSize := int(unsafe.Sizeof(uintptr(0)))
	if pageSize < slotSize {
		return 1
	}
	return pageSize / slotSize
}
