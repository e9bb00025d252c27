//go:build !(linux || darwin || freebsd || netbsd || openbsd)

package slots

// DefaultCapacity mirrors pagesize_unix.go's sizing rationale on
// platforms where golang.org/x/sys/unix.Getpagesize isn't available: 4096
// bytes, the same page size original_source/src/handle.rs assumes.
func DefaultCapacity() int {
	const assumedPageSize = 4096
	const slotSize = 8
	return assumedPageSize / slotSize
}
