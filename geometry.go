package lightmmap

import (
	"fmt"
	"math"
	"sync"
)

// The allocation granularity is queried once per process and never
// changes afterwards. sync.Once makes the first query safe under
// concurrent access from multiple goroutines.
var (
	granularityOnce sync.Once
	granularity     uint64
)

// AllocationGranularity returns the minimum alignment the OS requires for
// a mapping's starting offset. On Unix this equals the page size; on
// Windows it is the system allocation granularity, which is typically
// larger than the page size.
func AllocationGranularity() int {
	return int(allocationGranularity())
}

func allocationGranularity() uint64 {
	granularityOnce.Do(func() {
		granularity = osGranularity()
	})
	return granularity
}

const maxInt = int(^uint(0) >> 1)

// geometry is the OS-legal form of a caller's (offset, length) request.
// The native call covers [alignedOffset, alignedOffset+rawLen); the
// caller-visible view starts prePad bytes into that region.
type geometry struct {
	alignedOffset uint64
	prePad        int
	rawLen        int
}

// resolveGeometry aligns offset down to gran and pads the length
// accordingly. gran must be a power of two. Rejects negative lengths and
// any request whose end would overflow, rather than silently wrapping.
func resolveGeometry(offset uint64, length int, gran uint64) (geometry, error) {
	if length < 0 {
		return geometry{}, fmt.Errorf("%w: negative length %d", ErrInvalidArgument, length)
	}
	if offset > math.MaxUint64-uint64(length) {
		return geometry{}, fmt.Errorf("%w: offset+length overflows", ErrInvalidArgument)
	}
	// The native offset parameter is a signed 64-bit integer on every
	// supported platform.
	if offset+uint64(length) > math.MaxInt64 {
		return geometry{}, fmt.Errorf("%w: offset+length exceeds maximum file offset", ErrInvalidArgument)
	}

	aligned := offset &^ (gran - 1)
	prePad := offset - aligned
	rawLen := prePad + uint64(length)
	if rawLen > uint64(maxInt) {
		return geometry{}, fmt.Errorf("%w: mapping length exceeds address space", ErrInvalidArgument)
	}

	return geometry{
		alignedOffset: aligned,
		prePad:        int(prePad),
		rawLen:        int(rawLen),
	}, nil
}
