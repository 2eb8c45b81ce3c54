package lightmmap

import (
	"fmt"
	"sync/atomic"
)

// Mode selects the access mode of a [Handle].
type Mode int

const (
	// ModeReadOnly opens the file for reading only.
	ModeReadOnly Mode = iota
	// ModeReadWrite opens the file for reading and writing.
	ModeReadWrite
)

// Handle owns a native file descriptor plus its access mode. It is the
// unit users open or create, and the only input to [Map] and [MapOwned].
//
// The descriptor is valid exactly for the handle's lifetime and is closed
// exactly once: when the opener has called Close and every owned mapping
// built from the handle has been closed as well.
type Handle struct {
	fd   nativeFd
	mode Mode

	// refs counts the opener plus every live owned mapping. The
	// descriptor is closed when it reaches zero.
	refs   atomic.Int64
	closed atomic.Bool
}

func newHandle(fd nativeFd, mode Mode) *Handle {
	h := &Handle{fd: fd, mode: mode}
	h.refs.Store(1)
	return h
}

// Open opens an existing file at path with the given access mode.
//
// Failures translate into the portable taxonomy: [ErrNotFound],
// [ErrPermission], or the native error verbatim for anything uncaptured.
func Open(path string, mode Mode) (*Handle, error) {
	if mode != ModeReadOnly && mode != ModeReadWrite {
		return nil, fmt.Errorf("%w: unknown mode %d", ErrInvalidArgument, mode)
	}

	fd, err := osOpen(path, mode)
	if err != nil {
		return nil, fmt.Errorf("lightmmap: open %s: %w", path, err)
	}

	return newHandle(fd, mode), nil
}

// CreatePreallocated creates the file at path if absent, or truncates an
// existing one, and extends it to exactly size bytes without writing
// content. The extension is sparse where the OS supports it, so later
// writes through a mapping avoid incremental-growth I/O. The returned
// handle is [ModeReadWrite].
//
// If the file already exists it always ends up at exactly size bytes,
// regardless of its previous length.
func CreatePreallocated(path string, size int64) (*Handle, error) {
	if size < 0 {
		return nil, fmt.Errorf("%w: negative size %d", ErrInvalidArgument, size)
	}

	fd, err := osCreate(path, size)
	if err != nil {
		return nil, fmt.Errorf("lightmmap: create %s: %w", path, err)
	}

	return newHandle(fd, ModeReadWrite), nil
}

// Mode returns the access mode the handle was opened with.
func (h *Handle) Mode() Mode {
	return h.mode
}

// Size returns the current length of the underlying file in bytes.
func (h *Handle) Size() (int64, error) {
	if h.closed.Load() {
		return 0, ErrClosed
	}
	size, err := osFileSize(h.fd)
	if err != nil {
		return 0, fmt.Errorf("lightmmap: file size: %w", err)
	}
	return size, nil
}

// Fd returns the raw native descriptor. It remains owned by the handle;
// callers must not close it.
func (h *Handle) Fd() uintptr {
	return uintptr(h.fd)
}

// Close releases the opener's share of the handle. It is idempotent. The
// descriptor itself is closed once no owned mapping holds a share either.
func (h *Handle) Close() error {
	if h.closed.Swap(true) {
		return nil
	}
	return h.release()
}

// retain adds a share for an owned mapping.
func (h *Handle) retain() {
	h.refs.Add(1)
}

// release drops one share and closes the descriptor when the last share
// is gone. Safe to call concurrently from multiple goroutines.
func (h *Handle) release() error {
	if h.refs.Add(-1) > 0 {
		return nil
	}
	return osClose(h.fd)
}
