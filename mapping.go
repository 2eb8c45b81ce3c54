package lightmmap

import (
	"fmt"
	"sync/atomic"
)

// Mapping is a memory-mapped view of a byte range of a file. It owns the
// raw OS-mapped region and is responsible for unmapping it; the slice
// returned by [Mapping.Bytes] covers exactly the requested range,
// excluding any alignment padding.
//
// A Mapping borrows the [Handle] it was built from and must not outlive
// it. This is not checked at runtime; keeping the handle open for the
// life of the mapping is the caller's responsibility. Use [MapOwned] when
// a mapping has to travel independently of the opener's stack frame.
type Mapping struct {
	// raw is the full OS-mapped region including pre-padding. It is nil
	// when no native call was made (zero-length mappings).
	raw      []byte
	prePad   int
	length   int
	writable bool
	anon     bool

	closed atomic.Bool
	// unmap is the platform-specific function for the raw region.
	unmap func([]byte) error
	// handle is non-nil only for owned mappings and is released after
	// the region is unmapped.
	handle *Handle
}

// Map maps length bytes of h starting at offset.
//
// offset may be any byte position; it is aligned down to the allocation
// granularity internally and the padding is hidden from the returned
// view. A length of zero yields a valid, inert mapping that holds no OS
// resource. Writable mappings require [WithWritable] and a handle opened
// with [ModeReadWrite].
func Map(h *Handle, offset uint64, length int, opts ...Option) (*Mapping, error) {
	if h == nil || h.closed.Load() {
		return nil, ErrClosed
	}
	if length < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrInvalidArgument, length)
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.writable && h.mode != ModeReadWrite {
		return nil, fmt.Errorf("%w: writable mapping requires a read-write handle", ErrInvalidArgument)
	}

	if o.trim {
		size, err := h.Size()
		if err != nil {
			return nil, err
		}
		length, err = trimLength(offset, length, size)
		if err != nil {
			return nil, err
		}
	}

	geo, err := resolveGeometry(offset, length, allocationGranularity())
	if err != nil {
		return nil, err
	}

	m := &Mapping{
		prePad:   geo.prePad,
		length:   length,
		writable: o.writable,
	}
	if length == 0 {
		// Zero-byte native mappings are undefined on some platforms, so
		// no call is issued; Close on an inert mapping is a no-op.
		return m, nil
	}

	raw, unmap, err := osMap(h.fd, geo.alignedOffset, geo.rawLen, o.writable)
	if err != nil {
		return nil, fmt.Errorf("lightmmap: map: %w", err)
	}
	m.raw = raw
	m.unmap = unmap

	return m, nil
}

// trimLength clamps length so offset+length never exceeds fileSize. An
// offset already past the end of the file is an error, not an empty
// mapping.
func trimLength(offset uint64, length int, fileSize int64) (int, error) {
	if offset > uint64(fileSize) {
		return 0, fmt.Errorf("%w: offset %d, file size %d", ErrOutOfRange, offset, fileSize)
	}
	if remaining := uint64(fileSize) - offset; uint64(length) > remaining {
		return int(remaining), nil
	}
	return length, nil
}

// MapAnon creates a writable anonymous mapping of length bytes, backed by
// zero-filled memory instead of a file. The memory lives outside the Go
// heap and is returned to the OS by Close.
func MapAnon(length int) (*Mapping, error) {
	if length < 0 {
		return nil, fmt.Errorf("%w: negative length %d", ErrInvalidArgument, length)
	}

	m := &Mapping{length: length, writable: true, anon: true}
	if length == 0 {
		return m, nil
	}

	raw, unmap, err := osMapAnon(length)
	if err != nil {
		return nil, fmt.Errorf("lightmmap: map anon: %w", err)
	}
	m.raw = raw
	m.unmap = unmap

	return m, nil
}

// Bytes returns the mapped view: exactly the bytes that were requested,
// starting at the requested offset. For a writable mapping the slice may
// be written through; writes to a read-only mapping's slice fault.
//
// The slice is valid only until Close is called and is nil afterwards,
// and nil for zero-length mappings.
func (m *Mapping) Bytes() []byte {
	if m.closed.Load() || m.raw == nil {
		return nil
	}
	return m.raw[m.prePad : m.prePad+m.length]
}

// Len returns the length of the mapped view in bytes. This is the
// originally requested length, not including alignment padding.
func (m *Mapping) Len() int {
	return m.length
}

// IsEmpty reports whether the mapping has a zero-length view.
func (m *Mapping) IsEmpty() bool {
	return m.length == 0
}

// Advise hints to the OS how the mapped memory will be accessed. The
// hint covers the whole raw region including alignment padding, since
// that memory is resident too. Flags the platform cannot express are
// ignored; the only possible error is [ErrClosed].
func (m *Mapping) Advise(advice Advice) error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.raw != nil {
		osAdvise(m.raw, advice)
	}
	return nil
}

// Flush synchronously commits modified pages of a writable file mapping
// to the underlying file. It is a no-op for read-only and anonymous
// mappings.
func (m *Mapping) Flush() error {
	if m.closed.Load() {
		return ErrClosed
	}
	if m.raw == nil || !m.writable || m.anon {
		return nil
	}
	if err := osFlush(m.raw); err != nil {
		return fmt.Errorf("lightmmap: flush: %w", err)
	}
	return nil
}

// Close unmaps the raw region. It is idempotent and releases the owned
// handle share, if any, after the region is unmapped.
func (m *Mapping) Close() error {
	if m.closed.Swap(true) {
		return nil
	}

	var err error
	if m.raw != nil {
		err = m.unmap(m.raw)
		m.raw = nil
	}
	if m.handle != nil {
		if rerr := m.handle.release(); rerr != nil && err == nil {
			err = rerr
		}
		m.handle = nil
	}
	return err
}

// OwnedMapping is a [Mapping] that holds a counted share of its handle
// instead of borrowing it, so the value can be stored or moved to another
// goroutine independently of the originating stack frame. The handle's
// descriptor stays open until the opener and every owned mapping have
// released their share.
type OwnedMapping struct {
	*Mapping
}

// MapOwned is [Map] with shared handle ownership: the returned mapping
// keeps h alive until it is closed. h must still be open when MapOwned is
// called.
func MapOwned(h *Handle, offset uint64, length int, opts ...Option) (*OwnedMapping, error) {
	m, err := Map(h, offset, length, opts...)
	if err != nil {
		return nil, err
	}

	h.retain()
	m.handle = h

	return &OwnedMapping{Mapping: m}, nil
}

// Handle returns the shared handle, or nil once the mapping is closed.
func (om *OwnedMapping) Handle() *Handle {
	return om.handle
}
