// Package lightmmap provides minimal cross-platform file handles and
// memory mappings.
//
// # Overview
//
// The package unifies native file-handle acquisition and memory-mapping
// primitives across Unix-like systems and Windows behind one small API:
// open or create a [Handle], map a byte range of it with [Map] or
// [MapOwned], and read or write the file's contents through the returned
// slice without copying through kernel buffers.
//
// Mappings may start at any byte offset. The requested offset is aligned
// down to the system's allocation granularity internally; callers always
// see exactly the bytes they asked for.
//
// # Usage
//
//	h, err := lightmmap.Open("data.bin", lightmmap.ModeReadOnly)
//	if err != nil { ... }
//	defer h.Close()
//
//	m, err := lightmmap.Map(h, 4096, 1024)
//	if err != nil { ... }
//	defer m.Close()
//
//	// Zero-copy access to file contents
//	data := m.Bytes()
//
//	// Provide kernel hints for access patterns
//	m.Advise(lightmmap.AdviceSequential | lightmmap.AdviceWillNeed)
//
// # Platform Support
//
// The package provides a unified API across platforms:
//
//   - Unix (Linux, macOS, BSD): mmap(2)/munmap(2) with madvise(2) for
//     access hints; allocation granularity is the page size
//   - Windows: CreateFileMapping/MapViewOfFile with PrefetchVirtualMemory
//     for AdviceWillNeed; allocation granularity is the system allocation
//     granularity, which is typically larger than the page size
//
// # Ownership
//
// A [Mapping] returned by [Map] borrows its handle: the handle must stay
// open for as long as the mapping is in use. [MapOwned] returns an
// [OwnedMapping] that holds a counted share of the handle instead, so it
// can be stored or handed to another goroutine independently of the
// opener; the descriptor is closed once the opener and every outstanding
// owned mapping have released their share.
//
// # Thread Safety
//
// All calls are synchronous and run on the caller's goroutine. Close
// methods are idempotent and the shared release counting is atomic, but
// concurrent mutable access to the same mapping or handle must be
// serialized by the caller.
package lightmmap
