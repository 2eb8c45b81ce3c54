package lightmmap

import "errors"

var (
	// ErrNotFound is returned when the file does not exist.
	ErrNotFound = errors.New("lightmmap: file does not exist")
	// ErrPermission is returned when the OS denies access to the file.
	ErrPermission = errors.New("lightmmap: permission denied")
	// ErrExist is returned when a file unexpectedly already exists.
	ErrExist = errors.New("lightmmap: file already exists")
	// ErrInvalidArgument is returned for a bad offset, length or mode,
	// including arithmetic overflow of offset+length.
	ErrInvalidArgument = errors.New("lightmmap: invalid argument")
	// ErrOutOfRange is returned when the requested offset lies beyond the
	// end of the file and length trimming is enabled.
	ErrOutOfRange = errors.New("lightmmap: offset beyond end of file")
	// ErrUnsupported is returned when the operation is unavailable on the
	// current platform.
	ErrUnsupported = errors.New("lightmmap: operation not supported")
	// ErrClosed is returned when using a closed handle or mapping.
	ErrClosed = errors.New("lightmmap: closed")
)
