package lightmmap

type options struct {
	writable bool
	trim     bool
}

// Option configures how a mapping is created.
type Option func(*options)

// WithWritable requests a writable mapping. The handle must have been
// opened with [ModeReadWrite]; otherwise the map call fails with
// [ErrInvalidArgument].
func WithWritable() Option {
	return func(o *options) {
		o.writable = true
	}
}

// WithTrimToFileSize clamps the requested length so the mapping never
// extends past the end of the file. A request whose offset alone lies
// beyond the file fails with [ErrOutOfRange] instead of attempting the
// native call.
func WithTrimToFileSize() Option {
	return func(o *options) {
		o.trim = true
	}
}
