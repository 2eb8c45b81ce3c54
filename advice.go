package lightmmap

// Advice is a bitmask of access-pattern hints for [Mapping.Advise].
// Flags combine with bitwise OR. Advice is inherently best-effort: flags
// that the current platform cannot express are silently ignored, and the
// OS may disregard the rest.
type Advice uint32

const (
	// AdviceWillNeed hints that the mapped region will be accessed soon.
	AdviceWillNeed Advice = 1 << iota
	// AdviceSequential hints at sequential access from low to high
	// addresses.
	AdviceSequential
	// AdviceRandom hints at random access, discouraging readahead.
	AdviceRandom
)
