package lightmmap

import (
	"math"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T, data []byte, mode Mode) *Handle {
	t.Helper()

	h, err := Open(writeTemp(t, data), mode)
	require.NoError(t, err)
	t.Cleanup(func() { h.Close() })
	return h
}

func TestMap_WholeFile(t *testing.T) {
	content := []byte("Hello, Mmap!")
	h := openTemp(t, content, ModeReadOnly)

	m, err := Map(h, 0, len(content))
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, len(content), m.Len())
	assert.False(t, m.IsEmpty())
	assert.Equal(t, content, m.Bytes())
}

func TestMap_AtOffset(t *testing.T) {
	h := openTemp(t, []byte("Hello, World!"), ModeReadOnly)

	m, err := Map(h, 7, 5)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, []byte("World"), m.Bytes())
}

func TestMap_UnalignedOffset(t *testing.T) {
	// Span several granularity units so the aligned region and the view
	// genuinely differ.
	gran := AllocationGranularity()
	data := make([]byte, 2*gran+1000)
	for i := range data {
		data[i] = byte(i*31 + 7)
	}
	h := openTemp(t, data, ModeReadOnly)

	offset := gran + 3
	length := gran + 99

	m, err := Map(h, uint64(offset), length)
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, length, m.Len())
	assert.Equal(t, data[offset:offset+length], m.Bytes())
}

func TestMap_ZeroLength(t *testing.T) {
	h := openTemp(t, []byte("0123456789"), ModeReadOnly)

	// Zero-length mappings never issue a native call, so an offset past
	// the end of the file is acceptable here.
	m, err := Map(h, 1000, 0)
	require.NoError(t, err)

	assert.True(t, m.IsEmpty())
	assert.Equal(t, 0, m.Len())
	assert.Empty(t, m.Bytes())

	require.NoError(t, m.Advise(AdviceWillNeed))
	require.NoError(t, m.Close())
}

func TestMap_WritableRequiresReadWriteHandle(t *testing.T) {
	h := openTemp(t, []byte("read only"), ModeReadOnly)

	_, err := Map(h, 0, 4, WithWritable())
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMap_WritableRoundTrip(t *testing.T) {
	path := writeTemp(t, nil)

	h, err := CreatePreallocated(path, 1024)
	require.NoError(t, err)

	m, err := Map(h, 0, 1024, WithWritable())
	require.NoError(t, err)

	b := m.Bytes()
	b[0] = 0x2A
	copy(b[512:], []byte("written through mapping"))

	require.NoError(t, m.Flush())
	require.NoError(t, m.Close())
	require.NoError(t, h.Close())

	// Reopen read-only and observe the same bytes.
	ro, err := Open(path, ModeReadOnly)
	require.NoError(t, err)
	defer ro.Close()

	view, err := Map(ro, 0, 1024)
	require.NoError(t, err)
	defer view.Close()

	assert.Equal(t, byte(0x2A), view.Bytes()[0])
	assert.Equal(t, []byte("written through mapping"), view.Bytes()[512:512+23])
}

func TestMap_TrimClampsToFileSize(t *testing.T) {
	h := openTemp(t, []byte("Hello"), ModeReadOnly)

	m, err := Map(h, 0, 10, WithTrimToFileSize())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, 5, m.Len())
	assert.Equal(t, []byte("Hello"), m.Bytes())
}

func TestMap_TrimPartialAtEndOfFile(t *testing.T) {
	h := openTemp(t, []byte("Hello, World!"), ModeReadOnly)

	m, err := Map(h, 11, 10, WithTrimToFileSize())
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, []byte("d!"), m.Bytes())
}

func TestMap_TrimOffsetBeyondEOF(t *testing.T) {
	h := openTemp(t, []byte("Hello"), ModeReadOnly)

	_, err := Map(h, 10, 1, WithTrimToFileSize())
	assert.ErrorIs(t, err, ErrOutOfRange)
}

func TestMap_TrimOffsetAtEOF(t *testing.T) {
	h := openTemp(t, []byte("Hello"), ModeReadOnly)

	m, err := Map(h, 5, 10, WithTrimToFileSize())
	require.NoError(t, err)
	defer m.Close()

	assert.True(t, m.IsEmpty())
}

func TestMap_OffsetOverflow(t *testing.T) {
	h := openTemp(t, []byte("Hello"), ModeReadOnly)

	_, err := Map(h, math.MaxUint64, 1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMap_NegativeLength(t *testing.T) {
	h := openTemp(t, []byte("Hello"), ModeReadOnly)

	_, err := Map(h, 0, -1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMap_ClosedHandle(t *testing.T) {
	h, err := Open(writeTemp(t, []byte("data")), ModeReadOnly)
	require.NoError(t, err)
	require.NoError(t, h.Close())

	_, err = Map(h, 0, 4)
	assert.ErrorIs(t, err, ErrClosed)
}

func TestMap_CloseIdempotent(t *testing.T) {
	h := openTemp(t, []byte("data"), ModeReadOnly)

	m, err := Map(h, 0, 4)
	require.NoError(t, err)

	require.NoError(t, m.Close())
	require.NoError(t, m.Close())

	assert.Nil(t, m.Bytes())
	assert.ErrorIs(t, m.Advise(AdviceRandom), ErrClosed)
	assert.ErrorIs(t, m.Flush(), ErrClosed)
}

func TestMap_BorrowedCloseLeavesHandleUsable(t *testing.T) {
	h := openTemp(t, []byte("still usable"), ModeReadOnly)

	m, err := Map(h, 0, 5)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	// The handle survives its mapping and can back another one.
	m2, err := Map(h, 6, 6)
	require.NoError(t, err)
	defer m2.Close()

	assert.Equal(t, []byte("usable"), m2.Bytes())
}

func TestMap_Advise(t *testing.T) {
	h := openTemp(t, make([]byte, 8192), ModeReadOnly)

	m, err := Map(h, 0, 8192)
	require.NoError(t, err)
	defer m.Close()

	// Hints never fail, individually or combined.
	require.NoError(t, m.Advise(AdviceWillNeed))
	require.NoError(t, m.Advise(AdviceSequential))
	require.NoError(t, m.Advise(AdviceRandom))
	require.NoError(t, m.Advise(AdviceWillNeed|AdviceSequential|AdviceRandom))
	require.NoError(t, m.Advise(0))
}

func TestMapAnon(t *testing.T) {
	m, err := MapAnon(4096)
	require.NoError(t, err)

	b := m.Bytes()
	require.Len(t, b, 4096)

	// Anonymous memory starts zero-filled and is writable.
	assert.Equal(t, byte(0), b[0])
	b[0] = 0xFF
	b[4095] = 0x7F
	assert.Equal(t, byte(0xFF), m.Bytes()[0])

	require.NoError(t, m.Close())
}

func TestMapAnon_ZeroLength(t *testing.T) {
	m, err := MapAnon(0)
	require.NoError(t, err)

	assert.True(t, m.IsEmpty())
	require.NoError(t, m.Close())
}

func TestMapAnon_NegativeLength(t *testing.T) {
	_, err := MapAnon(-1)
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMap_EmptyFile(t *testing.T) {
	path := writeTemp(t, nil)
	fi, err := os.Stat(path)
	require.NoError(t, err)
	require.Zero(t, fi.Size())

	h, err := Open(path, ModeReadOnly)
	require.NoError(t, err)
	defer h.Close()

	m, err := Map(h, 0, 0)
	require.NoError(t, err)
	defer m.Close()

	assert.True(t, m.IsEmpty())
}
