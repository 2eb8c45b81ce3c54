//go:build unix || linux || darwin || freebsd || openbsd || netbsd

package lightmmap

import (
	"errors"
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

type nativeFd = int

func osOpen(path string, mode Mode) (int, error) {
	flags := unix.O_RDONLY
	if mode == ModeReadWrite {
		flags = unix.O_RDWR
	}

	fd, err := unix.Open(path, flags|unix.O_CLOEXEC, 0)
	if err != nil {
		return -1, portable(err)
	}
	return fd, nil
}

func osCreate(path string, size int64) (int, error) {
	fd, err := unix.Open(path, unix.O_RDWR|unix.O_CREAT|unix.O_TRUNC|unix.O_CLOEXEC, 0o666)
	if err != nil {
		return -1, portable(err)
	}

	// ftruncate extends sparsely: the file ends up at exactly size bytes
	// without any data blocks being written.
	if err := unix.Ftruncate(fd, size); err != nil {
		unix.Close(fd)
		return -1, portable(err)
	}

	return fd, nil
}

func osClose(fd int) error {
	return portable(unix.Close(fd))
}

func osFileSize(fd int) (int64, error) {
	var st unix.Stat_t
	if err := unix.Fstat(fd, &st); err != nil {
		return 0, portable(err)
	}
	return st.Size, nil
}

// Unix has no allocation granularity distinct from the page size.
func osGranularity() uint64 {
	return uint64(unix.Getpagesize())
}

func osMap(fd int, alignedOffset uint64, rawLen int, writable bool) ([]byte, func([]byte) error, error) {
	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}

	data, err := unix.Mmap(fd, int64(alignedOffset), rawLen, prot, unix.MAP_SHARED)
	if err != nil {
		return nil, nil, portable(err)
	}
	return data, unix.Munmap, nil
}

func osMapAnon(length int) ([]byte, func([]byte) error, error) {
	prot := unix.PROT_READ | unix.PROT_WRITE
	flags := unix.MAP_ANON | unix.MAP_PRIVATE

	data, err := unix.Mmap(-1, 0, length, prot, flags)
	if err != nil {
		return nil, nil, portable(err)
	}
	return data, unix.Munmap, nil
}

// osAdvise issues one madvise per requested flag. Errors are dropped:
// the region is always page-aligned here, and the calls are hints the
// kernel is free to reject.
func osAdvise(data []byte, advice Advice) {
	if advice&AdviceWillNeed != 0 {
		_ = unix.Madvise(data, unix.MADV_WILLNEED)
	}
	if advice&AdviceSequential != 0 {
		_ = unix.Madvise(data, unix.MADV_SEQUENTIAL)
	}
	if advice&AdviceRandom != 0 {
		_ = unix.Madvise(data, unix.MADV_RANDOM)
	}
}

func osFlush(data []byte) error {
	return portable(unix.Msync(data, unix.MS_SYNC))
}

// portable translates an errno into the package's error taxonomy. Codes
// outside the taxonomy propagate verbatim so callers can still reach the
// native value with errors.As.
func portable(err error) error {
	if err == nil {
		return nil
	}

	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return err
	}

	switch errno {
	case unix.ENOENT:
		return fmt.Errorf("%w: %w", ErrNotFound, errno)
	case unix.EACCES, unix.EPERM:
		return fmt.Errorf("%w: %w", ErrPermission, errno)
	case unix.EEXIST:
		return fmt.Errorf("%w: %w", ErrExist, errno)
	case unix.EINVAL:
		return fmt.Errorf("%w: %w", ErrInvalidArgument, errno)
	case unix.ENOTSUP, unix.ENODEV:
		return fmt.Errorf("%w: %w", ErrUnsupported, errno)
	default:
		return errno
	}
}
