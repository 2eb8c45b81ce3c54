//go:build windows

package lightmmap

import (
	"errors"
	"fmt"
	"syscall"
	"unsafe"

	"golang.org/x/sys/windows"
)

type nativeFd = windows.Handle

const shareAll = windows.FILE_SHARE_READ | windows.FILE_SHARE_WRITE | windows.FILE_SHARE_DELETE

func osOpen(path string, mode Mode) (windows.Handle, error) {
	access := uint32(windows.GENERIC_READ)
	if mode == ModeReadWrite {
		access |= windows.GENERIC_WRITE
	}

	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return windows.InvalidHandle, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	h, err := windows.CreateFile(p, access, shareAll, nil,
		windows.OPEN_EXISTING, windows.FILE_ATTRIBUTE_NORMAL, 0)
	if err != nil {
		return windows.InvalidHandle, portable(err)
	}
	return h, nil
}

func osCreate(path string, size int64) (windows.Handle, error) {
	p, err := windows.UTF16PtrFromString(path)
	if err != nil {
		return windows.InvalidHandle, fmt.Errorf("%w: %w", ErrInvalidArgument, err)
	}

	h, err := windows.CreateFile(p, windows.GENERIC_READ|windows.GENERIC_WRITE, shareAll, nil,
		windows.CREATE_ALWAYS, windows.FILE_ATTRIBUTE_NORMAL, 0)
	if err != nil {
		return windows.InvalidHandle, portable(err)
	}

	// Move the end-of-file marker to size without writing content. The
	// intermediate handle must not leak if the extension fails.
	if err := setFileSize(h, size); err != nil {
		windows.CloseHandle(h)
		return windows.InvalidHandle, err
	}

	return h, nil
}

func setFileSize(h windows.Handle, size int64) error {
	if _, err := windows.Seek(h, size, 0); err != nil {
		return portable(err)
	}
	if err := windows.SetEndOfFile(h); err != nil {
		return portable(err)
	}
	if _, err := windows.Seek(h, 0, 0); err != nil {
		return portable(err)
	}
	return nil
}

func osClose(h windows.Handle) error {
	return portable(windows.CloseHandle(h))
}

func osFileSize(h windows.Handle) (int64, error) {
	var fi windows.ByHandleFileInformation
	if err := windows.GetFileInformationByHandle(h, &fi); err != nil {
		return 0, portable(err)
	}
	return int64(fi.FileSizeHigh)<<32 | int64(fi.FileSizeLow), nil
}

// Mapping offsets must align to the allocation granularity, not the page
// size; on Windows the former is typically 64 KiB while the latter is
// 4 KiB.
func osGranularity() uint64 {
	var si windows.SystemInfo
	windows.GetNativeSystemInfo(&si)
	return uint64(si.AllocationGranularity)
}

func osMap(h windows.Handle, alignedOffset uint64, rawLen int, writable bool) ([]byte, func([]byte) error, error) {
	prot := uint32(windows.PAGE_READONLY)
	access := uint32(windows.FILE_MAP_READ)
	if writable {
		prot = windows.PAGE_READWRITE
		access = windows.FILE_MAP_READ | windows.FILE_MAP_WRITE
	}

	// Two-step protocol: create a mapping object covering the needed
	// region, then map a view of it.
	maxSize := alignedOffset + uint64(rawLen)
	mh, err := windows.CreateFileMapping(h, nil, prot, uint32(maxSize>>32), uint32(maxSize), nil)
	if err != nil {
		return nil, nil, portable(err)
	}

	addr, err := windows.MapViewOfFile(mh, access,
		uint32(alignedOffset>>32), uint32(alignedOffset), uintptr(rawLen))

	// The mapping object's handle is closed on both paths: the OS keeps
	// a created view valid after this closure, and a failed view must
	// not leak the object.
	windows.CloseHandle(mh)

	if err != nil {
		return nil, nil, portable(err)
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), rawLen)

	return data, func([]byte) error {
		return portable(windows.UnmapViewOfFile(addr))
	}, nil
}

func osMapAnon(length int) ([]byte, func([]byte) error, error) {
	// VirtualAlloc with MEM_COMMIT demand-pages like anonymous mmap on
	// Unix, instead of committing paging-file space upfront the way
	// CreateFileMapping would.
	addr, err := windows.VirtualAlloc(0, uintptr(length),
		windows.MEM_RESERVE|windows.MEM_COMMIT, windows.PAGE_READWRITE)
	if err != nil {
		return nil, nil, portable(err)
	}

	data := unsafe.Slice((*byte)(unsafe.Pointer(addr)), length)

	return data, func([]byte) error {
		return portable(windows.VirtualFree(addr, 0, windows.MEM_RELEASE))
	}, nil
}

// osAdvise honors AdviceWillNeed via PrefetchVirtualMemory (Windows 8+).
// Sequential and random hints have no Windows equivalent and are dropped;
// errors are dropped too, as the call is only a hint.
func osAdvise(data []byte, advice Advice) {
	if advice&AdviceWillNeed == 0 || len(data) == 0 {
		return
	}

	entry := windows.WIN32_MEMORY_RANGE_ENTRY{
		VirtualAddress: windows.Pointer(unsafe.Pointer(&data[0])),
		NumberOfBytes:  uintptr(len(data)),
	}
	_ = windows.PrefetchVirtualMemory(windows.CurrentProcess(), 1, &entry, 0)
}

func osFlush(data []byte) error {
	if len(data) == 0 {
		return nil
	}
	return portable(windows.FlushViewOfFile(uintptr(unsafe.Pointer(&data[0])), uintptr(len(data))))
}

// portable translates a Windows error code into the package's error
// taxonomy. Codes outside the taxonomy propagate verbatim so callers can
// still reach the native value with errors.As.
func portable(err error) error {
	if err == nil {
		return nil
	}

	var errno syscall.Errno
	if !errors.As(err, &errno) {
		return err
	}

	switch errno {
	case windows.ERROR_FILE_NOT_FOUND, windows.ERROR_PATH_NOT_FOUND:
		return fmt.Errorf("%w: %w", ErrNotFound, errno)
	case windows.ERROR_ACCESS_DENIED:
		return fmt.Errorf("%w: %w", ErrPermission, errno)
	case windows.ERROR_FILE_EXISTS, windows.ERROR_ALREADY_EXISTS:
		return fmt.Errorf("%w: %w", ErrExist, errno)
	case windows.ERROR_INVALID_PARAMETER:
		return fmt.Errorf("%w: %w", ErrInvalidArgument, errno)
	case windows.ERROR_NOT_SUPPORTED:
		return fmt.Errorf("%w: %w", ErrUnsupported, errno)
	default:
		return errno
	}
}
