//go:build windows

package disk

import (
	"fmt"
	"syscall"
	"unsafe"

	util "github.com/nikunjparasar/cmu-bus-tub/internal/utils"
)

// Based on: https://github.com/etcd-io/bbolt/blob/main/bolt_windows.go

func mmap(m *Manager, size int64) error {
	if m.file == nil {
		return util.ErrFileManagerNil
	}
	if size <= 0 {
		return fmt.Errorf("disk: invalid map size %d", size)
	}
	if size > maxMapSize {
		return util.ErrMaxMapSizeExceeded
	}

	if err := m.file.Truncate(size); err != nil {
		return fmt.Errorf("disk: truncate to %d: %w", size, err)
	}

	sizehi := uint32(size >> 32)
	sizelo := uint32(size)
	h, err := syscall.CreateFileMapping(syscall.Handle(m.file.Fd()), nil, syscall.PAGE_READWRITE, sizehi, sizelo, nil)
	if err != nil {
		return fmt.Errorf("disk: create mapping: %w", err)
	}

	ptr, err := syscall.MapViewOfFile(h, syscall.FILE_MAP_WRITE, 0, 0, uintptr(size))
	if err != nil {
		if cerr := syscall.CloseHandle(h); cerr != nil {
			return fmt.Errorf("disk: map view: %w (close handle: %v)", err, cerr)
		}
		return fmt.Errorf("disk: map view: %w", err)
	}

	// The mapping handle only needs to live long enough to produce a
	// view; the view stays valid after the handle is closed, so hold
	// onto it no longer than that.
	if err := syscall.CloseHandle(h); err != nil {
		return fmt.Errorf("disk: close mapping handle: %w", err)
	}

	m.data = (*[maxMapSize]byte)(unsafe.Pointer(ptr))[:size:size]
	m.size = size

	return nil
}

func munmap(m *Manager) error {
	if m.file == nil {
		return util.ErrFileManagerNil
	}
	if m.data == nil {
		return nil
	}

	addr := uintptr(unsafe.Pointer(&m.data[0]))
	err := syscall.UnmapViewOfFile(addr)
	m.data = nil
	m.size = 0
	if err != nil {
		return fmt.Errorf("disk: unmap: %w", err)
	}

	return nil
}
