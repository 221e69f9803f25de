// Package disk implements the external collaborator the buffer pool
// delegates page I/O to (§6): an opaque page-id namespace backed by a
// memory-mapped file, with no awareness of pinning, dirtiness, or
// replacement. Those concerns live entirely in package buffer.
package disk

import (
	"errors"
	"fmt"
	"os"

	"github.com/nikunjparasar/cmu-bus-tub/internal/storage/page"
	util "github.com/nikunjparasar/cmu-bus-tub/internal/utils"
)

// maxMapSize bounds both how large the mapping is allowed to grow and the
// array type used for the unsafe pointer cast in the platform mmap shims.
const maxMapSize = 1 << 40

// Manager is a memory-mapped, fixed-page-size store. It satisfies
// buffer.DiskManager.
type Manager struct {
	file *os.File
	data []byte
	size int64
}

// NewManager opens (creating if absent) the database file at path and maps
// at least initialPages worth of space.
func NewManager(path string, initialPages int) (*Manager, error) {
	if initialPages <= 0 {
		return nil, util.ErrInvalidInitialPages
	}
	initialSize := int64(initialPages) * int64(page.SlotSize)

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o666)
	if err != nil {
		return nil, fmt.Errorf("disk: open file: %w", err)
	}

	m := &Manager{file: f}
	if err := mmap(m, initialSize); err != nil {
		f.Close()
		return nil, fmt.Errorf("disk: map file: %w", err)
	}

	return m, nil
}

// ReadPage fills dst with the on-disk image of id.
func (m *Manager) ReadPage(id util.PageID, dst *[util.PageSize]byte) error {
	if id < 0 {
		return util.ErrInvalidPageID
	}
	offset := int64(id) * int64(page.SlotSize)
	if offset+int64(page.SlotSize) > m.size {
		return util.ErrPageOutOfBounds
	}

	pg, err := page.Deserialize(m.data[offset : offset+int64(page.SlotSize)])
	if err != nil {
		return fmt.Errorf("disk: read page %d: %w", id, err)
	}
	*dst = pg.Data

	return nil
}

// WritePage persists src as the on-disk image of id, growing the mapping if
// id falls beyond the currently mapped region.
func (m *Manager) WritePage(id util.PageID, src *[util.PageSize]byte) error {
	if id < 0 {
		return util.ErrInvalidPageID
	}
	offset := int64(id) * int64(page.SlotSize)
	if offset+int64(page.SlotSize) > m.size {
		newSize := max(m.size*2, offset+int64(page.SlotSize))
		if newSize > maxMapSize {
			return util.ErrMaxMapSizeExceeded
		}
		if err := munmap(m); err != nil {
			return fmt.Errorf("disk: unmap for growth: %w", err)
		}
		if err := mmap(m, newSize); err != nil {
			return fmt.Errorf("disk: remap for growth: %w", err)
		}
	}

	pg := &page.Page{Header: page.Header{PageID: id}, Data: *src}
	copy(m.data[offset:], pg.Serialize())

	return nil
}

// DeallocatePage is a no-op: the slot's disk space is not reclaimed and its
// bytes stay in the file. The pool's monotonic id counter never reuses a
// deallocated id regardless (§4.4 Page allocation).
func (m *Manager) DeallocatePage(util.PageID) error {
	return nil
}

// Close unmaps and closes the backing file.
func (m *Manager) Close() error {
	if m == nil {
		return nil
	}

	var errs []error
	if err := munmap(m); err != nil {
		errs = append(errs, fmt.Errorf("disk: unmap: %w", err))
	}
	if m.file != nil {
		if err := m.file.Sync(); err != nil {
			errs = append(errs, fmt.Errorf("disk: sync: %w", err))
		}
		if err := m.file.Close(); err != nil {
			errs = append(errs, fmt.Errorf("disk: close: %w", err))
		}
		m.file = nil
	}

	return errors.Join(errs...)
}
