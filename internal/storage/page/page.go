// Package page defines the on-disk wire format the disk manager uses to
// persist a frame's bytes. Header layout and checksumming are a property of
// the page store, not the buffer pool: the pool only ever sees a raw
// [util.PageSize]byte buffer (§1 Out of scope).
package page

import (
	"encoding/binary"
	"fmt"

	"github.com/cespare/xxhash/v2"

	util "github.com/nikunjparasar/cmu-bus-tub/internal/utils"
)

// HeaderSize is the size, in bytes, of the serialized Header: PageID (8) +
// Checksum (4) + Flags (2) + padding (2).
const HeaderSize = 16

// SlotSize is the on-disk footprint of one page: its header plus a full
// util.PageSize data region. The buffer pool only ever sees the latter —
// the header is a disk-manager-private framing detail (§1 Out of scope).
const SlotSize = HeaderSize + util.PageSize

// Header is the preamble stored alongside a page's bytes on disk.
type Header struct {
	PageID   util.PageID
	Checksum uint32
	Flags    uint16
	_        uint16
}

// Page is the on-disk unit the disk manager reads and writes: a header plus
// exactly one page-sized data region.
type Page struct {
	Header Header
	Data   [util.PageSize]byte
}

func checksum(data []byte) uint32 {
	return uint32(xxhash.Sum64(data))
}

// Serialize packs the page into a SlotSize byte slice, stamping a fresh
// checksum over Data so Deserialize can detect on-disk corruption.
func (p *Page) Serialize() []byte {
	p.Header.Checksum = checksum(p.Data[:])

	buf := make([]byte, SlotSize)
	binary.LittleEndian.PutUint64(buf[0:8], uint64(p.Header.PageID))
	binary.LittleEndian.PutUint32(buf[8:12], p.Header.Checksum)
	binary.LittleEndian.PutUint16(buf[12:14], p.Header.Flags)
	copy(buf[HeaderSize:], p.Data[:])

	return buf
}

// Deserialize unpacks a SlotSize buffer and validates its checksum.
func Deserialize(buf []byte) (*Page, error) {
	if len(buf) != SlotSize {
		return nil, util.ErrInvalidPageSize
	}

	p := &Page{
		Header: Header{
			PageID:   util.PageID(binary.LittleEndian.Uint64(buf[0:8])),
			Checksum: binary.LittleEndian.Uint32(buf[8:12]),
			Flags:    binary.LittleEndian.Uint16(buf[12:14]),
		},
	}
	copy(p.Data[:], buf[HeaderSize:])

	if got := checksum(p.Data[:]); got != p.Header.Checksum {
		return nil, fmt.Errorf("%w: page %d: stored %08x, computed %08x",
			util.ErrChecksumMismatch, p.Header.PageID, p.Header.Checksum, got)
	}

	return p, nil
}
