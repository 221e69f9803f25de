package buffer

import (
	util "github.com/nikunjparasar/cmu-bus-tub/internal/utils"
)

// FrameID identifies a slot in the pool's frame array, in [0, pool_size).
type FrameID int

// InvalidFrameID is returned where no frame applies.
const InvalidFrameID FrameID = -1

// Frame is one slot of the frame array: the resident page's bytes plus the
// bookkeeping needed to pin, dirty, and evict it (§4.1).
type Frame struct {
	PageID   util.PageID
	Data     [util.PageSize]byte
	PinCount int32
	Dirty    bool
}

func (f *Frame) reset() {
	f.PageID = util.InvalidPageID
	f.Data = [util.PageSize]byte{}
	f.PinCount = 0
	f.Dirty = false
}

// FrameArray is the fixed pool_size array of frames. It never grows after
// construction, so pointers handed out via At remain stable for the life of
// the pool.
type FrameArray struct {
	frames []Frame
}

// NewFrameArray builds a zero-valued frame array of the given size, every
// slot starting empty (§4.1).
func NewFrameArray(size int) *FrameArray {
	fa := &FrameArray{frames: make([]Frame, size)}
	for i := range fa.frames {
		fa.frames[i].PageID = util.InvalidPageID
	}
	return fa
}

// Len returns pool_size.
func (fa *FrameArray) Len() int { return len(fa.frames) }

// At returns a pointer to the frame at id. Callers must keep id in range.
func (fa *FrameArray) At(id FrameID) *Frame { return &fa.frames[id] }

// Reset restores the frame at id to its empty state.
func (fa *FrameArray) Reset(id FrameID) { fa.frames[id].reset() }
