package buffer

import (
	util "github.com/nikunjparasar/cmu-bus-tub/internal/utils"
)

// PageTable maps resident page ids to the frame holding them (§4.2). Insert,
// Lookup, and Erase are all O(1) amortized; there is no iteration in hot
// paths.
type PageTable struct {
	frameOf map[util.PageID]FrameID
}

// NewPageTable returns an empty page table.
func NewPageTable() *PageTable {
	return &PageTable{frameOf: make(map[util.PageID]FrameID)}
}

// Lookup reports the frame holding id, if any.
func (pt *PageTable) Lookup(id util.PageID) (FrameID, bool) {
	f, ok := pt.frameOf[id]
	return f, ok
}

// Insert records that id now resides in frame.
func (pt *PageTable) Insert(id util.PageID, frame FrameID) {
	pt.frameOf[id] = frame
}

// Erase removes id's mapping, if present.
func (pt *PageTable) Erase(id util.PageID) {
	delete(pt.frameOf, id)
}

// Len returns the number of resident pages.
func (pt *PageTable) Len() int { return len(pt.frameOf) }
