package page

import (
	util "github.com/nikunjparasar/cmu-bus-tub/internal/utils"
)

// CreateTestPage builds a Page for tests. Data is always exactly
// util.PageSize wide regardless of SlotSize's header overhead, so copy
// alone already discards any fixture bytes beyond Data's length — no
// separate bounds check is needed, unlike a wire format where the body
// and the allocated buffer could differ in size.
func CreateTestPage(pageID util.PageID, data []byte) *Page {
	p := &Page{Header: Header{PageID: pageID}}
	copy(p.Data[:], data)
	return p
}
