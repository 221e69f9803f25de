package disk

import (
	"testing"

	"github.com/stretchr/testify/assert"

	util "github.com/nikunjparasar/cmu-bus-tub/internal/utils"
)

func TestNewManagerRejectsNonPositiveInitialPages(t *testing.T) {
	path, cleanup := util.CreateTempFile(t)
	defer cleanup()

	_, err := NewManager(path, 0)
	assert.ErrorIs(t, err, util.ErrInvalidInitialPages)
}

func TestWriteReadRoundTrip(t *testing.T) {
	path, cleanup := util.CreateTempFile(t)
	defer cleanup()

	m, err := NewManager(path, 2)
	assert.NoError(t, err)
	defer m.Close()

	var src [util.PageSize]byte
	copy(src[:], []byte("HELLO"))

	assert.NoError(t, m.WritePage(0, &src))

	var dst [util.PageSize]byte
	assert.NoError(t, m.ReadPage(0, &dst))
	assert.Equal(t, src, dst)
}

func TestWritePageGrowsMapping(t *testing.T) {
	path, cleanup := util.CreateTempFile(t)
	defer cleanup()

	m, err := NewManager(path, 1)
	assert.NoError(t, err)
	defer m.Close()

	var src [util.PageSize]byte
	copy(src[:], []byte("grown page"))

	// Page 10 lies well beyond the single initially mapped page.
	assert.NoError(t, m.WritePage(10, &src))

	var dst [util.PageSize]byte
	assert.NoError(t, m.ReadPage(10, &dst))
	assert.Equal(t, src, dst)
}

func TestReadPageOutOfBounds(t *testing.T) {
	path, cleanup := util.CreateTempFile(t)
	defer cleanup()

	m, err := NewManager(path, 1)
	assert.NoError(t, err)
	defer m.Close()

	var dst [util.PageSize]byte
	err = m.ReadPage(5, &dst)
	assert.ErrorIs(t, err, util.ErrPageOutOfBounds)
}

func TestReadPageInvalidID(t *testing.T) {
	path, cleanup := util.CreateTempFile(t)
	defer cleanup()

	m, err := NewManager(path, 1)
	assert.NoError(t, err)
	defer m.Close()

	var dst [util.PageSize]byte
	assert.ErrorIs(t, m.ReadPage(util.InvalidPageID, &dst), util.ErrInvalidPageID)
}

func TestDeallocatePageIsANoOp(t *testing.T) {
	path, cleanup := util.CreateTempFile(t)
	defer cleanup()

	m, err := NewManager(path, 1)
	assert.NoError(t, err)
	defer m.Close()

	assert.NoError(t, m.DeallocatePage(0))
}

func TestCloseSucceedsAndNilManagerIsSafe(t *testing.T) {
	path, cleanup := util.CreateTempFile(t)
	defer cleanup()

	m, err := NewManager(path, 1)
	assert.NoError(t, err)
	assert.NoError(t, m.Close())

	var m2 *Manager
	assert.NoError(t, m2.Close())
}
