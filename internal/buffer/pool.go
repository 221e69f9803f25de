// Package buffer implements the buffer pool manager: a bounded in-memory
// cache of fixed-size disk pages fronted by an LRU-K replacement policy
// (§§2-4). Page layout, disk I/O, and logging are external collaborators
// the pool only ever touches through the DiskManager and wal.Manager
// interfaces.
package buffer

import (
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nikunjparasar/cmu-bus-tub/internal/wal"

	util "github.com/nikunjparasar/cmu-bus-tub/internal/utils"
)

// DiskManager is the external collaborator the pool delegates page I/O to
// (§6). It operates purely on raw page-sized buffers; it has no notion of
// pinning, dirtiness, or replacement.
type DiskManager interface {
	ReadPage(id util.PageID, dst *[util.PageSize]byte) error
	WritePage(id util.PageID, src *[util.PageSize]byte) error
	DeallocatePage(id util.PageID) error
}

// Pool is the coordinator (§4.4): the public surface higher layers use to
// acquire and release pinned pages. Every exported method acquires mu for
// its entire duration, including any disk I/O it performs (§5 — a
// deliberate, documented throughput compromise).
type Pool struct {
	mu sync.Mutex

	frames   *FrameArray
	table    *PageTable
	replacer Replacer
	disk     DiskManager
	log      wal.Manager
	logger   *slog.Logger

	freeList   []FrameID
	nextPageID util.PageID
}

// Option configures a Pool at construction.
type Option func(*Pool)

// WithLogManager attaches a write-ahead-log hook the pool never calls
// itself (§6 Log Manager, consumed, optional).
func WithLogManager(m wal.Manager) Option {
	return func(p *Pool) { p.log = m }
}

// WithLogger overrides the pool's diagnostic logger.
func WithLogger(l *slog.Logger) Option {
	return func(p *Pool) { p.logger = l }
}

// NewPool builds a pool of poolSize frames backed by disk, replacing via
// LRU-K with tier threshold k. Panics on poolSize <= 0 or k < 1, matching
// NewLRUKReplacer's contract (§6 Configuration at construction).
func NewPool(poolSize, k int, disk DiskManager, opts ...Option) *Pool {
	if disk == nil {
		panic(util.ErrDiskManagerNil)
	}

	freeList := make([]FrameID, poolSize)
	for i := range freeList {
		freeList[i] = FrameID(i)
	}

	p := &Pool{
		frames:   NewFrameArray(poolSize),
		table:    NewPageTable(),
		replacer: NewLRUKReplacer(poolSize, k),
		disk:     disk,
		log:      wal.NoOp{},
		logger:   slog.Default(),
		freeList: freeList,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// full reports whether every frame is currently pinned (§4.4 new_page step
// 1), equivalent by invariant 5 to the free list and replacer both being
// empty.
func (p *Pool) full() bool {
	return len(p.freeList) == 0 && p.replacer.Size() == 0
}

// allocFrame picks a frame for a page about to be installed: the free list
// first, else an LRU-K victim, writing the victim back to disk if dirty. It
// reports ErrPoolFull if no frame is available.
func (p *Pool) allocFrame() (FrameID, error) {
	if len(p.freeList) > 0 {
		f := p.freeList[len(p.freeList)-1]
		p.freeList = p.freeList[:len(p.freeList)-1]
		return f, nil
	}

	victim, ok := p.replacer.Evict()
	if !ok {
		return InvalidFrameID, util.ErrPoolFull
	}

	vf := p.frames.At(victim)
	if vf.Dirty {
		if err := p.disk.WritePage(vf.PageID, &vf.Data); err != nil {
			// Roll back: the victim is no longer tracked by the replacer
			// (Evict removed it), so re-admit it as evictable. Its
			// k-history is lost, an acceptable cost of a rare failure
			// path (§4.4 Failure semantics).
			p.replacer.RecordAccess(victim)
			p.replacer.SetEvictable(victim, true)
			return InvalidFrameID, fmt.Errorf("buffer: evict page %d: %w", vf.PageID, err)
		}
		vf.Dirty = false
	}

	p.table.Erase(vf.PageID)
	p.frames.Reset(victim)

	return victim, nil
}

// NewPage mints a fresh page, pins it, and returns its id plus a pointer to
// its data buffer. The returned buffer is zeroed (§4.4 new_page).
func (p *Pool) NewPage() (util.PageID, *[util.PageSize]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.full() {
		return util.InvalidPageID, nil, util.ErrPoolFull
	}

	frameID, err := p.allocFrame()
	if err != nil {
		return util.InvalidPageID, nil, err
	}

	id := p.nextPageID
	p.nextPageID++

	f := p.frames.At(frameID)
	f.PageID = id
	f.PinCount = 1
	f.Dirty = false

	p.table.Insert(id, frameID)
	p.replacer.RecordAccess(frameID)
	p.replacer.SetEvictable(frameID, false)

	p.logger.Debug("new page", "page_id", id, "frame_id", frameID)

	return id, &f.Data, nil
}

// FetchPage returns a pointer to id's data buffer, pinning it. A resident
// page is a hit (no I/O); otherwise a frame is acquired and the page read
// from disk (§4.4 fetch_page).
func (p *Pool) FetchPage(id util.PageID) (*[util.PageSize]byte, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if frameID, ok := p.table.Lookup(id); ok {
		f := p.frames.At(frameID)
		f.PinCount++
		p.replacer.RecordAccess(frameID)
		p.replacer.SetEvictable(frameID, false)
		return &f.Data, nil
	}

	if p.full() {
		return nil, util.ErrPoolFull
	}

	frameID, err := p.allocFrame()
	if err != nil {
		return nil, err
	}

	f := p.frames.At(frameID)
	f.PageID = id
	f.PinCount = 1
	f.Dirty = false

	if err := p.disk.ReadPage(id, &f.Data); err != nil {
		// Undo the allocation: return the frame to the free list rather
		// than leaving it half-installed.
		f.reset()
		p.freeList = append(p.freeList, frameID)
		return nil, fmt.Errorf("buffer: fetch page %d: %w", id, err)
	}

	p.table.Insert(id, frameID)
	p.replacer.RecordAccess(frameID)
	p.replacer.SetEvictable(frameID, false)

	p.logger.Debug("fetch page", "page_id", id, "frame_id", frameID)

	return &f.Data, nil
}

// UnpinPage releases one reference to id, optionally marking it dirty. It
// reports false if id is not resident or is already unpinned (§4.4
// unpin_page, §7).
func (p *Pool) UnpinPage(id util.PageID, dirty bool) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.table.Lookup(id)
	if !ok {
		return false
	}

	f := p.frames.At(frameID)
	if f.PinCount == 0 {
		return false
	}

	if dirty {
		f.Dirty = true
	}

	f.PinCount--
	if f.PinCount == 0 {
		p.replacer.SetEvictable(frameID, true)
	}

	return true
}

// FlushPage writes id's current bytes to disk unconditionally, regardless
// of its dirty flag, without clearing that flag (§4.4 flush_page, §9 Open
// Questions — flush_page takes the pool latch here, unlike the source).
func (p *Pool) FlushPage(id util.PageID) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.flushLocked(id)
}

func (p *Pool) flushLocked(id util.PageID) error {
	if id == util.InvalidPageID {
		return util.ErrInvalidPageID
	}

	frameID, ok := p.table.Lookup(id)
	if !ok {
		return util.ErrPageNotFound
	}

	f := p.frames.At(frameID)
	if err := p.disk.WritePage(id, &f.Data); err != nil {
		return fmt.Errorf("buffer: flush page %d: %w", id, err)
	}

	return nil
}

// FlushAllPages flushes every resident frame, collecting and returning any
// write errors together (§4.4 flush_all_pages).
func (p *Pool) FlushAllPages() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var errs []error
	for i := 0; i < p.frames.Len(); i++ {
		id := p.frames.At(FrameID(i)).PageID
		if id == util.InvalidPageID {
			continue
		}
		if err := p.flushLocked(id); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// DeletePage removes id from the pool, deallocating it at the disk
// manager. It reports false only if id is still pinned (§4.4 delete_page,
// §7). A non-resident id is reported as already deleted.
func (p *Pool) DeletePage(id util.PageID) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	frameID, ok := p.table.Lookup(id)
	if !ok {
		return true, nil
	}

	f := p.frames.At(frameID)
	if f.PinCount > 0 {
		return false, nil
	}

	p.replacer.Remove(frameID)
	p.table.Erase(id)
	p.frames.Reset(frameID)
	p.freeList = append(p.freeList, frameID)

	if err := p.disk.DeallocatePage(id); err != nil {
		return true, fmt.Errorf("buffer: deallocate page %d: %w", id, err)
	}

	return true, nil
}

// Stats summarizes pool occupancy, useful for diagnostics and the demo CLI.
type Stats struct {
	PoolSize   int
	Resident   int
	Free       int
	Evictable  int
	NextPageID util.PageID
}

// Stats reports a snapshot of pool occupancy.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return Stats{
		PoolSize:   p.frames.Len(),
		Resident:   p.table.Len(),
		Free:       len(p.freeList),
		Evictable:  p.replacer.Size(),
		NextPageID: p.nextPageID,
	}
}
