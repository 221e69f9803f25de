package buffer

import (
	"sync"

	util "github.com/nikunjparasar/cmu-bus-tub/internal/utils"
)

// Replacer is the contract a page replacement policy satisfies (§4.3). The
// pool coordinator is the only caller; every call it makes already holds the
// pool latch, but a Replacer carries its own lock so it remains safe to
// drive standalone (tests do exactly that).
type Replacer interface {
	// RecordAccess appends the current logical clock to f's history. An
	// untracked f starts being tracked; an out-of-range f is ignored.
	RecordAccess(f FrameID)
	// SetEvictable marks a tracked frame evictable or not. A no-op for an
	// untracked f.
	SetEvictable(f FrameID, evictable bool)
	// Evict returns the victim among evictable frames, fully removing it
	// from replacer state. ok is false if no evictable frame exists.
	Evict() (f FrameID, ok bool)
	// Remove unconditionally drops f's history and evictable state. The
	// caller must ensure f is not pinned.
	Remove(f FrameID)
	// Size returns the number of evictable tracked frames.
	Size() int
}

// replacerEntry is one frame's bookkeeping: up to k most recent access
// timestamps (ascending, oldest first) and whether it may currently be
// evicted.
type replacerEntry struct {
	history   []uint64
	evictable bool
}

// LRUKReplacer implements the LRU-K policy (§4.3): among evictable frames,
// prefer the one with the largest backward k-distance. Frames with fewer
// than k recorded accesses (the preliminary tier) have infinite backward
// k-distance and are always preferred over frames with k or more (the cache
// tier, which retains only the k most recent accesses).
type LRUKReplacer struct {
	mu sync.Mutex

	k     int
	size  int
	clock uint64

	entries        map[FrameID]*replacerEntry
	evictableCount int
}

// NewLRUKReplacer builds a replacer tracking up to numFrames frame ids, each
// remembering up to k accesses.
func NewLRUKReplacer(numFrames, k int) *LRUKReplacer {
	if numFrames <= 0 {
		panic(util.ErrInvalidPoolSize)
	}
	if k < 1 {
		panic(util.ErrInvalidReplacerK)
	}
	return &LRUKReplacer{
		k:       k,
		size:    numFrames,
		entries: make(map[FrameID]*replacerEntry),
	}
}

func (r *LRUKReplacer) inRange(f FrameID) bool {
	return f >= 0 && int(f) < r.size
}

// RecordAccess implements Replacer.
func (r *LRUKReplacer) RecordAccess(f FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.inRange(f) {
		return
	}

	r.clock++
	e, ok := r.entries[f]
	if !ok {
		e = &replacerEntry{}
		r.entries[f] = e
	}

	e.history = append(e.history, r.clock)
	if len(e.history) > r.k {
		// Already in the cache tier: keep only the k most recent.
		e.history = e.history[len(e.history)-r.k:]
	}
}

// SetEvictable implements Replacer.
func (r *LRUKReplacer) SetEvictable(f FrameID, evictable bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[f]
	if !ok {
		return
	}
	if e.evictable == evictable {
		return
	}

	e.evictable = evictable
	if evictable {
		r.evictableCount++
	} else {
		r.evictableCount--
	}
}

// Evict implements Replacer: it scans the preliminary tier first (infinite
// backward k-distance, tie-broken by the oldest first access), then the
// cache tier (tie-broken by the oldest retained, i.e. k-th-most-recent,
// access).
func (r *LRUKReplacer) Evict() (FrameID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	victim, ok := r.pickVictim(func(e *replacerEntry) bool { return len(e.history) < r.k })
	if !ok {
		victim, ok = r.pickVictim(func(e *replacerEntry) bool { return len(e.history) >= r.k })
	}
	if !ok {
		return InvalidFrameID, false
	}

	delete(r.entries, victim)
	r.evictableCount--

	return victim, true
}

// pickVictim scans entries matching tier, returning the evictable one with
// the smallest oldest-recorded timestamp.
func (r *LRUKReplacer) pickVictim(tier func(*replacerEntry) bool) (FrameID, bool) {
	var (
		victim FrameID
		oldest uint64
		found  bool
	)
	for f, e := range r.entries {
		if !e.evictable || !tier(e) {
			continue
		}
		if !found || e.history[0] < oldest {
			victim, oldest, found = f, e.history[0], true
		}
	}
	return victim, found
}

// Remove implements Replacer.
func (r *LRUKReplacer) Remove(f FrameID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[f]
	if !ok {
		return
	}
	if e.evictable {
		r.evictableCount--
	}
	delete(r.entries, f)
}

// Size implements Replacer.
func (r *LRUKReplacer) Size() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.evictableCount
}
