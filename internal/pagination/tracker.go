package pagination

import (
	"errors"
	"fmt"
	"sync"
)

var (
	// ErrNotMeasured is returned when page navigation is requested before the
	// current spine item has been measured.
	ErrNotMeasured = errors.New("current spine item has not been measured")

	// ErrStaleMeasure is returned when a measurement arrives for a spine item
	// that is no longer current.
	ErrStaleMeasure = errors.New("measurement is for a spine item that is not current")
)

// State is a consistent snapshot of a Tracker.
type State struct {
	SpineIndex int     `json:"spine_index"`
	SpineCount int     `json:"spine_count"`
	PageIndex  int     `json:"page_index"`
	PageCount  int     `json:"page_count"`
	Progress   int     `json:"progress"`
	Measured   bool    `json:"measured"`
	Layout     *Layout `json:"layout,omitempty"`
}

// Tracker follows the reader through one open book. It owns the page table of
// the current spine item and swaps it whole on every measurement, so readers
// of the table never observe a half-built one.
type Tracker struct {
	documentID string
	spineCount int
	chrome     int
	saver      Scheduler

	mu         sync.RWMutex
	spine      int
	page       int
	layout     *Layout
	restore    *Position
	landOnLast bool
}

// NewTracker creates a tracker for a book with spineCount spine items.
// chromeHeight is subtracted from every reported viewport height.
func NewTracker(documentID string, spineCount, chromeHeight int, saver Scheduler) *Tracker {
	if spineCount < 1 {
		spineCount = 1
	}
	if chromeHeight < 0 {
		chromeHeight = 0
	}
	return &Tracker{
		documentID: documentID,
		spineCount: spineCount,
		chrome:     chromeHeight,
		saver:      saver,
	}
}

// DocumentID returns the identifier positions are saved under.
func (t *Tracker) DocumentID() string {
	return t.documentID
}

// Restore seeds the tracker from a persisted position. A nil position starts
// the book at the first page of the first spine item. The page part is
// applied once the restored spine item is measured.
func (t *Tracker) Restore(pos *Position) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.layout = nil
	t.landOnLast = false
	if pos == nil {
		t.spine, t.page, t.restore = 0, 0, nil
		return
	}

	spine := clampInt(pos.SpineIndex, 0, t.spineCount-1)
	restored := Position{SpineIndex: spine, PageIndex: pos.PageIndex}
	t.spine = spine
	t.page = 0
	t.restore = &restored
}

// Measure installs the page table for spineIndex from a measured content
// height and viewport height and returns it together with the page the
// reader should land on.
func (t *Tracker) Measure(spineIndex, contentHeight, viewportHeight int) (Layout, int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if spineIndex != t.spine {
		return Layout{}, 0, fmt.Errorf("%w: got %d, current %d", ErrStaleMeasure, spineIndex, t.spine)
	}

	layout := Calculate(contentHeight, EffectivePageHeight(viewportHeight, t.chrome))
	remeasure := t.layout != nil

	var page int
	switch {
	case t.landOnLast:
		page = layout.LastPage()
		t.landOnLast = false
	case t.restore != nil && t.restore.SpineIndex == spineIndex:
		page = layout.Clamp(t.restore.PageIndex)
		t.restore = nil
	case remeasure:
		page = layout.Clamp(t.page)
	default:
		page = 0
	}

	t.layout = &layout
	t.page = page
	t.scheduleLocked()

	return layout, page, nil
}

// Scroll resolves a live scroll offset to a page. changed reports whether
// the page differs from the previous one; only then is a save scheduled.
func (t *Tracker) Scroll(scrollY int) (page int, changed bool, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.layout == nil {
		return t.page, false, ErrNotMeasured
	}
	page = t.layout.PageAt(scrollY)
	if page == t.page {
		return page, false, nil
	}
	t.page = page
	t.scheduleLocked()
	return page, true, nil
}

// GoTo jumps to page within the current spine item, clamping out-of-range
// requests.
func (t *Tracker) GoTo(page int) (Move, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.layout == nil {
		return Move{}, ErrNotMeasured
	}
	page = t.layout.Clamp(page)
	moved := page != t.page
	t.page = page
	t.scheduleLocked()
	return Move{
		SpineIndex: t.spine,
		PageIndex:  page,
		Offset:     t.layout.OffsetOf(page),
		Moved:      moved,
	}, nil
}

// GoToSpine jumps to the first page of spineIndex (clamped).
func (t *Tracker) GoToSpine(spineIndex int) Move {
	t.mu.Lock()
	defer t.mu.Unlock()

	spineIndex = clampInt(spineIndex, 0, t.spineCount-1)
	if spineIndex == t.spine && t.layout != nil {
		t.page = 0
		t.scheduleLocked()
		return Move{SpineIndex: t.spine, Moved: true}
	}
	t.enterSpineLocked(spineIndex, false)
	return Move{SpineIndex: spineIndex, SpineChanged: true, Moved: true}
}

// Next advances one page, crossing into the next spine item from the last
// page. At the end of the book it does nothing.
func (t *Tracker) Next() (Move, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.layout == nil {
		return Move{}, ErrNotMeasured
	}
	if t.page < t.layout.LastPage() {
		t.page++
		t.scheduleLocked()
		return Move{SpineIndex: t.spine, PageIndex: t.page, Offset: t.layout.OffsetOf(t.page), Moved: true}, nil
	}
	if t.spine < t.spineCount-1 {
		t.enterSpineLocked(t.spine+1, false)
		return Move{SpineIndex: t.spine, SpineChanged: true, Moved: true}, nil
	}
	return Move{SpineIndex: t.spine, PageIndex: t.page, Offset: t.layout.OffsetOf(t.page)}, nil
}

// Prev goes back one page. From the first page it moves to the previous
// spine item and lands on its last page once that item is measured.
func (t *Tracker) Prev() (Move, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.layout == nil {
		return Move{}, ErrNotMeasured
	}
	if t.page > 0 {
		t.page--
		t.scheduleLocked()
		return Move{SpineIndex: t.spine, PageIndex: t.page, Offset: t.layout.OffsetOf(t.page), Moved: true}, nil
	}
	if t.spine > 0 {
		t.enterSpineLocked(t.spine-1, true)
		return Move{SpineIndex: t.spine, SpineChanged: true, Moved: true}, nil
	}
	return Move{SpineIndex: t.spine}, nil
}

// Position returns the current position.
func (t *Tracker) Position() Position {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.positionLocked()
}

// State returns a snapshot of the tracker.
func (t *Tracker) State() State {
	t.mu.RLock()
	defer t.mu.RUnlock()

	st := State{
		SpineIndex: t.spine,
		SpineCount: t.spineCount,
		PageIndex:  t.page,
		PageCount:  t.pageCountLocked(),
		Measured:   t.layout != nil,
	}
	st.Progress = Progress(st.SpineIndex, st.SpineCount, st.PageIndex, st.PageCount)
	if t.layout != nil {
		l := *t.layout
		st.Layout = &l
	}
	return st
}

func (t *Tracker) enterSpineLocked(spine int, landOnLast bool) {
	t.spine = spine
	t.page = 0
	t.layout = nil
	t.restore = nil
	t.landOnLast = landOnLast
	if !landOnLast {
		// the first page of the new spine is known without measuring
		t.scheduleLocked()
	}
}

func (t *Tracker) pageCountLocked() int {
	if t.layout == nil {
		return 1
	}
	return t.layout.PageCount()
}

func (t *Tracker) positionLocked() Position {
	return Position{
		SpineIndex: t.spine,
		PageIndex:  t.page,
		Progress:   Progress(t.spine, t.spineCount, t.page, t.pageCountLocked()),
	}
}

func (t *Tracker) scheduleLocked() {
	if t.saver == nil {
		return
	}
	t.saver.Schedule(t.documentID, t.positionLocked())
}

func clampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
