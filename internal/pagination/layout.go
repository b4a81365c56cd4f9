// Package pagination turns a continuously scrollable rendered document into a
// deck of fixed-height pages and tracks the reader's place across sessions.
//
// The arithmetic is platform independent: the rendering surface measures the
// content height, the host reports the viewport height, and everything else
// (page count, page offsets, scroll-to-page resolution) is computed here.
package pagination

import "sort"

// Layout is the page table for one measured document. A Layout is immutable
// once built; recomputation produces a new value.
type Layout struct {
	ContentHeight int   `json:"content_height"`
	PageHeight    int   `json:"page_height"`
	Offsets       []int `json:"offsets"`
}

// EffectivePageHeight returns the height available for content once the
// chrome (status/info bar) is subtracted. Never less than 1.
func EffectivePageHeight(viewportHeight, chromeHeight int) int {
	if chromeHeight < 0 {
		chromeHeight = 0
	}
	return atLeastOne(viewportHeight - chromeHeight)
}

// Calculate slices a document of contentHeight pixels into pages of
// pageHeight pixels. Non-positive inputs are treated as 1 since they only
// occur while the surface has not been measured yet.
func Calculate(contentHeight, pageHeight int) Layout {
	contentHeight = atLeastOne(contentHeight)
	pageHeight = atLeastOne(pageHeight)

	count := (contentHeight + pageHeight - 1) / pageHeight
	offsets := make([]int, count)
	for i := range offsets {
		offsets[i] = i * pageHeight
	}

	return Layout{
		ContentHeight: contentHeight,
		PageHeight:    pageHeight,
		Offsets:       offsets,
	}
}

// PageCount returns the number of pages. An empty Layout counts as one page.
func (l Layout) PageCount() int {
	if len(l.Offsets) == 0 {
		return 1
	}
	return len(l.Offsets)
}

// PageAt resolves a scroll offset to the greatest page whose start offset is
// at or before scrollY. A scroll position exactly on a page start belongs to
// that page; anything past the last start belongs to the last page.
func (l Layout) PageAt(scrollY int) int {
	if len(l.Offsets) == 0 || scrollY <= 0 {
		return 0
	}
	// first index whose offset is strictly greater than scrollY
	i := sort.Search(len(l.Offsets), func(i int) bool {
		return l.Offsets[i] > scrollY
	})
	return i - 1
}

// Clamp forces page into [0, PageCount()-1].
func (l Layout) Clamp(page int) int {
	if page < 0 {
		return 0
	}
	if last := l.PageCount() - 1; page > last {
		return last
	}
	return page
}

// OffsetOf returns the scroll offset of page after clamping it.
func (l Layout) OffsetOf(page int) int {
	if len(l.Offsets) == 0 {
		return 0
	}
	return l.Offsets[l.Clamp(page)]
}

// LastPage returns the index of the final page.
func (l Layout) LastPage() int {
	return l.PageCount() - 1
}

// Progress returns overall reading progress in whole percent. Each spine item
// carries an equal share of the book and the page index gives the fraction
// read within the current one.
func Progress(spineIndex, spineCount, pageIndex, pageCount int) int {
	if spineCount <= 0 {
		return 0
	}
	spineWeight := 1.0 / float64(spineCount)
	var within float64
	if pageCount > 0 {
		within = float64(pageIndex) / float64(pageCount)
	}
	overall := (float64(spineIndex) * spineWeight) + (within * spineWeight)
	return int(overall * 100)
}

func atLeastOne(v int) int {
	if v < 1 {
		return 1
	}
	return v
}
