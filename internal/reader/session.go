package reader

import (
	"fmt"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/b4ndithelps/wave/internal/epub"
	"github.com/b4ndithelps/wave/internal/htmlstyling"
	"github.com/b4ndithelps/wave/internal/pagination"
)

type cachedItem struct {
	data      []byte
	mediaType string
}

// Session is one open book.
type Session struct {
	BookID   uint
	Path     string
	Title    string
	Author   string
	OpenedAt time.Time

	book    *epub.Book
	tracker *pagination.Tracker
	styles  StyleSource
	chrome  int

	// rendered spine documents and raw resources, scoped to this book
	cache *expirable.LRU[string, cachedItem]

	titlesMu sync.Mutex
	titles   map[int]string
}

// Status is what the page info bar shows.
type Status struct {
	SpineIndex   int    `json:"spine_index"`
	SpineCount   int    `json:"spine_count"`
	PageIndex    int    `json:"page_index"`
	PageCount    int    `json:"page_count"`
	PageLabel    string `json:"page_label"`
	ChapterTitle string `json:"chapter_title"`
	Progress     int    `json:"progress"`
	Measured     bool   `json:"measured"`
}

// Tracker returns the book's page tracker.
func (s *Session) Tracker() *pagination.Tracker {
	return s.tracker
}

// SpineCount returns the number of spine items.
func (s *Session) SpineCount() int {
	return s.book.SpineCount()
}

// SpineHTML returns spine item i styled for display. Output is cached per
// style version, so a style change re-renders on next request.
func (s *Session) SpineHTML(i int) ([]byte, error) {
	key := fmt.Sprintf("spine:%d:%d", i, s.styles.Version())
	if item, ok := s.cache.Get(key); ok {
		return item.data, nil
	}

	raw, err := s.book.ReadSpineItem(i)
	if err != nil {
		return nil, err
	}
	style, err := s.styles.CurrentStyle()
	if err != nil {
		return nil, err
	}
	rendered, err := htmlstyling.ProcessHTML(raw, style, s.chrome)
	if err != nil {
		return nil, err
	}

	s.cache.Add(key, cachedItem{data: rendered, mediaType: "text/html; charset=utf-8"})
	return rendered, nil
}

// Resource returns an image or other manifest item referenced by a spine
// document.
func (s *Session) Resource(href string) ([]byte, string, error) {
	key := "res:" + href
	if item, ok := s.cache.Get(key); ok {
		return item.data, item.mediaType, nil
	}

	data, mediaType, err := s.book.ReadResource(href)
	if err != nil {
		return nil, "", err
	}
	s.cache.Add(key, cachedItem{data: data, mediaType: mediaType})
	return data, mediaType, nil
}

// ChapterTitle returns the title of spine item i.
func (s *Session) ChapterTitle(i int) string {
	s.titlesMu.Lock()
	defer s.titlesMu.Unlock()

	if title, ok := s.titles[i]; ok {
		return title
	}
	title := s.book.ChapterTitle(i)
	s.titles[i] = title
	return title
}

// Status reports the page info for the current position.
func (s *Session) Status() Status {
	st := s.tracker.State()
	return Status{
		SpineIndex:   st.SpineIndex,
		SpineCount:   st.SpineCount,
		PageIndex:    st.PageIndex,
		PageCount:    st.PageCount,
		PageLabel:    fmt.Sprintf("Page %d of %d", st.PageIndex+1, st.PageCount),
		ChapterTitle: s.ChapterTitle(st.SpineIndex),
		Progress:     st.Progress,
		Measured:     st.Measured,
	}
}
