// Package reader owns the open books. A Session ties one EPUB to its page
// tracker and a cache of rendered spine documents; the Service hands
// sessions out by book ID and makes sure positions are saved when they close.
package reader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/b4ndithelps/wave/internal/entities"
	"github.com/b4ndithelps/wave/internal/epub"
	"github.com/b4ndithelps/wave/internal/htmlstyling"
	"github.com/b4ndithelps/wave/internal/pagination"
)

var ErrNotOpen = errors.New("book is not open")

// Library is the part of the books repository the reader needs.
type Library interface {
	GetBookByID(id uint) (*entities.Book, error)
	AddReadingTime(path string, seconds int64) error
}

// StyleSource provides the current reader style.
type StyleSource interface {
	CurrentStyle() (htmlstyling.EpubStyle, error)
	Version() uint64
}

// Config tunes sessions.
type Config struct {
	ChromeHeight   int
	SpineCacheSize int
	SpineCacheTTL  time.Duration
}

type Service struct {
	library   Library
	positions pagination.PositionStore
	saver     *pagination.AsyncSaver
	styles    StyleSource
	cfg       Config

	mu       sync.Mutex
	sessions map[uint]*Session
}

func NewService(library Library, positions pagination.PositionStore, saver *pagination.AsyncSaver, styles StyleSource, cfg Config) *Service {
	if cfg.SpineCacheSize < 1 {
		cfg.SpineCacheSize = 8
	}
	if cfg.SpineCacheTTL <= 0 {
		cfg.SpineCacheTTL = 30 * time.Minute
	}
	return &Service{
		library:   library,
		positions: positions,
		saver:     saver,
		styles:    styles,
		cfg:       cfg,
		sessions:  make(map[uint]*Session),
	}
}

// Open returns the session for bookID, opening the book if needed. The saved
// position is loaded before the EPUB is opened so the tracker starts at it.
// Loading happens outside the service lock; when two callers race to open
// the same book the first one to finish wins and the other copy is closed.
func (s *Service) Open(ctx context.Context, bookID uint) (*Session, error) {
	if session, err := s.Session(bookID); err == nil {
		return session, nil
	}

	session, err := s.load(ctx, bookID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if existing, ok := s.sessions[bookID]; ok {
		s.mu.Unlock()
		session.book.Close()
		return existing, nil
	}
	s.sessions[bookID] = session
	s.mu.Unlock()

	log.Printf("[READER] Opened %q at spine %d", session.Title, session.tracker.Position().SpineIndex)
	return session, nil
}

func (s *Service) load(ctx context.Context, bookID uint) (*Session, error) {
	book, err := s.library.GetBookByID(bookID)
	if err != nil {
		return nil, err
	}

	pos, err := s.positions.Load(ctx, book.BookPath)
	if err != nil {
		log.Printf("[READER] Failed to load position for %s, starting at the beginning: %v", book.BookPath, err)
		pos = nil
	}

	doc, err := epub.Open(book.BookPath)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", book.BookPath, err)
	}

	tracker := pagination.NewTracker(book.BookPath, doc.SpineCount(), s.cfg.ChromeHeight, s.saver)
	tracker.Restore(pos)

	return &Session{
		BookID:   book.ID,
		Path:     book.BookPath,
		Title:    doc.Title,
		Author:   doc.Author,
		OpenedAt: time.Now(),
		book:     doc,
		tracker:  tracker,
		styles:   s.styles,
		chrome:   s.cfg.ChromeHeight,
		cache:    expirable.NewLRU[string, cachedItem](s.cfg.SpineCacheSize, nil, s.cfg.SpineCacheTTL),
		titles:   make(map[int]string),
	}, nil
}

// Session returns an already open session.
func (s *Service) Session(bookID uint) (*Session, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, ok := s.sessions[bookID]
	if !ok {
		return nil, ErrNotOpen
	}
	return session, nil
}

// OpenSessions lists the IDs of open books.
func (s *Service) OpenSessions() []uint {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids := make([]uint, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	return ids
}

// Close flushes pending position saves for bookID, records the time spent
// reading, and releases the EPUB.
func (s *Service) Close(ctx context.Context, bookID uint) error {
	s.mu.Lock()
	session, ok := s.sessions[bookID]
	delete(s.sessions, bookID)
	s.mu.Unlock()

	if !ok {
		return ErrNotOpen
	}
	return s.closeSession(ctx, session)
}

// CloseAll closes every open session.
func (s *Service) CloseAll(ctx context.Context) {
	s.mu.Lock()
	sessions := s.sessions
	s.sessions = make(map[uint]*Session)
	s.mu.Unlock()

	for _, session := range sessions {
		if err := s.closeSession(ctx, session); err != nil {
			log.Printf("[READER] Failed to close %s: %v", session.Path, err)
		}
	}
}

func (s *Service) closeSession(ctx context.Context, session *Session) error {
	flushErr := s.saver.Flush(ctx)

	elapsed := int64(time.Since(session.OpenedAt).Seconds())
	if err := s.library.AddReadingTime(session.Path, elapsed); err != nil {
		log.Printf("[READER] Failed to record reading time for %s: %v", session.Path, err)
	}

	session.cache.Purge()
	if err := session.book.Close(); err != nil {
		return err
	}
	if flushErr != nil {
		return fmt.Errorf("flush positions: %w", flushErr)
	}
	return nil
}
