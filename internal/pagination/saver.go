package pagination

import (
	"context"
	"log"
	"sync"
	"time"
)

const defaultSaveTimeout = 5 * time.Second

// AsyncSaver persists positions in the background. Pending saves are
// coalesced per document, so a burst of page turns results in one write of
// the newest position.
type AsyncSaver struct {
	store   PositionStore
	timeout time.Duration

	mu      sync.Mutex
	pending map[string]Position
	busy    bool
	closed  bool
	waiters []chan struct{}

	wake      chan struct{}
	quit      chan struct{}
	done      chan struct{}
	closeOnce sync.Once
}

// NewAsyncSaver starts a saver writing to store.
func NewAsyncSaver(store PositionStore) *AsyncSaver {
	s := &AsyncSaver{
		store:   store,
		timeout: defaultSaveTimeout,
		pending: make(map[string]Position),
		wake:    make(chan struct{}, 1),
		quit:    make(chan struct{}),
		done:    make(chan struct{}),
	}
	go s.run()
	return s
}

// Schedule queues pos for documentID, replacing any position still waiting
// to be written for the same document. It never blocks.
func (s *AsyncSaver) Schedule(documentID string, pos Position) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		log.Printf("[POSITION] saver closed, dropping position for %s", documentID)
		return
	}
	s.pending[documentID] = pos
	s.mu.Unlock()
	s.signal()
}

// Flush blocks until every position scheduled before the call is written,
// or ctx is done.
func (s *AsyncSaver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if len(s.pending) == 0 && !s.busy {
		s.mu.Unlock()
		return nil
	}
	w := make(chan struct{})
	s.waiters = append(s.waiters, w)
	s.mu.Unlock()
	s.signal()

	select {
	case <-w:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close writes whatever is pending and stops the worker.
func (s *AsyncSaver) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()
		close(s.quit)
	})
	<-s.done
}

func (s *AsyncSaver) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *AsyncSaver) run() {
	defer close(s.done)
	for {
		select {
		case <-s.wake:
			s.drain()
		case <-s.quit:
			s.drain()
			return
		}
	}
}

func (s *AsyncSaver) drain() {
	for {
		s.mu.Lock()
		if len(s.pending) == 0 {
			s.busy = false
			waiters := s.waiters
			s.waiters = nil
			s.mu.Unlock()
			for _, w := range waiters {
				close(w)
			}
			return
		}
		batch := s.pending
		s.pending = make(map[string]Position)
		s.busy = true
		s.mu.Unlock()

		for id, pos := range batch {
			s.write(id, pos)
		}
	}
}

func (s *AsyncSaver) write(documentID string, pos Position) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.store.Save(ctx, documentID, pos); err != nil {
		log.Printf("[POSITION] failed to save position for %s (spine %d, page %d): %v",
			documentID, pos.SpineIndex, pos.PageIndex, err)
	}
}
