package pagination

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memoryStore struct {
	mu     sync.Mutex
	data   map[string]Position
	writes int
	block  chan struct{}
	fail   bool
}

func newMemoryStore() *memoryStore {
	return &memoryStore{data: make(map[string]Position)}
}

func (m *memoryStore) Load(_ context.Context, id string) (*Position, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pos, ok := m.data[id]
	if !ok {
		return nil, nil
	}
	return &pos, nil
}

func (m *memoryStore) Save(_ context.Context, id string, pos Position) error {
	if m.block != nil {
		<-m.block
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.fail {
		return errors.New("disk full")
	}
	m.data[id] = pos
	return nil
}

func (m *memoryStore) writeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writes
}

func TestAsyncSaver_RoundTrip(t *testing.T) {
	store := newMemoryStore()
	saver := NewAsyncSaver(store)
	defer saver.Close()

	want := Position{SpineIndex: 3, PageIndex: 7, Progress: 41}
	saver.Schedule("a.epub", want)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, saver.Flush(ctx))

	got, err := store.Load(ctx, "a.epub")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, want, *got)
}

func TestAsyncSaver_MissingPositionIsNil(t *testing.T) {
	store := newMemoryStore()

	got, err := store.Load(context.Background(), "never-opened.epub")
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestAsyncSaver_LatestWins(t *testing.T) {
	store := newMemoryStore()
	store.block = make(chan struct{})
	saver := NewAsyncSaver(store)
	defer saver.Close()

	// first save occupies the worker
	saver.Schedule("a.epub", Position{PageIndex: 1})
	time.Sleep(20 * time.Millisecond)

	// these coalesce while the worker is blocked
	for i := 2; i <= 50; i++ {
		saver.Schedule("a.epub", Position{PageIndex: i})
	}
	close(store.block)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, saver.Flush(ctx))

	got, _ := store.Load(ctx, "a.epub")
	require.NotNil(t, got)
	assert.Equal(t, 50, got.PageIndex)
	assert.LessOrEqual(t, store.writeCount(), 3)
}

func TestAsyncSaver_ScheduleDoesNotBlock(t *testing.T) {
	store := newMemoryStore()
	store.block = make(chan struct{})
	saver := NewAsyncSaver(store)

	done := make(chan struct{})
	go func() {
		for i := 0; i < 1000; i++ {
			saver.Schedule("a.epub", Position{PageIndex: i})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Schedule blocked on a slow store")
	}

	close(store.block)
	saver.Close()
}

func TestAsyncSaver_FlushHonoursContext(t *testing.T) {
	store := newMemoryStore()
	store.block = make(chan struct{})
	saver := NewAsyncSaver(store)
	defer func() {
		close(store.block)
		saver.Close()
	}()

	saver.Schedule("a.epub", Position{PageIndex: 1})

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, saver.Flush(ctx), context.DeadlineExceeded)
}

func TestAsyncSaver_ErrorsAreSwallowed(t *testing.T) {
	store := newMemoryStore()
	store.fail = true
	saver := NewAsyncSaver(store)

	saver.Schedule("a.epub", Position{PageIndex: 1})
	require.NoError(t, saver.Flush(context.Background()))
	saver.Close()

	assert.Equal(t, 1, store.writeCount())
}

func TestAsyncSaver_CloseDrainsAndDropsLateSaves(t *testing.T) {
	store := newMemoryStore()
	saver := NewAsyncSaver(store)

	saver.Schedule("a.epub", Position{PageIndex: 4})
	saver.Close()

	got, _ := store.Load(context.Background(), "a.epub")
	require.NotNil(t, got)
	assert.Equal(t, 4, got.PageIndex)

	saver.Schedule("a.epub", Position{PageIndex: 9})
	got, _ = store.Load(context.Background(), "a.epub")
	assert.Equal(t, 4, got.PageIndex)

	// second Close is a no-op
	saver.Close()
}
