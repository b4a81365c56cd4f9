package tasks

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/mikestefanello/backlite"
)

// Client runs the library import and scan queues on backlite.
type Client struct {
	client  *backlite.Client
	db      *sql.DB
	workers int
	started atomic.Bool
}

// DatabasePath returns the task database that sits next to the library
// database: wave.db keeps its queue in wave-tasks.db.
func DatabasePath(libraryDBPath string) string {
	ext := filepath.Ext(libraryDBPath)
	return strings.TrimSuffix(libraryDBPath, ext) + "-tasks" + ext
}

// NewClient opens the task database and installs the backlite schema.
func NewClient(libraryDBPath string, cfg Config) (*Client, error) {
	if cfg.Workers < 1 {
		cfg.Workers = 1
	}

	db, err := sql.Open("sqlite3", DatabasePath(libraryDBPath)+"?_journal=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("failed to open tasks database: %w", err)
	}
	// workers plus enqueuers from HTTP, the scheduler and the watcher
	db.SetMaxOpenConns(cfg.Workers + 4)
	db.SetConnMaxLifetime(time.Hour)

	client, err := backlite.NewClient(backlite.ClientConfig{
		DB:              db,
		NumWorkers:      cfg.Workers,
		ReleaseAfter:    cfg.ReleaseAfter,
		CleanupInterval: cfg.CleanupInterval,
		Logger:          taskLogger{},
	})
	if err == nil {
		err = client.Install()
	}
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to set up task queue: %w", err)
	}

	return &Client{client: client, db: db, workers: cfg.Workers}, nil
}

// Register adds queues. Call it before Start.
func (c *Client) Register(queues ...backlite.Queue) {
	for _, q := range queues {
		c.client.Register(q)
	}
}

// Start runs the workers until ctx ends or Stop is called. Later calls are
// ignored.
func (c *Client) Start(ctx context.Context) {
	if !c.started.CompareAndSwap(false, true) {
		return
	}
	log.Printf("[TASK] Queue started with %d workers", c.workers)
	c.client.Start(ctx)
}

// Stop waits for running imports and scans. It reports false when ctx ended
// first.
func (c *Client) Stop(ctx context.Context) bool {
	if !c.started.Load() {
		return true
	}
	if !c.client.Stop(ctx) {
		log.Println("[TASK] Queue stop timed out with tasks still running")
		return false
	}
	log.Println("[TASK] Queue stopped")
	return true
}

// Close releases the task database. Call it after Stop.
func (c *Client) Close() error {
	return c.db.Close()
}

// Status returns the state of a queued import or scan.
func (c *Client) Status(ctx context.Context, taskID string) (backlite.TaskStatus, error) {
	return c.client.Status(ctx, taskID)
}

// EnqueueImport queues an import of the EPUB at path and returns the task ID.
func (c *Client) EnqueueImport(ctx context.Context, path string) (string, error) {
	return c.enqueue(ctx, ImportBookTask{Path: path}, "import "+path)
}

// EnqueueImports queues one import per path in a single transaction.
func (c *Client) EnqueueImports(ctx context.Context, paths []string) error {
	if len(paths) == 0 {
		return nil
	}
	imports := make([]backlite.Task, 0, len(paths))
	for _, p := range paths {
		imports = append(imports, ImportBookTask{Path: p})
	}
	if _, err := c.client.Add(imports...).Ctx(ctx).Save(); err != nil {
		return fmt.Errorf("enqueue %d imports: %w", len(paths), err)
	}
	return nil
}

// EnqueueScan queues a scan of the library directory and returns the task ID.
func (c *Client) EnqueueScan(ctx context.Context, dir string) (string, error) {
	return c.enqueue(ctx, ScanLibraryTask{Dir: dir}, "library scan")
}

func (c *Client) enqueue(ctx context.Context, task backlite.Task, what string) (string, error) {
	ids, err := c.client.Add(task).Ctx(ctx).Save()
	if err != nil {
		return "", fmt.Errorf("enqueue %s: %w", what, err)
	}
	return ids[0], nil
}

type taskLogger struct{}

func (taskLogger) Info(message string, params ...any) {
	log.Printf("[TASK] "+message, params...)
}

func (taskLogger) Error(message string, params ...any) {
	log.Printf("[TASK ERROR] "+message, params...)
}
