package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/b4ndithelps/wave/internal/library"
)

// ScanLibraryTask looks for new EPUB files under Dir and enqueues an import
// for each one.
type ScanLibraryTask struct {
	Dir string `json:"dir"`
}

// Config returns the queue configuration for library scan tasks.
func (t ScanLibraryTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "scan_library",
		MaxAttempts: 1,
		Backoff:     time.Minute,
		Timeout:     30 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// Enqueuer queues book imports.
type Enqueuer interface {
	EnqueueImports(ctx context.Context, paths []string) error
}

// ScanRecorder stores the time of the last completed scan.
type ScanRecorder interface {
	SetLibraryScanLastAt(t time.Time) error
}

// ScanLibraryProcessor creates a processor function for ScanLibraryTask.
// recorder may be nil.
func ScanLibraryProcessor(scanner *library.Scanner, queue Enqueuer, recorder ScanRecorder) backlite.QueueProcessor[ScanLibraryTask] {
	return func(ctx context.Context, task ScanLibraryTask) error {
		if scanner == nil || queue == nil {
			return fmt.Errorf("scanner not configured")
		}
		if task.Dir == "" {
			return fmt.Errorf("library directory not configured")
		}

		paths, err := scanner.FindNew(ctx, task.Dir)
		if err != nil {
			return fmt.Errorf("scan library: %w", err)
		}

		if err := queue.EnqueueImports(ctx, paths); err != nil {
			return err
		}

		if recorder != nil {
			if err := recorder.SetLibraryScanLastAt(time.Now()); err != nil {
				log.Printf("[TASK] Failed to record scan time: %v", err)
			}
		}

		log.Printf("[TASK] Library scan of %s complete: %d new books queued", task.Dir, len(paths))
		return nil
	}
}

// NewScanLibraryQueue creates a backlite queue for library scan tasks.
func NewScanLibraryQueue(scanner *library.Scanner, queue Enqueuer, recorder ScanRecorder) backlite.Queue {
	return backlite.NewQueue(ScanLibraryProcessor(scanner, queue, recorder))
}
