package tasks

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/mikestefanello/backlite"

	"github.com/b4ndithelps/wave/internal/library"
)

// ImportBookTask records one EPUB file in the library.
type ImportBookTask struct {
	Path string `json:"path"`
}

// Config returns the queue configuration for book import tasks.
func (t ImportBookTask) Config() backlite.QueueConfig {
	return backlite.QueueConfig{
		Name:        "import_book",
		MaxAttempts: 3,
		Backoff:     30 * time.Second,
		Timeout:     2 * time.Minute,
		Retention: &backlite.Retention{
			Duration:   24 * time.Hour,
			OnlyFailed: false,
			Data:       &backlite.RetainData{OnlyFailed: true},
		},
	}
}

// ImportBookProcessor creates a processor function for ImportBookTask.
func ImportBookProcessor(importer *library.Importer) backlite.QueueProcessor[ImportBookTask] {
	return func(ctx context.Context, task ImportBookTask) error {
		if importer == nil {
			return fmt.Errorf("importer not configured")
		}

		result, err := importer.ImportBook(ctx, task.Path)
		if err != nil {
			return fmt.Errorf("import book %s: %w", task.Path, err)
		}

		action := "Refreshed"
		if result.Created {
			action = "Imported"
		}
		log.Printf("[TASK] %s book %d (%s): %d spine items, cover=%t",
			action, result.Book.ID, result.Book.Title, result.Book.SpineCount, result.Cover)

		return nil
	}
}

// NewImportBookQueue creates a backlite queue for book import tasks.
func NewImportBookQueue(importer *library.Importer) backlite.Queue {
	return backlite.NewQueue(ImportBookProcessor(importer))
}
