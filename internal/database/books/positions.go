package books

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"gorm.io/gorm"

	"github.com/b4ndithelps/wave/internal/entities"
	"github.com/b4ndithelps/wave/internal/pagination"
)

var _ pagination.PositionStore = (*PositionStore)(nil)

// PositionStore persists reading positions on the books table, keyed by the
// book's file path.
type PositionStore struct {
	db *gorm.DB
}

// NewPositionStore creates a position store.
func NewPositionStore(db *gorm.DB) *PositionStore {
	return &PositionStore{db: db}
}

// Load returns the saved position for the book at path, or nil when the book
// has never been opened.
func (s *PositionStore) Load(ctx context.Context, path string) (*pagination.Position, error) {
	var book entities.Book
	err := s.db.WithContext(ctx).Where("book_path = ?", path).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load position for %s: %w", path, err)
	}
	return &pagination.Position{
		SpineIndex: book.CurrentSpineIndex,
		PageIndex:  book.CurrentPageIndex,
		Progress:   int(book.ProgressPercentage),
	}, nil
}

// Save overwrites the position of the book at path. A book that is not in the
// library yet gets a minimal record named after its file.
func (s *PositionStore) Save(ctx context.Context, path string, pos pagination.Position) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.Model(&entities.Book{}).
			Where("book_path = ?", path).
			Updates(map[string]interface{}{
				"current_spine_index": pos.SpineIndex,
				"current_page_index":  pos.PageIndex,
				"current_page":        pos.SpineIndex,
				"progress_percentage": float64(pos.Progress),
			})
		if result.Error != nil {
			return fmt.Errorf("save position for %s: %w", path, result.Error)
		}
		if result.RowsAffected > 0 {
			return nil
		}

		book := &entities.Book{
			BookPath:           path,
			Title:              titleFromPath(path),
			CurrentSpineIndex:  pos.SpineIndex,
			CurrentPageIndex:   pos.PageIndex,
			CurrentPage:        pos.SpineIndex,
			ProgressPercentage: float64(pos.Progress),
		}
		if err := tx.Create(book).Error; err != nil {
			return fmt.Errorf("create book for position %s: %w", path, err)
		}
		return nil
	})
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	if title := strings.TrimSuffix(base, filepath.Ext(base)); title != "" {
		return title
	}
	return "Unknown Title"
}
