// Package books provides database operations for the library and reading
// positions.
//
// # Usage
//
//	repo := books.NewRepository(db)
//	book, err := repo.GetBookByPath("/books/dune.epub")
//
//	positions := books.NewPositionStore(db)
//	pos, err := positions.Load(ctx, "/books/dune.epub")
package books

import (
	"errors"
	"fmt"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/b4ndithelps/wave/internal/entities"
)

var (
	ErrBookNotFound  = errors.New("book not found")
	ErrInvalidRating = errors.New("rating must be between 0 and 5")
)

// Repository handles all book database operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository creates a new books repository.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Insert stores a book, replacing any existing row with the same path.
func (r *Repository) Insert(book *entities.Book) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "book_path"}},
		UpdateAll: true,
	}).Create(book).Error
}

// UpsertMetadata creates the book if needed and refreshes its title, authors,
// spine count and cover without touching reading progress.
func (r *Repository) UpsertMetadata(book *entities.Book) (*entities.Book, error) {
	var existing entities.Book
	err := r.db.Where("book_path = ?", book.BookPath).First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if err := r.db.Create(book).Error; err != nil {
			return nil, fmt.Errorf("create book %s: %w", book.BookPath, err)
		}
		return book, nil
	}
	if err != nil {
		return nil, err
	}

	existing.Title = book.Title
	existing.Authors = book.Authors
	existing.SpineCount = book.SpineCount
	existing.TotalPages = book.TotalPages
	if book.CoverImageFilename != "" {
		existing.CoverImageFilename = book.CoverImageFilename
	}
	if err := r.db.Save(&existing).Error; err != nil {
		return nil, fmt.Errorf("update book %s: %w", book.BookPath, err)
	}
	return &existing, nil
}

// Update saves every field of book.
func (r *Repository) Update(book *entities.Book) error {
	return r.db.Save(book).Error
}

// GetBookByPath returns the book stored under path, or ErrBookNotFound.
func (r *Repository) GetBookByPath(path string) (*entities.Book, error) {
	var book entities.Book
	err := r.db.Where("book_path = ?", path).First(&book).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetBookByID returns the book with id, or ErrBookNotFound.
func (r *Repository) GetBookByID(id uint) (*entities.Book, error) {
	var book entities.Book
	err := r.db.First(&book, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrBookNotFound
	}
	if err != nil {
		return nil, err
	}
	return &book, nil
}

// GetAllBooks returns the library, most recently touched first.
func (r *Repository) GetAllBooks() ([]entities.Book, error) {
	var books []entities.Book
	err := r.db.Order("updated_at DESC").Find(&books).Error
	return books, err
}

// DeleteBook removes the book stored under path.
func (r *Repository) DeleteBook(path string) error {
	return r.db.Where("book_path = ?", path).Delete(&entities.Book{}).Error
}

// SetRating stores a 0-5 rating.
func (r *Repository) SetRating(id uint, rating int) error {
	if rating < 0 || rating > entities.MaxRating {
		return ErrInvalidRating
	}
	return r.updateByID(id, map[string]interface{}{"rating": rating})
}

// MarkRead flags the book as finished and bumps its read counter.
func (r *Repository) MarkRead(id uint) error {
	return r.updateByID(id, map[string]interface{}{
		"is_read":    true,
		"times_read": gorm.Expr("times_read + ?", 1),
	})
}

// AddReadingTime adds seconds to the accumulated reading time.
func (r *Repository) AddReadingTime(path string, seconds int64) error {
	if seconds <= 0 {
		return nil
	}
	return r.db.Model(&entities.Book{}).
		Where("book_path = ?", path).
		Update("total_time_read", gorm.Expr("total_time_read + ?", seconds)).Error
}

// CountBooks returns the number of books in the library.
func (r *Repository) CountBooks() (int64, error) {
	var n int64
	err := r.db.Model(&entities.Book{}).Count(&n).Error
	return n, err
}

func (r *Repository) updateByID(id uint, fields map[string]interface{}) error {
	result := r.db.Model(&entities.Book{}).Where("id = ?", id).Updates(fields)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrBookNotFound
	}
	return nil
}
