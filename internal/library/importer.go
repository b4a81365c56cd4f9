// Package library keeps the books table in step with the EPUB files on disk.
//
// The Importer reads one EPUB and records its metadata and cover; the Scanner
// finds files under the library directory that are not yet recorded; the
// Watcher reports new files as they appear.
package library

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strings"

	"github.com/b4ndithelps/wave/internal/database/books"
	"github.com/b4ndithelps/wave/internal/entities"
	"github.com/b4ndithelps/wave/internal/epub"
)

// ErrNotEpub is returned for files without an .epub extension.
var ErrNotEpub = errors.New("not an epub file")

// BookStore is the slice of the books repository the importer needs.
type BookStore interface {
	GetBookByPath(path string) (*entities.Book, error)
	GetAllBooks() ([]entities.Book, error)
	UpsertMetadata(book *entities.Book) (*entities.Book, error)
	Update(book *entities.Book) error
}

// CoverCache extracts and caches cover images.
type CoverCache interface {
	GetCover(bookID uint, bookPath string) (string, error)
	InvalidateCover(bookID uint) error
}

// ImportResult describes one imported book.
type ImportResult struct {
	Book    *entities.Book `json:"book"`
	Created bool           `json:"created"`
	Cover   bool           `json:"cover"`
}

// Importer records EPUB files in the library.
type Importer struct {
	books  BookStore
	covers CoverCache
}

// NewImporter creates an Importer backed by the given book store.
func NewImporter(store BookStore) *Importer {
	return &Importer{books: store}
}

// SetCoverCache sets the cover cache (optional).
func (i *Importer) SetCoverCache(cache CoverCache) {
	i.covers = cache
}

// ImportBook opens the EPUB at path and creates or refreshes its library
// record. Reading progress of an existing record is kept.
func (i *Importer) ImportBook(ctx context.Context, path string) (*ImportResult, error) {
	if !IsEpub(path) {
		return nil, fmt.Errorf("%w: %s", ErrNotEpub, path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	doc, err := epub.Open(abs)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", abs, err)
	}
	defer doc.Close()

	created := false
	existing, err := i.books.GetBookByPath(abs)
	switch {
	case errors.Is(err, books.ErrBookNotFound):
		created = true
	case err != nil:
		return nil, err
	}

	book, err := i.books.UpsertMetadata(&entities.Book{
		BookPath:   abs,
		Title:      doc.Title,
		Authors:    doc.Author,
		SpineCount: doc.SpineCount(),
		TotalPages: doc.SpineCount(),
	})
	if err != nil {
		return nil, err
	}

	result := &ImportResult{Book: book, Created: created}
	if i.covers == nil {
		return result, nil
	}

	if existing != nil {
		if err := i.covers.InvalidateCover(book.ID); err != nil {
			log.Printf("[LIBRARY] Failed to invalidate cover for book %d: %v", book.ID, err)
		}
	}
	coverPath, err := i.covers.GetCover(book.ID, abs)
	if err != nil {
		log.Printf("[LIBRARY] Failed to cache cover for %s: %v", abs, err)
		return result, nil
	}
	if coverPath == "" {
		return result, nil
	}

	book.CoverImageFilename = filepath.Base(coverPath)
	if err := i.books.Update(book); err != nil {
		return nil, fmt.Errorf("save cover for %s: %w", abs, err)
	}
	result.Cover = true
	return result, nil
}

// IsEpub reports whether path names an EPUB file.
func IsEpub(path string) bool {
	return strings.EqualFold(filepath.Ext(path), ".epub")
}
