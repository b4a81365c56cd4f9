package http

import (
	"context"

	"github.com/b4ndithelps/wave/internal/entities"
	"github.com/b4ndithelps/wave/internal/library"
	"github.com/b4ndithelps/wave/internal/reader"
)

// This file collects the store interfaces used by HTTP controllers. Each
// controller depends only on the operations it calls.

// BookGetter provides read access to books.
type BookGetter interface {
	GetBookByID(id uint) (*entities.Book, error)
}

// BookStore is the library access used by BooksController.
type BookStore interface {
	BookGetter
	GetAllBooks() ([]entities.Book, error)
	DeleteBook(path string) error
	SetRating(id uint, rating int) error
	MarkRead(id uint) error
}

// BookImporter records an EPUB file synchronously.
type BookImporter interface {
	ImportBook(ctx context.Context, path string) (*library.ImportResult, error)
}

// ImportQueue enqueues background imports.
type ImportQueue interface {
	EnqueueImport(ctx context.Context, path string) (string, error)
}

// CoverStore resolves cached cover files.
type CoverStore interface {
	GetCover(bookID uint, bookPath string) (string, error)
	InvalidateCover(bookID uint) error
}

// ReaderService opens books for reading.
type ReaderService interface {
	Open(ctx context.Context, bookID uint) (*reader.Session, error)
	Session(bookID uint) (*reader.Session, error)
	Close(ctx context.Context, bookID uint) error
	OpenSessions() []uint
}

// PlaylistStore persists pinned playlists.
type PlaylistStore interface {
	GetAllPinnedPlaylists() ([]entities.PinnedPlaylist, error)
	IsPlaylistPinned(playlistID string) (bool, error)
	PinPlaylist(playlist *entities.PinnedPlaylist) error
	UnpinPlaylist(playlistID string) error
	DeleteAllPinnedPlaylists() error
}
