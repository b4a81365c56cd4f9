// Package database provides the data access layer for the reader.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup and migrations
//	├── books/           # Library entries and reading positions
//	├── playlists/       # Pinned Spotify playlists
//	└── settings/        # Key/value settings (reader style, library)
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.NewDatabase("./wave.db")
//
//	booksRepo := db.Books()
//	positions := db.Positions()   // implements pagination.PositionStore
//	pinned := db.Playlists()
//
//	book, err := booksRepo.GetBookByPath("/books/dune.epub")
//	pos, err := positions.Load(ctx, "/books/dune.epub")
//
// # Interface Implementations
//
//   - books.PositionStore: implements pagination.PositionStore
//   - settings.Repository: backs htmlstyling.Manager and settingsstore.SettingsStore
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
