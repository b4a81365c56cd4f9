package database

import (
	"fmt"
	"log"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"github.com/b4ndithelps/wave/internal/database/books"
	"github.com/b4ndithelps/wave/internal/database/playlists"
	"github.com/b4ndithelps/wave/internal/database/settings"
	"github.com/b4ndithelps/wave/internal/entities"
)

type Database struct {
	DB *gorm.DB
}

// NewDatabase opens (or creates) the SQLite database at dbPath and migrates
// the reader's tables.
func NewDatabase(dbPath string) (*Database, error) {
	return open(dbPath, logger.Warn)
}

// NewQuietDatabase is NewDatabase without SQL logging, for CLI commands and tests.
func NewQuietDatabase(dbPath string) (*Database, error) {
	return open(dbPath, logger.Silent)
}

func open(dbPath string, level logger.LogLevel) (*Database, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(level),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	err = db.AutoMigrate(
		&entities.Book{},
		&entities.PinnedPlaylist{},
		&entities.Setting{},
		&entities.OAuthToken{},
	)
	if err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	log.Printf("Database initialized successfully at %s", dbPath)

	return &Database{DB: db}, nil
}

func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// Ping checks that the underlying connection is alive.
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return err
	}
	return sqlDB.Ping()
}

// Books returns a books repository bound to this connection.
func (d *Database) Books() *books.Repository {
	return books.NewRepository(d.DB)
}

// Positions returns the reading-position gateway bound to this connection.
func (d *Database) Positions() *books.PositionStore {
	return books.NewPositionStore(d.DB)
}

// Playlists returns a pinned-playlists repository bound to this connection.
func (d *Database) Playlists() *playlists.Repository {
	return playlists.NewRepository(d.DB)
}

// Settings returns a settings repository bound to this connection.
func (d *Database) Settings() *settings.Repository {
	return settings.NewRepository(d.DB)
}
