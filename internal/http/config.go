package http

import (
	"github.com/b4ndithelps/wave/internal/covers"
	"github.com/b4ndithelps/wave/internal/database"
	"github.com/b4ndithelps/wave/internal/htmlstyling"
	"github.com/b4ndithelps/wave/internal/library"
	"github.com/b4ndithelps/wave/internal/reader"
	"github.com/b4ndithelps/wave/internal/scheduler"
	"github.com/b4ndithelps/wave/internal/settingsstore"
	"github.com/b4ndithelps/wave/internal/spotify"
	"github.com/b4ndithelps/wave/internal/tasks"
)

// RouterConfig contains all dependencies and configuration needed
// to create the HTTP router.
type RouterConfig struct {
	// Core dependencies
	Database *database.Database
	Importer *library.Importer
	Reader   *reader.Service
	Styles   *htmlstyling.Manager

	// Cover and artwork caching (optional)
	CoverCache *covers.Cache

	// Task queue client (optional)
	TaskClient *tasks.Client

	// Library scan settings (optional)
	SettingsStore    *settingsstore.SettingsStore
	LibraryScheduler *scheduler.LibraryScanScheduler

	// Music companion (optional)
	Spotify *spotify.Client

	// Application info
	Version string
}
