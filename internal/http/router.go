package http

import (
	"github.com/gin-gonic/gin"
)

// NewRouter creates and configures the HTTP router with all endpoints.
// Optional dependencies left nil disable their routes.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	if cfg.Reader != nil {
		health.SetReader(cfg.Reader)
	}

	// Health endpoints
	router.GET("/health", health.Status)
	router.GET("/ping", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"message": "pong",
		})
	})

	// Books API endpoints
	booksController := NewBooksController(cfg.Database.Books(), cfg.Importer)
	if cfg.TaskClient != nil {
		booksController.SetImportQueue(cfg.TaskClient)
	}
	if cfg.CoverCache != nil {
		booksController.SetCoverStore(cfg.CoverCache)
	}
	if cfg.Reader != nil {
		booksController.SetReader(cfg.Reader)
	}
	router.GET("/api/books", booksController.GetAllBooks)
	router.GET("/api/books/:id", booksController.GetBook)
	router.DELETE("/api/books/:id", booksController.DeleteBook)
	router.POST("/api/books/import", booksController.Import)
	router.PUT("/api/books/:id/rating", booksController.SetRating)
	router.POST("/api/books/:id/read", booksController.MarkRead)

	// Book cover endpoint
	if cfg.CoverCache != nil {
		coversController := NewCoversController(cfg.CoverCache, cfg.Database.Books())
		router.GET("/api/books/:id/cover", coversController.GetCover)
	}

	// Reader endpoints
	if cfg.Reader != nil {
		readerController := NewReaderController(cfg.Reader)
		router.GET("/api/reader", readerController.ListOpen)
		router.POST("/api/reader/:id/open", readerController.Open)
		router.GET("/api/reader/:id/spine/:index", readerController.Spine)
		router.GET("/api/reader/:id/resource/*path", readerController.Resource)
		router.POST("/api/reader/:id/measure", readerController.Measure)
		router.POST("/api/reader/:id/scroll", readerController.Scroll)
		router.POST("/api/reader/:id/next", readerController.Next)
		router.POST("/api/reader/:id/prev", readerController.Prev)
		router.POST("/api/reader/:id/goto", readerController.GoTo)
		router.GET("/api/reader/:id/status", readerController.Status)
		router.POST("/api/reader/:id/close", readerController.Close)
	}

	// Style endpoints
	if cfg.Styles != nil {
		styleController := NewStyleController(cfg.Styles)
		router.GET("/api/style", styleController.GetStyle)
		router.PUT("/api/style", styleController.UpdateStyle)
		router.DELETE("/api/style", styleController.ResetStyle)
	}

	// Pinned playlists
	playlistsController := NewPlaylistsController(cfg.Database.Playlists())
	if cfg.Spotify != nil {
		playlistsController.SetFetcher(cfg.Spotify)
	}
	if cfg.CoverCache != nil {
		playlistsController.SetImageStore(cfg.CoverCache)
	}
	router.GET("/api/playlists/pinned", playlistsController.GetPinned)
	router.PUT("/api/playlists/pinned/:id", playlistsController.Pin)
	router.DELETE("/api/playlists/pinned/:id", playlistsController.Unpin)
	router.DELETE("/api/playlists/pinned", playlistsController.UnpinAll)
	router.GET("/api/playlists/pinned/:id/image", playlistsController.Image)

	// Spotify endpoints
	if cfg.Spotify != nil {
		spotifyController := NewSpotifyController(cfg.Spotify, cfg.Spotify.Session(), cfg.Database.Playlists())
		router.GET("/api/spotify/session", spotifyController.GetSession)
		router.DELETE("/api/spotify/session", spotifyController.DeleteSession)
		router.GET("/api/spotify/playlists", spotifyController.GetPlaylists)
		router.GET("/api/spotify/playlists/:id", spotifyController.GetPlaylist)
		router.GET("/api/spotify/search", spotifyController.Search)
		router.POST("/api/spotify/player/:action", spotifyController.Player)
	}

	// Library scan settings
	if cfg.SettingsStore != nil {
		var sched ScanScheduler
		if cfg.LibraryScheduler != nil {
			sched = cfg.LibraryScheduler
		}
		libraryController := NewLibraryController(cfg.SettingsStore, sched)
		router.GET("/api/library/settings", libraryController.GetSettings)
		router.PUT("/api/library/settings", libraryController.UpdateSettings)
		router.DELETE("/api/library/settings", libraryController.ResetSettings)
		router.POST("/api/library/scan", libraryController.ScanNow)
	}

	// Task status endpoint
	if cfg.TaskClient != nil {
		tasksController := NewTasksController(cfg.TaskClient)
		router.GET("/api/tasks/:id", tasksController.GetTaskStatus)
	}

	return router
}
