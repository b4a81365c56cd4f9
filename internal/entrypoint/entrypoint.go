package entrypoint

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/b4ndithelps/wave/internal/config"
	"github.com/b4ndithelps/wave/internal/covers"
	"github.com/b4ndithelps/wave/internal/database"
	"github.com/b4ndithelps/wave/internal/htmlstyling"
	http_controllers "github.com/b4ndithelps/wave/internal/http"
	"github.com/b4ndithelps/wave/internal/library"
	"github.com/b4ndithelps/wave/internal/pagination"
	"github.com/b4ndithelps/wave/internal/reader"
	"github.com/b4ndithelps/wave/internal/scheduler"
	"github.com/b4ndithelps/wave/internal/settingsstore"
	"github.com/b4ndithelps/wave/internal/spotify"
	"github.com/b4ndithelps/wave/internal/tasks"
	"github.com/b4ndithelps/wave/internal/tokenstore"
)

// ShutdownFunc is called during graceful shutdown to clean up resources.
type ShutdownFunc func(ctx context.Context)

func Serve(router *gin.Engine, cfg *config.Config, onShutdown ShutdownFunc) {
	timeout := time.Duration(cfg.Global.ShutdownTimeoutInSeconds) * time.Second

	srv := &http.Server{
		Addr:    fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port),
		Handler: router,
	}

	go func() {
		log.Printf("Starting server at %s:%d", cfg.HTTP.Host, cfg.HTTP.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %s\n", err)
		}
	}()

	// kill -2 is syscall.SIGINT, kill (no param) sends syscall.SIGTERM
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Printf("Shutdown Server, waiting %v before killing\n", timeout)

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("Server Shutdown: %v", err)
	}

	// Open books are closed after the server stops taking requests so their
	// final positions are flushed
	if onShutdown != nil {
		onShutdown(ctx)
	}

	log.Println("Server exiting")
}

func Run(cfg *config.Config, version string) {
	log.Printf("Starting Wave v%s", version)

	// Initialize database
	db, err := database.NewDatabase(cfg.Database.Path)
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("Error closing database: %v", err)
		}
	}()

	// Cover cache for book covers and playlist artwork
	coverCache, err := covers.NewCache(cfg.Covers.Dir)
	if err != nil {
		log.Printf("WARNING: Failed to initialize cover cache: %v", err)
	} else {
		log.Printf("Cover cache initialized at %s", cfg.Covers.Dir)
	}

	importer := library.NewImporter(db.Books())
	if coverCache != nil {
		importer.SetCoverCache(coverCache)
	}

	// Reading positions are written off the request path
	saver := pagination.NewAsyncSaver(db.Positions())
	styles := htmlstyling.NewManager(db.Settings())
	readerService := reader.NewService(db.Books(), db.Positions(), saver, styles, reader.Config{
		ChromeHeight:   cfg.Reader.ChromeHeight,
		SpineCacheSize: cfg.Reader.SpineCacheSize,
		SpineCacheTTL:  cfg.Reader.SpineCacheTTL,
	})

	settingsStore := settingsstore.New(db.Settings())

	// Initialize task queue if enabled
	var taskClient *tasks.Client
	var taskCtxCancel context.CancelFunc
	var libraryScheduler *scheduler.LibraryScanScheduler
	if cfg.Tasks.Enabled {
		taskClient, err = tasks.NewClient(cfg.Database.Path, tasks.Config{
			Workers:         cfg.Tasks.Workers,
			ReleaseAfter:    cfg.Tasks.ReleaseAfter,
			CleanupInterval: cfg.Tasks.CleanupInterval,
		})
		if err != nil {
			log.Fatalf("Failed to initialize task queue: %v", err)
		}
		defer func() {
			if err := taskClient.Close(); err != nil {
				log.Printf("Error closing task client: %v", err)
			}
		}()

		taskClient.Register(
			tasks.NewImportBookQueue(importer),
			tasks.NewScanLibraryQueue(library.NewScanner(db.Books()), taskClient, settingsStore),
		)

		var taskCtx context.Context
		taskCtx, taskCtxCancel = context.WithCancel(context.Background())
		go taskClient.Start(taskCtx)

		libraryScheduler = scheduler.NewLibraryScanScheduler(settingsStore, taskClient)
		if err := libraryScheduler.Start(taskCtx); err != nil {
			log.Printf("WARNING: Library scan scheduler not started: %v", err)
		}
	}

	// Watch the library directory for new files
	var watcher *library.Watcher
	if cfg.Library.Watch {
		watcher = startWatcher(cfg, settingsStore, importer, taskClient)
	}

	// Spotify companion
	spotifyClient := newSpotifyClient(cfg, db)

	routerCfg := http_controllers.RouterConfig{
		Database:         db,
		Importer:         importer,
		Reader:           readerService,
		Styles:           styles,
		TaskClient:       taskClient,
		SettingsStore:    settingsStore,
		LibraryScheduler: libraryScheduler,
		CoverCache:       coverCache,
		Spotify:          spotifyClient,
		Version:          version,
	}

	router := http_controllers.NewRouter(routerCfg)

	onShutdown := func(ctx context.Context) {
		readerService.CloseAll(ctx)
		saver.Close()
		if watcher != nil {
			watcher.Close()
		}
		if libraryScheduler != nil {
			libraryScheduler.Stop()
		}
		if taskClient != nil && taskCtxCancel != nil {
			taskClient.Stop(ctx)
			taskCtxCancel()
		}
	}

	Serve(router, cfg, onShutdown)
}

// startWatcher imports new files through the task queue when it is running
// and inline otherwise.
func startWatcher(cfg *config.Config, settings *settingsstore.SettingsStore, importer *library.Importer, taskClient *tasks.Client) *library.Watcher {
	dir, err := settings.RequireLibraryDir()
	if err != nil {
		log.Printf("WARNING: Library watcher disabled: %v", err)
		return nil
	}

	enqueue := func(ctx context.Context, path string) error {
		if taskClient != nil {
			_, err := taskClient.EnqueueImport(ctx, path)
			return err
		}
		_, err := importer.ImportBook(ctx, path)
		return err
	}

	watcher, err := library.NewWatcher(dir, cfg.Library.WatchSettle, enqueue)
	if err != nil {
		log.Printf("WARNING: Library watcher disabled: %v", err)
		return nil
	}
	go watcher.Run(context.Background())
	return watcher
}

// newSpotifyClient returns nil when credentials cannot be stored.
func newSpotifyClient(cfg *config.Config, db *database.Database) *spotify.Client {
	store, err := tokenstore.New(db.DB, tokenstore.KeyConfig{
		EncryptionKey: cfg.Tokens.EncryptionKey,
		KeyFilePath:   cfg.Tokens.KeyFilePath,
	})
	if err != nil {
		log.Printf("WARNING: Spotify disabled, token store unavailable: %v", err)
		return nil
	}

	session := spotify.NewSession(store)
	if err := session.Load(); err != nil {
		log.Printf("WARNING: Failed to load Spotify credentials: %v", err)
	} else if !session.Valid() {
		log.Printf("Spotify not connected. Run 'wave spotify-token' to add credentials.")
	}

	return spotify.NewClient(cfg.Spotify.APIURL, session,
		spotify.WithRetry(cfg.Spotify.RetryAttempts, cfg.Spotify.RetryDelay),
		spotify.WithRateLimit(cfg.Spotify.RateLimit, cfg.Spotify.RateBurst),
	)
}
