package cli

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/b4ndithelps/wave/internal/config"
	"github.com/b4ndithelps/wave/internal/covers"
	"github.com/b4ndithelps/wave/internal/database"
	"github.com/b4ndithelps/wave/internal/library"
)

// ImportBookCommand records EPUB files in the library database without
// running the server.
type ImportBookCommand struct {
	Path         string
	DatabasePath string
	CoversDir    string
	Verbose      bool
	DryRun       bool
}

func NewImportBookCommand() *ImportBookCommand {
	return &ImportBookCommand{}
}

func (cmd *ImportBookCommand) ParseFlags(args []string) error {
	fs := flag.NewFlagSet("import-book", flag.ExitOnError)

	fs.StringVar(&cmd.Path, "path", "", "EPUB file or directory of EPUB files to import (required)")
	fs.StringVar(&cmd.DatabasePath, "db", config.DefaultDatabasePath, "Path to the library database")
	fs.StringVar(&cmd.CoversDir, "covers", config.DefaultCoversDir, "Directory for extracted covers (empty to skip covers)")
	fs.BoolVar(&cmd.Verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&cmd.DryRun, "dry-run", false, "List the files that would be imported without changing the database")

	fs.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s import-book -path <file|dir> [options]\n\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "Add EPUB books to the library. A directory is searched recursively and\n")
		fmt.Fprintf(os.Stderr, "only books not yet in the library are imported. Re-importing a single file\n")
		fmt.Fprintf(os.Stderr, "refreshes its metadata and keeps reading progress.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		fs.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  %s import-book -path ~/Books/dune.epub\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "  %s import-book -path ~/Books -dry-run\n", os.Args[0])
	}

	if err := fs.Parse(args); err != nil {
		return err
	}

	if cmd.Path == "" {
		return fmt.Errorf("required flag -path not provided")
	}
	return nil
}

func (cmd *ImportBookCommand) Run() error {
	fmt.Println("Import Books")
	fmt.Println("============")

	if cmd.DryRun {
		fmt.Println("DRY RUN MODE - No changes will be made")
		fmt.Println()
	}

	info, err := os.Stat(cmd.Path)
	if err != nil {
		return fmt.Errorf("cannot access %s: %w", cmd.Path, err)
	}
	if !info.IsDir() && !library.IsEpub(cmd.Path) {
		return fmt.Errorf("%w: %s", library.ErrNotEpub, cmd.Path)
	}

	db, err := database.NewQuietDatabase(cmd.DatabasePath)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer db.Close()

	ctx := context.Background()

	paths := []string{cmd.Path}
	if info.IsDir() {
		paths, err = library.NewScanner(db.Books()).FindNew(ctx, cmd.Path)
		if err != nil {
			return fmt.Errorf("failed to scan %s: %w", cmd.Path, err)
		}
		fmt.Printf("Found %d new books in %s\n", len(paths), cmd.Path)
	}

	if cmd.DryRun {
		for _, path := range paths {
			fmt.Printf("  would import %s\n", path)
		}
		return nil
	}

	importer := library.NewImporter(db.Books())
	if cmd.CoversDir != "" {
		cache, err := covers.NewCache(cmd.CoversDir)
		if err != nil {
			return fmt.Errorf("failed to open cover cache: %w", err)
		}
		importer.SetCoverCache(cache)
	}

	var created, refreshed, failed int
	for _, path := range paths {
		result, err := importer.ImportBook(ctx, path)
		if err != nil {
			failed++
			fmt.Fprintf(os.Stderr, "  failed %s: %v\n", path, err)
			continue
		}
		if result.Created {
			created++
		} else {
			refreshed++
		}
		if cmd.Verbose {
			fmt.Printf("  %s: %q by %s, %d chapters, cover=%t\n",
				path, result.Book.Title, result.Book.Authors, result.Book.SpineCount, result.Cover)
		}
	}

	fmt.Println()
	fmt.Printf("Imported: %d, refreshed: %d, failed: %d\n", created, refreshed, failed)
	if failed > 0 && created+refreshed == 0 {
		return fmt.Errorf("no books imported")
	}
	return nil
}
