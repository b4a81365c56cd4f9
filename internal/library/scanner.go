package library

import (
	"context"
	"fmt"
	"io/fs"
	"path/filepath"
	"sort"
	"strings"
)

// Scanner finds EPUB files under a directory that the library does not know.
type Scanner struct {
	books BookStore
}

// NewScanner creates a Scanner over the given book store.
func NewScanner(store BookStore) *Scanner {
	return &Scanner{books: store}
}

// FindNew walks dir and returns the absolute paths of EPUB files that have
// no library record, sorted. Hidden files and directories are skipped.
func (s *Scanner) FindNew(ctx context.Context, dir string) ([]string, error) {
	root, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", dir, err)
	}

	known, err := s.books.GetAllBooks()
	if err != nil {
		return nil, fmt.Errorf("list books: %w", err)
	}
	seen := make(map[string]bool, len(known))
	for _, b := range known {
		seen[b.BookPath] = true
	}

	var found []string
	err = filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if path != root && strings.HasPrefix(d.Name(), ".") {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !IsEpub(path) || seen[path] {
			return nil
		}
		found = append(found, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", root, err)
	}

	sort.Strings(found)
	return found, nil
}
