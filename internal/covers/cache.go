package covers

import (
	"bytes"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"

	"github.com/b4ndithelps/wave/internal/epub"
)

// Cache handles local caching of book covers and playlist artwork.
type Cache struct {
	cacheDir   string
	httpClient *http.Client
}

// NewCache creates a new cover cache at the specified directory.
func NewCache(cacheDir string) (*Cache, error) {
	if err := os.MkdirAll(cacheDir, 0755); err != nil {
		return nil, fmt.Errorf("create cache dir: %w", err)
	}

	return &Cache{
		cacheDir: cacheDir,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}, nil
}

// GetCover returns the cached cover for a book, extracting it from the EPUB
// at bookPath if not present. Returns an empty path when the book has no
// cover image.
func (c *Cache) GetCover(bookID uint, bookPath string) (string, error) {
	if bookPath == "" {
		return "", nil
	}

	prefix := c.coverPrefix(bookID, bookPath)
	if cached := c.lookup(prefix); cached != "" {
		return cached, nil
	}

	book, err := epub.Open(bookPath)
	if err != nil {
		return "", err
	}
	defer book.Close()

	data, mediaType, err := book.Cover()
	if errors.Is(err, epub.ErrNoCover) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	cachePath := filepath.Join(c.cacheDir, prefix+extensionFor(mediaType, data))
	if err := c.store(bytes.NewReader(data), cachePath); err != nil {
		return "", err
	}
	return cachePath, nil
}

// GetImage returns the cached copy of a remote image such as playlist
// artwork, fetching it if not present.
func (c *Cache) GetImage(key, imageURL string) (string, error) {
	if imageURL == "" {
		return "", nil
	}

	cachePath := filepath.Join(c.cacheDir, c.imageFilename(key, imageURL))
	if _, err := os.Stat(cachePath); err == nil {
		return cachePath, nil
	}

	if err := c.fetchAndCache(imageURL, cachePath); err != nil {
		return "", err
	}
	return cachePath, nil
}

// InvalidateCover removes the cached cover for a book.
func (c *Cache) InvalidateCover(bookID uint) error {
	pattern := filepath.Join(c.cacheDir, fmt.Sprintf("cover_%d_*", bookID))
	matches, err := filepath.Glob(pattern)
	if err != nil {
		return err
	}

	for _, match := range matches {
		if err := os.Remove(match); err != nil && !os.IsNotExist(err) {
			return err
		}
	}

	return nil
}

// coverPrefix names a book cover by book ID and path hash; the extension
// follows the image type.
func (c *Cache) coverPrefix(bookID uint, bookPath string) string {
	hash := sha256.Sum256([]byte(bookPath))
	return fmt.Sprintf("cover_%d_%x", bookID, hash[:8])
}

var unsafeKeyChars = regexp.MustCompile(`[^A-Za-z0-9_-]`)

func (c *Cache) imageFilename(key, imageURL string) string {
	hash := sha256.Sum256([]byte(imageURL))
	return fmt.Sprintf("image_%s_%x.jpg", unsafeKeyChars.ReplaceAllString(key, "_"), hash[:8])
}

func (c *Cache) lookup(prefix string) string {
	matches, _ := filepath.Glob(filepath.Join(c.cacheDir, prefix+".*"))
	if len(matches) == 0 {
		return ""
	}
	return matches[0]
}

// fetchAndCache downloads an image and saves it to the cache.
func (c *Cache) fetchAndCache(url, cachePath string) error {
	req, err := http.NewRequest(http.MethodGet, url, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", "WaveReader/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to fetch image: status %d", resp.StatusCode)
	}

	return c.store(resp.Body, cachePath)
}

// store writes r to a temp file in the cache directory and renames it into
// place.
func (c *Cache) store(r io.Reader, cachePath string) error {
	tmpFile, err := os.CreateTemp(c.cacheDir, "cover_tmp_")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()
	defer func() {
		tmpFile.Close()
		os.Remove(tmpPath) // Clean up if we didn't rename
	}()

	if _, err := io.Copy(tmpFile, r); err != nil {
		return err
	}

	tmpFile.Close()

	return os.Rename(tmpPath, cachePath)
}

// extensionFor picks a file extension from the manifest media type, sniffing
// the bytes when the manifest does not name an image type.
func extensionFor(mediaType string, data []byte) string {
	if !strings.HasPrefix(mediaType, "image/") {
		if ext := mimetype.Detect(data).Extension(); ext != "" {
			return ext
		}
		return ".jpg"
	}
	switch mediaType {
	case "image/jpeg":
		return ".jpg"
	case "image/png":
		return ".png"
	case "image/gif":
		return ".gif"
	case "image/svg+xml":
		return ".svg"
	}
	if exts, _ := mime.ExtensionsByType(mediaType); len(exts) > 0 {
		return exts[0]
	}
	return ".jpg"
}

// CacheDir returns the cache directory path.
func (c *Cache) CacheDir() string {
	return c.cacheDir
}
