// Package epub gives the reader indexed access to an EPUB's spine, metadata
// and cover. Container parsing is done by goreader.
package epub

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/taylorskalyo/goreader/epub"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

var (
	ErrNoRootfile = errors.New("no rootfiles found in epub")
	ErrEmptySpine = errors.New("epub has no readable spine items")
	ErrSpineIndex = errors.New("spine index out of range")
	ErrNoCover    = errors.New("epub has no cover image")
	ErrNoResource = errors.New("resource not found in epub")
)

const (
	defaultTitle  = "Unknown Title"
	defaultAuthor = "Unknown Author"
)

// SpineItem is one readable document in reading order.
type SpineItem struct {
	ID        string `json:"id"`
	HREF      string `json:"href"`
	MediaType string `json:"media_type"`

	item *epub.Item
}

// Book is an open EPUB file. It must be closed.
type Book struct {
	Path   string
	Title  string
	Author string
	Spine  []SpineItem

	rc       *epub.ReadCloser
	manifest []epub.Item
}

// Open opens the EPUB at filename and indexes its spine.
func Open(filename string) (*Book, error) {
	rc, err := epub.OpenReader(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to open epub: %w", err)
	}

	if len(rc.Rootfiles) == 0 {
		rc.Close()
		return nil, ErrNoRootfile
	}
	root := rc.Rootfiles[0]

	book := &Book{
		Path:     filename,
		Title:    firstNonEmpty(root.Title, defaultTitle),
		Author:   firstNonEmpty(root.Creator, defaultAuthor),
		rc:       rc,
		manifest: root.Manifest.Items,
	}

	for _, ref := range root.Spine.Itemrefs {
		if ref.Item == nil {
			continue
		}
		book.Spine = append(book.Spine, SpineItem{
			ID:        ref.Item.ID,
			HREF:      ref.Item.HREF,
			MediaType: ref.Item.MediaType,
			item:      ref.Item,
		})
	}
	if len(book.Spine) == 0 {
		rc.Close()
		return nil, ErrEmptySpine
	}

	return book, nil
}

// Close releases the underlying archive.
func (b *Book) Close() error {
	if b.rc == nil {
		return nil
	}
	b.rc.Close()
	b.rc = nil
	return nil
}

// SpineCount returns the number of spine items.
func (b *Book) SpineCount() int {
	return len(b.Spine)
}

// ReadSpineItem returns the raw XHTML of spine item i.
func (b *Book) ReadSpineItem(i int) ([]byte, error) {
	if i < 0 || i >= len(b.Spine) {
		return nil, fmt.Errorf("%w: %d of %d", ErrSpineIndex, i, len(b.Spine))
	}
	item := b.Spine[i].item
	if item == nil {
		return nil, fmt.Errorf("%w: %d has no manifest entry", ErrSpineIndex, i)
	}

	r, err := item.Open()
	if err != nil {
		return nil, fmt.Errorf("open spine item %s: %w", item.HREF, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read spine item %s: %w", item.HREF, err)
	}
	return data, nil
}

// ChapterTitle returns the <title> of spine item i, or "Chapter N" when the
// document has none.
func (b *Book) ChapterTitle(i int) string {
	fallback := fmt.Sprintf("Chapter %d", i+1)
	data, err := b.ReadSpineItem(i)
	if err != nil {
		return fallback
	}
	return firstNonEmpty(documentTitle(data), fallback)
}

// Cover returns the cover image bytes and media type. The manifest is
// searched for an image whose id or file name mentions "cover", then for the
// first image.
func (b *Book) Cover() ([]byte, string, error) {
	var fallback *epub.Item
	for i := range b.manifest {
		item := &b.manifest[i]
		if !strings.HasPrefix(item.MediaType, "image/") {
			continue
		}
		if isCoverItem(item) {
			return readItem(item)
		}
		if fallback == nil {
			fallback = item
		}
	}
	if fallback == nil {
		return nil, "", ErrNoCover
	}
	return readItem(fallback)
}

// ReadResource returns a manifest item (image, style sheet, font) by the href
// a spine document uses to reference it.
func (b *Book) ReadResource(href string) ([]byte, string, error) {
	want := path.Clean(strings.TrimPrefix(href, "/"))
	for strings.HasPrefix(want, "../") {
		want = strings.TrimPrefix(want, "../")
	}

	var byName *epub.Item
	for i := range b.manifest {
		item := &b.manifest[i]
		if path.Clean(item.HREF) == want {
			return readItem(item)
		}
		if byName == nil && path.Base(item.HREF) == path.Base(want) {
			byName = item
		}
	}
	if byName == nil {
		return nil, "", fmt.Errorf("%w: %s", ErrNoResource, href)
	}
	return readItem(byName)
}

func isCoverItem(item *epub.Item) bool {
	id := strings.ToLower(item.ID)
	name := strings.ToLower(path.Base(item.HREF))
	return strings.Contains(id, "cover") || strings.Contains(name, "cover")
}

func readItem(item *epub.Item) ([]byte, string, error) {
	r, err := item.Open()
	if err != nil {
		return nil, "", fmt.Errorf("open %s: %w", item.HREF, err)
	}
	defer r.Close()

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, "", fmt.Errorf("read %s: %w", item.HREF, err)
	}
	return data, item.MediaType, nil
}

func documentTitle(data []byte) string {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return ""
	}

	var title string
	var walk func(*html.Node) bool
	walk = func(n *html.Node) bool {
		if n.Type == html.ElementNode && n.DataAtom == atom.Title {
			if n.FirstChild != nil {
				title = strings.TrimSpace(n.FirstChild.Data)
			}
			return true
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if walk(c) {
				return true
			}
		}
		return false
	}
	walk(doc)
	return title
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
