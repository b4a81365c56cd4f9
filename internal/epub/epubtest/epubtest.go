// Package epubtest writes small EPUB files for tests.
package epubtest

import (
	"archive/zip"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

// Chapter is one spine document.
type Chapter struct {
	Title string
	Body  string
}

// Book describes the EPUB to write.
type Book struct {
	Title    string
	Author   string
	Chapters []Chapter
	Cover    []byte
}

// PNG is a 1x1 transparent PNG usable as a cover.
var PNG = []byte{
	0x89, 0x50, 0x4e, 0x47, 0x0d, 0x0a, 0x1a, 0x0a, 0x00, 0x00, 0x00, 0x0d,
	0x49, 0x48, 0x44, 0x52, 0x00, 0x00, 0x00, 0x01, 0x00, 0x00, 0x00, 0x01,
	0x08, 0x06, 0x00, 0x00, 0x00, 0x1f, 0x15, 0xc4, 0x89, 0x00, 0x00, 0x00,
	0x0a, 0x49, 0x44, 0x41, 0x54, 0x78, 0x9c, 0x63, 0x00, 0x01, 0x00, 0x00,
	0x05, 0x00, 0x01, 0x0d, 0x0a, 0x2d, 0xb4, 0x00, 0x00, 0x00, 0x00, 0x49,
	0x45, 0x4e, 0x44, 0xae, 0x42, 0x60, 0x82,
}

const containerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

// Write creates dir/name and returns its path.
func Write(t *testing.T, dir, name string, b Book) string {
	t.Helper()

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create epub: %v", err)
	}
	defer f.Close()

	zw := zip.NewWriter(f)
	files := []struct {
		name string
		body string
	}{
		{"mimetype", "application/epub+zip"},
		{"META-INF/container.xml", containerXML},
		{"OEBPS/content.opf", packageDocument(b)},
	}
	for i, ch := range b.Chapters {
		files = append(files, struct {
			name string
			body string
		}{fmt.Sprintf("OEBPS/chapter%d.xhtml", i+1), chapterDocument(ch)})
	}
	if b.Cover != nil {
		files = append(files, struct {
			name string
			body string
		}{"OEBPS/images/cover.png", string(b.Cover)})
	}

	for _, file := range files {
		w, err := zw.Create(file.name)
		if err != nil {
			t.Fatalf("add %s: %v", file.name, err)
		}
		if _, err := w.Write([]byte(file.body)); err != nil {
			t.Fatalf("write %s: %v", file.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("close epub: %v", err)
	}
	return path
}

func packageDocument(b Book) string {
	var manifest, spine strings.Builder
	for i := range b.Chapters {
		fmt.Fprintf(&manifest, `    <item id="ch%d" href="chapter%d.xhtml" media-type="application/xhtml+xml"/>`+"\n", i+1, i+1)
		fmt.Fprintf(&spine, `    <itemref idref="ch%d"/>`+"\n", i+1)
	}
	if b.Cover != nil {
		manifest.WriteString(`    <item id="cover-image" href="images/cover.png" media-type="image/png"/>` + "\n")
	}

	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="id">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:identifier id="id">urn:uuid:wave-test</dc:identifier>
    <dc:title>%s</dc:title>
    <dc:creator>%s</dc:creator>
    <dc:language>en</dc:language>
  </metadata>
  <manifest>
%s  </manifest>
  <spine>
%s  </spine>
</package>`, b.Title, b.Author, manifest.String(), spine.String())
}

func chapterDocument(ch Chapter) string {
	head := ""
	if ch.Title != "" {
		head = "<title>" + ch.Title + "</title>"
	}
	return `<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml"><head>` + head + `</head><body>` + ch.Body + `</body></html>`
}
