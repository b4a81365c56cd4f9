package htmlstyling

import (
	"bytes"
	"fmt"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const viewportContent = "width=device-width, initial-scale=1.0"

// ProcessHTML prepares a spine document for display. The parser guarantees
// an <html><head><body> skeleton; the style sheet and a viewport meta tag are
// injected at the top of head, and the body is padded at the bottom by
// chromePadding px so the last line is not hidden behind the page info bar.
func ProcessHTML(doc []byte, style EpubStyle, chromePadding int) ([]byte, error) {
	root, err := html.Parse(bytes.NewReader(doc))
	if err != nil {
		return nil, fmt.Errorf("parse spine document: %w", err)
	}

	htmlNode := findElement(root, atom.Html)
	if htmlNode == nil {
		return nil, fmt.Errorf("parse spine document: no html element")
	}
	head := findElement(htmlNode, atom.Head)
	body := findElement(htmlNode, atom.Body)
	if head == nil || body == nil {
		return nil, fmt.Errorf("parse spine document: missing head or body")
	}

	css := style.CSS()
	if chromePadding > 0 {
		css += fmt.Sprintf("\nbody { padding-bottom: %dpx; }\n", chromePadding)
	}
	styleNode := &html.Node{
		Type:     html.ElementNode,
		Data:     "style",
		DataAtom: atom.Style,
		Attr:     []html.Attribute{{Key: "id", Val: "wave-style"}},
	}
	styleNode.AppendChild(&html.Node{Type: html.TextNode, Data: css})
	prepend(head, styleNode)

	if !hasViewport(head) {
		prepend(head, &html.Node{
			Type:     html.ElementNode,
			Data:     "meta",
			DataAtom: atom.Meta,
			Attr: []html.Attribute{
				{Key: "name", Val: "viewport"},
				{Key: "content", Val: viewportContent},
			},
		})
	}

	var out bytes.Buffer
	if err := html.Render(&out, root); err != nil {
		return nil, fmt.Errorf("render spine document: %w", err)
	}
	return out.Bytes(), nil
}

func prepend(parent, child *html.Node) {
	if parent.FirstChild == nil {
		parent.AppendChild(child)
		return
	}
	parent.InsertBefore(child, parent.FirstChild)
}

func hasViewport(head *html.Node) bool {
	for c := head.FirstChild; c != nil; c = c.NextSibling {
		if c.Type != html.ElementNode || c.DataAtom != atom.Meta {
			continue
		}
		for _, a := range c.Attr {
			if strings.EqualFold(a.Key, "name") && strings.EqualFold(a.Val, "viewport") {
				return true
			}
		}
	}
	return false
}

func findElement(n *html.Node, a atom.Atom) *html.Node {
	if n.Type == html.ElementNode && n.DataAtom == a {
		return n
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, a); found != nil {
			return found
		}
	}
	return nil
}
