package htmldom

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/spigell/uiindex/internal/dom"
)

// Box is the computed visibility and geometry of one element.
type Box struct {
	Display    string   `json:"display"`
	Visibility string   `json:"visibility"`
	Rect       dom.Rect `json:"rect"`
}

const (
	rowHeight = 24
	indent    = 16
)

// neverRendered lists elements a browser never lays out.
var neverRendered = map[atom.Atom]bool{
	atom.Head:     true,
	atom.Script:   true,
	atom.Style:    true,
	atom.Template: true,
	atom.Noscript: true,
	atom.Meta:     true,
	atom.Link:     true,
	atom.Title:    true,
	atom.Base:     true,
}

// syntheticLayout approximates a rendered page for documents that never went
// through a browser. Every displayed element takes one row in document order,
// indented by depth. Inline left/top/width/height pixel values override the
// flow position and size. display:none (inline, the hidden attribute or an
// input of type hidden) collapses the subtree; visibility is inherited.
func syntheticLayout(root *html.Node, viewport dom.Rect) map[*html.Node]Box {
	boxes := make(map[*html.Node]Box)
	row := 0

	var walk func(n *html.Node, depth int, collapsed bool, visibility string)
	walk = func(n *html.Node, depth int, collapsed bool, visibility string) {
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			if c.Type != html.ElementNode {
				continue
			}

			decls := parseStyle(attr(c, "style"))
			display := "block"
			if v, ok := lookupDeclaration(decls, "display"); ok {
				display = firstKeyword(v)
			}
			if hasAttr(c, "hidden") || neverRendered[c.DataAtom] ||
				(c.DataAtom == atom.Input && strings.EqualFold(attr(c, "type"), "hidden")) {
				display = "none"
			}

			vis := visibility
			if v, ok := lookupDeclaration(decls, "visibility"); ok {
				vis = firstKeyword(v)
			}

			box := Box{Display: display, Visibility: vis}
			childCollapsed := collapsed || display == "none"

			if !childCollapsed {
				x := float64(depth * indent)
				r := dom.Rect{X: x, Width: max(viewport.Width-x, 0), Height: rowHeight}

				left, hasLeft := lookupPixels(decls, "left")
				top, hasTop := lookupPixels(decls, "top")
				if hasLeft || hasTop {
					r.X, r.Y = left, top
				} else {
					r.Y = float64(row * rowHeight)
					row++
				}
				if w, ok := lookupPixels(decls, "width"); ok {
					r.Width = w
				}
				if h, ok := lookupPixels(decls, "height"); ok {
					r.Height = h
				}
				box.Rect = r
			}

			boxes[c] = box
			walk(c, depth+1, childCollapsed, vis)
		}
	}
	walk(root, 0, false, "visible")

	return boxes
}

func lookupPixels(decls []declaration, prop string) (float64, bool) {
	v, ok := lookupDeclaration(decls, prop)
	if !ok {
		return 0, false
	}
	return parsePixels(v)
}

func attr(n *html.Node, key string) string {
	for _, a := range n.Attr {
		if a.Key == key {
			return a.Val
		}
	}
	return ""
}

func hasAttr(n *html.Node, key string) bool {
	for _, a := range n.Attr {
		if a.Key == key {
			return true
		}
	}
	return false
}
