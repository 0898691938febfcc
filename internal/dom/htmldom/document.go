// Package htmldom implements the dom capability interfaces over a
// golang.org/x/net/html tree. Geometry and computed styles come either from a
// captured browser layout or from a synthetic layout.
package htmldom

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/andybalholm/cascadia"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/spigell/uiindex/internal/dom"
)

// DefaultViewport is used when no viewport is supplied.
var DefaultViewport = dom.Rect{Width: 1280, Height: 800}

// Actuator performs writes against the page the tree was captured from.
// Elements are addressed by their element-child index path from the root
// html element.
type Actuator interface {
	ScrollIntoView(path []int) error
	SetStyle(path []int, prop, value string) (string, error)
}

// Document is a dom.Document backed by an html.Node tree.
type Document struct {
	mu       sync.RWMutex
	root     *html.Node
	url      string
	viewport dom.Rect
	boxes    map[*html.Node]Box
	captured bool
	actuator Actuator

	wrapMu   sync.Mutex
	elements map[*html.Node]*Element
}

// Option configures a Document.
type Option func(*Document)

// WithLayout supplies computed boxes captured from a browser. Elements
// without a box are treated as not rendered.
func WithLayout(boxes map[*html.Node]Box) Option {
	return func(d *Document) {
		d.boxes = boxes
		d.captured = true
	}
}

// WithActuator routes scroll and style writes to a live page.
func WithActuator(a Actuator) Option {
	return func(d *Document) { d.actuator = a }
}

// WithViewport sets the viewport rectangle.
func WithViewport(r dom.Rect) Option {
	return func(d *Document) {
		if !r.Empty() {
			d.viewport = r
		}
	}
}

// Parse reads an HTML document.
func Parse(r io.Reader, pageURL string, opts ...Option) (*Document, error) {
	root, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	return New(root, pageURL, opts...), nil
}

// ParseString is Parse over a string.
func ParseString(s, pageURL string, opts ...Option) (*Document, error) {
	return Parse(strings.NewReader(s), pageURL, opts...)
}

// New wraps an existing tree. root should be a document node.
func New(root *html.Node, pageURL string, opts ...Option) *Document {
	d := &Document{
		root:     root,
		url:      pageURL,
		viewport: DefaultViewport,
		elements: make(map[*html.Node]*Element),
	}
	for _, opt := range opts {
		opt(d)
	}
	if d.boxes == nil {
		d.boxes = syntheticLayout(root, d.viewport)
	}
	return d
}

// URL implements dom.Document.
func (d *Document) URL() string { return d.url }

// Title implements dom.Document.
func (d *Document) Title() string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	n := htmlquery.FindOne(d.root, "//head/title")
	if n == nil {
		return ""
	}
	return strings.Join(strings.Fields(htmlquery.InnerText(n)), " ")
}

// Viewport implements dom.Document.
func (d *Document) Viewport() dom.Rect { return d.viewport }

// Body implements dom.Document. Documents without a body fall back to the
// root html element.
func (d *Document) Body() dom.Element {
	d.mu.RLock()
	n := htmlquery.FindOne(d.root, "//body")
	if n == nil {
		n = htmlquery.FindOne(d.root, "/html")
	}
	d.mu.RUnlock()

	if n == nil {
		return nil
	}
	return d.wrap(n)
}

// QueryAll implements dom.Document.
func (d *Document) QueryAll(selector string) ([]dom.Element, error) {
	sel, err := cascadia.Compile(selector)
	if err != nil {
		return nil, fmt.Errorf("compile selector %q: %w", selector, err)
	}

	d.mu.RLock()
	nodes := sel.MatchAll(d.root)
	d.mu.RUnlock()

	out := make([]dom.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, d.wrap(n))
	}
	return out, nil
}

// TextNodes implements dom.Document.
func (d *Document) TextNodes(root dom.Element) []dom.TextNode {
	start := d.root
	if el, ok := root.(*Element); ok && el != nil && el.doc == d {
		start = el.node
	}

	d.mu.RLock()
	nodes := htmlquery.Find(start, ".//text()")
	d.mu.RUnlock()

	var out []dom.TextNode
	for _, n := range nodes {
		text := strings.Join(strings.Fields(n.Data), " ")
		if text == "" || n.Parent == nil || n.Parent.Type != html.ElementNode {
			continue
		}
		if n.Parent.DataAtom == atom.Script || n.Parent.DataAtom == atom.Style {
			continue
		}
		out = append(out, dom.TextNode{Text: text, Parent: d.wrap(n.Parent)})
	}
	return out
}

// Node returns the underlying html node of an element of this document.
func (d *Document) Node(el dom.Element) (*html.Node, bool) {
	e, ok := el.(*Element)
	if !ok || e == nil || e.doc != d {
		return nil, false
	}
	return e.node, true
}

// Render serialises the current tree, including style writes.
func (d *Document) Render(w io.Writer) error {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return html.Render(w, d.root)
}

func (d *Document) wrap(n *html.Node) *Element {
	d.wrapMu.Lock()
	defer d.wrapMu.Unlock()

	if el, ok := d.elements[n]; ok {
		return el
	}
	el := &Element{doc: d, node: n}
	d.elements[n] = el
	return el
}

func (d *Document) attached(n *html.Node) bool {
	for p := n; p != nil; p = p.Parent {
		if p == d.root {
			return true
		}
	}
	return false
}

// path returns the element-child index path from the root html element.
func (d *Document) path(n *html.Node) []int {
	var path []int
	for cur := n; cur != nil && cur.Parent != nil && cur.Parent.Type == html.ElementNode; cur = cur.Parent {
		idx := 0
		for s := cur.PrevSibling; s != nil; s = s.PrevSibling {
			if s.Type == html.ElementNode {
				idx++
			}
		}
		path = append([]int{idx}, path...)
	}
	return path
}

func (d *Document) relayout() {
	if !d.captured {
		d.boxes = syntheticLayout(d.root, d.viewport)
	}
}
