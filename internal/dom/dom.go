// Package dom describes the small capability surface the indexer needs from a
// page: tree traversal, attributes, computed visibility, geometry and a couple
// of writes. Implementations live in subpackages.
package dom

import (
	"errors"
	"math"
)

// ErrDetached is returned by element operations when the node is no longer
// attached to the document.
var ErrDetached = errors.New("dom: element is detached")

// Rect is a bounding box in CSS pixels.
type Rect struct {
	X      float64 `json:"x" yaml:"x"`
	Y      float64 `json:"y" yaml:"y"`
	Width  float64 `json:"width" yaml:"width"`
	Height float64 `json:"height" yaml:"height"`
}

// Empty reports whether the rect has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Center returns the centre point of r.
func (r Rect) Center() (float64, float64) {
	return r.X + r.Width/2, r.Y + r.Height/2
}

// Distance is the Euclidean distance between the centres of r and o.
func (r Rect) Distance(o Rect) float64 {
	x1, y1 := r.Center()
	x2, y2 := o.Center()
	return math.Hypot(x2-x1, y2-y1)
}

// Element is one element node.
type Element interface {
	// Tag is the lowercase tag name.
	Tag() string
	Attr(name string) (string, bool)
	Parent() Element
	Children() []Element
	// Text is the element's text content.
	Text() string
	// ComputedStyle returns the computed value of a CSS property. Only
	// "display" and "visibility" are required.
	ComputedStyle(prop string) (string, error)
	BoundingRect() (Rect, error)

	ScrollIntoView() error
	// SetStyle sets an inline style property and returns the previous inline
	// value ("" when unset).
	SetStyle(prop, value string) (string, error)
}

// TextNode is a non-empty text node together with its parent element.
type TextNode struct {
	Text   string
	Parent Element
}

// Document is the DOM provider used by the indexer.
type Document interface {
	URL() string
	Title() string
	// Body is the traversal root.
	Body() Element
	Viewport() Rect
	// QueryAll returns the elements matching a CSS selector in document order.
	QueryAll(selector string) ([]Element, error)
	// TextNodes returns the non-blank text nodes below root in document order.
	TextNodes(root Element) []TextNode
}

// Query returns the first element matching selector, or nil.
func Query(doc Document, selector string) (Element, error) {
	els, err := doc.QueryAll(selector)
	if err != nil || len(els) == 0 {
		return nil, err
	}
	return els[0], nil
}

// Same reports whether a and b refer to the same node. Implementations return
// comparable element values.
func Same(a, b Element) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return a == b
}
