package htmldom

import (
	"fmt"
	"strings"

	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/spigell/uiindex/internal/dom"
)

// layoutProps are inline properties the synthetic layout depends on.
var layoutProps = map[string]bool{
	"display": true, "visibility": true,
	"left": true, "top": true, "width": true, "height": true,
}

// Element is a dom.Element backed by an html.Node.
type Element struct {
	doc  *Document
	node *html.Node
}

var _ dom.Element = (*Element)(nil)

// Tag implements dom.Element.
func (e *Element) Tag() string { return strings.ToLower(e.node.Data) }

// Attr implements dom.Element.
func (e *Element) Attr(name string) (string, bool) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	for _, a := range e.node.Attr {
		if a.Key == name {
			return a.Val, true
		}
	}
	return "", false
}

// Parent implements dom.Element. The document node is not an element, so the
// root html element has no parent.
func (e *Element) Parent() dom.Element {
	e.doc.mu.RLock()
	p := e.node.Parent
	e.doc.mu.RUnlock()

	if p == nil || p.Type != html.ElementNode {
		return nil
	}
	return e.doc.wrap(p)
}

// Children implements dom.Element.
func (e *Element) Children() []dom.Element {
	e.doc.mu.RLock()
	var nodes []*html.Node
	for c := e.node.FirstChild; c != nil; c = c.NextSibling {
		if c.Type == html.ElementNode {
			nodes = append(nodes, c)
		}
	}
	e.doc.mu.RUnlock()

	out := make([]dom.Element, 0, len(nodes))
	for _, n := range nodes {
		out = append(out, e.doc.wrap(n))
	}
	return out
}

// Text implements dom.Element.
func (e *Element) Text() string {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()
	return htmlquery.InnerText(e.node)
}

// ComputedStyle implements dom.Element for display and visibility.
func (e *Element) ComputedStyle(prop string) (string, error) {
	box, err := e.box()
	if err != nil {
		return "", err
	}

	switch strings.ToLower(prop) {
	case "display":
		return box.Display, nil
	case "visibility":
		return box.Visibility, nil
	default:
		return "", fmt.Errorf("computed style %q is not tracked", prop)
	}
}

// BoundingRect implements dom.Element.
func (e *Element) BoundingRect() (dom.Rect, error) {
	box, err := e.box()
	if err != nil {
		return dom.Rect{}, err
	}
	return box.Rect, nil
}

// ScrollIntoView implements dom.Element. Without an actuator there is nothing
// to scroll.
func (e *Element) ScrollIntoView() error {
	e.doc.mu.RLock()
	attached := e.doc.attached(e.node)
	path := e.doc.path(e.node)
	e.doc.mu.RUnlock()

	if !attached {
		return dom.ErrDetached
	}
	if e.doc.actuator == nil {
		return nil
	}
	return e.doc.actuator.ScrollIntoView(path)
}

// SetStyle implements dom.Element. The write always lands in the tree; with an
// actuator it is also applied to the live page, whose previous value wins.
func (e *Element) SetStyle(prop, value string) (string, error) {
	prop = strings.ToLower(strings.TrimSpace(prop))
	if prop == "" {
		return "", fmt.Errorf("style property is required")
	}

	e.doc.mu.Lock()
	if !e.doc.attached(e.node) {
		e.doc.mu.Unlock()
		return "", dom.ErrDetached
	}

	decls := parseStyle(attr(e.node, "style"))
	previous, _ := lookupDeclaration(decls, prop)
	decls = setDeclaration(decls, prop, strings.TrimSpace(value))
	setAttr(e.node, "style", formatStyle(decls))
	if layoutProps[prop] {
		e.doc.relayout()
	}
	path := e.doc.path(e.node)
	e.doc.mu.Unlock()

	if e.doc.actuator != nil {
		live, err := e.doc.actuator.SetStyle(path, prop, value)
		if err != nil {
			return previous, err
		}
		previous = live
	}
	return previous, nil
}

func (e *Element) box() (Box, error) {
	e.doc.mu.RLock()
	defer e.doc.mu.RUnlock()

	if !e.doc.attached(e.node) {
		return Box{}, dom.ErrDetached
	}
	box, ok := e.doc.boxes[e.node]
	if !ok {
		return Box{Display: "none", Visibility: "visible"}, nil
	}
	return box, nil
}

func setAttr(n *html.Node, key, val string) {
	for i := range n.Attr {
		if n.Attr[i].Key == key {
			if val == "" {
				n.Attr = append(n.Attr[:i], n.Attr[i+1:]...)
			} else {
				n.Attr[i].Val = val
			}
			return
		}
	}
	if val != "" {
		n.Attr = append(n.Attr, html.Attribute{Key: key, Val: val})
	}
}
