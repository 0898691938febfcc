// Package roddom captures a live Chrome tab, driven by go-rod, into an
// htmldom.Document carrying the browser's computed layout, and routes scroll
// and style writes back to the tab.
package roddom

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-rod/rod"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/spigell/uiindex/internal/dom"
	"github.com/spigell/uiindex/internal/dom/htmldom"
)

// captureScript serialises the element tree with computed display,
// visibility and client rects. Script and style bodies are skipped.
const captureScript = `() => {
	const skip = new Set(["script", "style", "noscript", "template"]);
	const walk = (el) => {
		const tag = el.tagName.toLowerCase();
		const cs = window.getComputedStyle(el);
		const r = el.getBoundingClientRect();
		const attrs = [];
		for (const a of el.attributes) attrs.push([a.name, a.value]);
		const node = {
			t: tag, a: attrs,
			d: cs ? cs.display : "none",
			v: cs ? cs.visibility : "hidden",
			r: [r.x, r.y, r.width, r.height],
			c: []
		};
		if (skip.has(tag)) return node;
		for (const ch of el.childNodes) {
			if (ch.nodeType === 1) node.c.push(walk(ch));
			else if (ch.nodeType === 3 && ch.nodeValue.trim() !== "") node.c.push({x: ch.nodeValue});
		}
		return node;
	};
	return JSON.stringify({
		url: String(location.href || ""),
		vw: window.innerWidth || 0,
		vh: window.innerHeight || 0,
		root: walk(document.documentElement)
	});
}`

type capturedPage struct {
	URL  string        `json:"url"`
	VW   float64       `json:"vw"`
	VH   float64       `json:"vh"`
	Root *capturedNode `json:"root"`
}

type capturedNode struct {
	Tag        string         `json:"t"`
	Attrs      [][2]string    `json:"a"`
	Display    string         `json:"d"`
	Visibility string         `json:"v"`
	Rect       []float64      `json:"r"`
	Children   []capturedNode `json:"c"`
	Text       *string        `json:"x"`
}

// Capture serialises the page's DOM and layout and returns a document whose
// writes are applied to the page.
func Capture(ctx context.Context, page *rod.Page) (*htmldom.Document, error) {
	res, err := page.Context(ctx).Eval(captureScript)
	if err != nil {
		return nil, fmt.Errorf("capture dom: %w", err)
	}

	var captured capturedPage
	if err := json.Unmarshal([]byte(res.Value.Str()), &captured); err != nil {
		return nil, fmt.Errorf("decode captured dom: %w", err)
	}

	return build(captured, &actuator{page: page, ctx: ctx})
}

func build(captured capturedPage, act htmldom.Actuator) (*htmldom.Document, error) {
	if captured.Root == nil {
		return nil, fmt.Errorf("captured dom has no root element")
	}

	root := &html.Node{Type: html.DocumentNode}
	boxes := make(map[*html.Node]htmldom.Box)
	root.AppendChild(buildNode(captured.Root, boxes))

	opts := []htmldom.Option{
		htmldom.WithLayout(boxes),
		htmldom.WithViewport(dom.Rect{Width: captured.VW, Height: captured.VH}),
	}
	if act != nil {
		opts = append(opts, htmldom.WithActuator(act))
	}

	return htmldom.New(root, captured.URL, opts...), nil
}

func buildNode(c *capturedNode, boxes map[*html.Node]htmldom.Box) *html.Node {
	if c.Text != nil {
		return &html.Node{Type: html.TextNode, Data: *c.Text}
	}

	n := &html.Node{
		Type:     html.ElementNode,
		Data:     c.Tag,
		DataAtom: atom.Lookup([]byte(c.Tag)),
	}
	for _, a := range c.Attrs {
		n.Attr = append(n.Attr, html.Attribute{Key: a[0], Val: a[1]})
	}

	box := htmldom.Box{Display: c.Display, Visibility: c.Visibility}
	if len(c.Rect) == 4 {
		box.Rect = dom.Rect{X: c.Rect[0], Y: c.Rect[1], Width: c.Rect[2], Height: c.Rect[3]}
	}
	boxes[n] = box

	for i := range c.Children {
		n.AppendChild(buildNode(&c.Children[i], boxes))
	}
	return n
}
