package htmldom

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/spigell/uiindex/internal/dom"
)

const page = `<!doctype html>
<html><head><title> Job  board </title><style>.x{}</style></head>
<body>
  <div id="list">
    <p>Backend engineer</p>
    <button data-testid="apply-btn">지원하기</button>
    <button style="display:none">숨김</button>
    <div hidden><a href="/x">inside hidden</a></div>
    <span style="visibility:hidden"><a href="/y">invisible</a><a style="visibility: visible" href="/z">shown</a></span>
    <input type="hidden" name="token">
    <a href="/abs" style="left: 100px; top: 300px; width: 40px; height: 10px">abs</a>
    <button style="width:0">zero</button>
  </div>
</body></html>`

func mustParse(t *testing.T) *Document {
	t.Helper()
	doc, err := ParseString(page, "https://jobs.example.com/list")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func TestDocumentBasics(t *testing.T) {
	doc := mustParse(t)

	if doc.Title() != "Job board" {
		t.Fatalf("unexpected title %q", doc.Title())
	}
	if doc.URL() != "https://jobs.example.com/list" {
		t.Fatalf("unexpected url %q", doc.URL())
	}
	if doc.Body() == nil || doc.Body().Tag() != "body" {
		t.Fatalf("expected body element")
	}
	if doc.Body().Parent() == nil || doc.Body().Parent().Parent() != nil {
		t.Fatalf("expected html element to be the topmost element")
	}
}

func TestQueryAllReturnsStableElements(t *testing.T) {
	doc := mustParse(t)

	first, err := doc.QueryAll(`[data-testid="apply-btn"]`)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	second, err := doc.QueryAll("button")
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(first) != 1 || len(second) != 3 {
		t.Fatalf("unexpected match counts %d and %d", len(first), len(second))
	}
	if !dom.Same(first[0], second[0]) {
		t.Fatalf("expected the same element wrapper for the same node")
	}

	if _, err := doc.QueryAll("button[["); err == nil {
		t.Fatalf("expected invalid selector error")
	}
}

func TestSyntheticVisibility(t *testing.T) {
	doc := mustParse(t)

	tests := []struct {
		selector   string
		display    string
		visibility string
		empty      bool
	}{
		{selector: `[data-testid="apply-btn"]`, display: "block", visibility: "visible"},
		{selector: `button[style="display:none"]`, display: "none", visibility: "visible", empty: true},
		{selector: `a[href="/x"]`, display: "block", visibility: "visible", empty: true},
		{selector: `a[href="/y"]`, display: "block", visibility: "hidden"},
		{selector: `a[href="/z"]`, display: "block", visibility: "visible"},
		{selector: `input[name="token"]`, display: "none", visibility: "visible", empty: true},
		{selector: `button[style="width:0"]`, display: "block", visibility: "visible", empty: true},
	}

	for _, tt := range tests {
		t.Run(tt.selector, func(t *testing.T) {
			el, err := dom.Query(doc, tt.selector)
			if err != nil || el == nil {
				t.Fatalf("query %q: %v", tt.selector, err)
			}
			display, _ := el.ComputedStyle("display")
			visibility, _ := el.ComputedStyle("visibility")
			rect, _ := el.BoundingRect()
			if display != tt.display || visibility != tt.visibility || rect.Empty() != tt.empty {
				t.Fatalf("got display=%q visibility=%q rect=%+v", display, visibility, rect)
			}
		})
	}
}

func TestSyntheticPositionedElement(t *testing.T) {
	doc := mustParse(t)

	el, _ := dom.Query(doc, `a[href="/abs"]`)
	rect, err := el.BoundingRect()
	if err != nil {
		t.Fatalf("rect: %v", err)
	}
	if rect != (dom.Rect{X: 100, Y: 300, Width: 40, Height: 10}) {
		t.Fatalf("unexpected rect %+v", rect)
	}
}

func TestTextNodesSkipScripts(t *testing.T) {
	doc := mustParse(t)

	nodes := doc.TextNodes(doc.Body())
	if len(nodes) == 0 {
		t.Fatalf("expected text nodes")
	}
	if nodes[0].Text != "Backend engineer" || nodes[0].Parent.Tag() != "p" {
		t.Fatalf("unexpected first text node %+v", nodes[0])
	}
	for _, n := range nodes {
		if strings.Contains(n.Text, ".x{}") {
			t.Fatalf("style content leaked into text nodes")
		}
	}
}

func TestSetStyleRoundTrip(t *testing.T) {
	doc := mustParse(t)

	el, _ := dom.Query(doc, `[data-testid="apply-btn"]`)
	prev, err := el.SetStyle("outline", "3px solid red")
	if err != nil || prev != "" {
		t.Fatalf("unexpected set result %q, %v", prev, err)
	}
	prev, err = el.SetStyle("outline", "")
	if err != nil || prev != "3px solid red" {
		t.Fatalf("unexpected revert result %q, %v", prev, err)
	}
	if style, ok := el.Attr("style"); ok {
		t.Fatalf("expected style attribute to be removed, got %q", style)
	}

	if _, err := el.SetStyle("display", "none"); err != nil {
		t.Fatalf("hide: %v", err)
	}
	if rect, _ := el.BoundingRect(); !rect.Empty() {
		t.Fatalf("expected relayout to collapse hidden element, got %+v", rect)
	}

	var buf bytes.Buffer
	if err := doc.Render(&buf); err != nil {
		t.Fatalf("render: %v", err)
	}
	if !strings.Contains(buf.String(), `style="display: none"`) {
		t.Fatalf("expected style write in rendered html")
	}
}

func TestDetachedElement(t *testing.T) {
	doc := mustParse(t)

	el, _ := dom.Query(doc, `[data-testid="apply-btn"]`)
	n, ok := doc.Node(el)
	if !ok {
		t.Fatalf("expected node lookup to succeed")
	}
	n.Parent.RemoveChild(n)

	if _, err := el.BoundingRect(); !errors.Is(err, dom.ErrDetached) {
		t.Fatalf("expected detached error, got %v", err)
	}
	if _, err := el.SetStyle("outline", "1px"); !errors.Is(err, dom.ErrDetached) {
		t.Fatalf("expected detached error, got %v", err)
	}
}

type recordingActuator struct {
	paths [][]int
	prev  string
}

func (r *recordingActuator) ScrollIntoView(path []int) error {
	r.paths = append(r.paths, path)
	return nil
}

func (r *recordingActuator) SetStyle(path []int, _, _ string) (string, error) {
	r.paths = append(r.paths, path)
	return r.prev, nil
}

func TestActuatorReceivesPaths(t *testing.T) {
	act := &recordingActuator{prev: "live"}
	doc, err := ParseString(`<html><head></head><body><div></div><div><button>x</button></div></body></html>`, "", WithActuator(act))
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	el, _ := dom.Query(doc, "button")
	if err := el.ScrollIntoView(); err != nil {
		t.Fatalf("scroll: %v", err)
	}
	prev, err := el.SetStyle("outline", "1px solid")
	if err != nil || prev != "live" {
		t.Fatalf("expected live previous value, got %q, %v", prev, err)
	}

	want := []int{1, 1, 0}
	for _, p := range act.paths {
		if len(p) != len(want) {
			t.Fatalf("unexpected path %v", p)
		}
		for i := range want {
			if p[i] != want[i] {
				t.Fatalf("unexpected path %v", p)
			}
		}
	}
}
