package uiindex

import (
	"testing"

	"github.com/spigell/uiindex/internal/dom"
	"github.com/spigell/uiindex/internal/dom/htmldom"
)

const jobPage = `<!doctype html>
<html><head><title>공고 상세</title></head>
<body>
  <main>
    <h1>백엔드 엔지니어</h1>
    <button data-testid="apply-btn">지원하기</button>
    <button class="btn-cancel">취소</button>
    <a href="/jobs?page=2">다음 페이지</a>
    <input name="q" type="search" placeholder="검색어">
    <button style="display:none">숨은 버튼</button>
  </main>
</body></html>`

func parse(t *testing.T, src string) *htmldom.Document {
	t.Helper()
	doc, err := htmldom.ParseString(src, "https://jobs.example.com/posting/42?ref=mail#top")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	return doc
}

func mustQuery(t *testing.T, doc dom.Document, selector string) dom.Element {
	t.Helper()
	el, err := dom.Query(doc, selector)
	if err != nil {
		t.Fatalf("query %q: %v", selector, err)
	}
	if el == nil {
		t.Fatalf("query %q matched nothing", selector)
	}
	return el
}

func snapshotOf(t *testing.T, doc dom.Document, includeHidden bool) *PageSnapshot {
	t.Helper()
	return &PageSnapshot{
		URLKey:            NormalizeURLKey("", doc.URL()),
		LayoutFingerprint: ComputeFingerprint(doc),
		IncludeHidden:     includeHidden,
		Elements:          NewScanner(nil).Scan(doc, includeHidden),
	}
}

func texts(els []ElementDescriptor) []string {
	out := make([]string, 0, len(els))
	for _, el := range els {
		out = append(out, el.Text)
	}
	return out
}
