package uiindex

import (
	"testing"

	"github.com/spigell/uiindex/internal/dom"
)

const applicantList = `<html><head><title>지원자 목록</title></head><body>
<ul>
  <li style="left:0px; top:0px; width:600px; height:40px">
    <span style="left:10px; top:10px; width:100px; height:20px">홍길동</span>
    <button style="left:500px; top:10px; width:60px; height:20px">상세</button>
  </li>
  <li style="left:0px; top:100px; width:600px; height:40px">
    <span style="left:10px; top:110px; width:100px; height:20px">김철수</span>
    <a href="/applicants/2/resume" style="left:300px; top:110px; width:80px; height:20px">이력서</a>
    <button style="left:500px; top:110px; width:60px; height:20px">상세</button>
  </li>
  <li style="left:0px; top:200px; width:600px; height:40px">
    <span style="left:10px; top:210px; width:100px; height:20px">이영희</span>
  </li>
</ul>
<footer style="left:0px; top:900px; width:600px; height:20px"><a href="/help" style="left:0px; top:900px; width:60px; height:20px">도움말 보기</a></footer>
</body></html>`

func TestSpatialFallback(t *testing.T) {
	doc := parse(t, applicantList)
	snap := snapshotOf(t, doc, false)
	r := NewResolver(ResolverConfig{}, nil, nil)

	if got := r.Resolve("김철수 상세", KindClick, snap, nil); got != nil {
		t.Fatalf("expected no match without a document, got %+v", got)
	}

	got := r.Resolve("김철수 상세", KindClick, snap, doc)
	if got == nil {
		t.Fatalf("expected spatial fallback match")
	}

	buttons, err := doc.QueryAll("button")
	if err != nil || len(buttons) != 2 {
		t.Fatalf("fixture: %v", err)
	}
	if back := mustQuery(t, doc, got.Selector); !dom.Same(back, buttons[1]) {
		t.Fatalf("expected the detail button next to 김철수, got %s", got.Selector)
	}
	if got.Index < 0 || snap.Elements[got.Index].Selector != got.Selector {
		t.Fatalf("expected the snapshot descriptor, got index %d", got.Index)
	}
}

func TestSpatialFallbackMisses(t *testing.T) {
	doc := parse(t, applicantList)
	snap := snapshotOf(t, doc, false)
	r := NewResolver(ResolverConfig{}, nil, nil)

	tests := []struct {
		name  string
		query string
		kind  Kind
	}{
		{name: "no anchor text", query: "박민수 상세", kind: KindClick},
		{name: "only click queries fall back", query: "김철수 상세", kind: KindAny},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := r.Resolve(tt.query, tt.kind, snap, doc); got != nil {
				t.Fatalf("expected no match, got %+v", *got)
			}
		})
	}
}

func TestSpatialFallbackDepth(t *testing.T) {
	doc := parse(t, applicantList)
	snap := snapshotOf(t, doc, false)
	buttons, err := doc.QueryAll("button")
	if err != nil || len(buttons) != 2 {
		t.Fatalf("fixture: %v", err)
	}

	tests := []struct {
		name  string
		depth int
		query string
		want  dom.Element
	}{
		{name: "fallback disabled", depth: 0, query: "이영희 상세"},
		{name: "anchor element only", depth: 1, query: "김철수 상세"},
		{name: "row without actions", depth: 2, query: "이영희 상세"},
		{name: "list reached", depth: 3, query: "이영희 상세", want: buttons[1]},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultResolverConfig()
			cfg.FallbackDepth = tt.depth
			r := NewResolver(cfg, nil, nil)
			got := r.Resolve(tt.query, KindClick, snap, doc)
			if tt.want == nil {
				if got != nil {
					t.Fatalf("expected no match, got %+v", *got)
				}
				return
			}
			if got == nil {
				t.Fatalf("expected a match")
			}
			if back := mustQuery(t, doc, got.Selector); !dom.Same(back, tt.want) {
				t.Fatalf("expected nearest button, got %s", got.Selector)
			}
		})
	}
}
