package cmd

import (
	"bytes"
	"context"
	"errors"
	"reflect"
	"strings"
	"testing"

	"github.com/spigell/uiindex/internal/dom/htmldom"
	"github.com/spigell/uiindex/internal/uiindex"
)

func TestApplySetting(t *testing.T) {
	base := uiindex.DefaultResolverConfig()

	tests := []struct {
		name    string
		input   string
		check   func(uiindex.ResolverConfig) bool
		wantErr bool
	}{
		{
			name:  "float",
			input: "threshold=0.8",
			check: func(c uiindex.ResolverConfig) bool { return c.Threshold == 0.8 },
		},
		{
			name:  "int with spaces",
			input: " fallback-depth = 1 ",
			check: func(c uiindex.ResolverConfig) bool { return c.FallbackDepth == 1 },
		},
		{
			name:  "list replaces",
			input: "action-labels=열기,open",
			check: func(c uiindex.ResolverConfig) bool {
				return reflect.DeepEqual(c.ActionLabels, []string{"열기", "open"})
			},
		},
		{name: "unknown key", input: "nope=1", wantErr: true},
		{name: "missing value", input: "threshold", wantErr: true},
		{name: "bad number", input: "threshold=high", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := applySetting(base, tt.input)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected an error, got %+v", got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if !tt.check(got) {
				t.Fatalf("unexpected config %+v", got)
			}
		})
	}

	if base.Threshold != uiindex.DefaultResolverConfig().Threshold {
		t.Fatalf("base config was modified")
	}
}

func newReplState(t *testing.T) (*replState, *bytes.Buffer) {
	t.Helper()

	doc, err := htmldom.ParseString(applyPage, "https://jobs.example.com/posting/1")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	out := &bytes.Buffer{}
	return &replState{
		session: testSession(t),
		doc:     doc,
		kind:    uiindex.KindAny,
		out:     out,
	}, out
}

func TestReplHandle(t *testing.T) {
	ctx := context.Background()

	t.Run("quit", func(t *testing.T) {
		st, _ := newReplState(t)
		if err := st.handle(ctx, " :quit "); !errors.Is(err, errExit) {
			t.Fatalf("expected exit, got %v", err)
		}
	})

	t.Run("query resolves", func(t *testing.T) {
		st, out := newReplState(t)
		if err := st.handle(ctx, "지원 버튼 눌러줘"); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if !strings.Contains(out.String(), `"found": true`) || !strings.Contains(out.String(), "apply-btn") {
			t.Fatalf("unexpected output %s", out)
		}
	})

	t.Run("set changes the resolver", func(t *testing.T) {
		st, out := newReplState(t)
		if err := st.handle(ctx, ":set threshold=1.5"); err != nil {
			t.Fatalf("set: %v", err)
		}
		if got := st.session.currentResolver().Config().Threshold; got != 1.5 {
			t.Fatalf("expected threshold 1.5, got %v", got)
		}
		if err := st.handle(ctx, "지원하기"); err != nil {
			t.Fatalf("handle: %v", err)
		}
		if !strings.Contains(out.String(), `"found": false`) {
			t.Fatalf("expected a miss above the threshold, got %s", out)
		}
	})

	t.Run("set accepts zero", func(t *testing.T) {
		st, _ := newReplState(t)
		for _, line := range []string{":set button-bonus=0", ":set fallback-depth=0"} {
			if err := st.handle(ctx, line); err != nil {
				t.Fatalf("%s: %v", line, err)
			}
		}
		got := st.session.currentResolver().Config()
		if got.ButtonBonus != 0 || got.FallbackDepth != 0 {
			t.Fatalf("expected zeros to stick, got %+v", got)
		}
	})

	t.Run("set rejects unknown keys", func(t *testing.T) {
		st, _ := newReplState(t)
		if err := st.handle(ctx, ":set colour=red"); err == nil {
			t.Fatalf("expected an error")
		}
	})

	t.Run("rebuild", func(t *testing.T) {
		st, out := newReplState(t)
		if err := st.handle(ctx, ":rebuild"); err != nil {
			t.Fatalf("rebuild: %v", err)
		}
		if !strings.HasPrefix(out.String(), "rebuilt 3 elements") {
			t.Fatalf("unexpected output %q", out)
		}
	})
}
