package cmd

import (
	"reflect"
	"testing"
	"time"

	"github.com/spigell/uiindex/internal/uiindex"
)

func TestDecodeConfigDefaults(t *testing.T) {
	config := testConfig(t, "")

	if config.Index.TTL != uiindex.DefaultTTL {
		t.Fatalf("expected ttl %s, got %s", uiindex.DefaultTTL, config.Index.TTL)
	}
	if !reflect.DeepEqual(config.Index.QueryParams, uiindex.DefaultQueryParams) {
		t.Fatalf("unexpected query params %v", config.Index.QueryParams)
	}
	if config.Match.ResolverConfig.Threshold != uiindex.DefaultResolverConfig().Threshold {
		t.Fatalf("unexpected threshold %v", config.Match.Threshold)
	}
	if config.Storage.Driver != "memory" {
		t.Fatalf("expected memory storage, got %q", config.Storage.Driver)
	}
	if !config.Browser.Headless || config.Browser.Enabled {
		t.Fatalf("unexpected browser config %+v", config.Browser)
	}
	if config.AI.Enabled || config.AI.Gemini.APIKey.Env != "GEMINI_API_KEY" {
		t.Fatalf("unexpected ai config %+v", config.AI)
	}
}

func TestDecodeConfigOverrides(t *testing.T) {
	config := testConfig(t, `
index:
  ttl: 5m
  query-params: lang,page,q
  highlight-duration: 1500ms
match:
  threshold: 0.75
  fallback-depth: 2
  action-labels: [열기, open]
  tables:
    synonyms:
      - [제출, submit]
storage:
  driver: sqlite
  path: /tmp/uiindex.db
  session: s1
browser:
  enabled: true
  headless: false
  navigation-timeout: 10s
ai:
  enabled: true
  provider: keywords
  rules:
    - category: login
      keywords: [로그인]
`)

	tests := []struct {
		name string
		got  any
		want any
	}{
		{"ttl", config.Index.TTL, 5 * time.Minute},
		{"query params", config.Index.QueryParams, []string{"lang", "page", "q"}},
		{"highlight", config.Index.HighlightDuration, 1500 * time.Millisecond},
		{"threshold", config.Match.Threshold, 0.75},
		{"fallback depth", config.Match.FallbackDepth, 2},
		{"action labels", config.Match.ActionLabels, []string{"열기", "open"}},
		{"synonyms", config.Match.Tables.Synonyms, [][]string{{"제출", "submit"}}},
		{"fuzzy weight default", config.Match.FuzzyWeight, 0.7},
		{"driver", config.Storage.Driver, "sqlite"},
		{"session", config.Storage.Session, "s1"},
		{"browser", config.Browser.Enabled, true},
		{"headless", config.Browser.Headless, false},
		{"navigation timeout", config.Browser.NavigationTimeout, 10 * time.Second},
		{"provider", config.AI.Provider, "keywords"},
		{"rule", config.AI.Rules[0].Category, "login"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !reflect.DeepEqual(tt.got, tt.want) {
				t.Fatalf("expected %v, got %v", tt.want, tt.got)
			}
		})
	}
}

func TestEnvKeyReplacer(t *testing.T) {
	if got := envKeyReplacer.Replace("match.fuzzy-weight"); got != "match_fuzzy_weight" {
		t.Fatalf("unexpected env key %q", got)
	}
}
