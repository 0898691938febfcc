package textmatch

import (
	"strings"
	"unicode/utf8"
)

// Matcher bundles the normalizer and synonym expander built from one set of
// tables.
type Matcher struct {
	normalizer *Normalizer
	synonyms   *Synonyms
}

// NewMatcher builds a Matcher from t.
func NewMatcher(t Tables) *Matcher {
	n := NewNormalizer(t)
	return &Matcher{normalizer: n, synonyms: NewSynonyms(n, t.Synonyms)}
}

// Normalizer returns the matcher's normalizer.
func (m *Matcher) Normalizer() *Normalizer { return m.normalizer }

// Synonyms returns the matcher's synonym expander.
func (m *Matcher) Synonyms() *Synonyms { return m.synonyms }

// Bag is a normalized, tokenized and expanded piece of text.
type Bag struct {
	Text     string
	Tokens   []string
	Expanded map[string]struct{}
}

// Len is the rune length of the normalized text.
func (b Bag) Len() int { return utf8.RuneCountInString(b.Text) }

// NewBag normalizes every part and joins them into one bag. Empty parts are
// skipped.
func (m *Matcher) NewBag(parts ...string) Bag {
	var tokens []string
	for _, p := range parts {
		if strings.TrimSpace(p) == "" {
			continue
		}
		tokens = append(tokens, m.normalizer.Tokens(p)...)
	}
	return Bag{
		Text:     strings.Join(tokens, " "),
		Tokens:   tokens,
		Expanded: m.synonyms.Expand(tokens),
	}
}

// Contains reports whether the normalized text of query is a literal
// substring of the normalized text of b.
func (b Bag) Contains(query Bag) bool {
	return query.Text != "" && strings.Contains(b.Text, query.Text)
}

// TokenSimilarity is the mean over query tokens of each token's best
// similarity against candidate tokens. An exact or synonym hit counts as 1.
// An empty query scores 0.
func (m *Matcher) TokenSimilarity(query, candidate Bag) float64 {
	if len(query.Tokens) == 0 || len(candidate.Tokens) == 0 {
		return 0
	}

	var total float64
	for _, q := range query.Tokens {
		total += m.bestSimilarity(q, candidate)
	}
	return total / float64(len(query.Tokens))
}

func (m *Matcher) bestSimilarity(q string, candidate Bag) float64 {
	for _, term := range m.synonyms.Group(q) {
		if _, ok := candidate.Expanded[term]; ok {
			return 1
		}
	}

	best := 0.0
	for _, c := range candidate.Tokens {
		if s := Similarity(q, c); s > best {
			best = s
		}
	}
	return best
}
