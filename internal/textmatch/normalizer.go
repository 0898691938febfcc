// Package textmatch turns free-form UI labels and user instructions into
// comparable token sets: normalisation, synonym expansion and fuzzy
// similarity.
package textmatch

import (
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Normalizer cleans and tokenizes text.
type Normalizer struct {
	suffixes  []string
	particles map[rune]bool
	keep      []string
	fillers   map[string]bool
}

// NewNormalizer builds a normalizer from the suffix, particle, keep and
// filler lists of t.
func NewNormalizer(t Tables) *Normalizer {
	n := &Normalizer{
		particles: make(map[rune]bool, len(t.Particles)),
		fillers:   make(map[string]bool, len(t.Fillers)),
	}

	seen := make(map[string]bool, len(t.Suffixes))
	for _, s := range t.Suffixes {
		s = n.Clean(s)
		if s == "" || seen[s] {
			continue
		}
		seen[s] = true
		n.suffixes = append(n.suffixes, s)
	}
	sort.SliceStable(n.suffixes, func(i, j int) bool {
		return utf8.RuneCountInString(n.suffixes[i]) > utf8.RuneCountInString(n.suffixes[j])
	})

	for _, p := range t.Particles {
		p = strings.TrimSpace(p)
		if utf8.RuneCountInString(p) != 1 {
			continue
		}
		r, _ := utf8.DecodeRuneInString(p)
		n.particles[r] = true
	}

	for _, k := range t.Keep {
		if k = n.Clean(k); k != "" {
			n.keep = append(n.keep, k)
		}
	}

	for _, f := range t.Fillers {
		if f = n.Clean(f); f != "" {
			n.fillers[f] = true
		}
	}

	return n
}

// Clean applies NFKC, lowercases, replaces punctuation and symbols with
// spaces and collapses whitespace.
func (n *Normalizer) Clean(s string) string {
	s = strings.ToLower(norm.NFKC.String(s))

	var b strings.Builder
	b.Grow(len(s))
	space := true
	for _, r := range s {
		if unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r) || unicode.IsControl(r) {
			if !space {
				b.WriteByte(' ')
				space = true
			}
			continue
		}
		b.WriteRune(r)
		space = false
	}

	return strings.TrimSpace(b.String())
}

// Tokens returns the normalized word units of s with suffixes, particles and
// filler tokens removed.
func (n *Normalizer) Tokens(s string) []string {
	fields := strings.Fields(n.Clean(s))
	tokens := make([]string, 0, len(fields))
	for _, f := range fields {
		f = n.stripSuffixes(f)
		f = n.stripParticle(f)
		if f == "" || n.fillers[f] {
			continue
		}
		tokens = append(tokens, f)
	}
	return tokens
}

// Normalize returns the tokens of s joined by single spaces.
func (n *Normalizer) Normalize(s string) string {
	return strings.Join(n.Tokens(s), " ")
}

func (n *Normalizer) stripSuffixes(tok string) string {
	for {
		stripped := false
		for _, suf := range n.suffixes {
			if tok != suf && strings.HasSuffix(tok, suf) {
				tok = strings.TrimSuffix(tok, suf)
				stripped = true
				break
			}
		}
		if !stripped {
			return tok
		}
	}
}

func (n *Normalizer) stripParticle(tok string) string {
	if utf8.RuneCountInString(tok) < 3 {
		return tok
	}
	for _, k := range n.keep {
		if strings.HasSuffix(tok, k) {
			return tok
		}
	}
	last, size := utf8.DecodeLastRuneInString(tok)
	if n.particles[last] {
		return tok[:len(tok)-size]
	}
	return tok
}
