package uiindex

import (
	"sort"

	"go.uber.org/zap"

	"github.com/spigell/uiindex/internal/dom"
	"github.com/spigell/uiindex/internal/textmatch"
)

// ResolverConfig holds the scoring weights. The defaults come from hand
// tuning and are meant to be revisited against real queries.
type ResolverConfig struct {
	// SubstringBonus is added when the normalized query occurs literally in
	// the candidate's comparison text.
	SubstringBonus float64 `mapstructure:"substring-bonus"`
	// MinSubstringRunes is the shortest query eligible for SubstringBonus.
	MinSubstringRunes int `mapstructure:"min-substring-runes"`
	// FuzzyWeight scales the mean token similarity.
	FuzzyWeight float64 `mapstructure:"fuzzy-weight"`
	// ButtonBonus is added for candidates with the button role.
	ButtonBonus float64 `mapstructure:"button-bonus"`
	// Threshold is the lowest accepted score.
	Threshold float64 `mapstructure:"threshold"`
	// FallbackDepth is how many ancestor levels the spatial fallback climbs.
	FallbackDepth int `mapstructure:"fallback-depth"`
	// ActionLabels mark buttons and links the spatial fallback may return.
	ActionLabels []string `mapstructure:"action-labels"`
}

// DefaultResolverConfig returns the stock scoring weights.
func DefaultResolverConfig() ResolverConfig {
	return ResolverConfig{
		SubstringBonus:    0.6,
		MinSubstringRunes: 2,
		FuzzyWeight:       0.7,
		ButtonBonus:       0.1,
		Threshold:         0.6,
		FallbackDepth:     3,
		ActionLabels: []string{
			"상세", "보기", "열기", "삭제", "수정", "다운로드",
			"detail", "view", "open", "delete", "remove", "edit", "download",
		},
	}
}

// withDefaults returns DefaultResolverConfig for the zero config. Any other
// config is used as given, so an explicit 0 switches a bonus or the spatial
// fallback off.
func (c ResolverConfig) withDefaults() ResolverConfig {
	if c.isZero() {
		return DefaultResolverConfig()
	}
	return c
}

func (c ResolverConfig) isZero() bool {
	return c.SubstringBonus == 0 && c.MinSubstringRunes == 0 &&
		c.FuzzyWeight == 0 && c.ButtonBonus == 0 &&
		c.Threshold == 0 && c.FallbackDepth == 0 &&
		len(c.ActionLabels) == 0
}

// Candidate is one scored element.
type Candidate struct {
	Element    ElementDescriptor `json:"element" yaml:"element"`
	Score      float64           `json:"score" yaml:"score"`
	Substring  bool              `json:"substring" yaml:"substring"`
	Similarity float64           `json:"similarity" yaml:"similarity"`
}

// Resolver maps a natural-language query to an element of a snapshot.
// Results depend only on the query, the snapshot and, for the spatial
// fallback, the document.
type Resolver struct {
	cfg     ResolverConfig
	matcher *textmatch.Matcher
	scanner *Scanner
	actions []string
	logger  *zap.Logger
}

// NewResolver creates a resolver. The zero config selects
// DefaultResolverConfig and a nil matcher uses textmatch.DefaultTables.
func NewResolver(cfg ResolverConfig, matcher *textmatch.Matcher, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	if matcher == nil {
		matcher = textmatch.NewMatcher(textmatch.DefaultTables())
	}
	cfg = cfg.withDefaults()

	actions := make([]string, 0, len(cfg.ActionLabels))
	for _, a := range cfg.ActionLabels {
		if a = matcher.Normalizer().Clean(a); a != "" {
			actions = append(actions, a)
		}
	}

	return &Resolver{
		cfg:     cfg,
		matcher: matcher,
		scanner: NewScanner(logger),
		actions: actions,
		logger:  logger,
	}
}

// Config returns the effective configuration.
func (r *Resolver) Config() ResolverConfig { return r.cfg }

// Rank scores every candidate of snap allowed by kind, best first. Ties go to
// the higher weight, then to the earlier element.
func (r *Resolver) Rank(query string, kind Kind, snap *PageSnapshot) []Candidate {
	if snap == nil {
		return nil
	}
	q := r.matcher.NewBag(query)
	if len(q.Tokens) == 0 {
		return nil
	}

	var ranked []Candidate
	for _, el := range snap.Elements {
		if !kind.Allows(el.Role) {
			continue
		}
		ranked = append(ranked, r.score(q, el))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		a, b := ranked[i], ranked[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if a.Element.Weight != b.Element.Weight {
			return a.Element.Weight > b.Element.Weight
		}
		return a.Element.Index < b.Element.Index
	})
	return ranked
}

func (r *Resolver) score(q textmatch.Bag, el ElementDescriptor) Candidate {
	bag := r.matcher.NewBag(
		el.Text,
		el.Attributes["aria-label"],
		el.Attributes["name"],
		el.Attributes["placeholder"],
	)

	c := Candidate{Element: el}
	if q.Len() >= r.cfg.MinSubstringRunes && bag.Contains(q) {
		c.Substring = true
		c.Score += r.cfg.SubstringBonus
	}
	c.Similarity = r.matcher.TokenSimilarity(q, bag)
	c.Score += r.cfg.FuzzyWeight * c.Similarity
	if el.Role == RoleButton {
		c.Score += r.cfg.ButtonBonus
	}
	return c
}

// Resolve returns the best element of snap for query, or nil when nothing
// scores at least the threshold. For click queries with a non-nil doc a miss
// falls back to the action button or link nearest to text matching the
// query's first word. Resolve never panics on provider failures.
func (r *Resolver) Resolve(query string, kind Kind, snap *PageSnapshot, doc dom.Document) (found *ElementDescriptor) {
	defer func() {
		if rec := recover(); rec != nil {
			r.logger.Warn("resolve failed", zap.Any("panic", rec))
			found = nil
		}
	}()

	ranked := r.Rank(query, kind, snap)
	if len(ranked) > 0 && ranked[0].Score >= r.cfg.Threshold {
		best := ranked[0].Element
		r.logger.Debug("resolved",
			zap.String("query", query),
			zap.String("selector", best.Selector),
			zap.Float64("score", ranked[0].Score),
		)
		return &best
	}

	if kind != KindClick || doc == nil {
		r.logger.Debug("no match", zap.String("query", query))
		return nil
	}

	found = r.spatialFallback(doc, query, snap)
	if found == nil {
		r.logger.Debug("no match after spatial fallback", zap.String("query", query))
	}
	return found
}
