// Package pagecontext labels a page with a coarse category ("job_list",
// "login", ...) from its visible text. Keyword rules run first; an optional
// semantic callback is asked only when no rule matches.
package pagecontext

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/uiindex/internal/dom"
	"github.com/spigell/uiindex/internal/textmatch"
	"github.com/spigell/uiindex/internal/utils"
)

// SemanticFunc classifies free text. An error means "no category".
type SemanticFunc func(ctx context.Context, text string) (string, error)

// Rule assigns Category to text containing any of Keywords.
type Rule struct {
	Category string   `mapstructure:"category"`
	Keywords []string `mapstructure:"keywords"`
}

// DefaultRules covers the pages of a recruiting workflow.
func DefaultRules() []Rule {
	return []Rule{
		{Category: "login", Keywords: []string{"로그인", "비밀번호", "login", "sign in", "password"}},
		{Category: "upload", Keywords: []string{"업로드", "파일 첨부", "파일 선택", "upload", "attach file", "drop files"}},
		{Category: "applicant_list", Keywords: []string{"지원자 목록", "지원자", "applicants", "candidates"}},
		{Category: "job_detail", Keywords: []string{"지원하기", "자격요건", "우대사항", "apply now", "requirements", "responsibilities"}},
		{Category: "job_list", Keywords: []string{"채용공고", "공고 목록", "채용 중", "job openings", "open positions", "jobs"}},
		{Category: "settings", Keywords: []string{"설정", "환경설정", "settings", "preferences"}},
	}
}

const (
	defaultMaxText = 4000
	defaultTimeout = 10 * time.Second
)

// Classifier labels pages.
type Classifier struct {
	rules      []Rule
	categories map[string]struct{}
	semantic   SemanticFunc
	normalizer *textmatch.Normalizer
	maxText    int
	timeout    time.Duration
	logger     *zap.Logger
}

// Option configures a Classifier.
type Option func(*Classifier)

// WithSemantic asks fn when no keyword rule matches.
func WithSemantic(fn SemanticFunc) Option {
	return func(c *Classifier) { c.semantic = fn }
}

// WithTimeout bounds each semantic call.
func WithTimeout(d time.Duration) Option {
	return func(c *Classifier) {
		if d > 0 {
			c.timeout = d
		}
	}
}

// WithMaxText caps how many runes of page text are classified.
func WithMaxText(n int) Option {
	return func(c *Classifier) {
		if n > 0 {
			c.maxText = n
		}
	}
}

// New creates a classifier. Empty rules select DefaultRules.
func New(rules []Rule, logger *zap.Logger, opts ...Option) *Classifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if len(rules) == 0 {
		rules = DefaultRules()
	}

	n := textmatch.NewNormalizer(textmatch.Tables{})
	c := &Classifier{
		categories: make(map[string]struct{}, len(rules)),
		normalizer: n,
		maxText:    defaultMaxText,
		timeout:    defaultTimeout,
		logger:     logger,
	}
	for _, r := range rules {
		category := strings.TrimSpace(r.Category)
		if category == "" {
			continue
		}
		cleaned := Rule{Category: category}
		for _, kw := range r.Keywords {
			if kw = n.Clean(kw); kw != "" {
				cleaned.Keywords = append(cleaned.Keywords, kw)
			}
		}
		c.rules = append(c.rules, cleaned)
		c.categories[category] = struct{}{}
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Categories lists the known labels in rule order.
func (c *Classifier) Categories() []string {
	out := make([]string, 0, len(c.rules))
	for _, r := range c.rules {
		out = append(out, r.Category)
	}
	return out
}

// Classify returns the category of text, or "" when nothing applies.
func (c *Classifier) Classify(ctx context.Context, text string) string {
	cleaned := c.normalizer.Clean(text)
	if cleaned == "" {
		return ""
	}
	if r := []rune(cleaned); len(r) > c.maxText {
		cleaned = string(r[:c.maxText])
	}

	if category := c.byKeywords(cleaned); category != "" {
		c.logger.Debug("page classified by keywords", zap.String("category", category))
		return category
	}
	if c.semantic == nil {
		return ""
	}
	return c.bySemantic(ctx, cleaned)
}

// Categorize classifies the title and body text of doc.
func (c *Classifier) Categorize(ctx context.Context, doc dom.Document) string {
	var b strings.Builder
	b.WriteString(doc.Title())
	if body := doc.Body(); body != nil {
		b.WriteString("\n")
		b.WriteString(body.Text())
	}
	return c.Classify(ctx, b.String())
}

// byKeywords picks the rule with the most keyword hits. Ties go to the
// earlier rule.
func (c *Classifier) byKeywords(text string) string {
	best, bestHits := "", 0
	for _, r := range c.rules {
		hits := 0
		for _, kw := range r.Keywords {
			if strings.Contains(text, kw) {
				hits++
			}
		}
		if hits > bestHits {
			best, bestHits = r.Category, hits
		}
	}
	return best
}

func (c *Classifier) bySemantic(ctx context.Context, text string) (category string) {
	defer func() {
		if r := recover(); r != nil {
			c.logger.Warn("semantic classifier panicked", zap.Any("panic", r))
			category = ""
		}
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	label, err := c.semantic(ctx, text)
	if err != nil {
		c.logger.Debug("semantic classifier failed", zap.Error(err))
		return ""
	}

	label = strings.ToLower(strings.TrimSpace(label))
	if _, ok := c.categories[label]; !ok {
		c.logger.Debug("semantic classifier returned unknown category",
			zap.String("label", utils.TruncateForLog(label, 64)),
		)
		return ""
	}
	c.logger.Debug("page classified semantically", zap.String("category", label))
	return label
}
