package gemini

import (
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/sony/gobreaker/v2"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/spigell/uiindex/internal/ai"
	"github.com/spigell/uiindex/internal/logger"
	"github.com/spigell/uiindex/internal/utils"
)

type contentGenerator interface {
	GenerateContent(ctx context.Context, prompt string) (string, error)
}

//go:embed prompt.md
var promptTemplate string

const (
	providerName        = "gemini"
	defaultMaxLogLength = 200
)

// BreakerConfig tunes the circuit breaker around model calls.
type BreakerConfig struct {
	Enabled      bool          `mapstructure:"enabled"`
	MaxRequests  uint32        `mapstructure:"max-requests"`
	Interval     time.Duration `mapstructure:"interval"`
	Timeout      time.Duration `mapstructure:"timeout"`
	MinRequests  uint32        `mapstructure:"min-requests"`
	FailureRatio float64       `mapstructure:"failure-ratio"`
}

// ClassifierConfig tunes a Classifier.
type ClassifierConfig struct {
	// RatePerSecond limits model calls. Zero means unlimited.
	RatePerSecond float64 `mapstructure:"rate-per-second"`
	Burst         int     `mapstructure:"burst"`
	// MinConfidence drops answers the model is unsure about.
	MinConfidence float64       `mapstructure:"min-confidence"`
	MaxLogLength  int           `mapstructure:"max-log-length"`
	Breaker       BreakerConfig `mapstructure:"breaker"`
}

// DefaultClassifierConfig returns conservative limits for interactive use.
func DefaultClassifierConfig() ClassifierConfig {
	return ClassifierConfig{
		RatePerSecond: 1,
		Burst:         2,
		MinConfidence: 0.5,
		MaxLogLength:  defaultMaxLogLength,
		Breaker: BreakerConfig{
			Enabled:      true,
			MaxRequests:  1,
			Interval:     time.Minute,
			Timeout:      30 * time.Second,
			MinRequests:  3,
			FailureRatio: 0.6,
		},
	}
}

// Classifier asks Gemini to pick one of a fixed set of page categories.
type Classifier struct {
	generator  contentGenerator
	categories []string
	cfg        ClassifierConfig
	limiter    *rate.Limiter
	breaker    *gobreaker.CircuitBreaker[string]
	logger     *zap.Logger
}

var _ ai.PageClassifier = (*Classifier)(nil)

// NewClassifier creates a classifier over categories.
func NewClassifier(generator contentGenerator, categories []string, cfg ClassifierConfig, log *zap.Logger) *Classifier {
	model := ""
	if m, ok := generator.(interface{ Model() string }); ok {
		model = m.Model()
	}
	log = logger.WithProviderFields(log, providerName, model)

	if cfg.MaxLogLength <= 0 {
		cfg.MaxLogLength = defaultMaxLogLength
	}

	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := max(cfg.Burst, 1)

	c := &Classifier{
		generator:  generator,
		categories: categories,
		cfg:        cfg,
		limiter:    rate.NewLimiter(limit, burst),
		logger:     log,
	}
	if cfg.Breaker.Enabled {
		c.breaker = newBreaker(cfg.Breaker, log)
	}
	return c
}

func newBreaker(cfg BreakerConfig, log *zap.Logger) *gobreaker.CircuitBreaker[string] {
	return gobreaker.NewCircuitBreaker[string](gobreaker.Settings{
		Name:        "gemini-page-classifier",
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests == 0 {
				return false
			}
			ratio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= cfg.MinRequests && ratio >= cfg.FailureRatio
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Info("circuit breaker state changed",
				zap.String("name", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()),
			)
		},
	})
}

// Classify returns one of the configured categories for text. It returns
// ai.ErrNoCategory when the model picks none or is not confident enough.
func (c *Classifier) Classify(ctx context.Context, text string) (string, error) {
	if strings.TrimSpace(text) == "" {
		return "", ai.ErrNoCategory
	}
	if err := c.limiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit: %w", err)
	}

	prompt := buildPrompt(c.categories, text)
	c.logger.Debug("gemini generate content request",
		zap.Int("prompt_length", utf8.RuneCountInString(prompt)),
		zap.String("prompt_preview", utils.TruncateForLog(prompt, c.cfg.MaxLogLength)),
	)

	raw, err := c.generate(ctx, prompt)
	if err != nil {
		return "", err
	}

	c.logger.Debug("gemini generate content response",
		zap.Int("response_length", utf8.RuneCountInString(raw)),
		zap.String("response_preview", utils.TruncateForLog(raw, c.cfg.MaxLogLength)),
	)

	result, err := parseResponse(raw)
	if err != nil {
		return "", err
	}

	if !c.known(result.Category) {
		return "", ai.ErrNoCategory
	}
	if c.cfg.MinConfidence > 0 && result.Confidence < c.cfg.MinConfidence {
		c.logger.Debug("dropping low confidence category",
			zap.String("category", result.Category),
			zap.Float64("confidence", result.Confidence),
			zap.Float64("threshold", c.cfg.MinConfidence),
		)
		return "", ai.ErrNoCategory
	}
	return result.Category, nil
}

func (c *Classifier) generate(ctx context.Context, prompt string) (string, error) {
	if c.breaker == nil {
		return c.generator.GenerateContent(ctx, prompt)
	}
	raw, err := c.breaker.Execute(func() (string, error) {
		return c.generator.GenerateContent(ctx, prompt)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return "", fmt.Errorf("gemini unavailable: %w", err)
	}
	return raw, err
}

func (c *Classifier) known(category string) bool {
	for _, k := range c.categories {
		if strings.EqualFold(k, category) {
			return true
		}
	}
	return false
}

func buildPrompt(categories []string, text string) string {
	template := promptTemplate
	if strings.TrimSpace(template) == "" {
		template = "Categories:\n{{CATEGORIES}}\n\nPage:\n{{PAGE_TEXT}}\n\nJSON Response:"
	}

	var list strings.Builder
	for _, c := range categories {
		list.WriteString("- ")
		list.WriteString(c)
		list.WriteString("\n")
	}

	prompt := strings.ReplaceAll(template, "{{CATEGORIES}}", strings.TrimRight(list.String(), "\n"))
	prompt = strings.ReplaceAll(prompt, "{{PAGE_TEXT}}", strings.TrimSpace(text))
	return prompt
}

func parseResponse(raw string) (*ai.PageClassification, error) {
	cleaned := extractJSON(raw)

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse gemini response: %w", err)
	}

	category := strings.ToLower(coerceString(data["category"]))
	if category == "none" {
		category = ""
	}
	confidence := coerceFloat(data["confidence"])
	if math.IsNaN(confidence) {
		confidence = 0
	}

	return &ai.PageClassification{
		Category:   category,
		Confidence: confidence,
		Raw:        raw,
	}, nil
}

func extractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	return strings.TrimSpace(raw)
}

func coerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(val), 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

func coerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case nil:
		return ""
	default:
		return strings.TrimSpace(fmt.Sprintf("%v", v))
	}
}
