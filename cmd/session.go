package cmd

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/spigell/uiindex/internal/ai"
	"github.com/spigell/uiindex/internal/ai/gemini"
	"github.com/spigell/uiindex/internal/dom/roddom"
	"github.com/spigell/uiindex/internal/logger"
	"github.com/spigell/uiindex/internal/pagecontext"
	"github.com/spigell/uiindex/internal/secrets"
	"github.com/spigell/uiindex/internal/storage"
	"github.com/spigell/uiindex/internal/textmatch"
	"github.com/spigell/uiindex/internal/uiindex"
)

// session holds everything one CLI invocation needs.
type session struct {
	config *Config
	logger *zap.Logger

	indexer     *uiindex.Indexer
	highlighter *uiindex.Highlighter

	mu       sync.RWMutex
	match    MatchConfig
	resolver *uiindex.Resolver

	browser *roddom.Session
	closers []func() error
}

func newSession(ctx context.Context, config *Config, log *zap.Logger) (*session, error) {
	s := &session{
		config:      config,
		logger:      log,
		highlighter: uiindex.NewHighlighter(log.Named("highlight")),
	}

	store, err := s.openStorage()
	if err != nil {
		return nil, err
	}

	opts := []uiindex.IndexerOption{
		uiindex.WithTTL(config.Index.TTL),
		uiindex.WithQueryParams(config.Index.QueryParams),
	}
	categorizer, err := s.newCategorizer(ctx)
	if err != nil {
		s.Close()
		return nil, err
	}
	if categorizer != nil {
		opts = append(opts, uiindex.WithCategorizer(categorizer))
	}

	cache := uiindex.NewCache(store, config.Storage.KeyPrefix, log.Named("cache"))
	s.indexer = uiindex.NewIndexer(cache, log.Named("indexer"), opts...)
	s.setMatch(*config.Match)

	return s, nil
}

func (s *session) openStorage() (storage.Storage, error) {
	cfg := s.config.Storage

	switch cfg.Driver {
	case "", "memory":
		return storage.NewMemory(cfg.Quota), nil
	case "sqlite":
		db, err := storage.OpenSQLite(cfg.Path, cfg.Session)
		if err != nil {
			return nil, fmt.Errorf("open session store: %w", err)
		}
		s.closers = append(s.closers, db.Close)
		s.logger.Debug("using sqlite session store",
			zap.String("path", cfg.Path), zap.String("session", db.SessionID()))
		return db, nil
	default:
		return nil, fmt.Errorf("unknown storage driver %q", cfg.Driver)
	}
}

// newCategorizer returns nil when page classification is disabled.
func (s *session) newCategorizer(ctx context.Context) (uiindex.Categorizer, error) {
	cfg := s.config.AI
	if !cfg.Enabled {
		return nil, nil
	}

	rules := cfg.Rules
	if len(rules) == 0 {
		rules = pagecontext.DefaultRules()
	}
	opts := []pagecontext.Option{pagecontext.WithTimeout(cfg.Timeout)}

	switch cfg.Provider {
	case "", "keywords":
	case "gemini":
		semantic, err := s.newGeminiClassifier(ctx, rules)
		if err != nil {
			return nil, err
		}
		opts = append(opts, pagecontext.WithSemantic(semantic.Classify))
	default:
		return nil, fmt.Errorf("unknown ai provider %q", cfg.Provider)
	}

	return pagecontext.New(rules, s.logger.Named("pagecontext"), opts...), nil
}

func (s *session) newGeminiClassifier(ctx context.Context, rules []pagecontext.Rule) (ai.PageClassifier, error) {
	cfg := s.config.AI.Gemini
	if cfg == nil {
		cfg = &GeminiConfig{ClassifierConfig: gemini.DefaultClassifierConfig()}
	}

	apiKey, err := secrets.Load(cfg.APIKey)
	if err != nil {
		return nil, fmt.Errorf("load gemini api key: %w", err)
	}

	generator, err := gemini.NewGenerator(ctx, apiKey, cfg.Model)
	if err != nil {
		return nil, err
	}

	categories := make([]string, 0, len(rules))
	for _, r := range rules {
		categories = append(categories, r.Category)
	}

	log := logger.WithProviderFields(s.logger.Named("gemini"), "gemini", generator.Model())
	log.Info("page classification enabled")

	return gemini.NewClassifier(generator, categories, cfg.ClassifierConfig, log), nil
}

// setMatch replaces the resolver with one built from cfg.
func (s *session) setMatch(cfg MatchConfig) {
	tables := textmatch.DefaultTables().Merge(cfg.Tables)
	r := uiindex.NewResolver(cfg.ResolverConfig, textmatch.NewMatcher(tables), s.logger.Named("resolver"))
	cfg.ResolverConfig = r.Config()

	s.mu.Lock()
	s.match = cfg
	s.resolver = r
	s.mu.Unlock()
}

func (s *session) matchConfig() MatchConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.match
}

func (s *session) currentResolver() *uiindex.Resolver {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.resolver
}

// launchBrowser starts the browser on first use.
func (s *session) launchBrowser(ctx context.Context) (*roddom.Session, error) {
	if s.browser != nil {
		return s.browser, nil
	}

	b, err := roddom.Launch(ctx, s.config.Browser.Config, s.logger.Named("browser"))
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	s.browser = b
	s.closers = append(s.closers, b.Close)

	return b, nil
}

// Close releases the browser and the session store, newest first.
func (s *session) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		if err := s.closers[i](); err != nil {
			s.logger.Warn("closing session resource", zap.Error(err))
		}
	}
	s.closers = nil
}
