package uiindex

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/spigell/uiindex/internal/dom"
	"github.com/spigell/uiindex/internal/logger"
)

// Categorizer labels a page. An empty label means "no category".
type Categorizer interface {
	Categorize(ctx context.Context, doc dom.Document) string
}

// Indexer builds snapshots and keeps them in a Cache.
type Indexer struct {
	cache       *Cache
	scanner     *Scanner
	categorizer Categorizer
	ttl         time.Duration
	params      []string
	now         func() time.Time
	logger      *zap.Logger
}

// IndexerOption configures an Indexer.
type IndexerOption func(*Indexer)

// WithTTL sets the snapshot lifetime.
func WithTTL(ttl time.Duration) IndexerOption {
	return func(ix *Indexer) {
		if ttl > 0 {
			ix.ttl = ttl
		}
	}
}

// WithQueryParams sets the query parameters kept in URL keys.
func WithQueryParams(params []string) IndexerOption {
	return func(ix *Indexer) { ix.params = params }
}

// WithCategorizer labels every new snapshot with c.
func WithCategorizer(c Categorizer) IndexerOption {
	return func(ix *Indexer) { ix.categorizer = c }
}

// WithClock replaces time.Now.
func WithClock(now func() time.Time) IndexerOption {
	return func(ix *Indexer) { ix.now = now }
}

// NewIndexer creates an indexer on top of cache.
func NewIndexer(cache *Cache, log *zap.Logger, opts ...IndexerOption) *Indexer {
	if log == nil {
		log = zap.NewNop()
	}
	ix := &Indexer{
		cache:   cache,
		scanner: NewScanner(log),
		ttl:     DefaultTTL,
		now:     time.Now,
		logger:  log,
	}
	for _, opt := range opts {
		opt(ix)
	}
	if ix.cache == nil {
		ix.cache = NewCache(nil, "", log)
	}
	return ix
}

// Cache returns the indexer's cache.
func (ix *Indexer) Cache() *Cache { return ix.cache }

// URLKey returns the cache key of rawURL on doc. An empty rawURL means the
// document URL.
func (ix *Indexer) URLKey(doc dom.Document, rawURL string) string {
	return NormalizeURLKey(rawURL, doc.URL(), ix.params...)
}

// EnsureIndex returns the cached snapshot for rawURL when it is still valid
// for doc and builds and stores a new one otherwise. A cached snapshot built
// with a different IncludeHidden setting is not reused.
func (ix *Indexer) EnsureIndex(ctx context.Context, doc dom.Document, rawURL string, opts Options) *PageSnapshot {
	key := ix.URLKey(doc, rawURL)
	log := ix.logAt(opts.Verbose)

	refresh, reason := true, ReasonForced
	if !opts.ForceRebuild {
		existing := ix.cache.Retrieve(key)
		refresh, reason = ShouldRefresh(existing, doc, ix.ttl, ix.now())
		if !refresh && existing.IncludeHidden != opts.IncludeHidden {
			refresh, reason = true, ReasonScopeChanged
		}
		if !refresh {
			log("reusing snapshot",
				append(logger.SnapshotFields(existing.URLKey, existing.LayoutFingerprint),
					zap.Int("elements", len(existing.Elements)),
					zap.Duration("age", ix.now().Sub(existing.CapturedAt)),
				)...)
			return existing
		}
	}

	snap := ix.build(ctx, doc, key, opts.IncludeHidden)
	ix.cache.Store(snap)

	log("built snapshot",
		append(logger.SnapshotFields(snap.URLKey, snap.LayoutFingerprint),
			zap.String("reason", string(reason)),
			zap.Int("elements", len(snap.Elements)),
			zap.Bool("include_hidden", snap.IncludeHidden),
		)...)
	return snap
}

// RebuildIndex is EnsureIndex with ForceRebuild set.
func (ix *Indexer) RebuildIndex(ctx context.Context, doc dom.Document, rawURL string, opts Options) *PageSnapshot {
	opts.ForceRebuild = true
	return ix.EnsureIndex(ctx, doc, rawURL, opts)
}

func (ix *Indexer) build(ctx context.Context, doc dom.Document, key string, includeHidden bool) *PageSnapshot {
	snap := &PageSnapshot{
		URLKey:            key,
		LayoutFingerprint: ix.scanner.Fingerprint(doc),
		CapturedAt:        ix.now(),
		Title:             doc.Title(),
		IncludeHidden:     includeHidden,
		Elements:          ix.scanner.Scan(doc, includeHidden),
	}
	if ix.categorizer != nil {
		snap.Category = ix.categorize(ctx, doc)
	}
	return snap
}

func (ix *Indexer) categorize(ctx context.Context, doc dom.Document) (label string) {
	defer func() {
		if r := recover(); r != nil {
			ix.logger.Warn("categorizer failed", zap.Any("panic", r))
			label = ""
		}
	}()
	return ix.categorizer.Categorize(ctx, doc)
}

func (ix *Indexer) logAt(verbose bool) func(string, ...zap.Field) {
	if verbose {
		return ix.logger.Info
	}
	return ix.logger.Debug
}
