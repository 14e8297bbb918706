package lexidex

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"

	"github.com/aman-cerp/lexidex/internal/analyzer"
	"github.com/aman-cerp/lexidex/internal/config"
	lexerrors "github.com/aman-cerp/lexidex/internal/errors"
	"github.com/aman-cerp/lexidex/internal/index"
	"github.com/aman-cerp/lexidex/internal/search"
	"github.com/aman-cerp/lexidex/internal/store"
)

// Config is lexidex's recognized configuration (spec §6 "Configuration").
// It is exactly the struct internal/config.Config defines — the Facade's
// config contract is specified there, not duplicated here, since this
// public package wraps rather than shadows it.
type Config = config.Config

// FieldOptions is the per-field {boost, store, index} tuple accepted by
// CreateIndex's options argument.
type FieldOptions struct {
	Boost float64
	Store bool
	Index bool
}

// DefaultConfig returns a Config populated with every default named in
// spec.md, already normalized.
func DefaultConfig() Config {
	return config.DefaultConfig()
}

// LoadConfig reads and normalizes a YAML configuration file.
func LoadConfig(path string) (Config, error) {
	return config.LoadConfig(path)
}

// Facade is the single entry point into one lexidex database: it owns one
// Storage handle, one shared Analyzer and one query Engine (built in Open,
// itself keyed per index internally), and lazily builds one Indexer per
// index over them, per
// spec §3's "Facade owns, components hold non-owning handles" ownership
// model.
//
// Grounded on the teacher's pkg/indexer/pkg/searcher thin public-wrapper
// convention, generalized from "wrap one internal struct" to "own and
// lazily multiplex several keyed by index name" since this spec supports
// many indices per database file where the teacher supports one per
// session.
type Facade struct {
	mu       sync.RWMutex
	store    *store.Store
	analyzer *analyzer.Analyzer
	engine   *search.Engine
	cfg      Config
	indexers map[string]*index.Indexer
}

// Open creates (or opens) the database at cfg.Storage.Path and returns a
// ready Facade. Pass an empty path (via cfg.Storage.Path == "") for an
// in-memory, process-local database.
func Open(cfg Config) (*Facade, error) {
	s, err := store.Open(cfg.Storage.Path, store.CacheConfig{
		Enabled: cfg.Cache.Enabled,
		TTL:     cfg.Cache.TTL,
		MaxSize: cfg.Cache.MaxSize,
	})
	if err != nil {
		return nil, wrapError(err)
	}

	an := analyzer.New(analyzer.Config{
		MinWordLength:      cfg.Analyzer.MinWordLength,
		MaxWordLength:      cfg.Analyzer.MaxWordLength,
		RemoveNumbers:      cfg.Analyzer.RemoveNumbers,
		Lowercase:          cfg.Analyzer.Lowercase,
		StripHTML:          cfg.Analyzer.StripHTML,
		StripPunctuation:   cfg.Analyzer.StripPunctuation,
		ExpandContractions: cfg.Analyzer.ExpandContractions,
		DisableStopWords:   cfg.Analyzer.DisableStopWords,
		CustomStopWords:    cfg.Analyzer.CustomStopWords,
	}, nil)

	cacheDir := filepath.Dir(cfg.Storage.Path)
	if cfg.Storage.Path == "" {
		cacheDir = "."
	}
	engine := search.NewEngine(s, an, cfg.Search, search.WithCacheDir(cacheDir))

	return &Facade{
		store:    s,
		analyzer: an,
		engine:   engine,
		cfg:      cfg,
		indexers: make(map[string]*index.Indexer),
	}, nil
}

// Close flushes every open index and the fuzzy term caches, then closes
// the underlying database handle. Safe to call once; subsequent calls are
// not guaranteed safe.
func (f *Facade) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	for name, idx := range f.indexers {
		if err := idx.Flush(context.Background()); err != nil {
			return fmt.Errorf("flush index %q: %w", name, err)
		}
	}
	f.engine.FlushCaches()
	return f.store.Close()
}

// CreateIndex creates a new index named name with the given field set. An
// empty fields map uses DefaultFields (a single "content" field). Calling
// CreateIndex again with an identical field set is a no-op; a different
// field set fails with INDEX_EXISTS_CONFLICT.
func (f *Facade) CreateIndex(ctx context.Context, name string, fields map[string]FieldOptions) error {
	storeFields := make(map[string]store.Field, len(fields))
	for n, opt := range fields {
		storeFields[n] = store.Field{Name: n, Boost: opt.Boost, Store: opt.Store, Index: opt.Index}
	}
	if err := f.store.CreateIndex(ctx, name, store.IndexOptions{Fields: storeFields}); err != nil {
		return wrapError(err)
	}

	f.mu.Lock()
	delete(f.indexers, name)
	f.mu.Unlock()
	return nil
}

// DropIndex permanently removes name's tables and its in-memory/sidecar
// search state.
func (f *Facade) DropIndex(ctx context.Context, name string) error {
	if err := f.store.DropIndex(ctx, name); err != nil {
		return wrapError(err)
	}
	f.mu.Lock()
	delete(f.indexers, name)
	f.mu.Unlock()
	f.engine.Forget(name)
	return nil
}

// ListIndices enumerates every known index.
func (f *Facade) ListIndices(ctx context.Context) ([]IndexSummary, error) {
	rows, err := f.store.ListIndices(ctx)
	if err != nil {
		return nil, wrapError(err)
	}
	out := make([]IndexSummary, len(rows))
	for i, r := range rows {
		out[i] = IndexSummary{Name: r.Name, DocumentCount: r.DocumentCount, Languages: r.Languages, Types: r.Types}
	}
	return out, nil
}

// GetStats returns name's document/chunk counts; SizeBytes is the size of
// the whole database, not of name alone.
func (f *Facade) GetStats(ctx context.Context, name string) (IndexStats, error) {
	stats, err := f.store.Stats(ctx, name)
	if err != nil {
		return IndexStats{}, wrapError(err)
	}
	return IndexStats{
		DocumentCount: stats.DocumentCount,
		ChunkCount:    stats.ChunkCount,
		SizeBytes:     stats.SizeBytes,
		AvgDocLength:  stats.AvgDocLength,
	}, nil
}

// Optimize flushes pending writes on name and asks the FTS engine to
// perform its internal merge/rebuild.
func (f *Facade) Optimize(ctx context.Context, name string) error {
	idx, err := f.indexerFor(ctx, name, false)
	if err != nil {
		return wrapError(err)
	}
	return wrapError(idx.Optimize(ctx))
}

// Clear drops and recreates name, preserving its field configuration, and
// discards any fuzzy search state cached for it.
func (f *Facade) Clear(ctx context.Context, name string) error {
	idx, err := f.indexerFor(ctx, name, false)
	if err != nil {
		return wrapError(err)
	}
	if err := idx.Clear(ctx); err != nil {
		return wrapError(err)
	}
	f.engine.Forget(name)
	return nil
}

// indexerFor returns name's Indexer, building and caching it on first use.
// When autoCreate is true and name does not yet exist, it is created with
// DefaultFields — the behavior spec §7 documents for Index, and only
// Index.
func (f *Facade) indexerFor(ctx context.Context, name string, autoCreate bool) (*index.Indexer, error) {
	f.mu.RLock()
	idx, ok := f.indexers[name]
	f.mu.RUnlock()
	if ok {
		return idx, nil
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if idx, ok := f.indexers[name]; ok {
		return idx, nil
	}

	if !f.store.HasIndex(name) {
		if !autoCreate {
			return nil, lexerrors.IndexNotFound(name)
		}
		if err := f.store.CreateIndex(ctx, name, store.IndexOptions{Fields: store.DefaultFields()}); err != nil {
			return nil, err
		}
	}

	fields, _ := f.store.FieldsOf(name)
	idxCfg := config.IndexerConfig{
		BatchSize:    f.cfg.Indexer.BatchSize,
		AutoFlush:    f.cfg.Indexer.AutoFlush,
		ChunkSize:    f.cfg.Indexer.ChunkSize,
		ChunkOverlap: f.cfg.Indexer.ChunkOverlap,
		Fields:       fieldConfigFrom(fields),
	}

	built, err := index.NewIndexer(ctx, f.store, f.analyzer, name, idxCfg)
	if err != nil {
		return nil, err
	}
	f.indexers[name] = built
	return built, nil
}

func fieldConfigFrom(fields map[string]store.Field) map[string]config.FieldConfig {
	out := make(map[string]config.FieldConfig, len(fields))
	for name, f := range fields {
		out[name] = config.FieldConfig{Boost: f.Boost, Store: f.Store, Index: f.Index}
	}
	return out
}

// IndexSummary is one entry of ListIndices' result.
type IndexSummary struct {
	Name          string
	DocumentCount int
	Languages     []string
	Types         []string
}

// IndexStats is the shape returned by GetStats.
type IndexStats struct {
	DocumentCount int
	ChunkCount    int
	SizeBytes     int64
	AvgDocLength  float64
}
