package index

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/aman-cerp/lexidex/internal/analyzer"
	"github.com/aman-cerp/lexidex/internal/config"
	lexerrors "github.com/aman-cerp/lexidex/internal/errors"
	"github.com/aman-cerp/lexidex/internal/store"
)

// primaryField is the conventional field name chunked per spec §4.2 step 3.
const primaryField = "content"

// FailedDoc records one document's processing/analysis failure inside a
// batch insert (spec §4.2 "Failure semantics").
type FailedDoc struct {
	ID     string
	Reason string
}

type pendingDoc struct {
	doc      store.Document
	analyzed map[string]string
}

// Indexer converts client documents into storable rows, manages chunking of
// long text, batches and flushes writes, and guarantees tri-table
// consistency by delegating every flush to a single Storage transaction.
//
// Grounded on the teacher's Coordinator/Engine.Index dual responsibility
// (document processing plus flush-to-storage), collapsed into one type
// since this spec has a single write path instead of the teacher's
// parallel BM25 + vector indices.
type Indexer struct {
	mu       sync.Mutex
	store    *store.Store
	analyzer *analyzer.Analyzer
	index    string
	fields   map[string]store.Field
	cfg      config.IndexerConfig
	pending  []pendingDoc
}

// NewIndexer creates (or reopens) index with the given field configuration,
// auto-creating the underlying storage index on first use (spec §3:
// "Index created on first write (or explicitly)").
func NewIndexer(ctx context.Context, s *store.Store, an *analyzer.Analyzer, index string, cfg config.IndexerConfig) (*Indexer, error) {
	fields := fieldsFromConfig(cfg)
	if !s.HasIndex(index) {
		if err := s.CreateIndex(ctx, index, store.IndexOptions{Fields: fields}); err != nil {
			return nil, err
		}
	}
	return &Indexer{
		store:    s,
		analyzer: an,
		index:    index,
		fields:   fields,
		cfg:      cfg,
	}, nil
}

func fieldsFromConfig(cfg config.IndexerConfig) map[string]store.Field {
	if len(cfg.Fields) == 0 {
		return store.DefaultFields()
	}
	out := make(map[string]store.Field, len(cfg.Fields))
	for name, fc := range cfg.Fields {
		out[name] = store.Field{Name: name, Boost: fc.Boost, Store: fc.Store, Index: fc.Index}
	}
	return out
}

// Insert validates and processes docs, enqueuing them for write. It flushes
// automatically once the queue reaches batch_size, or after every call when
// auto_flush is enabled. A single-document insert with a processing error
// fails the call; a batch insert records the failure and continues with the
// rest (spec §4.2 failure semantics). Duplicate ids inside the batch (or a
// matching id already stored) are upsert semantics, handled by Storage.
func (idx *Indexer) Insert(ctx context.Context, docs ...store.Document) ([]FailedDoc, error) {
	idx.mu.Lock()
	defer idx.mu.Unlock()

	var failed []FailedDoc
	for _, doc := range docs {
		processed, err := idx.processDocument(doc)
		if err != nil {
			if len(docs) == 1 {
				return nil, lexerrors.AnalyzerError(err, "failed to process document")
			}
			failed = append(failed, FailedDoc{ID: doc.ID, Reason: err.Error()})
			continue
		}
		idx.pending = append(idx.pending, processed...)
	}

	if idx.cfg.AutoFlush || len(idx.pending) >= idx.cfg.BatchSize {
		if err := idx.flushLocked(ctx); err != nil {
			return failed, err
		}
	}
	return failed, nil
}

// Update replaces an existing document by id; id must be present.
func (idx *Indexer) Update(ctx context.Context, doc store.Document) error {
	if doc.ID == "" {
		return lexerrors.MissingID()
	}
	_, err := idx.Insert(ctx, doc)
	return err
}

// Delete removes id, its FTS/R-tree entries, and every chunk row whose
// parent is id.
func (idx *Indexer) Delete(ctx context.Context, id string) (int, error) {
	return idx.store.Delete(ctx, idx.index, id)
}

// Clear drops and recreates the index, preserving its field configuration.
func (idx *Indexer) Clear(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	idx.pending = nil
	return idx.store.Clear(ctx, idx.index)
}

// Rebuild clears the index, inserts docs, and optimizes, observable as a
// single logical operation (spec §4.2).
func (idx *Indexer) Rebuild(ctx context.Context, docs []store.Document) error {
	if err := idx.Clear(ctx); err != nil {
		return err
	}
	if _, err := idx.Insert(ctx, docs...); err != nil {
		return err
	}
	return idx.Optimize(ctx)
}

// Optimize flushes pending writes then asks the FTS engine to perform its
// internal merge/rebuild.
func (idx *Indexer) Optimize(ctx context.Context) error {
	if err := idx.Flush(ctx); err != nil {
		return err
	}
	return idx.store.Optimize(ctx, idx.index)
}

// Flush drains the pending queue within a single storage transaction.
func (idx *Indexer) Flush(ctx context.Context) error {
	idx.mu.Lock()
	defer idx.mu.Unlock()
	return idx.flushLocked(ctx)
}

func (idx *Indexer) flushLocked(ctx context.Context) error {
	if len(idx.pending) == 0 {
		return nil
	}
	batch := idx.pending
	idx.pending = nil

	byID := make(map[string]map[string]string, len(batch))
	docs := make([]store.Document, len(batch))
	for i, p := range batch {
		docs[i] = p.doc
		byID[p.doc.ID] = p.analyzed
	}

	_, err := idx.store.WriteBatch(ctx, idx.index, docs, func(d store.Document) map[string]string {
		return byID[d.ID]
	})
	return err
}

// GetStats returns document/chunk counts and size for this index.
func (idx *Indexer) GetStats(ctx context.Context) (store.IndexStats, error) {
	return idx.store.Stats(ctx, idx.index)
}

// processDocument resolves defaults, analyzes indexed fields, and splits
// long primary-field content into chunk documents, per spec §4.2's
// "Document processing algorithm".
func (idx *Indexer) processDocument(doc store.Document) ([]pendingDoc, error) {
	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}
	if doc.Type == "" {
		doc.Type = "default"
	}
	if doc.Timestamp == 0 {
		doc.Timestamp = time.Now().Unix()
	}

	content := make(map[string]any, len(doc.Content))
	analyzed := make(map[string]string, len(idx.fields))
	for name, field := range idx.fields {
		val, present := doc.Content[name]
		if !present {
			continue
		}
		if field.Store {
			content[name] = val
		}
		if field.Index {
			if s, ok := val.(string); ok {
				analyzed[name] = idx.analyzeField(s, doc.Language)
			}
		}
	}
	doc.Content = content

	primary, _ := doc.Content[primaryField].(string)
	if idx.cfg.ChunkSize <= 0 || len(primary) <= idx.cfg.ChunkSize {
		return []pendingDoc{{doc: doc, analyzed: analyzed}}, nil
	}

	chunks := ChunkText(primary, idx.cfg.ChunkSize, idx.cfg.ChunkOverlap)
	if len(chunks) <= 1 {
		return []pendingDoc{{doc: doc, analyzed: analyzed}}, nil
	}

	parent := doc
	parentContent := make(map[string]any, len(doc.Content))
	for k, v := range doc.Content {
		parentContent[k] = v
	}
	parentMeta := cloneMeta(doc.Metadata)
	parentMeta["chunked"] = true
	parentMeta["chunks"] = len(chunks)
	parent.Metadata = parentMeta
	parent.Content = parentContent

	out := []pendingDoc{{doc: parent, analyzed: analyzed}}
	for _, c := range chunks {
		chunkDoc := store.Document{
			ID:        fmt.Sprintf("%s#chunk%d", doc.ID, c.Index),
			Language:  doc.Language,
			Type:      doc.Type,
			Timestamp: doc.Timestamp,
			GeoPoint:  doc.GeoPoint,
			GeoBounds: doc.GeoBounds,
		}
		chunkContent := make(map[string]any, len(doc.Content))
		for k, v := range doc.Content {
			chunkContent[k] = v
		}
		chunkContent[primaryField] = c.Content
		chunkDoc.Content = chunkContent

		chunkMeta := cloneMeta(doc.Metadata)
		chunkMeta["is_chunk"] = true
		chunkMeta["parent_id"] = doc.ID
		chunkDoc.Metadata = chunkMeta

		chunkAnalyzed := make(map[string]string, len(analyzed))
		for k, v := range analyzed {
			chunkAnalyzed[k] = v
		}
		chunkAnalyzed[primaryField] = idx.analyzeField(c.Content, doc.Language)

		out = append(out, pendingDoc{doc: chunkDoc, analyzed: chunkAnalyzed})
	}
	return out, nil
}

func (idx *Indexer) analyzeField(text, lang string) string {
	result := idx.analyzer.Analyze(text, lang)
	return strings.Join(result.Tokens, " ")
}

func cloneMeta(m map[string]any) map[string]any {
	out := make(map[string]any, len(m)+2)
	for k, v := range m {
		out[k] = v
	}
	return out
}
