package lexidex

import (
	"context"

	"github.com/aman-cerp/lexidex/internal/geo"
	"github.com/aman-cerp/lexidex/internal/store"
)

// Document is the client-facing document shape (spec §3). Content holds
// the indexable/storable field values; Metadata holds arbitrary
// attributes usable in predicate filters and facets/aggregations.
type Document struct {
	ID        string
	Content   map[string]any
	Metadata  map[string]any
	Language  string
	Type      string
	Timestamp int64
	Lat       *float64
	Lng       *float64
}

// FailedDoc names one document that failed processing inside a batch
// Index call, alongside why.
type FailedDoc struct {
	ID     string
	Reason string
}

func (d Document) toStore() store.Document {
	sd := store.Document{
		ID:        d.ID,
		Content:   d.Content,
		Metadata:  d.Metadata,
		Language:  d.Language,
		Type:      d.Type,
		Timestamp: d.Timestamp,
	}
	if d.Lat != nil && d.Lng != nil {
		sd.GeoPoint = &geo.Point{Lat: *d.Lat, Lng: *d.Lng}
	}
	return sd
}

// Index inserts or replaces docs in name, auto-creating name with
// DefaultFields if it does not yet exist (spec §7's documented exception
// to INDEX_NOT_FOUND). Per-document analyzer/serialization errors are
// collected and returned as FailedDoc entries; the batch continues. A
// single-document call instead fails outright on error.
func (f *Facade) Index(ctx context.Context, name string, docs ...Document) ([]FailedDoc, error) {
	idx, err := f.indexerFor(ctx, name, true)
	if err != nil {
		return nil, wrapError(err)
	}
	storeDocs := make([]store.Document, len(docs))
	for i, d := range docs {
		storeDocs[i] = d.toStore()
	}
	failed, err := idx.Insert(ctx, storeDocs...)
	if err != nil {
		return nil, wrapError(err)
	}
	out := make([]FailedDoc, len(failed))
	for i, fd := range failed {
		out[i] = FailedDoc{ID: fd.ID, Reason: fd.Reason}
	}
	return out, nil
}

// Update replaces an existing document by id; doc.ID must be present.
func (f *Facade) Update(ctx context.Context, name string, doc Document) error {
	idx, err := f.indexerFor(ctx, name, true)
	if err != nil {
		return wrapError(err)
	}
	return wrapError(idx.Update(ctx, doc.toStore()))
}

// Delete removes id, its FTS/R-tree entries, and every chunk row whose
// parent is id. Does not auto-create name; a missing index returns 0
// removed rows and no error.
func (f *Facade) Delete(ctx context.Context, name, id string) (int, error) {
	idx, err := f.indexerFor(ctx, name, false)
	if err != nil {
		if isIndexNotFound(err) {
			return 0, nil
		}
		return 0, wrapError(err)
	}
	n, err := idx.Delete(ctx, id)
	return n, wrapError(err)
}
