// Package lexidex is an embeddable, single-process full-text search
// library: a BM25-ranked full-text index with metadata filtering and
// geospatial predicates, backed by an embedded SQL engine, wrapped behind
// one Facade type.
//
// Grounded on the teacher's pkg/indexer and pkg/searcher: a thin,
// dependency-free public surface over internal/* implementation packages,
// so external callers never need to import anything under internal/.
package lexidex
