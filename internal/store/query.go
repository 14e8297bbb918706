package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	lexerrors "github.com/aman-cerp/lexidex/internal/errors"
)

// hardRowCap bounds how many matching rows Storage ever materializes for
// one query, independent of the caller's requested page size: the
// SearchEngine needs the full filtered candidate set to merge chunks,
// compute facets, and re-rank before it paginates (spec §4.4 steps 6-8), so
// Storage itself does not apply LIMIT/OFFSET from the caller directly.
const hardRowCap = 10000

// Search executes spec's FTS match against index, joined with the
// predicate/geo constraints, and returns every matching row (up to
// hardRowCap) with its raw FTS score and per-field hit text, leaving
// scoring, chunk-merging, pagination, and highlighting to the SearchEngine.
//
// Grounded on the teacher's Search(): same "SELECT ..., bm25(fts) AS score
// ... WHERE content MATCH ? ORDER BY score" shape, extended with the join
// against docs_<idx> for predicate/geo filtering and field-hit projection
// this spec's richer query language needs.
func (s *Store) Search(ctx context.Context, index string, spec QuerySpec) ([]SearchRow, error) {
	s.mu.RLock()
	fields, ok := s.indices[index]
	s.mu.RUnlock()
	if !ok {
		return nil, lexerrors.IndexNotFound(index)
	}

	fieldNames := spec.FieldNames
	if len(fieldNames) == 0 {
		fieldNames = orderedFieldNames(fields, true)
	}

	selectCols := []string{
		"d.doc_id", "d.ext_id", "d.language", "d.type", "d.timestamp",
		"d.content_json", "d.metadata", "d.geo_lat", "d.geo_lng", "d.indexed_at",
		"bm25(f) AS raw_score",
	}
	for _, name := range fieldNames {
		selectCols = append(selectCols, fmt.Sprintf("d.%s AS %s", quoteIdent(name), fieldAlias(name)))
	}

	query := fmt.Sprintf(`SELECT %s FROM fts_%s f JOIN docs_%s d ON d.doc_id = f.rowid WHERE f MATCH ?`,
		strings.Join(selectCols, ", "), index, index)
	args := []any{spec.MatchExpr}

	whereClause, predArgs, err := buildWhereClause(spec.Predicates)
	if err != nil {
		return nil, err
	}
	if whereClause != "" {
		query += " AND " + whereClause
		args = append(args, predArgs...)
	}

	geoClause, geoArgs, err := s.buildGeoClause(index, spec.GeoNear, spec.GeoWithin)
	if err != nil {
		return nil, err
	}
	if geoClause != "" {
		query += " AND " + geoClause
		args = append(args, geoArgs...)
	}

	query += " ORDER BY raw_score LIMIT ?"
	args = append(args, hardRowCap)

	stmt, err := s.stmtCache.Prepared(s.db, query)
	if err != nil {
		return nil, lexerrors.StorageError(err, "failed to prepare search query")
	}
	rows, err := stmt.QueryContext(ctx, args...)
	if err != nil {
		if strings.Contains(err.Error(), "fts5:") || strings.Contains(err.Error(), "syntax error") {
			return nil, nil
		}
		return nil, lexerrors.StorageError(err, "search query failed")
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, lexerrors.StorageError(err, "failed to read result columns")
	}

	var out []SearchRow
	for rows.Next() {
		scanTargets := make([]any, len(cols))
		var (
			docID                        int64
			extID, language, typ         string
			timestamp, indexedAt         int64
			contentJSON, metadataJSON    string
			geoLat, geoLng               sql.NullFloat64
			rawScore                     float64
		)
		scanTargets[0] = &docID
		scanTargets[1] = &extID
		scanTargets[2] = &language
		scanTargets[3] = &typ
		scanTargets[4] = &timestamp
		scanTargets[5] = &contentJSON
		scanTargets[6] = &metadataJSON
		scanTargets[7] = &geoLat
		scanTargets[8] = &geoLng
		scanTargets[9] = &indexedAt
		scanTargets[10] = &rawScore

		fieldVals := make([]sql.NullString, len(fieldNames))
		for i := range fieldNames {
			scanTargets[11+i] = &fieldVals[i]
		}

		if err := rows.Scan(scanTargets...); err != nil {
			return nil, lexerrors.StorageError(err, "failed to scan search row")
		}

		content, err := UnmarshalJSONMap(contentJSON)
		if err != nil {
			return nil, lexerrors.StorageError(err, "failed to decode stored content")
		}
		metadata, err := UnmarshalJSONMap(metadataJSON)
		if err != nil {
			return nil, lexerrors.StorageError(err, "failed to decode stored metadata")
		}

		hits := make(map[string]string, len(fieldNames))
		for i, name := range fieldNames {
			if fieldVals[i].Valid {
				hits[name] = fieldVals[i].String
			}
		}

		row := SearchRow{
			Row: Row{
				DocID:     docID,
				ExtID:     extID,
				Language:  language,
				Type:      typ,
				Timestamp: timestamp,
				Content:   content,
				Metadata:  metadata,
				IndexedAt: indexedAt,
			},
			RawBM25:   rawScore,
			FieldHits: hits,
		}
		if geoLat.Valid {
			v := geoLat.Float64
			row.GeoLat = &v
		}
		if geoLng.Valid {
			v := geoLng.Float64
			row.GeoLng = &v
		}
		out = append(out, row)
	}
	if err := rows.Err(); err != nil {
		return nil, lexerrors.StorageError(err, "failed to iterate search rows")
	}

	if spec.GeoNear != nil {
		out = refineByDistance(out, spec.GeoNear.Point, spec.GeoNear.Radius)
	}
	if spec.SortByDistance != nil {
		attachDistances(out, spec.SortByDistance.Point)
	}

	return out, nil
}

// fieldAlias produces a quoted SQL column alias for a field name; the
// "field_" prefix disambiguates it from the fixed selectCols above.
func fieldAlias(name string) string {
	return quoteIdent("field_" + name)
}

// Count returns the number of matching rows without fetching them,
// backing the Facade's count() operation.
func (s *Store) Count(ctx context.Context, index string, spec QuerySpec) (int, error) {
	s.mu.RLock()
	_, ok := s.indices[index]
	s.mu.RUnlock()
	if !ok {
		return 0, lexerrors.IndexNotFound(index)
	}

	query := fmt.Sprintf(`SELECT COUNT(*) FROM fts_%s f JOIN docs_%s d ON d.doc_id = f.rowid WHERE f MATCH ?`, index, index)
	args := []any{spec.MatchExpr}

	whereClause, predArgs, err := buildWhereClause(spec.Predicates)
	if err != nil {
		return 0, err
	}
	if whereClause != "" {
		query += " AND " + whereClause
		args = append(args, predArgs...)
	}

	geoClause, geoArgs, err := s.buildGeoClause(index, spec.GeoNear, spec.GeoWithin)
	if err != nil {
		return 0, err
	}
	if geoClause != "" {
		query += " AND " + geoClause
		args = append(args, geoArgs...)
	}

	stmt, err := s.stmtCache.Prepared(s.db, query)
	if err != nil {
		return 0, lexerrors.StorageError(err, "failed to prepare count query")
	}

	var count int
	if err := stmt.QueryRowContext(ctx, args...).Scan(&count); err != nil {
		if strings.Contains(err.Error(), "fts5:") || strings.Contains(err.Error(), "syntax error") {
			return 0, nil
		}
		return 0, lexerrors.StorageError(err, "count query failed")
	}
	return count, nil
}
