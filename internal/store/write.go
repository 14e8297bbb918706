package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	lexerrors "github.com/aman-cerp/lexidex/internal/errors"
)

// WriteResult reports the outcome of one WriteBatch call.
type WriteResult struct {
	Written int
}

// WriteBatch upserts docs into index within a single transaction, keeping
// the documents table, the FTS index, and the R-tree in sync per spec
// invariant 1/2 and the "write path (transactional)" contract in §4.3.
//
// Grounded on the teacher's Index() method: FTS5 cannot REPLACE, so an
// existing row's FTS entry is deleted before the fresh one is inserted;
// the R-tree row follows the same delete-then-insert shape.
func (s *Store) WriteBatch(ctx context.Context, index string, docs []Document, analyzedFields func(Document) map[string]string) (WriteResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	fields, ok := s.indices[index]
	if !ok {
		return WriteResult{}, lexerrors.IndexNotFound(index)
	}
	ftsFields := orderedFieldNames(fields, true)

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return WriteResult{}, lexerrors.StorageError(err, "failed to begin write transaction")
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	for _, doc := range docs {
		if err := s.writeOne(ctx, tx, index, doc, fields, ftsFields, analyzedFields(doc), now); err != nil {
			return WriteResult{}, lexerrors.TransactionAborted(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return WriteResult{}, lexerrors.TransactionAborted(err)
	}

	s.resultCache.InvalidateIndex(index)
	return WriteResult{Written: len(docs)}, nil
}

func (s *Store) writeOne(ctx context.Context, tx *sql.Tx, index string, doc Document, fields map[string]Field, ftsFields []string, analyzed map[string]string, now int64) error {
	contentJSON, err := MarshalJSONMap(doc.Content)
	if err != nil {
		return err
	}
	metaJSON, err := MarshalJSONMap(doc.Metadata)
	if err != nil {
		return err
	}

	var geoLat, geoLng any
	if doc.GeoPoint != nil {
		geoLat, geoLng = doc.GeoPoint.Lat, doc.GeoPoint.Lng
	}

	fieldCols := make([]string, len(ftsFields))
	fieldArgs := make([]any, len(ftsFields))
	for i, name := range ftsFields {
		fieldCols[i] = quoteIdent(name)
		fieldArgs[i] = analyzed[name]
	}

	var docID int64
	err = tx.QueryRowContext(ctx, fmt.Sprintf(`SELECT doc_id FROM docs_%s WHERE ext_id = ?`, index), doc.ID).Scan(&docID)
	switch {
	case err == sql.ErrNoRows:
		cols := append([]string{"ext_id", "language", "type", "timestamp", "content_json", "metadata", "geo_lat", "geo_lng", "indexed_at"}, fieldCols...)
		args := append([]any{doc.ID, doc.Language, doc.Type, doc.Timestamp, contentJSON, metaJSON, geoLat, geoLng, now}, fieldArgs...)
		placeholders := make([]string, len(cols))
		for i := range placeholders {
			placeholders[i] = "?"
		}
		insertSQL := fmt.Sprintf(`INSERT INTO docs_%s(%s) VALUES (%s)`, index, joinCols(cols), joinCols(placeholders))
		res, err := tx.ExecContext(ctx, insertSQL, args...)
		if err != nil {
			return err
		}
		docID, err = res.LastInsertId()
		if err != nil {
			return err
		}
	case err != nil:
		return err
	default:
		// The FTS delete reads the current docs row to find the tokens to
		// remove, so it runs before that row is overwritten.
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM fts_%s WHERE rowid = ?`, index), docID); err != nil {
			return err
		}
		setClauses := []string{"language=?", "type=?", "timestamp=?", "content_json=?", "metadata=?", "geo_lat=?", "geo_lng=?", "indexed_at=?"}
		args := []any{doc.Language, doc.Type, doc.Timestamp, contentJSON, metaJSON, geoLat, geoLng, now}
		for i, col := range fieldCols {
			setClauses = append(setClauses, col+"=?")
			args = append(args, fieldArgs[i])
		}
		args = append(args, docID)
		updateSQL := fmt.Sprintf(`UPDATE docs_%s SET %s WHERE doc_id=?`, index, joinCols(setClauses))
		if _, err = tx.ExecContext(ctx, updateSQL, args...); err != nil {
			return err
		}
	}

	if len(ftsFields) > 0 {
		cols := append([]string{"rowid"}, fieldCols...)
		placeholders := make([]string, len(cols))
		args := make([]any, len(cols))
		placeholders[0] = "?"
		args[0] = docID
		for i := range fieldCols {
			placeholders[i+1] = "?"
			args[i+1] = fieldArgs[i]
		}
		insertSQL := fmt.Sprintf(`INSERT INTO fts_%s(%s) VALUES (%s)`, index, joinCols(cols), joinCols(placeholders))
		if _, err := tx.ExecContext(ctx, insertSQL, args...); err != nil {
			return err
		}
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM rtree_%s WHERE doc_id = ?`, index), docID); err != nil {
		return err
	}
	if doc.GeoPoint != nil {
		minLat, maxLat, minLng, maxLng := doc.GeoPoint.Lat, doc.GeoPoint.Lat, doc.GeoPoint.Lng, doc.GeoPoint.Lng
		if doc.GeoBounds != nil {
			minLat, maxLat = doc.GeoBounds.South, doc.GeoBounds.North
			minLng, maxLng = doc.GeoBounds.West, doc.GeoBounds.East
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`INSERT INTO rtree_%s(doc_id, min_lat, max_lat, min_lng, max_lng) VALUES (?, ?, ?, ?, ?)`, index),
			docID, minLat, maxLat, minLng, maxLng); err != nil {
			return err
		}
	}

	return nil
}

func joinCols(cols []string) string {
	out := ""
	for i, c := range cols {
		if i > 0 {
			out += ", "
		}
		out += c
	}
	return out
}

// Delete removes extID's row, its FTS entry, its R-tree entry, and every
// chunk row whose parent is extID (matched via metadata.parent_id), all in
// one transaction.
func (s *Store) Delete(ctx context.Context, index string, extID string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indices[index]; !ok {
		return 0, lexerrors.IndexNotFound(index)
	}

	ids, err := s.idsForDeletion(ctx, index, extID)
	if err != nil {
		return 0, lexerrors.StorageError(err, "failed to resolve chunk rows for deletion")
	}
	if len(ids) == 0 {
		return 0, nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, lexerrors.StorageError(err, "failed to begin delete transaction")
	}
	defer func() { _ = tx.Rollback() }()

	for _, docID := range ids {
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM fts_%s WHERE rowid = ?`, index), docID); err != nil {
			return 0, lexerrors.TransactionAborted(err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM rtree_%s WHERE doc_id = ?`, index), docID); err != nil {
			return 0, lexerrors.TransactionAborted(err)
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(`DELETE FROM docs_%s WHERE doc_id = ?`, index), docID); err != nil {
			return 0, lexerrors.TransactionAborted(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, lexerrors.TransactionAborted(err)
	}

	s.resultCache.InvalidateIndex(index)
	return len(ids), nil
}

func (s *Store) idsForDeletion(ctx context.Context, index, extID string) ([]int64, error) {
	rows, err := s.db.QueryContext(ctx, fmt.Sprintf(`
		SELECT doc_id FROM docs_%s
		WHERE ext_id = ? OR json_extract(metadata, '$.parent_id') = ?`, index), extID, extID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var ids []int64
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

// Clear drops and recreates index preserving its field configuration, per
// spec §4.2 clear().
func (s *Store) Clear(ctx context.Context, index string) error {
	s.mu.RLock()
	fields, ok := s.indices[index]
	s.mu.RUnlock()
	if !ok {
		return lexerrors.IndexNotFound(index)
	}
	fieldsCopy := make(map[string]Field, len(fields))
	for k, v := range fields {
		fieldsCopy[k] = v
	}
	if err := s.DropIndex(ctx, index); err != nil {
		return err
	}
	return s.CreateIndex(ctx, index, IndexOptions{Fields: fieldsCopy})
}

// Optimize asks the FTS engine to perform its internal merge/rebuild.
func (s *Store) Optimize(ctx context.Context, index string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.indices[index]; !ok {
		return lexerrors.IndexNotFound(index)
	}
	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`INSERT INTO fts_%s(fts_%s) VALUES('optimize')`, index, index))
	if err != nil {
		return lexerrors.StorageError(err, "failed to optimize FTS index")
	}
	return nil
}

// Stats returns document/chunk counts for index; SizeBytes is the size of
// the whole database, not of index alone.
func (s *Store) Stats(ctx context.Context, index string) (IndexStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.indices[index]; !ok {
		return IndexStats{}, lexerrors.IndexNotFound(index)
	}

	var total, chunks int
	var avgLen sql.NullFloat64
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM docs_%s`, index)).Scan(&total); err != nil {
		return IndexStats{}, lexerrors.StorageError(err, "failed to count documents")
	}
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM docs_%s WHERE json_extract(metadata, '$.is_chunk') = 1`, index)).Scan(&chunks); err != nil {
		return IndexStats{}, lexerrors.StorageError(err, "failed to count chunks")
	}
	if err := s.db.QueryRowContext(ctx, fmt.Sprintf(
		`SELECT AVG(LENGTH(content_json)) FROM docs_%s`, index)).Scan(&avgLen); err != nil {
		return IndexStats{}, lexerrors.StorageError(err, "failed to average document length")
	}

	var sizeBytes sql.NullInt64
	_ = s.db.QueryRowContext(ctx, `SELECT page_count * page_size FROM pragma_page_count(), pragma_page_size()`).Scan(&sizeBytes)

	return IndexStats{
		DocumentCount: total,
		ChunkCount:    chunks,
		SizeBytes:     sizeBytes.Int64,
		AvgDocLength:  avgLen.Float64,
	}, nil
}
