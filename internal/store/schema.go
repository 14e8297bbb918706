package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	lexerrors "github.com/aman-cerp/lexidex/internal/errors"

	_ "modernc.org/sqlite" // pure-Go SQL engine driver, no CGO
)

var indexNameRegex = regexp.MustCompile(`^[a-zA-Z_][a-zA-Z0-9_]*$`)

// quoteIdent double-quotes a SQL identifier, guarding against field names
// that collide with reserved words (e.g. a field literally named "order").
// Field names are not validated anywhere else (only index names are
// checked, against indexNameRegex), so this quoting is the only guard
// against injection through a field name.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// ValidIndexName reports whether name matches spec §3's index-name grammar.
func ValidIndexName(name string) bool {
	return indexNameRegex.MatchString(name)
}

// Store owns the single database handle backing every index in a Facade
// instance, plus the bounded caches (prepared statements, optional result
// cache) described in spec §4.3/§9.
//
// Single-writer, multiple-reader per spec §5: db.SetMaxOpenConns(1) mirrors
// the teacher's connection-pool configuration for the same reason (SQLite
// serializes writers regardless, so a larger pool only adds contention).
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	path   string
	closed bool

	indices map[string]map[string]Field // index name -> field set, cached from CreateIndex/open

	stmtCache  *StatementCache
	resultCache *ResultCache
}

// Open creates or opens the database file at path (or an in-memory
// database when path is empty, for tests), with the teacher's WAL +
// busy-timeout pragma set for concurrent-reader friendliness.
func Open(path string, cacheCfg CacheConfig) (*Store, error) {
	dsn := ":memory:"
	if path != "" {
		dir := filepath.Dir(path)
		if dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, lexerrors.StorageError(err, "failed to create storage directory")
			}
		}
		dsn = path + "?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, lexerrors.StorageError(err, "failed to open database")
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	if path == "" {
		pragmas = []string{"PRAGMA foreign_keys = ON"}
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			_ = db.Close()
			return nil, lexerrors.StorageError(err, "failed to set pragma")
		}
	}

	s := &Store{
		db:          db,
		path:        path,
		indices:     make(map[string]map[string]Field),
		stmtCache:   NewStatementCache(64),
		resultCache: NewResultCache(cacheCfg),
	}

	if err := s.loadExistingIndices(); err != nil {
		_ = db.Close()
		return nil, err
	}

	return s, nil
}

// loadExistingIndices populates s.indices from any docs_* tables already
// present in the database file (reopening a previously created store).
func (s *Store) loadExistingIndices() error {
	rows, err := s.db.Query(`SELECT name FROM sqlite_master WHERE type='table' AND name LIKE 'docs\_%' ESCAPE '\'`)
	if err != nil {
		return lexerrors.StorageError(err, "failed to enumerate existing indices")
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return lexerrors.StorageError(err, "failed to scan table name")
		}
		names = append(names, strings.TrimPrefix(name, "docs_"))
	}
	if err := rows.Err(); err != nil {
		return lexerrors.StorageError(err, "failed to enumerate existing indices")
	}

	for _, name := range names {
		fields, err := s.loadFieldSet(name)
		if err != nil {
			return err
		}
		s.indices[name] = fields
	}
	return nil
}

// fieldRegistrySchema stores each index's field configuration as JSON so a
// reopened store can recover it; avoids re-deriving it from the FTS schema.
const fieldRegistrySchema = `
CREATE TABLE IF NOT EXISTS _lexidex_field_registry (
	index_name TEXT PRIMARY KEY,
	fields_json TEXT NOT NULL
);
`

func (s *Store) loadFieldSet(name string) (map[string]Field, error) {
	if _, err := s.db.Exec(fieldRegistrySchema); err != nil {
		return nil, lexerrors.StorageError(err, "failed to ensure field registry")
	}
	var fieldsJSON string
	err := s.db.QueryRow(`SELECT fields_json FROM _lexidex_field_registry WHERE index_name = ?`, name).Scan(&fieldsJSON)
	if err == sql.ErrNoRows {
		return DefaultFields(), nil
	}
	if err != nil {
		return nil, lexerrors.StorageError(err, "failed to load field registry entry")
	}
	fields, err := decodeFieldSet(fieldsJSON)
	if err != nil {
		return nil, lexerrors.StorageError(err, "failed to decode field registry entry")
	}
	return fields, nil
}

func (s *Store) saveFieldSet(ctx context.Context, tx *sql.Tx, name string, fields map[string]Field) error {
	encoded, err := encodeFieldSet(fields)
	if err != nil {
		return lexerrors.StorageError(err, "failed to encode field set")
	}
	_, err = tx.ExecContext(ctx, `
		INSERT INTO _lexidex_field_registry(index_name, fields_json) VALUES (?, ?)
		ON CONFLICT(index_name) DO UPDATE SET fields_json = excluded.fields_json
	`, name, encoded)
	return err
}

// orderedFieldNames returns an index's indexed field names in a stable
// (sorted) order, used for FTS column ordering.
func orderedFieldNames(fields map[string]Field, indexOnly bool) []string {
	names := make([]string, 0, len(fields))
	for name, f := range fields {
		if indexOnly && !f.Index {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// HasIndex reports whether name has been created.
func (s *Store) HasIndex(name string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.indices[name]
	return ok
}

// FieldsOf returns the field set for an existing index.
func (s *Store) FieldsOf(name string) (map[string]Field, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	f, ok := s.indices[name]
	return f, ok
}

// CreateIndex creates the three per-index tables (docs_<idx>, fts_<idx>,
// rtree_<idx>) plus the field registry row, per spec §4.3. Re-creating an
// existing index with an identical field set is a no-op; a different field
// set returns INDEX_EXISTS_CONFLICT.
func (s *Store) CreateIndex(ctx context.Context, name string, opts IndexOptions) error {
	if !ValidIndexName(name) {
		return lexerrors.InvalidArgument("name", name)
	}
	fields := opts.Fields
	if len(fields) == 0 {
		fields = DefaultFields()
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, ok := s.indices[name]; ok {
		if !sameFieldSet(existing, fields) {
			return lexerrors.IndexConflict(name)
		}
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return lexerrors.StorageError(err, "failed to begin create-index transaction")
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, fieldRegistrySchema); err != nil {
		return lexerrors.StorageError(err, "failed to ensure field registry")
	}

	ftsCols := orderedFieldNames(fields, true)

	// Per-indexed-field TEXT columns hold the analyzer's tokenized form of
	// that field, so fts_<idx>'s external-content backing table (this one)
	// has a matching column for every FTS5 column by name, per the SQLite
	// external-content contract. content_json separately carries the full
	// stored content map (including non-indexed fields) for projection and
	// highlighting against the original field value.
	docsColDefs := []string{
		"doc_id INTEGER PRIMARY KEY",
		"ext_id TEXT UNIQUE NOT NULL",
		"language TEXT",
		"type TEXT",
		"timestamp INTEGER",
		"content_json TEXT",
		"metadata TEXT",
		"geo_lat REAL",
		"geo_lng REAL",
		"indexed_at INTEGER",
	}
	for _, col := range ftsCols {
		docsColDefs = append(docsColDefs, quoteIdent(col)+" TEXT")
	}
	docsDDL := fmt.Sprintf(`CREATE TABLE docs_%s (%s)`, name, strings.Join(docsColDefs, ", "))
	if _, err := tx.ExecContext(ctx, docsDDL); err != nil {
		return lexerrors.StorageError(err, "failed to create documents table")
	}

	colDefs := make([]string, 0, len(ftsCols)+1)
	colDefs = append(colDefs, "doc_id UNINDEXED")
	for _, col := range ftsCols {
		colDefs = append(colDefs, quoteIdent(col))
	}
	ftsDDL := fmt.Sprintf(`
		CREATE VIRTUAL TABLE fts_%s USING fts5(
			%s,
			content='docs_%s',
			content_rowid='doc_id',
			tokenize='unicode61'
		)`, name, strings.Join(colDefs, ", "), name)
	if _, err := tx.ExecContext(ctx, ftsDDL); err != nil {
		return lexerrors.StorageError(err, "failed to create FTS table")
	}

	rtreeDDL := fmt.Sprintf(`
		CREATE VIRTUAL TABLE rtree_%s USING rtree(
			doc_id,
			min_lat, max_lat,
			min_lng, max_lng
		)`, name)
	if _, err := tx.ExecContext(ctx, rtreeDDL); err != nil {
		return lexerrors.StorageError(err, "failed to create R-tree table")
	}

	if err := s.saveFieldSet(ctx, tx, name, fields); err != nil {
		return lexerrors.StorageError(err, "failed to persist field registry entry")
	}

	if err := tx.Commit(); err != nil {
		return lexerrors.TransactionAborted(err)
	}

	s.indices[name] = fields
	return nil
}

// DropIndex atomically removes all three tables, the field registry entry,
// and (via the caller, since the cache sidecar lives outside the DB file)
// signals that the fuzzy cache file should also be removed.
func (s *Store) DropIndex(ctx context.Context, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.indices[name]; !ok {
		return lexerrors.IndexNotFound(name)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return lexerrors.StorageError(err, "failed to begin drop-index transaction")
	}
	defer func() { _ = tx.Rollback() }()

	stmts := []string{
		fmt.Sprintf("DROP TABLE IF EXISTS docs_%s", name),
		fmt.Sprintf("DROP TABLE IF EXISTS fts_%s", name),
		fmt.Sprintf("DROP TABLE IF EXISTS rtree_%s", name),
	}
	for _, stmt := range stmts {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return lexerrors.StorageError(err, "failed to drop index table")
		}
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM _lexidex_field_registry WHERE index_name = ?`, name); err != nil {
		return lexerrors.StorageError(err, "failed to remove field registry entry")
	}

	if err := tx.Commit(); err != nil {
		return lexerrors.TransactionAborted(err)
	}

	delete(s.indices, name)
	s.resultCache.InvalidateIndex(name)
	s.stmtCache.InvalidateIndex(name)
	return nil
}

// ListIndices enumerates known indices with document counts and the
// distinct languages/types observed, per spec §4.3.
func (s *Store) ListIndices(ctx context.Context) ([]IndexSummary, error) {
	s.mu.RLock()
	names := make([]string, 0, len(s.indices))
	for name := range s.indices {
		names = append(names, name)
	}
	s.mu.RUnlock()
	sort.Strings(names)

	summaries := make([]IndexSummary, 0, len(names))
	for _, name := range names {
		var count int
		err := s.db.QueryRowContext(ctx, fmt.Sprintf(`SELECT COUNT(*) FROM docs_%s`, name)).Scan(&count)
		if err != nil {
			return nil, lexerrors.StorageError(err, "failed to count documents")
		}
		langs, err := s.distinctColumn(ctx, name, "language")
		if err != nil {
			return nil, err
		}
		types, err := s.distinctColumn(ctx, name, "type")
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, IndexSummary{
			Name:          name,
			DocumentCount: count,
			Languages:     langs,
			Types:         types,
		})
	}
	return summaries, nil
}

func (s *Store) distinctColumn(ctx context.Context, index, column string) ([]string, error) {
	q := fmt.Sprintf(`SELECT DISTINCT %s FROM docs_%s WHERE %s IS NOT NULL AND %s != '' ORDER BY %s`, column, index, column, column, column)
	rows, err := s.db.QueryContext(ctx, q)
	if err != nil {
		return nil, lexerrors.StorageError(err, "failed to enumerate distinct values")
	}
	defer rows.Close()
	var out []string
	for rows.Next() {
		var v string
		if err := rows.Scan(&v); err != nil {
			return nil, lexerrors.StorageError(err, "failed to scan distinct value")
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// MatchIndexPattern expands a glob-style pattern (`*` wildcard) against the
// known index names, per spec §4.3 multi-index search.
func (s *Store) MatchIndexPattern(pattern string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if !strings.Contains(pattern, "*") {
		if _, ok := s.indices[pattern]; ok {
			return []string{pattern}
		}
		return nil
	}
	re := globToRegex(pattern)
	var matched []string
	for name := range s.indices {
		if re.MatchString(name) {
			matched = append(matched, name)
		}
	}
	sort.Strings(matched)
	return matched
}

func globToRegex(pattern string) *regexp.Regexp {
	escaped := regexp.QuoteMeta(pattern)
	escaped = strings.ReplaceAll(escaped, `\*`, ".*")
	return regexp.MustCompile("^" + escaped + "$")
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	if s.path != "" {
		_, _ = s.db.Exec("PRAGMA wal_checkpoint(TRUNCATE)")
	}
	return s.db.Close()
}

func sameFieldSet(a, b map[string]Field) bool {
	if len(a) != len(b) {
		return false
	}
	for name, fa := range a {
		fb, ok := b[name]
		if !ok || fa != fb {
			return false
		}
	}
	return true
}
