package store

import (
	"context"
	"fmt"

	lexerrors "github.com/aman-cerp/lexidex/internal/errors"
)

// TermFrequency is one row of the read-only terms/vocabulary view (spec
// §3: "Term statistics are maintained by the FTS engine; the Search Engine
// reads from a read-only terms view").
type TermFrequency struct {
	Term      string
	DocCount  int
}

func vocabTableName(index string) string {
	return fmt.Sprintf("fts_%s_vocab", index)
}

// ensureVocabTable lazily creates the fts5vocab shadow table backing the
// terms view for index, in 'row' mode (one row per distinct term with its
// document frequency).
func (s *Store) ensureVocabTable(ctx context.Context, index string) error {
	ddl := fmt.Sprintf(`CREATE VIRTUAL TABLE IF NOT EXISTS %s USING fts5vocab('fts_%s', 'row')`, vocabTableName(index), index)
	_, err := s.db.ExecContext(ctx, ddl)
	return err
}

// Terms returns every indexed term with document frequency >= minFrequency,
// capped at maxTerms, per spec §4.5's candidate-vocabulary contract.
func (s *Store) Terms(ctx context.Context, index string, minFrequency, maxTerms int) ([]TermFrequency, error) {
	s.mu.RLock()
	_, ok := s.indices[index]
	s.mu.RUnlock()
	if !ok {
		return nil, lexerrors.IndexNotFound(index)
	}

	if err := s.ensureVocabTable(ctx, index); err != nil {
		return nil, lexerrors.StorageError(err, "failed to initialize terms view")
	}

	query := fmt.Sprintf(`
		SELECT term, doc FROM %s
		WHERE doc >= ?
		ORDER BY doc DESC, term ASC
		LIMIT ?`, vocabTableName(index))
	rows, err := s.db.QueryContext(ctx, query, minFrequency, maxTerms)
	if err != nil {
		return nil, lexerrors.StorageError(err, "failed to read terms view")
	}
	defer rows.Close()

	var out []TermFrequency
	for rows.Next() {
		var tf TermFrequency
		if err := rows.Scan(&tf.Term, &tf.DocCount); err != nil {
			return nil, lexerrors.StorageError(err, "failed to scan term")
		}
		out = append(out, tf)
	}
	return out, rows.Err()
}
