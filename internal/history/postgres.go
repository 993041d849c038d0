package history

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PGStore is the Postgres-backed history log.
type PGStore struct {
	pool *pgxpool.Pool
}

// NewPGStore creates a history store over the given pool.
func NewPGStore(pool *pgxpool.Pool) *PGStore {
	return &PGStore{pool: pool}
}

const appendSQL = `
INSERT INTO balance_history (history_id, couple_id, question_id, category, option_a, option_b, played_on, answers, is_match)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (couple_id, question_id) DO NOTHING`

// Append inserts the record, deduplicating on (couple_id, question_id).
func (s *PGStore) Append(ctx context.Context, rec *Record) (bool, error) {
	if rec.ID == uuid.Nil {
		rec.ID = uuid.New()
	}
	answers, err := json.Marshal(rec.Answers)
	if err != nil {
		return false, fmt.Errorf("encode answers: %w", err)
	}

	tag, err := s.pool.Exec(ctx, appendSQL,
		rec.ID, rec.CoupleID, rec.QuestionID, rec.Category,
		rec.OptionA, rec.OptionB, rec.Date, answers, rec.IsMatch)
	if err != nil {
		return false, fmt.Errorf("append history: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

const listSQL = `
SELECT history_id, couple_id, question_id, category, option_a, option_b, played_on, answers, is_match, created_at
FROM balance_history
WHERE couple_id = $1
ORDER BY played_on DESC, created_at DESC`

// List returns the couple's archive, newest first.
func (s *PGStore) List(ctx context.Context, coupleID uuid.UUID) ([]Record, error) {
	rows, err := s.pool.Query(ctx, listSQL, coupleID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var answers []byte
		if err := rows.Scan(&rec.ID, &rec.CoupleID, &rec.QuestionID, &rec.Category,
			&rec.OptionA, &rec.OptionB, &rec.Date, &answers, &rec.IsMatch, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan history row: %w", err)
		}
		if err := json.Unmarshal(answers, &rec.Answers); err != nil {
			return nil, fmt.Errorf("decode answers: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// Delete removes a single record; used by the manual cleanup tool.
func (s *PGStore) Delete(ctx context.Context, coupleID, recordID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM balance_history WHERE couple_id = $1 AND history_id = $2`,
		coupleID, recordID)
	if err != nil {
		return fmt.Errorf("delete history item: %w", err)
	}
	return nil
}
