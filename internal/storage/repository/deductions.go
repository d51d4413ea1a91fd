package repository

import (
	"context"
	"fmt"
	"time"
)

// FindProcessedDeductions возвращает уже учтённые идентификаторы из ids.
func (q *queries) FindProcessedDeductions(ctx context.Context, ids []string) ([]string, error) {
	const op = "storage.FindProcessedDeductions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if len(ids) == 0 {
		return nil, nil
	}

	query := `SELECT deduction_id FROM processed_deductions
			  WHERE deduction_id = ANY($1)`
	return q.collectIDs(ctx, op, query, ids)
}

// InsertProcessedDeductions вставляет маркеры списаний. Конфликт по
// deduction_id пропускается, RETURNING отдаёт только вставленные строки.
func (q *queries) InsertProcessedDeductions(ctx context.Context, userID string, ids []string, at time.Time) ([]string, error) {
	const op = "storage.InsertProcessedDeductions"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if len(ids) == 0 {
		return nil, nil
	}

	query := `INSERT INTO processed_deductions (deduction_id, user_id, processed_at)
			  SELECT id, $2, $3 FROM unnest($1::text[]) AS id
			  ON CONFLICT (deduction_id) DO NOTHING
			  RETURNING deduction_id`
	return q.collectIDs(ctx, op, query, ids, userID, at)
}

func (q *queries) collectIDs(ctx context.Context, op, query string, args ...any) ([]string, error) {
	rows, err := q.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, id)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
