// Package deduction применяет списания, о которых сообщают клиенты, ровно
// один раз: идентификатор списания фиксируется маркером в той же транзакции,
// что и уменьшение баланса.
package deduction

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/token-billing/internal/storage"
)

// Guard отслеживает уже учтённые идентификаторы списаний.
type Guard struct {
	now func() time.Time
}

// NewGuard создаёт Guard.
func NewGuard() *Guard {
	return &Guard{now: time.Now}
}

// FilterUnprocessed убирает повторы внутри пакета и идентификаторы,
// которые уже учтены. Порядок первых вхождений сохраняется.
func (g *Guard) FilterUnprocessed(ctx context.Context, q storage.Queries, userID string, candidateIDs []string) ([]string, error) {
	const op = "deduction.FilterUnprocessed"

	unique := make([]string, 0, len(candidateIDs))
	seen := make(map[string]struct{}, len(candidateIDs))
	for _, id := range candidateIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		unique = append(unique, id)
	}
	if len(unique) == 0 {
		return nil, nil
	}

	processed, err := q.FindProcessedDeductions(ctx, unique)
	if err != nil {
		return nil, fmt.Errorf("%s: user %s: %w", op, userID, err)
	}
	done := make(map[string]struct{}, len(processed))
	for _, id := range processed {
		done[id] = struct{}{}
	}

	fresh := unique[:0]
	for _, id := range unique {
		if _, ok := done[id]; !ok {
			fresh = append(fresh, id)
		}
	}
	return fresh, nil
}

// MarkProcessed записывает маркеры и возвращает идентификаторы, которые
// записал именно этот вызов. Только они подлежат списанию.
func (g *Guard) MarkProcessed(ctx context.Context, q storage.Queries, userID string, ids []string) ([]string, error) {
	const op = "deduction.MarkProcessed"
	if len(ids) == 0 {
		return nil, nil
	}
	marked, err := q.InsertProcessedDeductions(ctx, userID, ids, g.now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return marked, nil
}
