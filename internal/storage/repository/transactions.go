package repository

import (
	"context"
	"fmt"

	"github.com/magabrotheeeer/token-billing/internal/models"
)

// ClaimTransaction вставляет маркер обработанного платежа по ссылке.
// Возвращает false, если ссылка уже была обработана.
func (q *queries) ClaimTransaction(ctx context.Context, txn models.ProcessedTransaction) (bool, error) {
	const op = "storage.ClaimTransaction"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO processed_transactions (reference, user_id, purchase_type,
			      product_id, amount, processed_at)
			  VALUES ($1, $2, $3, $4, $5, $6)
			  ON CONFLICT (reference) DO NOTHING`
	result, err := q.db.ExecContext(ctx, query,
		txn.Reference, txn.UserID, string(txn.PurchaseType), txn.ProductID, txn.Amount, txn.ProcessedAt)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return rowsAffected == 1, nil
}
