package deduction

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/token-billing/internal/metrics"
	"github.com/magabrotheeeer/token-billing/internal/services/ledger"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

// ErrEmptyBatch — в запросе нет ни одного списания.
var ErrEmptyBatch = errors.New("empty deduction batch")

// SyncResult — итог синхронизации пакета.
type SyncResult struct {
	NewBalance int64
	Applied    int
	Skipped    int
}

// Service синхронизирует списания клиента с балансом.
type Service struct {
	ledger *ledger.Service
	guard  *Guard
	log    *slog.Logger
}

// NewService создаёт сервис синхронизации.
func NewService(ledgerService *ledger.Service, guard *Guard, log *slog.Logger) *Service {
	return &Service{ledger: ledgerService, guard: guard, log: log}
}

// Sync применяет новые списания из ids одной транзакцией: блокировка строки
// пользователя, фильтр, запись маркеров, уменьшение баланса на число
// записанных маркеров. Для неизвестного пользователя storage.ErrUserNotFound.
func (s *Service) Sync(ctx context.Context, userID string, ids []string) (SyncResult, error) {
	const op = "deduction.Sync"
	if len(ids) == 0 {
		return SyncResult{}, fmt.Errorf("%s: %w", op, ErrEmptyBatch)
	}

	var result SyncResult
	err := s.ledger.Atomically(ctx, func(l *ledger.Ledger, q storage.Queries) error {
		user, err := q.LockUser(ctx, userID)
		if err != nil {
			return err
		}
		result = SyncResult{NewBalance: user.TokensBalance}

		fresh, err := s.guard.FilterUnprocessed(ctx, q, userID, ids)
		if err != nil {
			return err
		}
		marked, err := s.guard.MarkProcessed(ctx, q, userID, fresh)
		if err != nil {
			return err
		}
		if len(marked) == 0 {
			return nil
		}

		balance, err := l.Debit(ctx, userID, int64(len(marked)))
		if err != nil {
			return err
		}
		result.NewBalance = balance
		result.Applied = len(marked)
		return nil
	})
	if err != nil {
		return SyncResult{}, fmt.Errorf("%s: %w", op, err)
	}

	result.Skipped = len(ids) - result.Applied
	metrics.DeductionsTotal.WithLabelValues("applied").Add(float64(result.Applied))
	metrics.DeductionsTotal.WithLabelValues("skipped").Add(float64(result.Skipped))

	s.log.Info("deductions synced",
		slog.String("op", op),
		slog.String("user_id", userID),
		slog.Int("applied", result.Applied),
		slog.Int("skipped", result.Skipped),
		slog.Int64("new_balance", result.NewBalance),
	)
	return result, nil
}
