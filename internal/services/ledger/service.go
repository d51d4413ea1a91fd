package ledger

import (
	"context"

	"github.com/magabrotheeeer/token-billing/internal/storage"
)

// Service — учёт поверх хранилища с транзакциями. Встроенный Ledger
// выполняет каждую операцию отдельно, Atomically объединяет несколько.
type Service struct {
	*Ledger
	store storage.Store
}

// NewService создаёт сервис учёта.
func NewService(store storage.Store, opts Options) *Service {
	return &Service{
		Ledger: New(store, opts),
		store:  store,
	}
}

// Atomically выполняет fn в одной транзакции. fn получает Ledger, привязанный
// к транзакции, и сами запросы для маркеров идемпотентности.
func (s *Service) Atomically(ctx context.Context, fn func(l *Ledger, q storage.Queries) error) error {
	return s.store.WithinTx(ctx, func(q storage.Queries) error {
		return fn(New(q, s.opts), q)
	})
}
