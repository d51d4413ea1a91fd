// Package memory — реализация хранилища в памяти процесса для тестов и
// локального запуска. Транзакция выполняется под общим мьютексом над копией
// состояния и публикуется только при успешном завершении.
package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

type state struct {
	users        map[string]models.User
	deductions   map[string]models.ProcessedDeduction
	transactions map[string]models.ProcessedTransaction
}

func newState() *state {
	return &state{
		users:        make(map[string]models.User),
		deductions:   make(map[string]models.ProcessedDeduction),
		transactions: make(map[string]models.ProcessedTransaction),
	}
}

func (s *state) clone() *state {
	c := &state{
		users:        make(map[string]models.User, len(s.users)),
		deductions:   make(map[string]models.ProcessedDeduction, len(s.deductions)),
		transactions: make(map[string]models.ProcessedTransaction, len(s.transactions)),
	}
	for k, v := range s.users {
		c.users[k] = v
	}
	for k, v := range s.deductions {
		c.deductions[k] = v
	}
	for k, v := range s.transactions {
		c.transactions[k] = v
	}
	return c
}

// Store хранит пользователей и маркеры в map под мьютексом.
type Store struct {
	mu  sync.Mutex
	st  *state
	now func() time.Time
}

var _ storage.Store = (*Store)(nil)

// New создаёт пустое хранилище.
func New() *Store {
	return &Store{st: newState(), now: time.Now}
}

// WithinTx выполняет fn над копией состояния, удерживая мьютекс всё время
// выполнения. Изменения видны остальным только если fn вернула nil.
func (s *Store) WithinTx(ctx context.Context, fn func(q storage.Queries) error) error {
	const op = "memory.WithinTx"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	staged := s.st.clone()
	if err := fn(&queries{st: staged, now: s.now}); err != nil {
		return err
	}
	s.st = staged
	return nil
}

func (s *Store) locked(fn func(q *queries) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(&queries{st: s.st, now: s.now})
}

func (s *Store) GetOrCreateUser(ctx context.Context, userID string, startingBalance int64) (u *models.User, err error) {
	err = s.locked(func(q *queries) error {
		u, err = q.GetOrCreateUser(ctx, userID, startingBalance)
		return err
	})
	return u, err
}

func (s *Store) GetUser(ctx context.Context, userID string) (u *models.User, err error) {
	err = s.locked(func(q *queries) error {
		u, err = q.GetUser(ctx, userID)
		return err
	})
	return u, err
}

func (s *Store) LockUser(ctx context.Context, userID string) (u *models.User, err error) {
	err = s.locked(func(q *queries) error {
		u, err = q.LockUser(ctx, userID)
		return err
	})
	return u, err
}

func (s *Store) IncrementBalance(ctx context.Context, userID string, delta int64) (b int64, err error) {
	err = s.locked(func(q *queries) error {
		b, err = q.IncrementBalance(ctx, userID, delta)
		return err
	})
	return b, err
}

func (s *Store) DecrementBalance(ctx context.Context, userID string, delta int64) (b int64, err error) {
	err = s.locked(func(q *queries) error {
		b, err = q.DecrementBalance(ctx, userID, delta)
		return err
	})
	return b, err
}

func (s *Store) SetSubscription(ctx context.Context, userID, tag string, expiry time.Time) error {
	return s.locked(func(q *queries) error {
		return q.SetSubscription(ctx, userID, tag, expiry)
	})
}

func (s *Store) SetPhoneNumber(ctx context.Context, userID, phone string) error {
	return s.locked(func(q *queries) error {
		return q.SetPhoneNumber(ctx, userID, phone)
	})
}

func (s *Store) FindProcessedDeductions(ctx context.Context, ids []string) (found []string, err error) {
	err = s.locked(func(q *queries) error {
		found, err = q.FindProcessedDeductions(ctx, ids)
		return err
	})
	return found, err
}

func (s *Store) InsertProcessedDeductions(ctx context.Context, userID string, ids []string, at time.Time) (inserted []string, err error) {
	err = s.locked(func(q *queries) error {
		inserted, err = q.InsertProcessedDeductions(ctx, userID, ids, at)
		return err
	})
	return inserted, err
}

func (s *Store) ClaimTransaction(ctx context.Context, txn models.ProcessedTransaction) (claimed bool, err error) {
	err = s.locked(func(q *queries) error {
		claimed, err = q.ClaimTransaction(ctx, txn)
		return err
	})
	return claimed, err
}
