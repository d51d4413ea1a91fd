// Package repository реализует хранилище на основе PostgreSQL: баланс
// пользователей, маркеры обработанных списаний и платежей, каталог продуктов.
package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/magabrotheeeer/token-billing/internal/storage"
)

// executor — общее подмножество *sql.DB и *sql.Tx.
type executor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// queries реализует storage.Queries поверх соединения или транзакции.
type queries struct {
	db executor
}

// Storage инкапсулирует соединение с базой данных PostgreSQL.
type Storage struct {
	*queries
	DB *sql.DB
}

var (
	_ storage.Store   = (*Storage)(nil)
	_ storage.Catalog = (*Storage)(nil)
)

// New создаёт подключение к PostgreSQL и проверяет его доступность.
func New(ctx context.Context, storageConnectionString string) (*Storage, error) {
	const op = "storage.New"

	db, err := sql.Open("pgx", storageConnectionString)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Storage{
		queries: &queries{db: db},
		DB:      db,
	}, nil
}

// WithinTx выполняет fn в транзакции уровня READ COMMITTED.
// Конкурентные изменения одного пользователя сериализуются блокировкой строки
// (LockUser) и уникальными ключами маркеров.
func (s *Storage) WithinTx(ctx context.Context, fn func(q storage.Queries) error) error {
	const op = "storage.WithinTx"

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	// после Commit откат возвращает sql.ErrTxDone, это ожидаемо
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(&queries{db: tx}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// Close закрывает пул соединений.
func (s *Storage) Close() error {
	return s.DB.Close()
}

// CheckDatabaseReady проверяет, что миграции применены.
func CheckDatabaseReady(ctx context.Context, s *Storage) error {
	var exists bool
	err := s.DB.QueryRowContext(ctx, `SELECT EXISTS (
        SELECT FROM information_schema.tables
        WHERE table_name = 'users'
    )`).Scan(&exists)
	if err != nil {
		return fmt.Errorf("required table users query error: %w", err)
	}
	if !exists {
		return errors.New("required table users missing")
	}
	return nil
}
