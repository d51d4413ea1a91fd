// Package storage описывает контракты хранилища баланса пользователей,
// маркеров обработанных списаний и платежей, а также каталога продуктов.
// Реализации: repository (PostgreSQL) и memory.
package storage

import (
	"context"
	"errors"
	"time"

	"github.com/magabrotheeeer/token-billing/internal/models"
)

var (
	// ErrUserNotFound — пользователь отсутствует.
	ErrUserNotFound = errors.New("user not found")
	// ErrProductNotFound — продукт отсутствует в каталоге.
	ErrProductNotFound = errors.New("product not found")
)

// Queries — примитивы, доступные как вне транзакции, так и внутри неё.
// Изменение баланса выполняется одной операцией хранилища, без
// чтения значения в память и записи обратно.
type Queries interface {
	// GetOrCreateUser возвращает пользователя, создавая его со стартовым балансом.
	GetOrCreateUser(ctx context.Context, userID string, startingBalance int64) (*models.User, error)
	// GetUser возвращает пользователя или ErrUserNotFound.
	GetUser(ctx context.Context, userID string) (*models.User, error)
	// LockUser блокирует строку пользователя до конца транзакции.
	LockUser(ctx context.Context, userID string) (*models.User, error)
	// IncrementBalance атомарно увеличивает баланс и возвращает новое значение.
	IncrementBalance(ctx context.Context, userID string, delta int64) (int64, error)
	// DecrementBalance атомарно уменьшает баланс, не опуская его ниже нуля.
	DecrementBalance(ctx context.Context, userID string, delta int64) (int64, error)
	// SetSubscription записывает план и дату окончания подписки.
	SetSubscription(ctx context.Context, userID, tag string, expiry time.Time) error
	// SetPhoneNumber сохраняет контактный номер пользователя.
	SetPhoneNumber(ctx context.Context, userID, phone string) error

	// FindProcessedDeductions возвращает те идентификаторы из ids, что уже учтены.
	FindProcessedDeductions(ctx context.Context, ids []string) ([]string, error)
	// InsertProcessedDeductions записывает маркеры и возвращает идентификаторы,
	// которые были вставлены этим вызовом. Существующие пропускаются.
	InsertProcessedDeductions(ctx context.Context, userID string, ids []string, at time.Time) ([]string, error)

	// ClaimTransaction вставляет маркер обработанного платежа.
	// false означает, что ссылка уже была обработана.
	ClaimTransaction(ctx context.Context, txn models.ProcessedTransaction) (bool, error)
}

// Store — хранилище с поддержкой транзакций.
type Store interface {
	Queries
	// WithinTx выполняет fn в одной транзакции. Ошибка fn откатывает все изменения.
	WithinTx(ctx context.Context, fn func(q Queries) error) error
}

// Catalog — внешний каталог продуктов, только чтение.
type Catalog interface {
	// FindProduct возвращает продукт или ErrProductNotFound.
	FindProduct(ctx context.Context, purchaseType models.PurchaseType, productID string) (models.Product, error)
	ListTokenPackages(ctx context.Context) ([]*models.TokenPackage, error)
	ListDataPlans(ctx context.Context) ([]*models.DataPlan, error)
}
