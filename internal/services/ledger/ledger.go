// Package ledger — единственная точка изменения баланса и подписки
// пользователя. Все изменения выполняются атомарными примитивами хранилища,
// значение баланса не читается в память для последующей записи.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

var (
	// ErrNegativeDelta — количество токенов для начисления или списания отрицательно.
	ErrNegativeDelta = errors.New("token delta must not be negative")
	// ErrInvalidDuration — длительность подписки не положительна.
	ErrInvalidDuration = errors.New("subscription duration must be positive")
	// ErrAmountOutOfRange — ручная корректировка больше MaxAdjustment по модулю.
	ErrAmountOutOfRange = errors.New("adjustment amount out of range")
)

// MaxAdjustment — предел модуля одной ручной корректировки.
const MaxAdjustment = 1_000_000_000

// RenewalPolicy определяет, как повторная покупка подписки влияет на дату окончания.
type RenewalPolicy string

const (
	// RenewReset — срок отсчитывается от момента активации, остаток сгорает.
	RenewReset RenewalPolicy = "reset"
	// RenewExtend — срок добавляется к действующей подписке.
	RenewExtend RenewalPolicy = "extend"
)

// DefaultStartingBalance — токены нового пользователя.
const DefaultStartingBalance = 20

// Options — параметры учёта.
type Options struct {
	StartingBalance int64
	Renewal         RenewalPolicy
	Now             func() time.Time
}

func (o Options) withDefaults() Options {
	if o.Renewal == "" {
		o.Renewal = RenewReset
	}
	if o.Now == nil {
		o.Now = time.Now
	}
	return o
}

// Ledger выполняет операции над балансом через q: автокоммит-хранилище
// или открытую транзакцию.
type Ledger struct {
	q    storage.Queries
	opts Options
}

// New привязывает операции учёта к q.
func New(q storage.Queries, opts Options) *Ledger {
	return &Ledger{q: q, opts: opts.withDefaults()}
}

// GetOrCreate возвращает пользователя, создавая его со стартовым балансом.
func (l *Ledger) GetOrCreate(ctx context.Context, userID string) (*models.User, error) {
	const op = "ledger.GetOrCreate"
	u, err := l.q.GetOrCreateUser(ctx, userID, l.opts.StartingBalance)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetBalance возвращает баланс существующего пользователя.
func (l *Ledger) GetBalance(ctx context.Context, userID string) (int64, error) {
	const op = "ledger.GetBalance"
	u, err := l.q.GetUser(ctx, userID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return u.TokensBalance, nil
}

// Credit начисляет delta токенов, создавая пользователя при необходимости.
// Возвращает новый баланс.
func (l *Ledger) Credit(ctx context.Context, userID string, delta int64) (int64, error) {
	const op = "ledger.Credit"
	if delta < 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrNegativeDelta)
	}
	if _, err := l.q.GetOrCreateUser(ctx, userID, l.opts.StartingBalance); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	balance, err := l.q.IncrementBalance(ctx, userID, delta)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

// Debit списывает delta токенов. Баланс не опускается ниже нуля, излишек
// списания отбрасывается. Для неизвестного пользователя storage.ErrUserNotFound.
func (l *Ledger) Debit(ctx context.Context, userID string, delta int64) (int64, error) {
	const op = "ledger.Debit"
	if delta < 0 {
		return 0, fmt.Errorf("%s: %w", op, ErrNegativeDelta)
	}
	balance, err := l.q.DecrementBalance(ctx, userID, delta)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

// Adjust — ручная корректировка: положительное amount начисляет, отрицательное
// списывает с обнулением. Пользователь должен существовать.
func (l *Ledger) Adjust(ctx context.Context, userID string, amount int64) (int64, error) {
	const op = "ledger.Adjust"
	if amount > MaxAdjustment || amount < -MaxAdjustment {
		return 0, fmt.Errorf("%s: %d: %w", op, amount, ErrAmountOutOfRange)
	}
	if _, err := l.q.GetUser(ctx, userID); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}

	var (
		balance int64
		err     error
	)
	if amount >= 0 {
		balance, err = l.q.IncrementBalance(ctx, userID, amount)
	} else {
		balance, err = l.q.DecrementBalance(ctx, userID, -amount)
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

// ActivateSubscription включает план planTag на durationDays дней и
// возвращает дату окончания. При политике extend срок отсчитывается от
// окончания действующей подписки.
func (l *Ledger) ActivateSubscription(ctx context.Context, userID, planTag string, durationDays int) (time.Time, error) {
	const op = "ledger.ActivateSubscription"
	if durationDays <= 0 {
		return time.Time{}, fmt.Errorf("%s: %w", op, ErrInvalidDuration)
	}

	u, err := l.q.GetOrCreateUser(ctx, userID, l.opts.StartingBalance)
	if err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}

	activated := l.opts.Now()
	from := activated
	if l.opts.Renewal == RenewExtend {
		if u, err = l.q.LockUser(ctx, userID); err != nil {
			return time.Time{}, fmt.Errorf("%s: %w", op, err)
		}
		if u.HasActiveSubscription(activated) {
			from = *u.SubscriptionExpiry
		}
	}
	expiry := from.AddDate(0, 0, durationDays)

	if err := l.q.SetSubscription(ctx, userID, planTag, expiry); err != nil {
		return time.Time{}, fmt.Errorf("%s: %w", op, err)
	}
	return expiry, nil
}

// SetPhoneNumber сохраняет номер для уведомлений, создавая пользователя при необходимости.
func (l *Ledger) SetPhoneNumber(ctx context.Context, userID, phone string) error {
	const op = "ledger.SetPhoneNumber"
	if _, err := l.q.GetOrCreateUser(ctx, userID, l.opts.StartingBalance); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := l.q.SetPhoneNumber(ctx, userID, phone); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
