package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

const userColumns = `user_id, tokens_balance, phone_number, subscription_tag,
			      subscription_expiry, created_at, updated_at`

// GetOrCreateUser возвращает пользователя, создавая его со стартовым балансом.
func (q *queries) GetOrCreateUser(ctx context.Context, userID string, startingBalance int64) (*models.User, error) {
	const op = "storage.GetOrCreateUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO users (user_id, tokens_balance)
			  VALUES ($1, $2)
			  ON CONFLICT (user_id) DO NOTHING`
	if _, err := q.db.ExecContext(ctx, query, userID, startingBalance); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	u, err := q.selectUser(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// GetUser возвращает пользователя по идентификатору.
func (q *queries) GetUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u, err := q.selectUser(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// LockUser читает пользователя с блокировкой строки до конца транзакции.
func (q *queries) LockUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "storage.LockUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u, err := q.selectUser(ctx, `SELECT `+userColumns+` FROM users WHERE user_id = $1 FOR UPDATE`, userID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return u, nil
}

// IncrementBalance увеличивает баланс на delta одной командой UPDATE.
func (q *queries) IncrementBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	const op = "storage.IncrementBalance"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET tokens_balance = tokens_balance + $2, updated_at = NOW()
			  WHERE user_id = $1
			  RETURNING tokens_balance`
	var balance int64
	if err := q.db.QueryRowContext(ctx, query, userID, delta).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

// DecrementBalance уменьшает баланс на delta, ограничивая результат нулём.
func (q *queries) DecrementBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	const op = "storage.DecrementBalance"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET tokens_balance = GREATEST(tokens_balance - $2, 0), updated_at = NOW()
			  WHERE user_id = $1
			  RETURNING tokens_balance`
	var balance int64
	if err := q.db.QueryRowContext(ctx, query, userID, delta).Scan(&balance); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
		}
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return balance, nil
}

// SetSubscription записывает план и дату окончания подписки.
func (q *queries) SetSubscription(ctx context.Context, userID, tag string, expiry time.Time) error {
	const op = "storage.SetSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET subscription_tag = $2, subscription_expiry = $3, updated_at = NOW()
			  WHERE user_id = $1`
	return q.execOnUser(ctx, op, query, userID, tag, expiry)
}

// SetPhoneNumber сохраняет контактный номер пользователя.
func (q *queries) SetPhoneNumber(ctx context.Context, userID, phone string) error {
	const op = "storage.SetPhoneNumber"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `UPDATE users
			  SET phone_number = $2, updated_at = NOW()
			  WHERE user_id = $1`
	return q.execOnUser(ctx, op, query, userID, phone)
}

func (q *queries) execOnUser(ctx context.Context, op, query, userID string, args ...any) error {
	result, err := q.db.ExecContext(ctx, query, append([]any{userID}, args...)...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return nil
}

func (q *queries) selectUser(ctx context.Context, query, userID string) (*models.User, error) {
	var (
		u                  models.User
		phone, tag         sql.NullString
		subscriptionExpiry sql.NullTime
	)
	err := q.db.QueryRowContext(ctx, query, userID).Scan(&u.ID, &u.TokensBalance, &phone, &tag,
		&subscriptionExpiry, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrUserNotFound
		}
		return nil, err
	}

	if phone.Valid {
		u.PhoneNumber = &phone.String
	}
	if tag.Valid {
		u.SubscriptionTag = &tag.String
	}
	if subscriptionExpiry.Valid {
		u.SubscriptionExpiry = &subscriptionExpiry.Time
	}
	return &u, nil
}
