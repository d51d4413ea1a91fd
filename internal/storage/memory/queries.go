package memory

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

// queries работает с состоянием без блокировок: вызывающий уже держит мьютекс.
type queries struct {
	st  *state
	now func() time.Time
}

func checkCtx(ctx context.Context, op string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
		return nil
	}
}

func (q *queries) GetOrCreateUser(ctx context.Context, userID string, startingBalance int64) (*models.User, error) {
	const op = "memory.GetOrCreateUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	u, ok := q.st.users[userID]
	if !ok {
		now := q.now()
		u = models.User{ID: userID, TokensBalance: startingBalance, CreatedAt: now, UpdatedAt: now}
		q.st.users[userID] = u
	}
	return &u, nil
}

func (q *queries) GetUser(ctx context.Context, userID string) (*models.User, error) {
	const op = "memory.GetUser"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	u, ok := q.st.users[userID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	return &u, nil
}

func (q *queries) LockUser(ctx context.Context, userID string) (*models.User, error) {
	return q.GetUser(ctx, userID)
}

func (q *queries) update(ctx context.Context, op, userID string, fn func(u *models.User)) (*models.User, error) {
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	u, ok := q.st.users[userID]
	if !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	fn(&u)
	u.UpdatedAt = q.now()
	q.st.users[userID] = u
	return &u, nil
}

func (q *queries) IncrementBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	u, err := q.update(ctx, "memory.IncrementBalance", userID, func(u *models.User) {
		u.TokensBalance += delta
	})
	if err != nil {
		return 0, err
	}
	return u.TokensBalance, nil
}

func (q *queries) DecrementBalance(ctx context.Context, userID string, delta int64) (int64, error) {
	u, err := q.update(ctx, "memory.DecrementBalance", userID, func(u *models.User) {
		u.TokensBalance = max(u.TokensBalance-delta, 0)
	})
	if err != nil {
		return 0, err
	}
	return u.TokensBalance, nil
}

func (q *queries) SetSubscription(ctx context.Context, userID, tag string, expiry time.Time) error {
	_, err := q.update(ctx, "memory.SetSubscription", userID, func(u *models.User) {
		u.SubscriptionTag = &tag
		u.SubscriptionExpiry = &expiry
	})
	return err
}

func (q *queries) SetPhoneNumber(ctx context.Context, userID, phone string) error {
	_, err := q.update(ctx, "memory.SetPhoneNumber", userID, func(u *models.User) {
		u.PhoneNumber = &phone
	})
	return err
}

func (q *queries) FindProcessedDeductions(ctx context.Context, ids []string) ([]string, error) {
	const op = "memory.FindProcessedDeductions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	var found []string
	seen := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := q.st.deductions[id]; ok {
			found = append(found, id)
		}
	}
	return found, nil
}

func (q *queries) InsertProcessedDeductions(ctx context.Context, userID string, ids []string, at time.Time) ([]string, error) {
	const op = "memory.InsertProcessedDeductions"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return nil, nil
	}
	if _, ok := q.st.users[userID]; !ok {
		return nil, fmt.Errorf("%s: %w", op, storage.ErrUserNotFound)
	}
	var inserted []string
	for _, id := range ids {
		if _, ok := q.st.deductions[id]; ok {
			continue
		}
		q.st.deductions[id] = models.ProcessedDeduction{DeductionID: id, UserID: userID, ProcessedAt: at}
		inserted = append(inserted, id)
	}
	return inserted, nil
}

func (q *queries) ClaimTransaction(ctx context.Context, txn models.ProcessedTransaction) (bool, error) {
	const op = "memory.ClaimTransaction"
	if err := checkCtx(ctx, op); err != nil {
		return false, err
	}
	if _, ok := q.st.transactions[txn.Reference]; ok {
		return false, nil
	}
	q.st.transactions[txn.Reference] = txn
	return true, nil
}
