package cache

import (
	"context"
	"fmt"
	"time"
)

// DedupChecker помечает ссылки платежей, по которым колбэк уже применён.
// Это только быстрый путь: доказательством обработки служит маркер в базе.
type DedupChecker struct {
	cache *Cache
	ttl   time.Duration
}

// NewDedupChecker создаёт проверку с временем жизни маркера ttl.
func NewDedupChecker(cache *Cache, ttl time.Duration) *DedupChecker {
	return &DedupChecker{cache: cache, ttl: ttl}
}

func dedupKey(reference string) string {
	return "webhook:processed:" + reference
}

// IsDuplicate сообщает, помечена ли ссылка.
func (d *DedupChecker) IsDuplicate(ctx context.Context, reference string) (bool, error) {
	const op = "cache.IsDuplicate"
	n, err := d.cache.Db.Exists(ctx, dedupKey(reference)).Result()
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return n > 0, nil
}

// Mark помечает ссылку как обработанную.
func (d *DedupChecker) Mark(ctx context.Context, reference string) error {
	const op = "cache.Mark"
	if err := d.cache.Db.Set(ctx, dedupKey(reference), 1, d.ttl).Err(); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
