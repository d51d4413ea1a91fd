// Package jwt выпускает и проверяет токены операторов для административных
// маршрутов.
package jwt

import (
	"errors"
	"time"
)

// RoleAdmin — роль, дающая доступ к ручной корректировке баланса.
const RoleAdmin = "admin"

// ErrInvalidToken — подпись, срок или структура токена некорректны.
var ErrInvalidToken = errors.New("invalid token")

// Maker описывает генерацию и разбор токенов.
type Maker interface {
	GenerateToken(subject, role string) (string, error)
	ParseToken(tokenStr string) (*Claims, error)
}

// HMACMaker подписывает токены HS256 общим секретом.
type HMACMaker struct {
	secretKey []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// NewMaker создаёт HMACMaker с секретом и временем жизни токена.
func NewMaker(secretKey string, ttl time.Duration) *HMACMaker {
	return &HMACMaker{
		secretKey: []byte(secretKey),
		tokenTTL:  ttl,
		now:       time.Now,
	}
}
