// Package models содержит доменные структуры сервиса: пользователя с балансом
// токенов, продукты каталога, записи об обработанных списаниях и платежах.
package models

import "time"

// User представляет анонимного пользователя мобильного приложения.
// Идентификатор назначается клиентом и может содержать любые символы.
type User struct {
	ID                 string     `json:"userId"`
	TokensBalance      int64      `json:"tokensBalance"`
	PhoneNumber        *string    `json:"phoneNumber,omitempty"`        // Номер для уведомлений
	SubscriptionTag    *string    `json:"subscriptionTag,omitempty"`    // Активный план подписки
	SubscriptionExpiry *time.Time `json:"subscriptionExpiry,omitempty"` // Дата окончания подписки
	CreatedAt          time.Time  `json:"createdAt"`
	UpdatedAt          time.Time  `json:"updatedAt"`
}

// Contact возвращает адрес для уведомлений и признак его наличия.
func (u *User) Contact() (string, bool) {
	if u == nil || u.PhoneNumber == nil || *u.PhoneNumber == "" {
		return "", false
	}
	return *u.PhoneNumber, true
}

// HasActiveSubscription сообщает, действует ли подписка на момент now.
func (u *User) HasActiveSubscription(now time.Time) bool {
	return u != nil && u.SubscriptionExpiry != nil && u.SubscriptionExpiry.After(now)
}
