package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// ProcessedTransaction — маркер обработанного вебхука. Ключ — полная ссылка
// платежа, поэтому повторная доставка того же колбэка не меняет баланс.
type ProcessedTransaction struct {
	Reference    string
	UserID       string
	PurchaseType PurchaseType
	ProductID    string
	Amount       decimal.Decimal
	ProcessedAt  time.Time
}

// Notification — сообщение для пользователя, отправляемое через очередь.
type Notification struct {
	ID        string    `json:"id"`
	Address   string    `json:"address"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"createdAt"`
}
