package models

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// PurchaseType — тег варианта продукта, передаваемый в ссылке платежа.
type PurchaseType string

const (
	// PurchaseTokenPackage — пакет токенов или подписка.
	PurchaseTokenPackage PurchaseType = "TokenPackage"
	// PurchaseDataPlan — пакет мобильного интернета, выдаётся внешним исполнителем.
	PurchaseDataPlan PurchaseType = "DataPlan"
)

// ErrUnknownPurchaseType возвращается для тегов, которых нет в каталоге.
var ErrUnknownPurchaseType = errors.New("unknown purchase type")

// ParsePurchaseType приводит строку к известному типу покупки.
// Неизвестные значения отклоняются, варианта по умолчанию нет.
func ParsePurchaseType(s string) (PurchaseType, error) {
	switch PurchaseType(s) {
	case PurchaseTokenPackage:
		return PurchaseTokenPackage, nil
	case PurchaseDataPlan:
		return PurchaseDataPlan, nil
	default:
		return "", fmt.Errorf("%q: %w", s, ErrUnknownPurchaseType)
	}
}

// Product — продукт каталога. Реализации: *TokenPackage и *DataPlan.
type Product interface {
	ProductID() string
	Price() decimal.Decimal
	PurchaseType() PurchaseType
	sealed()
}

// TokenPackage — пакет токенов. Если IsSubscription, покупка активирует
// подписку на DurationDays дней вместо начисления токенов.
type TokenPackage struct {
	ID             string          `json:"id"`
	Label          string          `json:"label"`
	Icon           string          `json:"icon"`
	Amount         decimal.Decimal `json:"amount"`
	Tokens         int64           `json:"tokens"`
	IsSubscription bool            `json:"isSubscription"`
	DurationDays   int             `json:"durationDays"`
}

func (p *TokenPackage) ProductID() string          { return p.ID }
func (p *TokenPackage) Price() decimal.Decimal     { return p.Amount }
func (p *TokenPackage) PurchaseType() PurchaseType { return PurchaseTokenPackage }
func (p *TokenPackage) sealed()                    {}

// DataPlan — пакет мобильного интернета.
type DataPlan struct {
	ID               string          `json:"id"`
	PlanName         string          `json:"planName"`
	USSDCodeTemplate string          `json:"ussdCodeTemplate"`
	Placeholder      string          `json:"placeholder"`
	Amount           decimal.Decimal `json:"amount"`
}

func (p *DataPlan) ProductID() string          { return p.ID }
func (p *DataPlan) Price() decimal.Decimal     { return p.Amount }
func (p *DataPlan) PurchaseType() PurchaseType { return PurchaseDataPlan }
func (p *DataPlan) sealed()                    {}
