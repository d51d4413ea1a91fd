// Package payment сопоставляет колбэки платёжного шлюза с намерением покупки
// и применяет их к балансу ровно один раз, а также инициирует покупки.
package payment

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/token-billing/internal/lib/reference"
	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

// Причины отклонения платежа. Значения совпадают с метками метрик.
const (
	ReasonUnknownPurchaseType = "unknown_purchase_type"
	ReasonProductNotFound     = "product_not_found"
	ReasonAmountMismatch      = "amount_mismatch"
	ReasonInvalidProduct      = "invalid_product"
	ReasonCatalogError        = "catalog_error"
)

// ValidationError — платёж не соответствует каталогу.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment validation failed: %s: %v", e.Reason, e.Err)
	}
	return "payment validation failed: " + e.Reason
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validator проверяет ссылку и сумму по каталогу.
type Validator struct {
	catalog storage.Catalog
}

// NewValidator создаёт Validator поверх каталога.
func NewValidator(catalog storage.Catalog) *Validator {
	return &Validator{catalog: catalog}
}

// Validate возвращает продукт, на который указывает ссылка, если сумма
// совпадает с его ценой точно. Мутаций нет.
func (v *Validator) Validate(ctx context.Context, ref reference.Reference, amount decimal.Decimal) (models.Product, error) {
	purchaseType, err := models.ParsePurchaseType(ref.PurchaseType)
	if err != nil {
		return nil, &ValidationError{Reason: ReasonUnknownPurchaseType, Err: err}
	}
	return v.ValidateProduct(ctx, purchaseType, ref.ProductID, amount)
}

// ValidateProduct — то же, что Validate, для уже разобранного типа покупки.
func (v *Validator) ValidateProduct(ctx context.Context, purchaseType models.PurchaseType, productID string, amount decimal.Decimal) (models.Product, error) {
	product, err := v.catalog.FindProduct(ctx, purchaseType, productID)
	switch {
	case errors.Is(err, storage.ErrProductNotFound):
		return nil, &ValidationError{Reason: ReasonProductNotFound, Err: err}
	case err != nil:
		return nil, &ValidationError{Reason: ReasonCatalogError, Err: err}
	}

	if !product.Price().Equal(amount) {
		return nil, &ValidationError{
			Reason: ReasonAmountMismatch,
			Err:    fmt.Errorf("paid %s, price %s", amount, product.Price()),
		}
	}

	switch p := product.(type) {
	case *models.TokenPackage:
		if p.IsSubscription && p.DurationDays <= 0 {
			return nil, &ValidationError{
				Reason: ReasonInvalidProduct,
				Err:    fmt.Errorf("subscription %s has duration %d days", p.ID, p.DurationDays),
			}
		}
	case *models.DataPlan:
	default:
		return nil, &ValidationError{Reason: ReasonInvalidProduct, Err: fmt.Errorf("unsupported product %T", product)}
	}
	return product, nil
}
