package payment

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/token-billing/internal/lib/reference"
	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

type brokenCatalog struct {
	storage.Catalog
}

func (brokenCatalog) FindProduct(context.Context, models.PurchaseType, string) (models.Product, error) {
	return nil, errors.New("connection refused")
}

func TestValidator_Validate(t *testing.T) {
	tests := []struct {
		name       string
		ref        reference.Reference
		amount     decimal.Decimal
		wantReason string
		wantID     string
	}{
		{
			name:   "token package with exact amount",
			ref:    reference.Reference{UserID: "u1", PurchaseType: "TokenPackage", ProductID: "pkg_500"},
			amount: decimal.RequireFromString("35.00"),
			wantID: "pkg_500",
		},
		{
			name:   "data plan",
			ref:    reference.Reference{UserID: "u1", PurchaseType: "DataPlan", ProductID: "dp_1gb"},
			amount: decimal.NewFromInt(19),
			wantID: "dp_1gb",
		},
		{
			name:       "unknown purchase type",
			ref:        reference.Reference{UserID: "u1", PurchaseType: "Gift", ProductID: "pkg_500"},
			amount:     decimal.NewFromInt(35),
			wantReason: ReasonUnknownPurchaseType,
		},
		{
			name:       "product of another variant",
			ref:        reference.Reference{UserID: "u1", PurchaseType: "DataPlan", ProductID: "pkg_500"},
			amount:     decimal.NewFromInt(35),
			wantReason: ReasonProductNotFound,
		},
		{
			name:       "amount mismatch",
			ref:        reference.Reference{UserID: "u1", PurchaseType: "TokenPackage", ProductID: "pkg_500"},
			amount:     decimal.NewFromInt(20),
			wantReason: ReasonAmountMismatch,
		},
		{
			name:       "fractional amount mismatch",
			ref:        reference.Reference{UserID: "u1", PurchaseType: "TokenPackage", ProductID: "pkg_500"},
			amount:     decimal.RequireFromString("35.01"),
			wantReason: ReasonAmountMismatch,
		},
		{
			name:       "subscription without duration",
			ref:        reference.Reference{UserID: "u1", PurchaseType: "TokenPackage", ProductID: "sub_broken"},
			amount:     decimal.NewFromInt(10),
			wantReason: ReasonInvalidProduct,
		},
	}

	v := NewValidator(testCatalog())
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			product, err := v.Validate(context.Background(), tt.ref, tt.amount)
			if tt.wantReason != "" {
				var verr *ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Equal(t, tt.wantReason, verr.Reason)
				assert.Nil(t, product)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, product.ProductID())
		})
	}
}

func TestValidator_CatalogError(t *testing.T) {
	v := NewValidator(brokenCatalog{})
	_, err := v.Validate(context.Background(),
		reference.Reference{UserID: "u1", PurchaseType: "TokenPackage", ProductID: "pkg_500"},
		decimal.NewFromInt(35))

	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, ReasonCatalogError, verr.Reason)
	assert.Contains(t, err.Error(), "connection refused")
}
