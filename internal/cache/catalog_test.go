package cache

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

type MockCatalog struct {
	mock.Mock
}

func (m *MockCatalog) FindProduct(ctx context.Context, purchaseType models.PurchaseType, productID string) (models.Product, error) {
	args := m.Called(ctx, purchaseType, productID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(models.Product), args.Error(1)
}

func (m *MockCatalog) ListTokenPackages(ctx context.Context) ([]*models.TokenPackage, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.TokenPackage), args.Error(1)
}

func (m *MockCatalog) ListDataPlans(ctx context.Context) ([]*models.DataPlan, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.DataPlan), args.Error(1)
}

func TestCatalogCache_FindProduct(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	pkg := &models.TokenPackage{ID: "package_500", Amount: decimal.NewFromInt(35), Tokens: 150}
	next := new(MockCatalog)
	next.On("FindProduct", mock.Anything, models.PurchaseTokenPackage, "package_500").Return(pkg, nil).Once()

	cc := NewCatalogCache(next, c, time.Minute, newNoopLogger())

	for range 3 {
		p, err := cc.FindProduct(ctx, models.PurchaseTokenPackage, "package_500")
		require.NoError(t, err)
		got, ok := p.(*models.TokenPackage)
		require.True(t, ok)
		assert.Equal(t, int64(150), got.Tokens)
		assert.True(t, got.Price().Equal(decimal.NewFromInt(35)))
	}
	next.AssertNumberOfCalls(t, "FindProduct", 1)
}

func TestCatalogCache_DataPlanVariantPreserved(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	plan := &models.DataPlan{ID: "dp_1gb_1h", PlanName: "1GB 1 Hour", Amount: decimal.NewFromInt(19)}
	next := new(MockCatalog)
	next.On("FindProduct", mock.Anything, models.PurchaseDataPlan, "dp_1gb_1h").Return(plan, nil).Once()

	cc := NewCatalogCache(next, c, time.Minute, newNoopLogger())
	_, err := cc.FindProduct(ctx, models.PurchaseDataPlan, "dp_1gb_1h")
	require.NoError(t, err)

	p, err := cc.FindProduct(ctx, models.PurchaseDataPlan, "dp_1gb_1h")
	require.NoError(t, err)
	assert.Equal(t, models.PurchaseDataPlan, p.PurchaseType())
	assert.Equal(t, "1GB 1 Hour", p.(*models.DataPlan).PlanName)
}

func TestCatalogCache_NotFoundIsNotCached(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	next := new(MockCatalog)
	next.On("FindProduct", mock.Anything, models.PurchaseTokenPackage, "ghost").Return(nil, storage.ErrProductNotFound).Twice()

	cc := NewCatalogCache(next, c, time.Minute, newNoopLogger())
	for range 2 {
		_, err := cc.FindProduct(ctx, models.PurchaseTokenPackage, "ghost")
		assert.ErrorIs(t, err, storage.ErrProductNotFound)
	}
	next.AssertExpectations(t)
}

func TestCatalogCache_RedisDownFallsThrough(t *testing.T) {
	c, mr := setupTestCache(t)
	ctx := context.Background()

	pkg := &models.TokenPackage{ID: "package_100", Amount: decimal.NewFromInt(15), Tokens: 50}
	next := new(MockCatalog)
	next.On("FindProduct", mock.Anything, models.PurchaseTokenPackage, "package_100").Return(pkg, nil)
	next.On("ListTokenPackages", mock.Anything).Return([]*models.TokenPackage{pkg}, nil)

	cc := NewCatalogCache(next, c, time.Minute, newNoopLogger())
	mr.Close()

	p, err := cc.FindProduct(ctx, models.PurchaseTokenPackage, "package_100")
	require.NoError(t, err)
	assert.Equal(t, "package_100", p.ProductID())

	list, err := cc.ListTokenPackages(ctx)
	require.NoError(t, err)
	assert.Len(t, list, 1)
}

func TestCatalogCache_Lists(t *testing.T) {
	c, _ := setupTestCache(t)
	ctx := context.Background()

	next := new(MockCatalog)
	next.On("ListTokenPackages", mock.Anything).Return([]*models.TokenPackage{{ID: "package_100"}}, nil).Once()
	next.On("ListDataPlans", mock.Anything).Return([]*models.DataPlan{{ID: "dp_1gb_1h"}}, nil).Once()

	cc := NewCatalogCache(next, c, time.Minute, newNoopLogger())
	for range 2 {
		packages, err := cc.ListTokenPackages(ctx)
		require.NoError(t, err)
		assert.Equal(t, "package_100", packages[0].ID)

		plans, err := cc.ListDataPlans(ctx)
		require.NoError(t, err)
		assert.Equal(t, "dp_1gb_1h", plans[0].ID)
	}
	next.AssertExpectations(t)
}
