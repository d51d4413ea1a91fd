package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

// Catalog — неизменяемый каталог продуктов в памяти.
type Catalog struct {
	packages map[string]*models.TokenPackage
	plans    map[string]*models.DataPlan
}

var _ storage.Catalog = (*Catalog)(nil)

// NewCatalog создаёт каталог из переданных продуктов.
func NewCatalog(packages []*models.TokenPackage, plans []*models.DataPlan) *Catalog {
	c := &Catalog{
		packages: make(map[string]*models.TokenPackage, len(packages)),
		plans:    make(map[string]*models.DataPlan, len(plans)),
	}
	for _, p := range packages {
		c.packages[p.ID] = p
	}
	for _, p := range plans {
		c.plans[p.ID] = p
	}
	return c
}

// DefaultCatalog возвращает каталог с теми же продуктами, что засевает миграция.
func DefaultCatalog() *Catalog {
	return NewCatalog(
		[]*models.TokenPackage{
			{ID: "package_100", Label: "50 Tokens", Icon: "token_small", Amount: decimal.NewFromInt(15), Tokens: 50},
			{ID: "package_500", Label: "150 Tokens", Icon: "token_medium", Amount: decimal.NewFromInt(35), Tokens: 150},
			{ID: "package_1000", Label: "250 Tokens", Icon: "token_large", Amount: decimal.NewFromInt(60), Tokens: 250},
			{ID: "sub_weekly", Label: "Unlimited 7 Days", Icon: "subscription", Amount: decimal.NewFromInt(99), IsSubscription: true, DurationDays: 7},
		},
		[]*models.DataPlan{
			{ID: "dp_1gb_1h", PlanName: "1GB 1 Hour", USSDCodeTemplate: "*180*5*2*{phone}*5*1#", Placeholder: "{phone}", Amount: decimal.NewFromInt(19)},
			{ID: "dp_250mb_24h", PlanName: "250MB 24 Hours", USSDCodeTemplate: "*180*5*2*{phone}*5*2#", Placeholder: "{phone}", Amount: decimal.NewFromInt(20)},
		},
	)
}

// FindProduct ищет продукт по типу и идентификатору.
func (c *Catalog) FindProduct(ctx context.Context, purchaseType models.PurchaseType, productID string) (models.Product, error) {
	const op = "memory.FindProduct"
	if err := checkCtx(ctx, op); err != nil {
		return nil, err
	}

	switch purchaseType {
	case models.PurchaseTokenPackage:
		if p, ok := c.packages[productID]; ok {
			cp := *p
			return &cp, nil
		}
	case models.PurchaseDataPlan:
		if p, ok := c.plans[productID]; ok {
			cp := *p
			return &cp, nil
		}
	default:
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnknownPurchaseType)
	}
	return nil, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
}

// ListTokenPackages возвращает пакеты, упорядоченные по цене.
func (c *Catalog) ListTokenPackages(ctx context.Context) ([]*models.TokenPackage, error) {
	if err := checkCtx(ctx, "memory.ListTokenPackages"); err != nil {
		return nil, err
	}
	result := make([]*models.TokenPackage, 0, len(c.packages))
	for _, p := range c.packages {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return lessByPrice(result[i].Amount, result[j].Amount, result[i].ID, result[j].ID)
	})
	return result, nil
}

// ListDataPlans возвращает пакеты интернета, упорядоченные по цене.
func (c *Catalog) ListDataPlans(ctx context.Context) ([]*models.DataPlan, error) {
	if err := checkCtx(ctx, "memory.ListDataPlans"); err != nil {
		return nil, err
	}
	result := make([]*models.DataPlan, 0, len(c.plans))
	for _, p := range c.plans {
		cp := *p
		result = append(result, &cp)
	}
	sort.Slice(result, func(i, j int) bool {
		return lessByPrice(result[i].Amount, result[j].Amount, result[i].ID, result[j].ID)
	})
	return result, nil
}

func lessByPrice(a, b decimal.Decimal, idA, idB string) bool {
	if c := a.Cmp(b); c != 0 {
		return c < 0
	}
	return idA < idB
}
