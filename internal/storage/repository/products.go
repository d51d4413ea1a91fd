package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

// FindProduct возвращает продукт каталога по типу покупки и идентификатору.
func (s *Storage) FindProduct(ctx context.Context, purchaseType models.PurchaseType, productID string) (models.Product, error) {
	const op = "storage.FindProduct"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var (
		product models.Product
		err     error
	)
	switch purchaseType {
	case models.PurchaseTokenPackage:
		var p models.TokenPackage
		err = s.DB.QueryRowContext(ctx, `SELECT id, label, icon, amount, tokens, is_subscription, duration_days
			  FROM token_packages WHERE id = $1`, productID).
			Scan(&p.ID, &p.Label, &p.Icon, &p.Amount, &p.Tokens, &p.IsSubscription, &p.DurationDays)
		product = &p
	case models.PurchaseDataPlan:
		var p models.DataPlan
		err = s.DB.QueryRowContext(ctx, `SELECT id, plan_name, ussd_code_template, placeholder, amount
			  FROM data_plans WHERE id = $1`, productID).
			Scan(&p.ID, &p.PlanName, &p.USSDCodeTemplate, &p.Placeholder, &p.Amount)
		product = &p
	default:
		return nil, fmt.Errorf("%s: %w", op, models.ErrUnknownPurchaseType)
	}
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("%s: %w", op, storage.ErrProductNotFound)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return product, nil
}

// ListTokenPackages возвращает все пакеты токенов, упорядоченные по цене.
func (s *Storage) ListTokenPackages(ctx context.Context) ([]*models.TokenPackage, error) {
	const op = "storage.ListTokenPackages"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, label, icon, amount, tokens, is_subscription, duration_days
			  FROM token_packages ORDER BY amount, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.TokenPackage
	for rows.Next() {
		var p models.TokenPackage
		if err := rows.Scan(&p.ID, &p.Label, &p.Icon, &p.Amount, &p.Tokens, &p.IsSubscription, &p.DurationDays); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListDataPlans возвращает все пакеты интернета, упорядоченные по цене.
func (s *Storage) ListDataPlans(ctx context.Context) ([]*models.DataPlan, error) {
	const op = "storage.ListDataPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT id, plan_name, ussd_code_template, placeholder, amount
			  FROM data_plans ORDER BY amount, id`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []*models.DataPlan
	for rows.Next() {
		var p models.DataPlan
		if err := rows.Scan(&p.ID, &p.PlanName, &p.USSDCodeTemplate, &p.Placeholder, &p.Amount); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, &p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
