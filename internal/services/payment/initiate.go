package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/token-billing/internal/lib/payhero"
	"github.com/magabrotheeeer/token-billing/internal/lib/reference"
	"github.com/magabrotheeeer/token-billing/internal/models"
)

// ErrGatewayUnavailable — платёжный шлюз не настроен.
var ErrGatewayUnavailable = errors.New("payment gateway is not configured")

const defaultCustomerName = "PayHero User"

// PurchaseRequest — намерение покупки от клиента.
type PurchaseRequest struct {
	UserID       string
	PurchaseType string
	ProductID    string
	Amount       decimal.Decimal
	PhoneNumber  string
	CustomerName string
}

// PurchaseResult — ответ шлюза и ссылка, по которой придёт колбэк.
type PurchaseResult struct {
	Reference         string `json:"reference"`
	Status            string `json:"status,omitempty"`
	CheckoutRequestID string `json:"checkoutRequestId,omitempty"`
}

// InitiatePurchase проверяет продукт и сумму, сохраняет номер телефона
// пользователя и отправляет STK push со ссылкой на покупку.
func (s *Service) InitiatePurchase(ctx context.Context, req PurchaseRequest) (*PurchaseResult, error) {
	const op = "payment.InitiatePurchase"

	if s.gateway == nil {
		return nil, fmt.Errorf("%s: %w", op, ErrGatewayUnavailable)
	}

	purchaseType, err := models.ParsePurchaseType(req.PurchaseType)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, &ValidationError{Reason: ReasonUnknownPurchaseType, Err: err})
	}
	product, err := s.validator.ValidateProduct(ctx, purchaseType, req.ProductID, req.Amount)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ref, err := reference.Encode(req.UserID, string(purchaseType), product.ProductID(), s.opts.Now())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if err := s.ledger.SetPhoneNumber(ctx, req.UserID, req.PhoneNumber); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	customer := req.CustomerName
	if customer == "" {
		customer = defaultCustomerName
	}
	resp, err := s.gateway.InitiatePush(ctx, payhero.STKPushRequest{
		Amount:            product.Price().InexactFloat64(),
		PhoneNumber:       req.PhoneNumber,
		ChannelID:         s.opts.ChannelID,
		Provider:          s.opts.Provider,
		ExternalReference: ref,
		CallbackURL:       s.opts.CallbackURL,
		CustomerName:      customer,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	s.log.Info("purchase initiated",
		slog.String("op", op),
		slog.String("reference", ref),
		slog.String("status", resp.Status),
	)
	return &PurchaseResult{
		Reference:         ref,
		Status:            resp.Status,
		CheckoutRequestID: resp.CheckoutRequestID,
	}, nil
}
