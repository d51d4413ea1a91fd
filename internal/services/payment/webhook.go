package payment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/token-billing/internal/lib/reference"
	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
	"github.com/magabrotheeeer/token-billing/internal/metrics"
	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/services/ledger"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

// State — этап обработки колбэка.
type State string

const (
	StateReceived     State = "received"
	StateDecoded      State = "decoded"
	StateValidated    State = "validated"
	StateApplied      State = "applied"
	StateAcknowledged State = "acknowledged"
)

// Причины завершения обработки колбэка, помимо причин валидации.
const (
	ReasonApplied              = "applied"
	ReasonDuplicate            = "duplicate"
	ReasonMalformedPayload     = "malformed_payload"
	ReasonInvalidSignature     = "invalid_signature"
	ReasonPaymentNotSuccessful = "payment_not_successful"
	ReasonParseError           = "parse_error"
	ReasonLedgerWriteFailure   = "ledger_write_failure"
)

// Outcome — итог обработки. Колбэк подтверждается шлюзу при любом итоге.
type Outcome struct {
	Reference string
	// Reached — последний пройденный этап до подтверждения.
	Reached State
	Reason  string
	Applied bool
}

var errAlreadyProcessed = errors.New("transaction already processed")

// HandleWebhook проверяет подпись, если задан секрет, разбирает тело и
// обрабатывает колбэк.
func (s *Service) HandleWebhook(ctx context.Context, body []byte, signature string) Outcome {
	if s.opts.WebhookSecret != "" && !VerifySignature(s.opts.WebhookSecret, body, signature) {
		return s.finish(Outcome{Reached: StateReceived, Reason: ReasonInvalidSignature})
	}
	cb, err := ParseCallback(body)
	if err != nil {
		s.log.Warn("cannot parse callback", slog.String("op", "payment.HandleWebhook"), sl.Err(err))
		return s.finish(Outcome{Reached: StateReceived, Reason: ReasonMalformedPayload})
	}
	return s.ProcessCallback(ctx, cb)
}

// ProcessCallback доводит колбэк до подтверждения. Изменение баланса и
// маркер обработанного платежа записываются одной транзакцией, поэтому
// повторная доставка не меняет баланс. Ошибки не возвращаются: каждая
// ветка завершается подтверждением с причиной в Outcome.
func (s *Service) ProcessCallback(ctx context.Context, cb *Callback) Outcome {
	const op = "payment.ProcessCallback"

	if cb == nil || cb.ExternalReference == "" {
		return s.finish(Outcome{Reached: StateReceived, Reason: ReasonMalformedPayload})
	}
	out := Outcome{Reference: cb.ExternalReference, Reached: StateReceived}
	log := s.log.With(
		slog.String("op", op),
		slog.String("reference", cb.ExternalReference),
		slog.String("receipt", cb.Receipt()),
	)

	if !cb.Successful() {
		log.Info("payment not successful", slog.String("result_desc", cb.ResultDesc))
		out.Reason = ReasonPaymentNotSuccessful
		return s.finish(out)
	}
	if !cb.Amount.Valid {
		log.Warn("callback without amount")
		out.Reason = ReasonMalformedPayload
		return s.finish(out)
	}

	ref, err := reference.Decode(cb.ExternalReference)
	if err != nil {
		log.Warn("cannot decode reference", sl.Err(err))
		out.Reason = ReasonParseError
		return s.finish(out)
	}
	out.Reached = StateDecoded
	log = log.With(slog.String("user_id", ref.UserID))

	if s.seen(ctx, log, cb.ExternalReference) {
		out.Reason = ReasonDuplicate
		return s.finish(out)
	}

	product, err := s.validator.Validate(ctx, ref, cb.Amount.Decimal)
	if err != nil {
		var verr *ValidationError
		if errors.As(err, &verr) {
			out.Reason = verr.Reason
		} else {
			out.Reason = ReasonCatalogError
		}
		log.Warn("payment rejected", slog.String("reason", out.Reason), sl.Err(err))
		return s.finish(out)
	}
	out.Reached = StateValidated

	user, err := s.apply(ctx, ref, product, cb)
	switch {
	case errors.Is(err, errAlreadyProcessed):
		log.Info("payment already applied")
		s.mark(ctx, log, cb.ExternalReference)
		out.Reason = ReasonDuplicate
		return s.finish(out)
	case err != nil:
		log.Error("ledger write failed for validated payment", sl.Err(err))
		metrics.LedgerWriteFailuresTotal.Inc()
		s.escalate(ctx, log, ref, cb, err)
		out.Reason = ReasonLedgerWriteFailure
		return s.finish(out)
	}

	out.Reached = StateApplied
	out.Reason = ReasonApplied
	out.Applied = true
	log.Info("payment applied",
		slog.String("purchase_type", string(product.PurchaseType())),
		slog.String("product_id", product.ProductID()),
	)

	s.mark(ctx, log, cb.ExternalReference)
	s.notify(ctx, log, user, product)
	return s.finish(out)
}

// apply записывает маркер платежа и изменение баланса одной транзакцией.
// Возвращает пользователя после изменения.
func (s *Service) apply(ctx context.Context, ref reference.Reference, product models.Product, cb *Callback) (*models.User, error) {
	var user *models.User
	err := s.ledger.Atomically(ctx, func(l *ledger.Ledger, q storage.Queries) error {
		claimed, err := q.ClaimTransaction(ctx, models.ProcessedTransaction{
			Reference:    cb.ExternalReference,
			UserID:       ref.UserID,
			PurchaseType: product.PurchaseType(),
			ProductID:    product.ProductID(),
			Amount:       cb.Amount.Decimal,
			ProcessedAt:  s.opts.Now(),
		})
		if err != nil {
			return err
		}
		if !claimed {
			return errAlreadyProcessed
		}

		switch p := product.(type) {
		case *models.TokenPackage:
			if p.IsSubscription {
				if _, err := l.ActivateSubscription(ctx, ref.UserID, p.ID, p.DurationDays); err != nil {
					return err
				}
			} else {
				if _, err := l.Credit(ctx, ref.UserID, p.Tokens); err != nil {
					return err
				}
			}
		case *models.DataPlan:
			// пакет выдаёт внешний исполнитель, баланс не меняется
		default:
			return fmt.Errorf("unsupported product %T", product)
		}

		user, err = q.GetUser(ctx, ref.UserID)
		if errors.Is(err, storage.ErrUserNotFound) {
			return nil
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	if p, ok := product.(*models.TokenPackage); ok && !p.IsSubscription {
		metrics.TokensCreditedTotal.WithLabelValues("purchase").Add(float64(p.Tokens))
	}
	return user, nil
}

func (s *Service) seen(ctx context.Context, log *slog.Logger, ref string) bool {
	if s.dedup == nil {
		return false
	}
	dup, err := s.dedup.IsDuplicate(ctx, ref)
	if err != nil {
		log.Warn("dedup check failed", sl.Err(err))
		metrics.WebhookDedupTotal.WithLabelValues("error").Inc()
		return false
	}
	if dup {
		metrics.WebhookDedupTotal.WithLabelValues("hit").Inc()
		return true
	}
	metrics.WebhookDedupTotal.WithLabelValues("miss").Inc()
	return false
}

func (s *Service) mark(ctx context.Context, log *slog.Logger, ref string) {
	if s.dedup == nil {
		return
	}
	if err := s.dedup.Mark(ctx, ref); err != nil {
		log.Warn("cannot mark callback as processed", sl.Err(err))
	}
}

func (s *Service) notify(ctx context.Context, log *slog.Logger, user *models.User, product models.Product) {
	if s.notifier == nil {
		return
	}
	address, ok := user.Contact()
	if !ok {
		return
	}
	if err := s.notifier.Notify(ctx, address, confirmationMessage(product)); err != nil {
		log.Warn("cannot notify user", sl.Err(err))
	}
}

func (s *Service) escalate(ctx context.Context, log *slog.Logger, ref reference.Reference, cb *Callback, cause error) {
	if s.alerter == nil {
		return
	}
	subject := "Ledger write failure: " + cb.ExternalReference
	body := fmt.Sprintf(
		"A validated payment could not be applied.\n\nReference: %s\nUser: %s\nPurchase type: %s\nProduct: %s\nAmount: %s\nReceipt: %s\nError: %v\n",
		cb.ExternalReference, ref.UserID, ref.PurchaseType, ref.ProductID, cb.Amount.Decimal, cb.Receipt(), cause,
	)
	if err := s.alerter.Alert(ctx, subject, body); err != nil {
		log.Error("cannot escalate ledger write failure", sl.Err(err))
	}
}

func (s *Service) finish(out Outcome) Outcome {
	metrics.WebhookOutcomesTotal.WithLabelValues(out.Reason).Inc()
	return out
}

func confirmationMessage(product models.Product) string {
	switch p := product.(type) {
	case *models.TokenPackage:
		if p.IsSubscription {
			return fmt.Sprintf("Your purchase was successful! %s is active for %d days.", p.Label, p.DurationDays)
		}
		return fmt.Sprintf("Your purchase was successful! %d tokens have been added to your account.", p.Tokens)
	case *models.DataPlan:
		return fmt.Sprintf("Hello! Your payment for %s was successful. Your bundle is being processed.", p.PlanName)
	default:
		return "Your payment was successful."
	}
}
