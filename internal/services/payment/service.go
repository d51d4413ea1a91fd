package payment

import (
	"context"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/token-billing/internal/lib/payhero"
	"github.com/magabrotheeeer/token-billing/internal/services/ledger"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

// Deduplicator — быстрая проверка повторной доставки колбэка.
// Ответ носит рекомендательный характер.
type Deduplicator interface {
	IsDuplicate(ctx context.Context, reference string) (bool, error)
	Mark(ctx context.Context, reference string) error
}

// Notifier доставляет сообщение пользователю без гарантий.
type Notifier interface {
	Notify(ctx context.Context, address, message string) error
}

// Alerter сообщает оператору о платеже, который не удалось записать.
type Alerter interface {
	Alert(ctx context.Context, subject, body string) error
}

// Gateway инициирует оплату на телефоне покупателя.
type Gateway interface {
	InitiatePush(ctx context.Context, req payhero.STKPushRequest) (*payhero.STKPushResponse, error)
}

// Deps — зависимости сервиса. Dedup и Gateway могут отсутствовать.
type Deps struct {
	Ledger   *ledger.Service
	Catalog  storage.Catalog
	Dedup    Deduplicator
	Notifier Notifier
	Alerter  Alerter
	Gateway  Gateway
}

// Options — параметры платежей.
type Options struct {
	WebhookSecret string
	ChannelID     int
	Provider      string
	CallbackURL   string
	Now           func() time.Time
}

// Service обрабатывает покупки: инициацию и колбэки шлюза.
type Service struct {
	ledger    *ledger.Service
	validator *Validator
	dedup     Deduplicator
	notifier  Notifier
	alerter   Alerter
	gateway   Gateway
	opts      Options
	log       *slog.Logger
}

// NewService создаёт сервис платежей.
func NewService(log *slog.Logger, deps Deps, opts Options) *Service {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Service{
		ledger:    deps.Ledger,
		validator: NewValidator(deps.Catalog),
		dedup:     deps.Dedup,
		notifier:  deps.Notifier,
		alerter:   deps.Alerter,
		gateway:   deps.Gateway,
		opts:      opts,
		log:       log,
	}
}
