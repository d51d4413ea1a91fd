// Package notification доставляет пользователям подтверждения покупок.
// Сервис публикует сообщение в очередь, отдельный процесс отправляет его
// в WhatsApp. Доставка не гарантируется.
package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/magabrotheeeer/token-billing/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/token-billing/internal/metrics"
	"github.com/magabrotheeeer/token-billing/internal/models"
)

// Publisher ставит уведомления в очередь RabbitMQ.
type Publisher struct {
	ch  rabbitmq.Channel
	now func() time.Time
	log *slog.Logger
}

// NewPublisher создаёт Publisher поверх канала.
func NewPublisher(ch rabbitmq.Channel, log *slog.Logger) *Publisher {
	return &Publisher{ch: ch, now: time.Now, log: log}
}

// Notify публикует сообщение для address.
func (p *Publisher) Notify(ctx context.Context, address, message string) error {
	const op = "notification.Notify"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	n := models.Notification{
		ID:        uuid.NewString(),
		Address:   address,
		Message:   message,
		CreatedAt: p.now(),
	}
	if err := rabbitmq.PublishMessage(p.ch, rabbitmq.NotificationsExchange, rabbitmq.PurchaseRoutingKey, n); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.NotificationsTotal.WithLabelValues("queued").Inc()
	p.log.Debug("notification queued", slog.String("op", op), slog.String("id", n.ID))
	return nil
}

// LogNotifier только пишет уведомление в лог. Используется без RabbitMQ.
type LogNotifier struct {
	log *slog.Logger
}

// NewLogNotifier создаёт LogNotifier.
func NewLogNotifier(log *slog.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, address, message string) error {
	n.log.Info("notification", slog.String("address", address), slog.String("message", message))
	return nil
}
