package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
	"github.com/magabrotheeeer/token-billing/internal/metrics"
	"github.com/magabrotheeeer/token-billing/internal/models"
)

// Messenger отправляет текст на номер телефона.
type Messenger interface {
	SendWhatsApp(ctx context.Context, phone, message string) error
}

// SenderService читает уведомления из очереди и отправляет их.
type SenderService struct {
	messenger Messenger
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(messenger Messenger, log *slog.Logger) *SenderService {
	return &SenderService{messenger: messenger, log: log}
}

// Handler возвращает обработчик сообщений очереди. Непарсящееся сообщение
// отбрасывается, ошибка отправки возвращается для повторной доставки.
func (s *SenderService) Handler(ctx context.Context) func([]byte) error {
	return func(body []byte) error {
		return s.Send(ctx, body)
	}
}

// Send отправляет одно уведомление.
func (s *SenderService) Send(ctx context.Context, body []byte) error {
	const op = "notification.Send"

	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		s.log.Error("Failed to unmarshal message body", slog.String("op", op), sl.Err(err))
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		return nil
	}
	if n.Address == "" || n.Message == "" {
		s.log.Warn("notification without address or message", slog.String("op", op), slog.String("id", n.ID))
		metrics.NotificationsTotal.WithLabelValues("dropped").Inc()
		return nil
	}

	if err := s.messenger.SendWhatsApp(ctx, n.Address, n.Message); err != nil {
		metrics.NotificationsTotal.WithLabelValues("failed").Inc()
		return fmt.Errorf("%s: %s: %w", op, n.ID, err)
	}
	metrics.NotificationsTotal.WithLabelValues("sent").Inc()
	s.log.Info("notification sent", slog.String("op", op), slog.String("id", n.ID))
	return nil
}
