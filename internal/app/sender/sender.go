// Package sender — приложение, доставляющее подтверждения покупок из очереди
// RabbitMQ в WhatsApp через PayHero.
package sender

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/token-billing/internal/config"
	"github.com/magabrotheeeer/token-billing/internal/lib/payhero"
	"github.com/magabrotheeeer/token-billing/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
	"github.com/magabrotheeeer/token-billing/internal/services/notification"
)

// App потребитель очереди уведомлений.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *notification.SenderService
	logger        *slog.Logger
}

// New подключается к брокеру и объявляет очередь подтверждений.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "sender.New"
	if cfg.RabbitMQURL == "" {
		return nil, fmt.Errorf("%s: rabbitmq.url is required", op)
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if cfg.WhatsAppSession == "" {
		logger.Warn("payhero whatsapp_session is empty, every notification will fail")
	}
	senderService := notification.NewSenderService(payhero.NewClient(cfg.PayHero), logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run потребляет очередь до отмены ctx.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.logger, a.ch, rabbitmq.PurchaseQueue, a.senderService.Handler(ctx))
	if err != nil {
		a.logger.Error("failed to start purchase queue consumer", sl.Err(err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("Sender service shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", sl.Err(err))
	}

	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", sl.Err(err))
	}

	return nil
}
