// Package alert доставляет оператору сообщения о платежах, которые прошли
// проверку, но не были записаны в баланс.
package alert

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
	"github.com/magabrotheeeer/token-billing/internal/lib/smtp"
)

// EmailAlerter отправляет письмо оператору через SMTP.
type EmailAlerter struct {
	transport smtp.TransportInterface
	to        []string
	log       *slog.Logger
}

// NewEmailAlerter создает новый экземпляр EmailAlerter.
func NewEmailAlerter(transport smtp.TransportInterface, operatorEmail string, log *slog.Logger) *EmailAlerter {
	return &EmailAlerter{
		transport: transport,
		to:        []string{operatorEmail},
		log:       log,
	}
}

// Alert отправляет письмо. ctx проверяется только до подключения,
// SMTP-сессия не прерывается.
func (a *EmailAlerter) Alert(ctx context.Context, subject, body string) error {
	const op = "alert.EmailAlerter.Alert"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}
	if err := a.sendEmail(subject, body); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func (a *EmailAlerter) sendEmail(subject, bodyText string) error {
	from := a.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(a.to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := a.transport.Connect()
	if err != nil {
		a.log.Error("Failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		a.log.Error("Failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}
	for _, addr := range a.to {
		if err := client.Rcpt(addr); err != nil {
			a.log.Error("Failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		a.log.Error("Failed to get Data writer", sl.Err(err))
		return err
	}
	if _, err = wc.Write([]byte(msg)); err != nil {
		a.log.Error("Failed to write email body", sl.Err(err))
		return err
	}
	if err = wc.Close(); err != nil {
		a.log.Error("Failed to close Data writer", sl.Err(err))
		return err
	}
	if err = client.Quit(); err != nil {
		a.log.Error("Failed to quit SMTP client", sl.Err(err))
		return err
	}

	a.log.Info("alert sent", slog.Any("to", a.to), slog.String("subject", subject))
	return nil
}

// LogAlerter пишет оповещение в лог, когда почта не настроена.
type LogAlerter struct {
	log *slog.Logger
}

// NewLogAlerter создает LogAlerter.
func NewLogAlerter(log *slog.Logger) *LogAlerter {
	return &LogAlerter{log: log}
}

func (a *LogAlerter) Alert(_ context.Context, subject, body string) error {
	a.log.Error("OPERATOR ALERT", slog.String("subject", subject), slog.String("body", body))
	return nil
}
