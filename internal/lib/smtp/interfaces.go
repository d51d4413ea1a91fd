// Package smtp открывает авторизованные STARTTLS-сессии с почтовым сервером.
package smtp

import "io"

// Client — часть *smtp.Client, нужная для отправки письма.
type Client interface {
	Mail(from string) error
	Rcpt(to string) error
	Data() (io.WriteCloser, error)
	Quit() error
	Close() error
}

// TransportInterface создаёт SMTP-сессии.
type TransportInterface interface {
	Connect() (Client, error)
	GetSMTPUser() string
}
