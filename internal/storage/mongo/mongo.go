// Package mongo — каталог продуктов, хранящийся в MongoDB (коллекции
// packages и dataplans). Используется, когда каталог ведётся вне PostgreSQL.
package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const defaultTimeout = 10 * time.Second

// Config — параметры подключения.
type Config struct {
	URI      string
	Database string
	Timeout  time.Duration
}

// Connect создаёт клиента, проверяет соединение и возвращает выбранную базу.
func Connect(ctx context.Context, cfg Config) (*mongo.Client, *mongo.Database, error) {
	const op = "mongo.Connect"
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	connectCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(connectCtx)
		return nil, nil, fmt.Errorf("%s: ping: %w", op, err)
	}

	return client, client.Database(cfg.Database), nil
}
