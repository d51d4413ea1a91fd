// Package pgtest поднимает PostgreSQL в testcontainers для интеграционных тестов.
package pgtest

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	// Регистрация драйвера pgx для использования с database/sql.
	_ "github.com/jackc/pgx/v5/stdlib"
)

// SkipEnv — переменная окружения, отключающая тесты с контейнерами.
const SkipEnv = "SKIP_INTEGRATION_TESTS"

// SkipIfUnavailable пропускает тест в режиме -short или при SKIP_INTEGRATION_TESTS=true.
func SkipIfUnavailable(t *testing.T) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	if os.Getenv(SkipEnv) == "true" {
		t.Skip("skipping integration test: " + SkipEnv + " is set")
	}
}

// Start запускает контейнер и возвращает строку подключения и функцию очистки.
// Если задана TEST_POSTGRES_DSN, используется внешний сервер.
func Start(t *testing.T) (string, func()) {
	t.Helper()
	SkipIfUnavailable(t)

	if dsn := os.Getenv("TEST_POSTGRES_DSN"); dsn != "" {
		t.Logf("Using external PostgreSQL service")
		return dsn, func() {}
	}

	ctx := context.Background()
	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("user"),
		postgres.WithPassword("password"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err)

	dsn, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	cleanup := func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return dsn, cleanup
}

// Open запускает контейнер и открывает *sql.DB.
func Open(t *testing.T) (*sql.DB, func()) {
	t.Helper()
	dsn, stop := Start(t)

	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)

	return db, func() {
		_ = db.Close()
		stop()
	}
}

// MigrationsPath возвращает абсолютный путь к каталогу migrations в корне модуля.
func MigrationsPath(t *testing.T) string {
	t.Helper()
	_, file, _, ok := runtime.Caller(0)
	require.True(t, ok)
	// internal/lib/pgtest -> корень модуля
	return filepath.Join(filepath.Dir(file), "..", "..", "..", "migrations")
}
