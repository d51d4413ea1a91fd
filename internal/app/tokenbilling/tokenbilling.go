package tokenbilling

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/token-billing/internal/cache"
	"github.com/magabrotheeeer/token-billing/internal/config"
	"github.com/magabrotheeeer/token-billing/internal/lib/jwt"
	"github.com/magabrotheeeer/token-billing/internal/lib/payhero"
	"github.com/magabrotheeeer/token-billing/internal/lib/rabbitmq"
	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
	"github.com/magabrotheeeer/token-billing/internal/lib/smtp"
	"github.com/magabrotheeeer/token-billing/internal/migrations"
	"github.com/magabrotheeeer/token-billing/internal/services/alert"
	"github.com/magabrotheeeer/token-billing/internal/services/deduction"
	"github.com/magabrotheeeer/token-billing/internal/services/ledger"
	"github.com/magabrotheeeer/token-billing/internal/services/notification"
	"github.com/magabrotheeeer/token-billing/internal/services/payment"
	"github.com/magabrotheeeer/token-billing/internal/storage"
	"github.com/magabrotheeeer/token-billing/internal/storage/memory"
	mongostore "github.com/magabrotheeeer/token-billing/internal/storage/mongo"
	"github.com/magabrotheeeer/token-billing/internal/storage/repository"
)

const shutdownTimeout = 15 * time.Second

// App HTTP-сервер учёта токенов и его внешние подключения.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	closers []func() error
}

// New подключает хранилища, брокер и шлюз согласно cfg и собирает маршруты.
// Redis, RabbitMQ, SMTP и PayHero необязательны: без них работают заглушки.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	const op = "tokenbilling.New"
	a := &App{logger: logger}

	store, db, err := a.openStore(ctx, cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	source, err := a.openCatalog(ctx, cfg, db)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	// цены для проверки платежей читаются только из источника, кэш
	// обслуживает листинг /packages и /dataplans
	catalog := source

	var dedup payment.Deduplicator
	if cfg.Addr != "" {
		cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
		if err != nil {
			logger.Warn("redis unavailable, catalog cache and fast dedup disabled", sl.Err(err))
		} else {
			a.closers = append(a.closers, cacheRedis.Close)
			catalog = cache.NewCatalogCache(catalog, cacheRedis, cfg.CacheTTL, logger)
			dedup = cache.NewDedupChecker(cacheRedis, cfg.DedupTTL)
		}
	}

	notifier, err := a.openNotifier(cfg)
	if err != nil {
		a.close()
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var alerter payment.Alerter = alert.NewLogAlerter(logger)
	if cfg.SMTPHost != "" && cfg.OperatorEmail != "" {
		alerter = alert.NewEmailAlerter(smtp.NewTransport(cfg.Alerting), cfg.OperatorEmail, logger)
	}

	var gateway payment.Gateway
	if cfg.BasicAuth != "" {
		gateway = payhero.NewClient(cfg.PayHero)
	} else {
		logger.Warn("payhero basic_auth is empty, purchase initiation disabled")
	}

	ledgerService := ledger.NewService(store, ledger.Options{
		StartingBalance: cfg.StartingBalance,
		Renewal:         ledger.RenewalPolicy(cfg.SubscriptionRenewal),
	})
	deductionService := deduction.NewService(ledgerService, deduction.NewGuard(), logger)
	paymentService := payment.NewService(logger, payment.Deps{
		Ledger:   ledgerService,
		Catalog:  source,
		Dedup:    dedup,
		Notifier: notifier,
		Alerter:  alerter,
		Gateway:  gateway,
	}, payment.Options{
		WebhookSecret: cfg.WebhookSecret,
		ChannelID:     cfg.ChannelID,
		Provider:      cfg.Provider,
		CallbackURL:   cfg.CallbackURL,
	})

	services := Services{
		Ledger:     ledgerService,
		Deductions: deductionService,
		Payments:   paymentService,
		Catalog:    catalog,
		Limiter:    rate.NewLimiter(rate.Limit(cfg.RPS), cfg.Burst),
	}
	if cfg.JWTSecretKey != "" {
		services.Tokens = jwt.NewMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	} else {
		logger.Warn("jwt_secret_key is empty, admin routes disabled")
	}
	if db != nil {
		services.Health = func(ctx context.Context) error {
			return repository.CheckDatabaseReady(ctx, db)
		}
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, services)

	a.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return a, nil
}

// openStore возвращает хранилище балансов. db не nil только для postgres.
func (a *App) openStore(ctx context.Context, cfg *config.Config) (storage.Store, *repository.Storage, error) {
	if cfg.Storage.Driver == config.DriverMemory {
		a.logger.Warn("using in-memory storage, balances are lost on restart")
		return memory.New(), nil, nil
	}

	db, err := repository.New(ctx, cfg.StorageConnectionString)
	if err != nil {
		return nil, nil, err
	}
	a.closers = append(a.closers, db.Close)

	version, err := migrations.Run(db.DB, cfg.MigrationsPath)
	if err != nil {
		return nil, nil, err
	}
	a.logger.Info("migrations applied", slog.Uint64("version", uint64(version)))
	return db, db, nil
}

func (a *App) openCatalog(ctx context.Context, cfg *config.Config, db *repository.Storage) (storage.Catalog, error) {
	switch cfg.CatalogDriver {
	case config.DriverPostgres:
		if db == nil {
			return nil, fmt.Errorf("catalog driver %q requires postgres storage", config.DriverPostgres)
		}
		return db, nil
	case config.DriverMongo:
		client, database, err := mongostore.Connect(ctx, mongostore.Config{
			URI:      cfg.MongoURI,
			Database: cfg.MongoDatabase,
		})
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, func() error {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return client.Disconnect(disconnectCtx)
		})
		return mongostore.NewCatalog(database), nil
	default:
		return memory.DefaultCatalog(), nil
	}
}

// openNotifier публикует подтверждения в RabbitMQ, если он настроен.
func (a *App) openNotifier(cfg *config.Config) (payment.Notifier, error) {
	if cfg.RabbitMQURL == "" {
		return notification.NewLogNotifier(a.logger), nil
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, conn.Close)

	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, ch.Close)
	return notification.NewPublisher(ch, a.logger), nil
}

// close освобождает подключения в обратном порядке.
func (a *App) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.logger.Error("failed to close resource", sl.Err(err))
		}
	}
	a.closers = nil
}

// Handler возвращает корневой обработчик.
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Run обслуживает запросы до отмены ctx, затем мягко останавливает сервер.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}
