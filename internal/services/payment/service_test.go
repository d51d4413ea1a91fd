package payment

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/token-billing/internal/lib/payhero"
	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/services/ledger"
	"github.com/magabrotheeeer/token-billing/internal/storage"
	"github.com/magabrotheeeer/token-billing/internal/storage/memory"
)

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Notify(ctx context.Context, address, message string) error {
	args := m.Called(ctx, address, message)
	return args.Error(0)
}

type MockAlerter struct {
	mock.Mock
}

func (m *MockAlerter) Alert(ctx context.Context, subject, body string) error {
	args := m.Called(ctx, subject, body)
	return args.Error(0)
}

type MockDedup struct {
	mock.Mock
}

func (m *MockDedup) IsDuplicate(ctx context.Context, reference string) (bool, error) {
	args := m.Called(ctx, reference)
	return args.Bool(0), args.Error(1)
}

func (m *MockDedup) Mark(ctx context.Context, reference string) error {
	args := m.Called(ctx, reference)
	return args.Error(0)
}

type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) InitiatePush(ctx context.Context, req payhero.STKPushRequest) (*payhero.STKPushResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payhero.STKPushResponse), args.Error(1)
}

// failingStore отказывает в изменении баланса внутри транзакции.
type failingStore struct {
	*memory.Store
}

func (f failingStore) WithinTx(ctx context.Context, fn func(q storage.Queries) error) error {
	return f.Store.WithinTx(ctx, func(q storage.Queries) error {
		return fn(failingQueries{q})
	})
}

type failingQueries struct {
	storage.Queries
}

func (failingQueries) IncrementBalance(context.Context, string, int64) (int64, error) {
	return 0, errors.New("disk full")
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func testCatalog() *memory.Catalog {
	return memory.NewCatalog(
		[]*models.TokenPackage{
			{ID: "pkg_500", Label: "150 Tokens", Amount: decimal.NewFromInt(35), Tokens: 150},
			{ID: "sub_weekly", Label: "Unlimited 7 Days", Amount: decimal.NewFromInt(99), IsSubscription: true, DurationDays: 7},
			{ID: "sub_broken", Label: "Broken", Amount: decimal.NewFromInt(10), IsSubscription: true},
		},
		[]*models.DataPlan{
			{ID: "dp_1gb", PlanName: "1GB 1 Hour", Amount: decimal.NewFromInt(19)},
		},
	)
}

type fixture struct {
	svc      *Service
	ledger   *ledger.Service
	notifier *MockNotifier
	alerter  *MockAlerter
	gateway  *MockGateway
}

func newFixture(store storage.Store, dedup Deduplicator) *fixture {
	f := &fixture{
		ledger:   ledger.NewService(store, ledger.Options{
			StartingBalance: ledger.DefaultStartingBalance,
			Now:             func() time.Time { return fixedNow },
		}),
		notifier: new(MockNotifier),
		alerter:  new(MockAlerter),
		gateway:  new(MockGateway),
	}
	f.svc = NewService(newNoopLogger(), Deps{
		Ledger:   f.ledger,
		Catalog:  testCatalog(),
		Dedup:    dedup,
		Notifier: f.notifier,
		Alerter:  f.alerter,
		Gateway:  f.gateway,
	}, Options{
		ChannelID:   911,
		Provider:    "m-pesa",
		CallbackURL: "https://example.com/webhook",
		Now:         func() time.Time { return fixedNow },
	})
	return f
}
