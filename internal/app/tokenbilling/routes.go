// Package tokenbilling собирает HTTP-приложение учёта токенов.
package tokenbilling

import (
	"log/slog"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"
	"golang.org/x/time/rate"

	"github.com/magabrotheeeer/token-billing/internal/http/handlers/admin/updatetokens"
	"github.com/magabrotheeeer/token-billing/internal/http/handlers/catalog/dataplans"
	"github.com/magabrotheeeer/token-billing/internal/http/handlers/catalog/packages"
	"github.com/magabrotheeeer/token-billing/internal/http/handlers/health"
	"github.com/magabrotheeeer/token-billing/internal/http/handlers/payments/initiate"
	"github.com/magabrotheeeer/token-billing/internal/http/handlers/payments/webhook"
	"github.com/magabrotheeeer/token-billing/internal/http/handlers/users/balance"
	"github.com/magabrotheeeer/token-billing/internal/http/handlers/users/register"
	"github.com/magabrotheeeer/token-billing/internal/http/handlers/users/syncdeductions"
	"github.com/magabrotheeeer/token-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/token-billing/internal/services/deduction"
	"github.com/magabrotheeeer/token-billing/internal/services/ledger"
	"github.com/magabrotheeeer/token-billing/internal/services/payment"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

// Services — всё, что нужно маршрутам.
type Services struct {
	Ledger     *ledger.Service
	Deductions *deduction.Service
	Payments   *payment.Service
	Catalog    storage.Catalog
	// При nil Tokens административные маршруты не регистрируются.
	Tokens  middlewarectx.TokenParser
	Limiter *rate.Limiter
	Health  health.Checker
}

// RegisterRoutes регистрирует все маршруты приложения.
func RegisterRoutes(r chi.Router, logger *slog.Logger, s Services) {
	// URLFormat не подключается: userId в пути может содержать точку.
	r.Use(
		middleware.RequestID,
		middleware.Logger,
		middleware.Recoverer,
	)

	r.Route("/api/v1", func(r chi.Router) {
		// Клиентские конечные точки
		r.Group(func(r chi.Router) {
			if s.Limiter != nil {
				r.Use(middlewarectx.RateLimit(s.Limiter, logger))
			}
			r.Post("/payments/initiate", initiate.New(logger, s.Payments).ServeHTTP)
			r.Post("/users/register_anonymous", register.New(logger, s.Ledger).ServeHTTP)
			r.Get("/users/{userId}/tokens", balance.New(logger, s.Ledger).ServeHTTP)
			r.Post("/users/sync-deductions", syncdeductions.New(logger, s.Deductions).ServeHTTP)
			r.Get("/packages", packages.New(logger, s.Catalog).ServeHTTP)
			r.Get("/dataplans", dataplans.New(logger, s.Catalog).ServeHTTP)
		})

		// Webhook шлюза (без ограничения частоты)
		r.Post("/payments/webhook", webhook.New(logger, s.Payments).ServeHTTP)

		if s.Tokens != nil {
			r.Group(func(r chi.Router) {
				r.Use(middlewarectx.AdminJWT(s.Tokens, logger))
				r.Post("/admin/users/update_tokens", updatetokens.New(logger, s.Ledger).ServeHTTP)
			})
		}
	})

	r.Get("/health", health.New(logger, s.Health).ServeHTTP)
	r.Handle("/metrics", promhttp.Handler())
	r.Get("/docs/*", httpSwagger.WrapHandler)
}
