// Package metrics объявляет счётчики Prometheus сервиса. Метрики
// регистрируются в реестре по умолчанию при импорте пакета.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "tokenbilling"

// WebhookOutcomesTotal — итог обработки колбэков шлюза.
// Метка reason: applied, duplicate, amount_mismatch, ledger_write_failure и т.д.
var WebhookOutcomesTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_outcomes_total",
		Help:      "Total number of payment callbacks, by outcome reason.",
	},
	[]string{"reason"},
)

// WebhookDedupTotal — проверки быстрого пути в Redis: hit или miss.
var WebhookDedupTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "webhook_dedup_total",
		Help:      "Total number of Redis dedup checks for callbacks, by result.",
	},
	[]string{"result"},
)

// LedgerWriteFailuresTotal — платежи, прошедшие проверку, но не записанные в баланс.
var LedgerWriteFailuresTotal = promauto.NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "ledger_write_failures_total",
		Help:      "Total number of validated payments whose ledger mutation failed.",
	},
)

// TokensCreditedTotal — начисленные токены по источнику: purchase, admin.
var TokensCreditedTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "tokens_credited_total",
		Help:      "Total number of tokens credited, by source.",
	},
	[]string{"source"},
)

// DeductionsTotal — идентификаторы списаний из запросов синхронизации.
// Метка result: applied или skipped (уже учтено ранее).
var DeductionsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "deductions_total",
		Help:      "Total number of reported deduction ids, by result.",
	},
	[]string{"result"},
)

// NotificationsTotal — попытки уведомить пользователя: queued, sent, failed.
var NotificationsTotal = promauto.NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "notifications_total",
		Help:      "Total number of user notifications, by result.",
	},
	[]string{"result"},
)
