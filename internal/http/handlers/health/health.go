package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/render"

	"github.com/magabrotheeeer/token-billing/internal/http/response"
	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
)

const checkTimeout = 2 * time.Second

// Checker проверяет готовность зависимости, например базы данных.
type Checker func(ctx context.Context) error

type Handler struct {
	log   *slog.Logger
	check Checker
}

// New создаёт обработчик. check может быть nil.
func New(log *slog.Logger, check Checker) *Handler {
	return &Handler{
		log:   log,
		check: check,
	}
}

// ServeHTTP godoc
// @Summary Проверка готовности
// @Tags Health
// @Produce  json
// @Success 200 {object} response.Response
// @Failure 503 {object} response.ErrorResponse
// @Router /health [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.health"
	if h.check != nil {
		ctx, cancel := context.WithTimeout(r.Context(), checkTimeout)
		defer cancel()
		if err := h.check(ctx); err != nil {
			h.log.Error("health check failed", slog.String("op", op), sl.Err(err))
			w.WriteHeader(http.StatusServiceUnavailable)
			render.JSON(w, r, response.Error("unavailable"))
			return
		}
	}
	render.JSON(w, r, response.OK("ok"))
}
