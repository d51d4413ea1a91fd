// Package updatetokens реализует ручную корректировку баланса оператором.
package updatetokens

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/token-billing/internal/http/middlewarectx"
	"github.com/magabrotheeeer/token-billing/internal/http/response"
	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
	"github.com/magabrotheeeer/token-billing/internal/metrics"
	"github.com/magabrotheeeer/token-billing/internal/services/ledger"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

// Request — корректировка. Положительное Amount начисляет, отрицательное списывает.
type Request struct {
	UserID string `json:"userId" validate:"required"`
	Amount *int64 `json:"amount" validate:"required"`
}

// Response — баланс после корректировки.
type Response struct {
	response.Response
	Tokens int64 `json:"tokens"`
}

// Service описывает интерфейс корректировки баланса.
type Service interface {
	Adjust(ctx context.Context, userID string, amount int64) (int64, error)
}

// Handler обрабатывает запросы корректировки.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Корректировка баланса
// @Description Начисляет или списывает токены существующему пользователю
// @Tags Admin
// @Accept  json
// @Produce  json
// @Param request body Request true "Пользователь и величина корректировки"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 401 {object} response.ErrorResponse "Нет токена"
// @Failure 403 {object} response.ErrorResponse "Недостаточно прав"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /admin/users/update_tokens [post]
// @Security BearerAuth
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.updatetokens"
	subject, _ := r.Context().Value(middlewarectx.Subject).(string)
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("operator", subject),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("User ID and a numeric amount are required."))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("User ID and a numeric amount are required."))
		return
	}

	balance, err := h.service.Adjust(r.Context(), req.UserID, *req.Amount)
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("User not found."))
		return
	case errors.Is(err, ledger.ErrAmountOutOfRange):
		log.Warn("adjustment out of range", slog.Int64("amount", *req.Amount))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Amount is out of range."))
		return
	case err != nil:
		log.Error("failed to update tokens", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error during token update."))
		return
	}

	if *req.Amount > 0 {
		metrics.TokensCreditedTotal.WithLabelValues("admin").Add(float64(*req.Amount))
	}
	log.Info("tokens updated",
		slog.String("user_id", req.UserID),
		slog.Int64("amount", *req.Amount),
		slog.Int64("balance", balance),
	)
	render.JSON(w, r, Response{
		Response: response.OK("Tokens updated successfully."),
		Tokens:   balance,
	})
}
