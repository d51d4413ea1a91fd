// Package balance возвращает баланс токенов пользователя. Неизвестный
// пользователь создаётся со стартовым балансом, чтобы клиент не получал ошибку.
package balance

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/token-billing/internal/http/response"
	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
	"github.com/magabrotheeeer/token-billing/internal/models"
)

// Response — ответ с балансом.
type Response struct {
	response.Response
	TokenBalance int64 `json:"tokenBalance"`
}

// Service описывает интерфейс получения пользователя.
type Service interface {
	GetOrCreate(ctx context.Context, userID string) (*models.User, error)
}

// Handler обрабатывает запросы баланса.
type Handler struct {
	log     *slog.Logger
	service Service
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:     log,
		service: service,
	}
}

// ServeHTTP godoc
// @Summary Баланс токенов
// @Tags Users
// @Produce  json
// @Param userId path string true "Идентификатор пользователя"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Не передан userId"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users/{userId}/tokens [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.balance"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	userID := chi.URLParam(r, "userId")
	if userID == "" {
		log.Error("empty user id in url")
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("User ID is required."))
		return
	}

	user, err := h.service.GetOrCreate(r.Context(), userID)
	if err != nil {
		log.Error("failed to fetch balance", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error."))
		return
	}

	render.JSON(w, r, Response{
		Response:     response.OK(""),
		TokenBalance: user.TokensBalance,
	})
}
