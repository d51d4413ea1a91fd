// Package register реализует регистрацию анонимного пользователя мобильного
// приложения. Повторная регистрация возвращает текущий баланс.
package register

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/token-billing/internal/http/response"
	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
	"github.com/magabrotheeeer/token-billing/internal/models"
)

// Request — тело запроса регистрации.
type Request struct {
	UserID string `json:"userId" validate:"required"`
}

// Response — ответ с текущим балансом.
type Response struct {
	response.Response
	Tokens int64 `json:"tokens"`
}

// Service описывает интерфейс получения или создания пользователя.
type Service interface {
	GetOrCreate(ctx context.Context, userID string) (*models.User, error)
}

// Handler обрабатывает запросы на регистрацию.
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
// @Summary Регистрация анонимного пользователя
// @Description Создаёт пользователя со стартовым балансом или возвращает существующего
// @Tags Users
// @Accept  json
// @Produce  json
// @Param request body Request true "Идентификатор пользователя"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Не передан userId"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users/register_anonymous [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.register"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("User ID is required."))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("User ID is required."))
		return
	}

	user, err := h.service.GetOrCreate(r.Context(), req.UserID)
	if err != nil {
		log.Error("failed to register user", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error during anonymous registration."))
		return
	}

	log.Info("user registered", slog.String("user_id", user.ID))
	render.JSON(w, r, Response{
		Response: response.OK("Anonymous user registered/retrieved and initial tokens granted."),
		Tokens:   user.TokensBalance,
	})
}
