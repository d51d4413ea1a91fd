// Package syncdeductions применяет пакет списаний, накопленных клиентом
// офлайн. Каждое списание учитывается один раз, сколько бы раз клиент
// ни прислал пакет.
package syncdeductions

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/token-billing/internal/http/response"
	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/services/deduction"
	"github.com/magabrotheeeer/token-billing/internal/storage"
)

// Response — итоговый баланс после синхронизации.
type Response struct {
	response.Response
	NewBalance int64 `json:"newBalance"`
}

// Service описывает интерфейс синхронизации списаний.
type Service interface {
	Sync(ctx context.Context, userID string, ids []string) (deduction.SyncResult, error)
}

// Handler обрабатывает запросы синхронизации.
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
// @Summary Синхронизация списаний
// @Description Списывает по одному токену за каждый ранее не учтённый deductionId
// @Tags Users
// @Accept  json
// @Produce  json
// @Param request body models.SyncDeductionsRequest true "Пакет списаний"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Пустой или некорректный пакет"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Ошибка сервера"
// @Router /users/sync-deductions [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.users.syncdeductions"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.SyncDeductionsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid sync request."))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}

	res, err := h.service.Sync(r.Context(), req.UserID, req.DeductionIDs())
	switch {
	case errors.Is(err, storage.ErrUserNotFound):
		log.Warn("sync for unknown user", slog.String("user_id", req.UserID))
		w.WriteHeader(http.StatusNotFound)
		render.JSON(w, r, response.Error("User not found."))
		return
	case errors.Is(err, deduction.ErrEmptyBatch):
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid sync request."))
		return
	case err != nil:
		log.Error("failed to sync deductions", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Server error during sync."))
		return
	}

	render.JSON(w, r, Response{
		Response:   response.OK(""),
		NewBalance: res.NewBalance,
	})
}
