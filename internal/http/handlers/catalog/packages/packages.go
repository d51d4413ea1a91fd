// Package packages отдаёт список пакетов токенов и подписок.
package packages

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/token-billing/internal/http/response"
	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
	"github.com/magabrotheeeer/token-billing/internal/models"
)

// Response — список пакетов.
type Response struct {
	response.Response
	Packages []*models.TokenPackage `json:"packages"`
}

// Service описывает чтение пакетов из каталога.
type Service interface {
	ListTokenPackages(ctx context.Context) ([]*models.TokenPackage, error)
}

// Handler обрабатывает запросы списка пакетов.
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
// @Summary Пакеты токенов
// @Tags Catalog
// @Produce  json
// @Success 200 {object} Response
// @Failure 500 {object} response.ErrorResponse "Ошибка каталога"
// @Router /packages [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.packages"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.ListTokenPackages(r.Context())
	if err != nil {
		log.Error("failed to list packages", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Internal server error."))
		return
	}
	if res == nil {
		res = []*models.TokenPackage{}
	}

	render.JSON(w, r, Response{
		Response: response.OK(""),
		Packages: res,
	})
}
