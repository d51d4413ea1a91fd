// Package dataplans отдаёт список пакетов мобильного интернета.
package dataplans

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

// Response — список планов.
type Response struct {
	response.Response
	DataPlans []*models.DataPlan `json:"dataplans"`
}

// Service описывает чтение планов из каталога.
type Service interface {
	ListDataPlans(ctx context.Context) ([]*models.DataPlan, error)
}

// Handler обрабатывает запросы списка планов.
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
// @Summary Пакеты мобильного интернета
// @Tags Catalog
// @Produce  json
// @Success 200 {object} Response
// @Failure 500 {object} response.ErrorResponse "Ошибка каталога"
// @Router /dataplans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.catalog.dataplans"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	res, err := h.service.ListDataPlans(r.Context())
	if err != nil {
		log.Error("failed to list data plans", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Server error while fetching data plans."))
		return
	}
	if res == nil {
		res = []*models.DataPlan{}
	}

	render.JSON(w, r, Response{
		Response:  response.OK(""),
		DataPlans: res,
	})
}
