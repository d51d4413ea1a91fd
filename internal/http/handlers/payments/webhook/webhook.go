// Package webhook принимает колбэки платёжного шлюза. Шлюз повторяет
// доставку, пока не получит 200, поэтому ответ всегда 200: повторная
// доставка ничего не исправит, а результат обработки виден в логах и метриках.
package webhook

import (
	"context"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/token-billing/internal/http/response"
	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
	"github.com/magabrotheeeer/token-billing/internal/services/payment"
)

// SignatureHeader — заголовок с подписью тела.
const SignatureHeader = "X-Api-Signature"

const maxBodyBytes = 1 << 20

// Service описывает обработку колбэка.
type Service interface {
	HandleWebhook(ctx context.Context, body []byte, signature string) payment.Outcome
}

// Handler обрабатывает колбэки шлюза.
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
// @Summary Колбэк платёжного шлюза
// @Description Применяет подтверждённый платёж ровно один раз. Всегда отвечает 200.
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param X-Api-Signature header string false "base64(HMAC-SHA256) тела"
// @Success 200 {object} response.Response
// @Router /payments/webhook [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payments.webhook"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		log.Error("failed to read webhook body", sl.Err(err))
		render.JSON(w, r, response.OK("Webhook received, but body could not be read."))
		return
	}

	out := h.service.HandleWebhook(r.Context(), body, r.Header.Get(SignatureHeader))
	log.Info("webhook processed",
		slog.String("reference", out.Reference),
		slog.String("reason", out.Reason),
		slog.String("reached", string(out.Reached)),
		slog.Bool("applied", out.Applied),
	)
	render.JSON(w, r, response.OK("Webhook processed."))
}
