// Package initiate реализует HTTP-обработчик инициации покупки: проверка
// продукта и суммы по каталогу и отправка STK push на телефон покупателя.
package initiate

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"
	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/token-billing/internal/http/response"
	"github.com/magabrotheeeer/token-billing/internal/lib/sl"
	"github.com/magabrotheeeer/token-billing/internal/services/payment"
)

// Request — тело запроса на покупку.
type Request struct {
	UserID       string          `json:"userId" validate:"required"`
	PurchaseType string          `json:"purchaseType" validate:"required,oneof=TokenPackage DataPlan"`
	ProductID    string          `json:"productId" validate:"required"`
	Amount       decimal.Decimal `json:"amount" swaggertype:"number"`
	PhoneNumber  string          `json:"phoneNumber" validate:"required,msisdn"`
	CustomerName string          `json:"customerName"`
}

// Response — ответ с внешней ссылкой платежа.
type Response struct {
	response.Response
	Reference         string `json:"reference"`
	Status            string `json:"status,omitempty"`
	CheckoutRequestID string `json:"checkoutRequestId,omitempty"`
}

// Номер телефона в международном формате без "+": только цифры.
const (
	minPhoneDigits = 9
	maxPhoneDigits = 15
)

func validMSISDN(fl validator.FieldLevel) bool {
	phone := fl.Field().String()
	if len(phone) < minPhoneDigits || len(phone) > maxPhoneDigits {
		return false
	}
	for i := 0; i < len(phone); i++ {
		if phone[i] < '0' || phone[i] > '9' {
			return false
		}
	}
	return true
}

// Service описывает интерфейс инициации покупки.
type Service interface {
	InitiatePurchase(ctx context.Context, req payment.PurchaseRequest) (*payment.PurchaseResult, error)
}

// Handler обрабатывает запросы на покупку.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// New создает новый экземпляр Handler.
func New(log *slog.Logger, service Service) *Handler {
	validate := validator.New()
	_ = validate.RegisterValidation("msisdn", validMSISDN)
	return &Handler{
		log:      log,
		service:  service,
		validate: validate,
	}
}

// ServeHTTP godoc
// @Summary Инициировать покупку
// @Description Проверяет продукт и сумму, сохраняет номер телефона и отправляет STK push
// @Tags Payments
// @Accept  json
// @Produce  json
// @Param request body Request true "Данные покупки"
// @Success 200 {object} Response
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос или сумма"
// @Failure 503 {object} response.ErrorResponse "Платёжный шлюз не настроен"
// @Failure 500 {object} response.ErrorResponse "Ошибка шлюза"
// @Router /payments/initiate [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.payments.initiate"
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid input."))
		return
	}
	if err := h.validate.Struct(req); err != nil {
		log.Error("validation failed", sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.ValidationError(err.(validator.ValidationErrors)))
		return
	}
	if !req.Amount.IsPositive() {
		log.Error("non-positive amount", slog.String("amount", req.Amount.String()))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid input."))
		return
	}

	res, err := h.service.InitiatePurchase(r.Context(), payment.PurchaseRequest{
		UserID:       req.UserID,
		PurchaseType: req.PurchaseType,
		ProductID:    req.ProductID,
		Amount:       req.Amount,
		PhoneNumber:  req.PhoneNumber,
		CustomerName: req.CustomerName,
	})
	var verr *payment.ValidationError
	switch {
	case errors.As(err, &verr):
		log.Warn("purchase rejected", slog.String("reason", verr.Reason), sl.Err(err))
		w.WriteHeader(http.StatusBadRequest)
		render.JSON(w, r, response.Error("Invalid input."))
		return
	case errors.Is(err, payment.ErrGatewayUnavailable):
		log.Error("payment gateway is not configured")
		w.WriteHeader(http.StatusServiceUnavailable)
		render.JSON(w, r, response.Error("Payments are temporarily unavailable."))
		return
	case err != nil:
		log.Error("failed to initiate payment", sl.Err(err))
		w.WriteHeader(http.StatusInternalServerError)
		render.JSON(w, r, response.Error("Payment initiation failed"))
		return
	}

	log.Info("payment initiated", slog.String("reference", res.Reference))
	render.JSON(w, r, Response{
		Response:          response.OK(""),
		Reference:         res.Reference,
		Status:            res.Status,
		CheckoutRequestID: res.CheckoutRequestID,
	})
}
