package initiate

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/token-billing/internal/services/payment"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) InitiatePurchase(ctx context.Context, req payment.PurchaseRequest) (*payment.PurchaseResult, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*payment.PurchaseResult), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const validBody = `{"userId":"abc-def","purchaseType":"TokenPackage","productId":"pkg_500","amount":35,"phoneNumber":"254700000001"}`

func TestInitiateHandler(t *testing.T) {
	wantReq := payment.PurchaseRequest{
		UserID:       "abc-def",
		PurchaseType: "TokenPackage",
		ProductID:    "pkg_500",
		Amount:       decimal.NewFromInt(35),
		PhoneNumber:  "254700000001",
	}
	matchReq := mock.MatchedBy(func(req payment.PurchaseRequest) bool {
		return req.UserID == wantReq.UserID &&
			req.PurchaseType == wantReq.PurchaseType &&
			req.ProductID == wantReq.ProductID &&
			req.Amount.Equal(wantReq.Amount) &&
			req.PhoneNumber == wantReq.PhoneNumber
	})

	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "успешная инициация",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("InitiatePurchase", mock.Anything, matchReq).Return(&payment.PurchaseResult{
					Reference: "INV-abc-def-TokenPackage-pkg_500-1", Status: "QUEUED",
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"reference":"INV-abc-def-TokenPackage-pkg_500-1"`,
		},
		{
			name:           "некорректный JSON",
			body:           `{"userId":`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"success":false,"message":"Invalid input."}`,
		},
		{
			name:           "неизвестный тип покупки",
			body:           `{"userId":"u1","purchaseType":"Gift","productId":"p","amount":1,"phoneNumber":"254700000001"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field PurchaseType must be one of`,
		},
		{
			name:           "нулевая сумма",
			body:           `{"userId":"u1","purchaseType":"DataPlan","productId":"p","amount":0,"phoneNumber":"254700000001"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `Invalid input.`,
		},
		{
			name:           "номер со знаком плюс",
			body:           `{"userId":"u1","purchaseType":"TokenPackage","productId":"p","amount":35,"phoneNumber":"+254700000001"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field PhoneNumber must be a phone number of 9 to 15 digits`,
		},
		{
			name:           "отрицательный номер",
			body:           `{"userId":"u1","purchaseType":"TokenPackage","productId":"p","amount":35,"phoneNumber":"-5"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field PhoneNumber must be a phone number of 9 to 15 digits`,
		},
		{
			name:           "дробный номер",
			body:           `{"userId":"u1","purchaseType":"TokenPackage","productId":"p","amount":35,"phoneNumber":"2547000000.1"}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `field PhoneNumber must be a phone number of 9 to 15 digits`,
		},
		{
			name: "сумма не совпадает с ценой",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("InitiatePurchase", mock.Anything, matchReq).
					Return(nil, &payment.ValidationError{Reason: payment.ReasonAmountMismatch}).Once()
			},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `Invalid input.`,
		},
		{
			name: "шлюз не настроен",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("InitiatePurchase", mock.Anything, matchReq).Return(nil, payment.ErrGatewayUnavailable).Once()
			},
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `temporarily unavailable`,
		},
		{
			name: "ошибка шлюза",
			body: validBody,
			setupMock: func(m *MockService) {
				m.On("InitiatePurchase", mock.Anything, matchReq).Return(nil, errors.New("502")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `Payment initiation failed`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/payments/initiate", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			New(newNoopLogger(), mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
