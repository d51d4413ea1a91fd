package balance

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/token-billing/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) GetOrCreate(ctx context.Context, userID string) (*models.User, error) {
	args := m.Called(ctx, userID)
	if res := args.Get(0); res != nil {
		return res.(*models.User), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestBalanceHandler(t *testing.T) {
	tests := []struct {
		name           string
		userID         string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name:   "баланс существующего пользователя",
			userID: "abc-def",
			setupMock: func(m *MockService) {
				m.On("GetOrCreate", mock.Anything, "abc-def").
					Return(&models.User{ID: "abc-def", TokensBalance: 170}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"tokenBalance":170}`,
		},
		{
			name:           "пустой userId",
			userID:         "",
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"success":false,"message":"User ID is required."}`,
		},
		{
			name:   "ошибка хранилища",
			userID: "u1",
			setupMock: func(m *MockService) {
				m.On("GetOrCreate", mock.Anything, "u1").Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"success":false,"message":"Internal server error."}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodGet, "/api/v1/users/"+tt.userID+"/tokens", nil)
			rctx := chi.NewRouteContext()
			rctx.URLParams.Add("userId", tt.userID)
			req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
			w := httptest.NewRecorder()

			New(newNoopLogger(), mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
