package register

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

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

func TestRegisterHandler(t *testing.T) {
	tests := []struct {
		name           string
		body           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "новый пользователь",
			body: `{"userId":"abc-def"}`,
			setupMock: func(m *MockService) {
				m.On("GetOrCreate", mock.Anything, "abc-def").
					Return(&models.User{ID: "abc-def", TokensBalance: 20}, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `"tokens":20`,
		},
		{
			name:           "пустой userId",
			body:           `{"userId":""}`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `{"success":false,"message":"User ID is required."}`,
		},
		{
			name:           "некорректный JSON",
			body:           `[`,
			setupMock:      func(*MockService) {},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `User ID is required.`,
		},
		{
			name: "ошибка хранилища",
			body: `{"userId":"u1"}`,
			setupMock: func(m *MockService) {
				m.On("GetOrCreate", mock.Anything, "u1").Return(nil, errors.New("db down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `"success":false`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			req := httptest.NewRequest(http.MethodPost, "/api/v1/users/register_anonymous", strings.NewReader(tt.body))
			w := httptest.NewRecorder()
			New(newNoopLogger(), mockService).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
			mockService.AssertExpectations(t)
		})
	}
}
