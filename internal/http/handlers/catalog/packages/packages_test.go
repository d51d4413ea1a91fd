package packages

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/storage/memory"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListTokenPackages(ctx context.Context) ([]*models.TokenPackage, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]*models.TokenPackage), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestPackagesHandler(t *testing.T) {
	h := New(newNoopLogger(), memory.DefaultCatalog())
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/packages", nil))

	require.Equal(t, http.StatusOK, w.Code)
	var got struct {
		Success  bool `json:"success"`
		Packages []struct {
			ID     string `json:"id"`
			Amount string `json:"amount"`
			Tokens int64  `json:"tokens"`
		} `json:"packages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &got))
	assert.True(t, got.Success)
	require.Len(t, got.Packages, 4)
	assert.Equal(t, "package_100", got.Packages[0].ID)
	assert.Equal(t, "15", got.Packages[0].Amount)
	assert.Equal(t, int64(50), got.Packages[0].Tokens)
}

func TestPackagesHandler_Errors(t *testing.T) {
	tests := []struct {
		name           string
		setupMock      func(*MockService)
		expectedStatus int
		expectedBody   string
	}{
		{
			name: "пустой каталог",
			setupMock: func(m *MockService) {
				m.On("ListTokenPackages", mock.Anything).Return(nil, nil).Once()
			},
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"packages":[]}`,
		},
		{
			name: "каталог недоступен",
			setupMock: func(m *MockService) {
				m.On("ListTokenPackages", mock.Anything).Return(nil, errors.New("mongo down")).Once()
			},
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   `{"success":false,"message":"Internal server error."}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockService := new(MockService)
			tt.setupMock(mockService)

			w := httptest.NewRecorder()
			New(newNoopLogger(), mockService).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/packages", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
			mockService.AssertExpectations(t)
		})
	}
}
