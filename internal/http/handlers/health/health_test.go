package health

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestHealthHandler(t *testing.T) {
	tests := []struct {
		name           string
		check          Checker
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "без проверки",
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"message":"ok"}`,
		},
		{
			name:           "база доступна",
			check:          func(context.Context) error { return nil },
			expectedStatus: http.StatusOK,
			expectedBody:   `{"success":true,"message":"ok"}`,
		},
		{
			name:           "база недоступна",
			check:          func(context.Context) error { return errors.New("connection refused") },
			expectedStatus: http.StatusServiceUnavailable,
			expectedBody:   `{"success":false,"message":"unavailable"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			New(newNoopLogger(), tt.check).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, tt.expectedBody, w.Body.String())
		})
	}
}
