package dataplans

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/token-billing/internal/models"
	"github.com/magabrotheeeer/token-billing/internal/storage/memory"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) ListDataPlans(ctx context.Context) ([]*models.DataPlan, error) {
	args := m.Called(ctx)
	if res := args.Get(0); res != nil {
		return res.([]*models.DataPlan), args.Error(1)
	}
	return nil, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestDataPlansHandler(t *testing.T) {
	w := httptest.NewRecorder()
	New(newNoopLogger(), memory.DefaultCatalog()).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dataplans", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"planName":"1GB 1 Hour"`)
	assert.Contains(t, w.Body.String(), `"ussdCodeTemplate":"*180*5*2*{phone}*5*1#"`)
}

func TestDataPlansHandler_Error(t *testing.T) {
	m := new(MockService)
	m.On("ListDataPlans", mock.Anything).Return(nil, errors.New("db down")).Once()

	w := httptest.NewRecorder()
	New(newNoopLogger(), m).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/api/v1/dataplans", nil))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"success":false,"message":"Server error while fetching data plans."}`, w.Body.String())
	m.AssertExpectations(t)
}
