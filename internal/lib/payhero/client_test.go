package payhero

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/token-billing/internal/config"
)

func TestClient_InitiatePush(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v2/payments", r.URL.Path)
		assert.Equal(t, "Basic dGVzdA==", r.Header.Get("Authorization"))

		var req STKPushRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, 35.0, req.Amount)
		assert.Equal(t, "0712345678", req.PhoneNumber)
		assert.Equal(t, "INV-u1-TokenPackage-package_500-1700000000000", req.ExternalReference)

		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"success":true,"status":"QUEUED","reference":"ref-1","CheckoutRequestID":"ws_CO_1"}`))
	}))
	defer srv.Close()

	c := NewClient(config.PayHero{BaseURL: srv.URL + "/api/v2/", BasicAuth: "Basic dGVzdA=="})
	resp, err := c.InitiatePush(context.Background(), STKPushRequest{
		Amount:            35,
		PhoneNumber:       "0712345678",
		ExternalReference: "INV-u1-TokenPackage-package_500-1700000000000",
	})
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, "QUEUED", resp.Status)
	assert.Equal(t, "ws_CO_1", resp.CheckoutRequestID)
}

func TestClient_InitiatePush_Errors(t *testing.T) {
	t.Run("not configured", func(t *testing.T) {
		c := NewClient(config.PayHero{BaseURL: "http://127.0.0.1:1"})
		_, err := c.InitiatePush(context.Background(), STKPushRequest{})
		require.ErrorIs(t, err, ErrNotConfigured)
	})

	t.Run("gateway rejects", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			http.Error(w, `{"error_message":"invalid channel"}`, http.StatusBadRequest)
		}))
		defer srv.Close()

		c := NewClient(config.PayHero{BaseURL: srv.URL, BasicAuth: "Basic x"})
		_, err := c.InitiatePush(context.Background(), STKPushRequest{})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid channel")
	})
}

func TestClient_SendWhatsApp(t *testing.T) {
	var got WhatsAppTextRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/whatspp/sendText", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := NewClient(config.PayHero{BaseURL: srv.URL, BasicAuth: "Basic x", WhatsAppSession: "shop"})
	require.NoError(t, c.SendWhatsApp(context.Background(), "0712345678", "tokens added"))
	assert.Equal(t, WhatsAppTextRequest{Message: "tokens added", PhoneNumber: "0712345678", Session: "shop"}, got)

	noSession := NewClient(config.PayHero{BaseURL: srv.URL, BasicAuth: "Basic x"})
	require.ErrorIs(t, noSession.SendWhatsApp(context.Background(), "0712345678", "x"), ErrNotConfigured)
}
