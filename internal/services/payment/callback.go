package payment

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// ErrMalformedCallback — тело колбэка не является JSON-объектом.
var ErrMalformedCallback = errors.New("malformed callback payload")

// Callback — значимые поля колбэка шлюза. Шлюз присылает их либо на
// верхнем уровне, либо внутри объекта response.
type Callback struct {
	ExternalReference  string              `json:"ExternalReference"`
	ResultCode         *int                `json:"ResultCode"`
	ResultDesc         string              `json:"ResultDesc"`
	Success            *bool               `json:"success"`
	Amount             decimal.NullDecimal `json:"Amount"`
	MpesaReceiptNumber string              `json:"MpesaReceiptNumber"`
	MpesaReference     string              `json:"MPESA_Reference"`
	Phone              string              `json:"Phone"`
	CheckoutRequestID  string              `json:"CheckoutRequestID"`
}

type callbackEnvelope struct {
	Response json.RawMessage `json:"response"`
}

// ParseCallback разбирает тело колбэка. Сумма принимается числом или строкой.
func ParseCallback(body []byte) (*Callback, error) {
	const op = "payment.ParseCallback"

	var env callbackEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedCallback, err)
	}
	payload := body
	if len(env.Response) > 0 && !bytes.Equal(env.Response, []byte("null")) {
		payload = env.Response
	}

	var cb Callback
	if err := json.Unmarshal(payload, &cb); err != nil {
		return nil, fmt.Errorf("%s: %w: %w", op, ErrMalformedCallback, err)
	}
	return &cb, nil
}

// Successful сообщает, подтвердил ли шлюз оплату. ResultCode 0 и success
// true равнозначны; если присланы оба, должны подтверждать оба.
func (c *Callback) Successful() bool {
	if c.ResultCode == nil && c.Success == nil {
		return false
	}
	if c.ResultCode != nil && *c.ResultCode != 0 {
		return false
	}
	if c.Success != nil && !*c.Success {
		return false
	}
	return true
}

// Receipt — номер чека M-Pesa для логов.
func (c *Callback) Receipt() string {
	if c.MpesaReceiptNumber != "" {
		return c.MpesaReceiptNumber
	}
	return c.MpesaReference
}

// Sign вычисляет подпись тела: base64(HMAC-SHA256(secret, body)).
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature сравнивает подпись за постоянное время.
func VerifySignature(secret string, body []byte, signature string) bool {
	if signature == "" {
		return false
	}
	return hmac.Equal([]byte(Sign(secret, body)), []byte(signature))
}
