package payment

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCallback(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantRef     string
		wantAmount  string
		wantSuccess bool
		wantReceipt string
		wantErr     bool
	}{
		{
			name:        "flat payload with success flag",
			body:        `{"ExternalReference":"INV-u1-TokenPackage-pkg_500-1","success":true,"Amount":35,"MPESA_Reference":"QWE123"}`,
			wantRef:     "INV-u1-TokenPackage-pkg_500-1",
			wantAmount:  "35",
			wantSuccess: true,
			wantReceipt: "QWE123",
		},
		{
			name:        "wrapped payload with result code",
			body:        `{"status":true,"response":{"ExternalReference":"INV-u1-DataPlan-dp-1","ResultCode":0,"Amount":"19.00","MpesaReceiptNumber":"RCP1"}}`,
			wantRef:     "INV-u1-DataPlan-dp-1",
			wantAmount:  "19",
			wantSuccess: true,
			wantReceipt: "RCP1",
		},
		{
			name:       "failed payment",
			body:       `{"response":{"ExternalReference":"INV-u1-TokenPackage-pkg-1","ResultCode":1032,"Amount":35}}`,
			wantRef:    "INV-u1-TokenPackage-pkg-1",
			wantAmount: "35",
		},
		{
			name:       "no status at all",
			body:       `{"ExternalReference":"INV-u1-TokenPackage-pkg-1","Amount":35}`,
			wantRef:    "INV-u1-TokenPackage-pkg-1",
			wantAmount: "35",
		},
		{
			name:        "lowercase result code",
			body:        `{"ExternalReference":"INV-u1-TokenPackage-pkg-1","resultCode":0,"Amount":35}`,
			wantRef:     "INV-u1-TokenPackage-pkg-1",
			wantAmount:  "35",
			wantSuccess: true,
		},
		{
			name:    "not json",
			body:    `ExternalReference=INV`,
			wantErr: true,
		},
		{
			name:    "array",
			body:    `[1,2]`,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cb, err := ParseCallback([]byte(tt.body))
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrMalformedCallback)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantRef, cb.ExternalReference)
			require.True(t, cb.Amount.Valid)
			assert.Equal(t, tt.wantAmount, cb.Amount.Decimal.String())
			assert.Equal(t, tt.wantSuccess, cb.Successful())
			assert.Equal(t, tt.wantReceipt, cb.Receipt())
		})
	}
}

func TestSuccessful_Conflicting(t *testing.T) {
	code := 0
	no := false
	cb := &Callback{ResultCode: &code, Success: &no}
	assert.False(t, cb.Successful())
}

func TestVerifySignature(t *testing.T) {
	body := []byte(`{"ExternalReference":"INV-u1-TokenPackage-pkg-1"}`)
	sig := Sign("s3cret", body)

	assert.True(t, VerifySignature("s3cret", body, sig))
	assert.False(t, VerifySignature("other", body, sig))
	assert.False(t, VerifySignature("s3cret", append(body, ' '), sig))
	assert.False(t, VerifySignature("s3cret", body, ""))
}
