package paymentprovider

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/recovera/internal/models"
)

func testPayment() models.Payment {
	return models.Payment{
		Reference: "REF-2abc",
		Amount:    decimal.RequireFromString("8.00"),
		Currency:  "USD",
		Provider:  models.ProviderStripe,
	}
}

func TestManual(t *testing.T) {
	tests := []struct {
		name string
		base string
		want string
	}{
		{name: "with slash", base: "https://pay.example.com/", want: "https://pay.example.com/REF-2abc"},
		{name: "without slash", base: "https://pay.example.com", want: "https://pay.example.com/REF-2abc"},
		{name: "empty base", base: "", want: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, NewManual(tt.base).CheckoutURL(testPayment()))
		})
	}

	c, err := NewManual("").Confirm(context.Background(), testPayment())
	require.NoError(t, err)
	assert.Equal(t, OutcomeSucceeded, c.Outcome)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewManual("").Confirm(ctx, testPayment())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestClient_Confirm(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantOutcome Outcome
		wantErr     bool
	}{
		{name: "succeeded", status: http.StatusOK, body: `{"status":"succeeded","amount":{"value":"8.00","currency":"USD"}}`, wantOutcome: OutcomeSucceeded},
		{name: "succeeded with short scale", status: http.StatusOK, body: `{"status":"succeeded","amount":{"value":"8.0","currency":"usd"}}`, wantOutcome: OutcomeSucceeded},
		{name: "succeeded without amount", status: http.StatusOK, body: `{"status":"succeeded"}`, wantOutcome: OutcomeSucceeded},
		{name: "amount mismatch", status: http.StatusOK, body: `{"status":"succeeded","amount":{"value":"4.00","currency":"USD"}}`, wantOutcome: OutcomeDeclined},
		{name: "amount not a number", status: http.StatusOK, body: `{"status":"succeeded","amount":{"value":"eight","currency":"USD"}}`, wantOutcome: OutcomeDeclined},
		{name: "currency mismatch", status: http.StatusOK, body: `{"status":"succeeded","amount":{"value":"8.00","currency":"KES"}}`, wantOutcome: OutcomeDeclined},
		{name: "canceled", status: http.StatusOK, body: `{"status":"canceled"}`, wantOutcome: OutcomeDeclined},
		{name: "failed", status: http.StatusOK, body: `{"status":"failed"}`, wantOutcome: OutcomeDeclined},
		{name: "pending", status: http.StatusOK, body: `{"status":"pending"}`, wantOutcome: OutcomePending},
		{name: "waiting for capture", status: http.StatusOK, body: `{"status":"waiting_for_capture"}`, wantOutcome: OutcomePending},
		{name: "not yet known to provider", status: http.StatusNotFound, body: `{}`, wantOutcome: OutcomePending},
		{name: "provider error", status: http.StatusBadGateway, body: `oops`, wantErr: true},
		{name: "bad json", status: http.StatusOK, body: `oops`, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				assert.Equal(t, "/payments/REF-2abc", r.URL.Path)
				assert.Equal(t, "stripe", r.URL.Query().Get("provider"))
				assert.NotEmpty(t, r.Header.Get("Authorization"))
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			c := NewClient(srv.URL+"/", "secret", "https://pay.example.com", time.Second)
			got, err := c.Confirm(context.Background(), testPayment())
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantOutcome, got.Outcome)
			assert.Equal(t, tt.body, got.Raw)
		})
	}
}

func TestClient_CheckoutURL(t *testing.T) {
	c := NewClient("http://api", "", "https://pay.example.com/", time.Second)
	assert.Equal(t, "https://pay.example.com/REF-2abc", c.CheckoutURL(testPayment()))
}
