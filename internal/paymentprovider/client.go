package paymentprovider

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/recovera/internal/models"
)

// ErrUnexpectedStatus провайдер ответил кодом, отличным от 200.
var ErrUnexpectedStatus = errors.New("unexpected provider status")

// statusResponse ответ провайдера о состоянии платежа.
type statusResponse struct {
	Reference string `json:"reference"`
	Status    string `json:"status"`
	Amount    struct {
		Value    string `json:"value"`
		Currency string `json:"currency"`
	} `json:"amount"`
}

// Client шлюз, который спрашивает состояние платежа у HTTP API провайдера:
// GET {apiURL}/payments/{reference}.
type Client struct {
	apiURL          string
	secretKey       string
	checkoutBaseURL string
	httpClient      *http.Client
}

// NewClient создаёт HTTP-шлюз.
func NewClient(apiURL, secretKey, checkoutBaseURL string, timeout time.Duration) *Client {
	return &Client{
		apiURL:          strings.TrimSuffix(apiURL, "/"),
		secretKey:       secretKey,
		checkoutBaseURL: checkoutBaseURL,
		httpClient:      &http.Client{Timeout: timeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, nil)
	if err != nil {
		return nil, err
	}
	auth := base64.StdEncoding.EncodeToString([]byte("recovera:" + c.secretKey))
	req.Header.Set("Authorization", "Basic "+auth)
	req.Header.Set("Accept", "application/json")
	return req, nil
}

// CheckoutURL возвращает ссылку на страницу оплаты.
func (c *Client) CheckoutURL(p models.Payment) string {
	return checkoutURL(c.checkoutBaseURL, p.Reference)
}

// Confirm спрашивает состояние платежа. succeeded с совпадающей суммой
// даёт OutcomeSucceeded, canceled/failed/expired или чужая сумма дают
// OutcomeDeclined. Прочие статусы и 404 (провайдер ещё не видел платёж)
// дают OutcomePending.
func (c *Client) Confirm(ctx context.Context, p models.Payment) (Confirmation, error) {
	const op = "paymentprovider.Confirm"

	req, err := c.newRequest(ctx, http.MethodGet, "/payments/"+url.PathEscape(p.Reference))
	if err != nil {
		return Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}
	q := req.URL.Query()
	q.Set("provider", string(p.Provider))
	req.URL.RawQuery = q.Encode()

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}
	if resp.StatusCode == http.StatusNotFound {
		return Confirmation{Outcome: OutcomePending, Raw: string(body)}, nil
	}
	if resp.StatusCode != http.StatusOK {
		return Confirmation{}, fmt.Errorf("%s: %w: %s", op, ErrUnexpectedStatus, resp.Status)
	}

	var status statusResponse
	if err := json.Unmarshal(body, &status); err != nil {
		return Confirmation{}, fmt.Errorf("%s: %w", op, err)
	}

	return Confirmation{Outcome: outcome(status, p), Raw: string(body)}, nil
}

func outcome(status statusResponse, p models.Payment) Outcome {
	switch strings.ToLower(status.Status) {
	case "succeeded":
		if amountMatches(status, p) {
			return OutcomeSucceeded
		}
		return OutcomeDeclined
	case "canceled", "cancelled", "failed", "expired":
		return OutcomeDeclined
	default:
		return OutcomePending
	}
}

func amountMatches(status statusResponse, p models.Payment) bool {
	if status.Amount.Value == "" {
		return true
	}
	if status.Amount.Currency != "" && !strings.EqualFold(status.Amount.Currency, p.Currency) {
		return false
	}
	amount, err := decimal.NewFromString(status.Amount.Value)
	if err != nil {
		return false
	}
	return amount.Equal(p.Amount)
}
