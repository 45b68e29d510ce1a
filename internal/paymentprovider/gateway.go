// Package paymentprovider отвечает за обращения к платёжным провайдерам:
// ссылку на оплату и подтверждение платежа по его reference.
package paymentprovider

import (
	"context"
	"net/url"
	"strings"

	"github.com/magabrotheeeer/recovera/internal/models"
)

// Outcome итог проверки платежа у провайдера.
type Outcome string

const (
	// OutcomeSucceeded провайдер получил деньги.
	OutcomeSucceeded Outcome = "succeeded"
	// OutcomeDeclined платёж окончательно не прошёл.
	OutcomeDeclined Outcome = "declined"
	// OutcomePending провайдер ещё не завершил платёж, проверку можно повторить.
	OutcomePending Outcome = "pending"
)

// Confirmation ответ провайдера на запрос подтверждения.
type Confirmation struct {
	Outcome Outcome
	// Raw исходный ответ провайдера, сохраняется в платеже.
	Raw string
}

// Gateway платёжный шлюз.
type Gateway interface {
	CheckoutURL(p models.Payment) string
	Confirm(ctx context.Context, p models.Payment) (Confirmation, error)
}

var (
	_ Gateway = (*Manual)(nil)
	_ Gateway = (*Client)(nil)
)

// Manual шлюз, который считает сам вызов подтверждения достоверным.
// Используется, когда внешний провайдер не настроен.
type Manual struct {
	checkoutBaseURL string
}

// NewManual создаёт Manual со ссылкой на оплату вида checkoutBaseURL + reference.
func NewManual(checkoutBaseURL string) *Manual {
	return &Manual{checkoutBaseURL: checkoutBaseURL}
}

// CheckoutURL возвращает ссылку на страницу оплаты.
func (m *Manual) CheckoutURL(p models.Payment) string {
	return checkoutURL(m.checkoutBaseURL, p.Reference)
}

// Confirm всегда подтверждает платёж.
func (m *Manual) Confirm(ctx context.Context, p models.Payment) (Confirmation, error) {
	if err := ctx.Err(); err != nil {
		return Confirmation{}, err
	}
	return Confirmation{Outcome: OutcomeSucceeded, Raw: `{"source":"manual"}`}, nil
}

func checkoutURL(base, reference string) string {
	if base == "" {
		return ""
	}
	if !strings.HasSuffix(base, "/") {
		base += "/"
	}
	return base + url.PathEscape(reference)
}
