package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// PaymentStatus статус платежа.
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

// Valid сообщает, является ли значение допустимым статусом платежа.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentCompleted, PaymentFailed, PaymentRefunded:
		return true
	}
	return false
}

// Provider платёжный провайдер.
type Provider string

const (
	ProviderMpesa       Provider = "mpesa"
	ProviderAirtelMoney Provider = "airtel_money"
	ProviderCards       Provider = "cards"
	ProviderStripe      Provider = "stripe"
	ProviderPaystack    Provider = "paystack"
	ProviderGooglePlay  Provider = "google_play"
)

// Valid сообщает, поддерживается ли провайдер.
func (p Provider) Valid() bool {
	switch p {
	case ProviderMpesa, ProviderAirtelMoney, ProviderCards, ProviderStripe, ProviderPaystack, ProviderGooglePlay:
		return true
	}
	return false
}

// MobileMoney провайдеры мобильных денег требуют номер телефона.
func (p Provider) MobileMoney() bool {
	return p == ProviderMpesa || p == ProviderAirtelMoney
}

// Payment платёж за тариф. После completed не изменяется.
type Payment struct {
	ID               string          `json:"id"`
	Reference        string          `json:"reference"`
	AccountID        string          `json:"userId"`
	Amount           decimal.Decimal `json:"amount"`
	Currency         string          `json:"currency"`
	Status           PaymentStatus   `json:"status"`
	Provider         Provider        `json:"provider"`
	PlanCode         string          `json:"plan"`
	PhoneNumber      *string         `json:"phoneNumber,omitempty"`
	ProviderResponse *string         `json:"providerResponse,omitempty"`
	CreatedAt        time.Time       `json:"createdAt"`
	UpdatedAt        time.Time       `json:"updatedAt"`
}

// PaymentWithEmail платёж с email владельца для админки.
type PaymentWithEmail struct {
	Payment
	Email string `json:"email"`
}

// PaymentIntent результат создания намерения оплаты.
type PaymentIntent struct {
	Reference  string          `json:"reference"`
	Amount     decimal.Decimal `json:"amount"`
	Currency   string          `json:"currency"`
	PaymentURL string          `json:"paymentUrl"`
}

// IntentRequest запрос на создание намерения оплаты.
type IntentRequest struct {
	UserID      string `json:"userId" validate:"required,uuid"`
	Plan        string `json:"plan" validate:"required"`
	Provider    string `json:"provider" validate:"required"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

// VerifyRequest запрос на подтверждение платежа.
type VerifyRequest struct {
	Reference string `json:"reference" validate:"required"`
	Provider  string `json:"provider" validate:"required"`
}

// VerifyResult итог подтверждения платежа.
type VerifyResult struct {
	Status    SubscriptionStatus `json:"status"`
	Plan      *string            `json:"plan"`
	ExpiresAt *time.Time         `json:"expiresAt"`
	Payment   PaymentStatus      `json:"paymentStatus"`
}
