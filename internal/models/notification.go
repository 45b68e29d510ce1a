package models

import "time"

// Типы уведомлений, уходящих в брокер.
const (
	NotificationPasswordReset        = "password.reset"
	NotificationSubscriptionExpired  = "subscription.expired"
	NotificationSubscriptionExpiring = "subscription.expiring"
)

// Notification сообщение для отправки письма пользователю.
type Notification struct {
	Type      string     `json:"type"`
	Email     string     `json:"email"`
	Plan      *string    `json:"plan,omitempty"`
	ExpiresAt *time.Time `json:"expiresAt,omitempty"`
	ResetURL  string     `json:"resetUrl,omitempty"`
}
