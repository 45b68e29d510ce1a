// Package models содержит доменные модели сервиса: аккаунты, тарифы,
// платежи, устройства и отчёты о восстановлении.
package models

import "time"

// SubscriptionStatus статус подписки аккаунта.
type SubscriptionStatus string

const (
	StatusInactive SubscriptionStatus = "inactive"
	StatusActive   SubscriptionStatus = "active"
	StatusExpired  SubscriptionStatus = "expired"
	StatusCanceled SubscriptionStatus = "canceled"
)

// Valid сообщает, является ли значение допустимым статусом.
func (s SubscriptionStatus) Valid() bool {
	switch s {
	case StatusInactive, StatusActive, StatusExpired, StatusCanceled:
		return true
	}
	return false
}

// Роли аккаунта.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Account зарегистрированный пользователь и состояние его подписки.
// Поля подписки меняет только биллинг, флаг блокировки только администратор.
type Account struct {
	ID                    string             `json:"id"`
	Email                 string             `json:"email"`
	PasswordHash          string             `json:"-"`
	Role                  string             `json:"role"`
	SubscriptionStatus    SubscriptionStatus `json:"subscriptionStatus"`
	SubscriptionPlan      *string            `json:"subscriptionPlan"`
	SubscriptionExpiresAt *time.Time         `json:"subscriptionExpiresAt"`
	IsBlocked             bool               `json:"isBlocked"`
	ResetPasswordToken    *string            `json:"-"`
	ResetPasswordExpires  *time.Time         `json:"-"`
	CreatedAt             time.Time          `json:"createdAt"`
	UpdatedAt             time.Time          `json:"updatedAt"`
}

// EffectiveStatus возвращает статус с учётом срока действия:
// активная подписка с истёкшим сроком считается expired.
func (a *Account) EffectiveStatus(now time.Time) SubscriptionStatus {
	if a.SubscriptionStatus == StatusActive && a.SubscriptionExpiresAt != nil && now.After(*a.SubscriptionExpiresAt) {
		return StatusExpired
	}
	return a.SubscriptionStatus
}

// Subscription снимок подписки на момент now.
func (a *Account) Subscription(now time.Time) Subscription {
	return Subscription{
		Status:    a.EffectiveStatus(now),
		Plan:      a.SubscriptionPlan,
		ExpiresAt: a.SubscriptionExpiresAt,
	}
}

// Subscription состояние подписки, отдаваемое клиенту.
type Subscription struct {
	Status    SubscriptionStatus `json:"status"`
	Plan      *string            `json:"plan"`
	ExpiresAt *time.Time         `json:"expiresAt"`
}

// AuthResult ответ на регистрацию и вход.
type AuthResult struct {
	Token              string             `json:"token"`
	UserID             string             `json:"userId"`
	Email              string             `json:"email"`
	SubscriptionStatus SubscriptionStatus `json:"subscriptionStatus,omitempty"`
	SubscriptionPlan   *string            `json:"subscriptionPlan,omitempty"`
}

// RegisterRequest данные регистрации. DeviceID опционален.
type RegisterRequest struct {
	Email      string      `json:"email" validate:"required,email"`
	Password   string      `json:"password" validate:"required,min=6,max=72"`
	DeviceID   string      `json:"deviceId,omitempty" validate:"omitempty,max=255"`
	DeviceInfo *DeviceInfo `json:"deviceInfo,omitempty"`
}

// DeviceInfo сведения об устройстве, переданные при регистрации.
type DeviceInfo struct {
	Model      string  `json:"model"`
	OSVersion  *string `json:"osVersion,omitempty"`
	AppVersion *string `json:"appVersion,omitempty"`
}

// LoginRequest данные входа.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// ForgotPasswordRequest запрос на письмо со ссылкой сброса.
type ForgotPasswordRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// ResetPasswordRequest установка пароля по токену из письма.
type ResetPasswordRequest struct {
	Token    string `json:"token" validate:"required"`
	Password string `json:"password" validate:"required,min=6,max=72"`
}

// ChangePasswordRequest смена пароля авторизованным пользователем.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"currentPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"required,min=6,max=72"`
}
