package models

import "time"

// Device привязанное к аккаунту устройство. Отвязка только снимает флаг активности.
type Device struct {
	ID           string    `json:"id"`
	DeviceID     string    `json:"deviceId"`
	Model        string    `json:"model"`
	OSVersion    *string   `json:"osVersion"`
	AppVersion   *string   `json:"appVersion,omitempty"`
	AccountID    string    `json:"userId"`
	IsActive     bool      `json:"isActive"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// View публичное представление устройства без служебных полей.
func (d Device) View() DeviceView {
	return DeviceView{
		ID:           d.ID,
		DeviceID:     d.DeviceID,
		Model:        d.Model,
		OSVersion:    d.OSVersion,
		LastActiveAt: d.LastActiveAt,
		CreatedAt:    d.CreatedAt,
	}
}

// DeviceView то, что видит владелец устройства.
type DeviceView struct {
	ID           string    `json:"id"`
	DeviceID     string    `json:"deviceId"`
	Model        string    `json:"model"`
	OSVersion    *string   `json:"osVersion"`
	LastActiveAt time.Time `json:"lastActiveAt"`
	CreatedAt    time.Time `json:"createdAt"`
}

// BindRequest запрос на привязку устройства.
type BindRequest struct {
	UserID     string  `json:"userId" validate:"required,uuid"`
	DeviceID   string  `json:"deviceId" validate:"required,max=255"`
	Model      string  `json:"model" validate:"required,max=255"`
	OSVersion  *string `json:"osVersion,omitempty"`
	AppVersion *string `json:"appVersion,omitempty"`
}
