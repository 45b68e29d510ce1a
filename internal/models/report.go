package models

import "time"

// RecoveryReport отчёт сканера о восстановленных данных. Только добавляется.
type RecoveryReport struct {
	ID                string    `json:"id"`
	AccountID         string    `json:"userId"`
	SMSCount          int       `json:"smsCount"`
	WhatsappCount     int       `json:"whatsappCount"`
	NotificationCount int       `json:"notificationCount"`
	MediaCount        int       `json:"mediaCount"`
	DeviceID          *string   `json:"deviceId,omitempty"`
	Metadata          *string   `json:"metadata,omitempty"`
	CreatedAt         time.Time `json:"createdAt"`
}

// ReportRequest данные отчёта от сканера.
type ReportRequest struct {
	UserID            string  `json:"userId" validate:"required,uuid"`
	SMSCount          int     `json:"smsCount" validate:"gte=0"`
	WhatsappCount     int     `json:"whatsappCount" validate:"gte=0"`
	NotificationCount int     `json:"notificationCount" validate:"gte=0"`
	MediaCount        int     `json:"mediaCount" validate:"gte=0"`
	DeviceID          *string `json:"deviceId,omitempty"`
	Metadata          *string `json:"metadata,omitempty"`
}

// ReportSummary сводка по отчёту.
type ReportSummary struct {
	SMS           int `json:"sms"`
	Whatsapp      int `json:"whatsapp"`
	Notifications int `json:"notifications"`
	Media         int `json:"media"`
}

// ReportResult ответ на сохранение отчёта.
type ReportResult struct {
	ReportID string        `json:"reportId"`
	Summary  ReportSummary `json:"summary"`
}
