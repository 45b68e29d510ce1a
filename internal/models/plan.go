package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Plan тариф подписки.
type Plan struct {
	ID                   string          `json:"id"`
	Code                 string          `json:"code"`
	Name                 string          `json:"name"`
	Price                decimal.Decimal `json:"price"`
	Currency             string          `json:"currency"`
	Description          string          `json:"description"`
	Features             []string        `json:"features"`
	MaxDevices           int             `json:"maxDevices"`
	DataRetentionDays    int             `json:"dataRetentionDays"`
	SMSRecovery          bool            `json:"smsRecovery"`
	NotificationRecovery bool            `json:"notificationRecovery"`
	WhatsappRecovery     bool            `json:"whatsappRecovery"`
	MediaRecovery        bool            `json:"mediaRecovery"`
	ExportFormats        []string        `json:"exportFormats"`
	SupportResponseHours int             `json:"supportResponseHours"`
	IsActive             bool            `json:"isActive"`
	DisplayOrder         int             `json:"displayOrder"`
	Badge                *string         `json:"badge"`
	CreatedAt            time.Time       `json:"createdAt"`
	UpdatedAt            time.Time       `json:"updatedAt"`
}

// PlanInput данные для создания тарифа.
type PlanInput struct {
	Code                 string   `json:"code" validate:"required,max=50"`
	Name                 string   `json:"name" validate:"required,max=100"`
	Price                decimal.Decimal `json:"price"`
	Currency             string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	Description          string   `json:"description,omitempty"`
	Features             []string `json:"features" validate:"required"`
	MaxDevices           int      `json:"maxDevices" validate:"required,min=1,max=10"`
	DataRetentionDays    int      `json:"dataRetentionDays" validate:"required,min=1"`
	SMSRecovery          bool     `json:"smsRecovery"`
	NotificationRecovery bool     `json:"notificationRecovery"`
	WhatsappRecovery     bool     `json:"whatsappRecovery"`
	MediaRecovery        bool     `json:"mediaRecovery"`
	ExportFormats        []string `json:"exportFormats,omitempty"`
	SupportResponseHours int      `json:"supportResponseHours" validate:"required,min=1"`
	IsActive             *bool    `json:"isActive,omitempty"`
	DisplayOrder         int      `json:"displayOrder"`
	Badge                *string  `json:"badge,omitempty"`
}

// ToPlan собирает Plan из входных данных, подставляя значения по умолчанию.
func (in PlanInput) ToPlan() Plan {
	p := Plan{
		Code:                 in.Code,
		Name:                 in.Name,
		Price:                in.Price.Round(2),
		Currency:             in.Currency,
		Description:          in.Description,
		Features:             in.Features,
		MaxDevices:           in.MaxDevices,
		DataRetentionDays:    in.DataRetentionDays,
		SMSRecovery:          in.SMSRecovery,
		NotificationRecovery: in.NotificationRecovery,
		WhatsappRecovery:     in.WhatsappRecovery,
		MediaRecovery:        in.MediaRecovery,
		ExportFormats:        in.ExportFormats,
		SupportResponseHours: in.SupportResponseHours,
		IsActive:             true,
		DisplayOrder:         in.DisplayOrder,
		Badge:                in.Badge,
	}
	if p.Currency == "" {
		p.Currency = DefaultCurrency
	}
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.ExportFormats == nil {
		p.ExportFormats = []string{}
	}
	if in.IsActive != nil {
		p.IsActive = *in.IsActive
	}
	return p
}

// DefaultCurrency валюта тарифов по умолчанию.
const DefaultCurrency = "USD"

// MaxPlanPrice наибольшая цена, которая помещается в NUMERIC(10,2).
var MaxPlanPrice = decimal.RequireFromString("99999999.99")

// ValidPrice сообщает, попадает ли цена после округления до центов в [0, MaxPlanPrice].
func ValidPrice(price decimal.Decimal) bool {
	rounded := price.Round(2)
	return !rounded.IsNegative() && rounded.LessThanOrEqual(MaxPlanPrice)
}

// PlanPatch частичное обновление тарифа: применяются только заданные поля.
type PlanPatch struct {
	Code                 *string   `json:"code,omitempty" validate:"omitempty,max=50"`
	Name                 *string   `json:"name,omitempty" validate:"omitempty,max=100"`
	Price                *decimal.Decimal `json:"price,omitempty"`
	Currency             *string   `json:"currency,omitempty" validate:"omitempty,len=3"`
	Description          *string   `json:"description,omitempty"`
	Features             *[]string `json:"features,omitempty"`
	MaxDevices           *int      `json:"maxDevices,omitempty" validate:"omitempty,min=1,max=10"`
	DataRetentionDays    *int      `json:"dataRetentionDays,omitempty" validate:"omitempty,min=1"`
	SMSRecovery          *bool     `json:"smsRecovery,omitempty"`
	NotificationRecovery *bool     `json:"notificationRecovery,omitempty"`
	WhatsappRecovery     *bool     `json:"whatsappRecovery,omitempty"`
	MediaRecovery        *bool     `json:"mediaRecovery,omitempty"`
	ExportFormats        *[]string `json:"exportFormats,omitempty"`
	SupportResponseHours *int      `json:"supportResponseHours,omitempty" validate:"omitempty,min=1"`
	IsActive             *bool     `json:"isActive,omitempty"`
	DisplayOrder         *int      `json:"displayOrder,omitempty"`
	Badge                *string   `json:"badge,omitempty"`
}

// Apply переносит заданные поля патча в p.
func (patch PlanPatch) Apply(p *Plan) {
	if patch.Code != nil {
		p.Code = *patch.Code
	}
	if patch.Name != nil {
		p.Name = *patch.Name
	}
	if patch.Price != nil {
		p.Price = patch.Price.Round(2)
	}
	if patch.Currency != nil {
		p.Currency = *patch.Currency
	}
	if patch.Description != nil {
		p.Description = *patch.Description
	}
	if patch.Features != nil {
		p.Features = *patch.Features
	}
	if patch.MaxDevices != nil {
		p.MaxDevices = *patch.MaxDevices
	}
	if patch.DataRetentionDays != nil {
		p.DataRetentionDays = *patch.DataRetentionDays
	}
	if patch.SMSRecovery != nil {
		p.SMSRecovery = *patch.SMSRecovery
	}
	if patch.NotificationRecovery != nil {
		p.NotificationRecovery = *patch.NotificationRecovery
	}
	if patch.WhatsappRecovery != nil {
		p.WhatsappRecovery = *patch.WhatsappRecovery
	}
	if patch.MediaRecovery != nil {
		p.MediaRecovery = *patch.MediaRecovery
	}
	if patch.ExportFormats != nil {
		p.ExportFormats = *patch.ExportFormats
	}
	if patch.SupportResponseHours != nil {
		p.SupportResponseHours = *patch.SupportResponseHours
	}
	if patch.IsActive != nil {
		p.IsActive = *patch.IsActive
	}
	if patch.DisplayOrder != nil {
		p.DisplayOrder = *patch.DisplayOrder
	}
	if patch.Badge != nil {
		p.Badge = patch.Badge
	}
}
