package models

import "github.com/shopspring/decimal"

// Page страница выборки для админки.
type Page[T any] struct {
	Data       []T `json:"data"`
	Total      int `json:"total"`
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalPages int `json:"totalPages"`
}

// NewPage собирает страницу и считает число страниц.
func NewPage[T any](data []T, total, page, limit int) Page[T] {
	if data == nil {
		data = []T{}
	}
	pages := 0
	if limit > 0 {
		pages = (total + limit - 1) / limit
	}
	return Page[T]{Data: data, Total: total, Page: page, Limit: limit, TotalPages: pages}
}

// AccountDetail карточка пользователя в админке.
type AccountDetail struct {
	Account
	Devices    []Device  `json:"devices"`
	Payments   []Payment `json:"payments"`
	TotalScans int       `json:"totalScans"`
}

// Statistics сводные показатели для дашборда.
type Statistics struct {
	TotalUsers          int             `json:"totalUsers"`
	ActiveSubscriptions int             `json:"activeSubscriptions"`
	TotalRevenue        decimal.Decimal `json:"totalRevenue"`
	TodayScans          int             `json:"todayScans"`
	ConversionRate      decimal.Decimal `json:"conversionRate"`
}
