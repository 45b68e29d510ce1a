// Package list реализует HTTP-обработчик списка тарифов. Публичный маршрут
// отдаёт только активные тарифы, административный все.
package list

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/recovera/internal/http/response"
	"github.com/magabrotheeeer/recovera/internal/lib/sl"
	"github.com/magabrotheeeer/recovera/internal/models"
)

// Handler обрабатывает запросы на список тарифов.
type Handler struct {
	log     *slog.Logger
	service Service
	all     bool
}

// Service описывает интерфейс каталога тарифов.
type Service interface {
	ListActive(ctx context.Context) ([]models.Plan, error)
	ListAll(ctx context.Context) ([]models.Plan, error)
}

// New создает Handler для публичного каталога.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// NewAdmin создает Handler, отдающий и скрытые тарифы.
func NewAdmin(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service, all: true}
}

// ServeHTTP godoc
// @Summary Список тарифов
// @Description Возвращает тарифы в порядке отображения. /plans отдаёт только активные.
// @Tags Plans
// @Produce  json
// @Success 200 {array} models.Plan
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /plans [get]
// @Router /admin/plans [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.list"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var (
		plans []models.Plan
		err   error
	)
	if h.all {
		plans, err = h.service.ListAll(r.Context())
	} else {
		plans, err = h.service.ListActive(r.Context())
	}
	if err != nil {
		log.Error("failed to list plans", sl.Err(err))
		response.WriteError(w, r, err, "could not list plans")
		return
	}

	render.JSON(w, r, plans)
}
