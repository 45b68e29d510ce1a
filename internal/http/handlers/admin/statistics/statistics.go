// Package statistics реализует HTTP-обработчик сводной статистики для дашборда.
package statistics

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

// Handler обрабатывает запросы на статистику.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс админки.
type Service interface {
	Statistics(ctx context.Context) (*models.Statistics, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статистика
// @Description Пользователи, активные подписки, выручка, сканирования за сегодня и конверсия.
// @Tags Admin
// @Security BearerAuth
// @Produce  json
// @Success 200 {object} models.Statistics
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/statistics [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.statistics"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	stats, err := h.service.Statistics(r.Context())
	if err != nil {
		log.Error("failed to collect statistics", sl.Err(err))
		response.WriteError(w, r, err, "could not collect statistics")
		return
	}

	render.JSON(w, r, stats)
}
