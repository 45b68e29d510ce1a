// Package toggle реализует HTTP-обработчик включения и скрытия тарифа.
package toggle

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/recovera/internal/http/response"
	"github.com/magabrotheeeer/recovera/internal/lib/sl"
	"github.com/magabrotheeeer/recovera/internal/models"
)

// Handler обрабатывает запросы на переключение активности тарифа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс каталога тарифов.
type Service interface {
	ToggleActive(ctx context.Context, id string) (*models.Plan, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Переключение активности тарифа
// @Tags Admin
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID тарифа"
// @Success 200 {object} models.Plan
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/plans/{id}/toggle [put]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.toggle"

	id := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("plan_id", id),
	)

	plan, err := h.service.ToggleActive(r.Context(), id)
	if err != nil {
		log.Error("failed to toggle plan", sl.Err(err))
		response.WriteError(w, r, err, "could not toggle plan")
		return
	}

	log.Info("plan toggled", slog.Bool("is_active", plan.IsActive))
	render.JSON(w, r, plan)
}
