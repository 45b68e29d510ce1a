// Package remove реализует HTTP-обработчик удаления тарифа.
package remove

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/recovera/internal/http/response"
	"github.com/magabrotheeeer/recovera/internal/lib/sl"
)

// Handler обрабатывает запросы на удаление тарифа.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс каталога тарифов.
type Service interface {
	Remove(ctx context.Context, id string) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Удаление тарифа
// @Tags Admin
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID тарифа"
// @Success 200 {object} response.MessageResponse
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/plans/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.remove"

	id := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("plan_id", id),
	)

	if err := h.service.Remove(r.Context(), id); err != nil {
		log.Error("failed to remove plan", sl.Err(err))
		response.WriteError(w, r, err, "could not remove plan")
		return
	}

	log.Info("plan removed")
	render.JSON(w, r, response.Message("Plan deleted"))
}
