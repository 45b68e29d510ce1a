// Package unbind реализует HTTP-обработчик отвязки устройства.
// Пользователь отвязывает только свои устройства, администратор любые.
package unbind

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/recovera/internal/http/middlewarectx"
	"github.com/magabrotheeeer/recovera/internal/http/response"
	"github.com/magabrotheeeer/recovera/internal/lib/sl"
)

// Handler обрабатывает запросы на отвязку устройства.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс устройств.
type Service interface {
	Unbind(ctx context.Context, id, ownerID string) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Отвязка устройства
// @Tags Device
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID записи устройства"
// @Success 200 {object} response.MessageResponse
// @Failure 404 {object} response.ErrorResponse "Устройство не найдено"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /device/{id} [delete]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.unbind"

	id := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("device", id),
	)

	owner := middlewarectx.AccountIDFromContext(r.Context())
	if middlewarectx.IsAdmin(r.Context()) {
		owner = ""
	}

	if err := h.service.Unbind(r.Context(), id, owner); err != nil {
		log.Info("failed to unbind device", sl.Err(err))
		response.WriteError(w, r, err, "could not unbind device")
		return
	}

	render.JSON(w, r, response.Message("Device unbound successfully"))
}
