// Package devices реализует HTTP-обработчик списка устройств для админки.
package devices

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

// Handler обрабатывает запросы на список устройств.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс админки.
type Service interface {
	Devices(ctx context.Context, accountID string) ([]models.Device, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список устройств
// @Description Все устройства, недавно активные первыми. userId ограничивает выборку одним аккаунтом.
// @Tags Admin
// @Security BearerAuth
// @Produce  json
// @Param userId query string false "ID пользователя"
// @Success 200 {array} models.Device
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/devices [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.devices"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	devices, err := h.service.Devices(r.Context(), r.URL.Query().Get("userId"))
	if err != nil {
		log.Error("failed to list devices", sl.Err(err))
		response.WriteError(w, r, err, "could not list devices")
		return
	}

	render.JSON(w, r, devices)
}
