// Package list реализует HTTP-обработчик списка активных устройств пользователя.
package list

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

// Handler обрабатывает запросы на список устройств.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс устройств.
type Service interface {
	List(ctx context.Context, accountID string) ([]models.DeviceView, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список устройств
// @Tags Device
// @Security BearerAuth
// @Produce  json
// @Param userId path string true "ID пользователя"
// @Success 200 {array} models.DeviceView
// @Failure 403 {object} response.ErrorResponse "Чужой аккаунт"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /device/list/{userId} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.list"

	userID := chi.URLParam(r, "userId")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("user_id", userID),
	)

	devices, err := h.service.List(r.Context(), userID)
	if err != nil {
		log.Error("failed to list devices", sl.Err(err))
		response.WriteError(w, r, err, "could not list devices")
		return
	}

	render.JSON(w, r, devices)
}
