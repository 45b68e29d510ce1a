// Package users реализует HTTP-обработчик списка пользователей для админки.
package users

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/recovera/internal/http/handlers/admin/query"
	"github.com/magabrotheeeer/recovera/internal/http/response"
	"github.com/magabrotheeeer/recovera/internal/lib/sl"
	"github.com/magabrotheeeer/recovera/internal/models"
)

// Handler обрабатывает запросы на список пользователей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс админки.
type Service interface {
	Users(ctx context.Context, page, limit int, status models.SubscriptionStatus) (models.Page[models.Account], error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список пользователей
// @Description Постранично, новые первыми. Фильтр по статусу подписки опционален.
// @Tags Admin
// @Security BearerAuth
// @Produce  json
// @Param page query int false "Номер страницы" default(1)
// @Param limit query int false "Размер страницы" default(20)
// @Param status query string false "Статус подписки" Enums(inactive, active, expired, canceled)
// @Success 200 {object} models.Page[models.Account]
// @Failure 400 {object} response.ErrorResponse "Неизвестный статус"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/users [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.users"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	page, limit := query.Page(r)
	status := models.SubscriptionStatus(r.URL.Query().Get("status"))

	res, err := h.service.Users(r.Context(), page, limit, status)
	if err != nil {
		log.Error("failed to list users", sl.Err(err))
		response.WriteError(w, r, err, "could not list users")
		return
	}

	render.JSON(w, r, res)
}
