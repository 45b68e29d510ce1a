// Package user реализует HTTP-обработчик карточки пользователя в админке.
package user

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

// Handler обрабатывает запросы на карточку пользователя.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс админки.
type Service interface {
	User(ctx context.Context, id string) (*models.AccountDetail, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Карточка пользователя
// @Description Аккаунт с устройствами, платежами и числом сканирований.
// @Tags Admin
// @Security BearerAuth
// @Produce  json
// @Param id path string true "ID пользователя"
// @Success 200 {object} models.AccountDetail
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/users/{id} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.user"

	id := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("user_id", id),
	)

	detail, err := h.service.User(r.Context(), id)
	if err != nil {
		log.Info("failed to read user", sl.Err(err))
		response.WriteError(w, r, err, "could not read user")
		return
	}

	render.JSON(w, r, detail)
}
