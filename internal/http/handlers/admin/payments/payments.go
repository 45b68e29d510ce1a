// Package payments реализует HTTP-обработчик списка платежей для админки.
package payments

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

// Handler обрабатывает запросы на список платежей.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс админки.
type Service interface {
	Payments(ctx context.Context, page, limit int, status models.PaymentStatus) (models.Page[models.PaymentWithEmail], error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Список платежей
// @Tags Admin
// @Security BearerAuth
// @Produce  json
// @Param page query int false "Номер страницы" default(1)
// @Param limit query int false "Размер страницы" default(20)
// @Param status query string false "Статус платежа" Enums(pending, completed, failed, refunded)
// @Success 200 {object} models.Page[models.PaymentWithEmail]
// @Failure 400 {object} response.ErrorResponse "Неизвестный статус"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/payments [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.payments"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	page, limit := query.Page(r)
	status := models.PaymentStatus(r.URL.Query().Get("status"))

	res, err := h.service.Payments(r.Context(), page, limit, status)
	if err != nil {
		log.Error("failed to list payments", sl.Err(err))
		response.WriteError(w, r, err, "could not list payments")
		return
	}

	render.JSON(w, r, res)
}
