// Package status реализует HTTP-обработчик текущего состояния подписки.
package status

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

// Handler обрабатывает запросы на статус подписки.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс биллинга.
type Service interface {
	GetSubscriptionStatus(ctx context.Context, accountID string) (*models.Subscription, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Статус подписки
// @Description Статус учитывает срок действия: просроченная подписка отдаётся как expired.
// @Tags Billing
// @Security BearerAuth
// @Produce  json
// @Param userId path string true "ID пользователя"
// @Success 200 {object} models.Subscription
// @Failure 403 {object} response.ErrorResponse "Чужой аккаунт"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /billing/status/{userId} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.status"

	userID := chi.URLParam(r, "userId")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("user_id", userID),
	)

	sub, err := h.service.GetSubscriptionStatus(r.Context(), userID)
	if err != nil {
		log.Info("failed to get subscription status", sl.Err(err))
		response.WriteError(w, r, err, "could not get subscription status")
		return
	}

	render.JSON(w, r, sub)
}
