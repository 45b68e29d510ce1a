// Package history реализует HTTP-обработчик истории отчётов пользователя.
package history

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

// Handler обрабатывает запросы на историю отчётов.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс отчётов.
type Service interface {
	History(ctx context.Context, accountID string) ([]models.RecoveryReport, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary История отчётов
// @Description Последние 10 отчётов, новые первыми.
// @Tags Recovery
// @Security BearerAuth
// @Produce  json
// @Param userId path string true "ID пользователя"
// @Success 200 {array} models.RecoveryReport
// @Failure 403 {object} response.ErrorResponse "Чужой аккаунт"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /recovery/history/{userId} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recovery.history"

	userID := chi.URLParam(r, "userId")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("user_id", userID),
	)

	reports, err := h.service.History(r.Context(), userID)
	if err != nil {
		log.Error("failed to read history", sl.Err(err))
		response.WriteError(w, r, err, "could not read history")
		return
	}
	if reports == nil {
		reports = []models.RecoveryReport{}
	}

	render.JSON(w, r, reports)
}
