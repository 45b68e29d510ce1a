// Package read реализует HTTP-обработчик получения тарифа по коду
// (публичный маршрут) или по идентификатору (админка).
package read

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

// Handler обрабатывает запросы на получение тарифа.
type Handler struct {
	log    *slog.Logger
	param  string
	lookup func(ctx context.Context, key string) (*models.Plan, error)
}

// Service описывает интерфейс каталога тарифов.
type Service interface {
	GetByCode(ctx context.Context, code string) (*models.Plan, error)
	GetByID(ctx context.Context, id string) (*models.Plan, error)
}

// NewByCode создает Handler, ищущий тариф по параметру пути code.
func NewByCode(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, param: "code", lookup: service.GetByCode}
}

// NewByID создает Handler, ищущий тариф по параметру пути id.
func NewByID(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, param: "id", lookup: service.GetByID}
}

// ServeHTTP godoc
// @Summary Получение тарифа
// @Tags Plans
// @Produce  json
// @Param code path string true "Код тарифа"
// @Success 200 {object} models.Plan
// @Failure 404 {object} response.ErrorResponse "Тариф не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /plans/{code} [get]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.plan.read"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	key := chi.URLParam(r, h.param)
	plan, err := h.lookup(r.Context(), key)
	if err != nil {
		log.Info("failed to read plan", slog.String(h.param, key), sl.Err(err))
		response.WriteError(w, r, err, "could not read plan")
		return
	}

	render.JSON(w, r, plan)
}
