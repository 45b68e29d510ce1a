// Package verify реализует HTTP-обработчик подтверждения платежа.
// Маршрут публичный и заменяет обратный вызов платёжного провайдера.
package verify

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/recovera/internal/http/response"
	"github.com/magabrotheeeer/recovera/internal/lib/sl"
	"github.com/magabrotheeeer/recovera/internal/models"
)

// Handler обрабатывает запросы на подтверждение платежа.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс биллинга.
type Service interface {
	VerifyPayment(ctx context.Context, req models.VerifyRequest) (*models.VerifyResult, error)
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{
		log:      log,
		service:  service,
		validate: validator.New(),
	}
}

// ServeHTTP godoc
// @Summary Подтверждение платежа
// @Description Проверяет платёж у провайдера и при успехе активирует подписку. Повторный вызов не меняет состояние.
// @Tags Billing
// @Accept  json
// @Produce  json
// @Param request body models.VerifyRequest true "Reference и провайдер"
// @Success 200 {object} models.VerifyResult
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 404 {object} response.ErrorResponse "Платёж не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /billing/verify [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.verify"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.VerifyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}

	if err := h.validate.Struct(req); err != nil {
		response.WriteValidationError(w, r, err)
		return
	}

	res, err := h.service.VerifyPayment(r.Context(), req)
	if err != nil {
		log.Error("failed to verify payment", slog.String("reference", req.Reference), sl.Err(err))
		response.WriteError(w, r, err, "could not verify payment")
		return
	}

	log.Info("payment verified", slog.String("reference", req.Reference), slog.String("payment_status", string(res.Payment)))
	render.JSON(w, r, res)
}
