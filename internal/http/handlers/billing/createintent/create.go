// Package createintent реализует HTTP-обработчик создания намерения оплаты.
//
// Обработчик проверяет, что оплату оформляет сам владелец аккаунта или
// администратор, и возвращает reference платежа вместе со ссылкой на оплату.
package createintent

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"
	"github.com/go-playground/validator"

	"github.com/magabrotheeeer/recovera/internal/http/middlewarectx"
	"github.com/magabrotheeeer/recovera/internal/http/response"
	"github.com/magabrotheeeer/recovera/internal/lib/sl"
	"github.com/magabrotheeeer/recovera/internal/models"
)

// Handler обрабатывает запросы на создание платежа.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис биллинга
	validate *validator.Validate // Валидатор входных данных
}

// Service описывает интерфейс биллинга.
type Service interface {
	CreateIntent(ctx context.Context, req models.IntentRequest) (*models.PaymentIntent, error)
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
// @Summary Создание платежа
// @Description Создаёт платёж в статусе pending и возвращает ссылку на оплату.
// @Tags Billing
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body models.IntentRequest true "Тариф и способ оплаты"
// @Success 201 {object} models.PaymentIntent
// @Failure 400 {object} response.ErrorResponse "Некорректный запрос"
// @Failure 403 {object} response.ErrorResponse "Чужой аккаунт"
// @Failure 404 {object} response.ErrorResponse "Пользователь или тариф не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /billing/create-intent [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.billing.createintent"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.IntentRequest
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

	if !middlewarectx.CanAccess(r.Context(), req.UserID) {
		log.Warn("payment for foreign account rejected", slog.String("user_id", req.UserID))
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("access denied"))
		return
	}

	intent, err := h.service.CreateIntent(r.Context(), req)
	if err != nil {
		log.Error("failed to create payment intent", sl.Err(err))
		response.WriteError(w, r, err, "could not create payment")
		return
	}

	log.Info("payment intent created", slog.String("reference", intent.Reference))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, intent)
}
