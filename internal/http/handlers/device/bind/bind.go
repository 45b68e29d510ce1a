// Package bind реализует HTTP-обработчик привязки устройства к аккаунту.
//
// Число активных устройств ограничено тарифом; превышение лимита и повторная
// регистрация того же deviceId дают 409.
package bind

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

// Response тело успешного ответа.
type Response struct {
	DeviceID string `json:"deviceId"`
	Message  string `json:"message"`
}

// Handler обрабатывает запросы на привязку устройства.
type Handler struct {
	log      *slog.Logger        // Логгер для записи операций и ошибок
	service  Service             // Сервис устройств
	validate *validator.Validate // Валидатор входных данных
}

// Service описывает интерфейс привязки устройств.
type Service interface {
	Bind(ctx context.Context, req models.BindRequest) (string, error)
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
// @Summary Привязка устройства
// @Tags Device
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body models.BindRequest true "Устройство"
// @Success 201 {object} Response
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Чужой аккаунт"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 409 {object} response.ErrorResponse "Лимит устройств или устройство уже привязано"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /device/bind [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.device.bind"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.BindRequest
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
		render.Status(r, http.StatusForbidden)
		render.JSON(w, r, response.Error("access denied"))
		return
	}

	deviceID, err := h.service.Bind(r.Context(), req)
	if err != nil {
		log.Info("device bind rejected", slog.String("user_id", req.UserID), sl.Err(err))
		response.WriteError(w, r, err, "could not bind device")
		return
	}

	render.Status(r, http.StatusCreated)
	render.JSON(w, r, Response{DeviceID: deviceID, Message: "Device bound successfully"})
}
