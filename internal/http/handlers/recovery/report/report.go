// Package report реализует HTTP-обработчик приёма отчёта сканера о восстановлении.
package report

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

// Handler обрабатывает отчёты о восстановлении.
type Handler struct {
	log      *slog.Logger
	service  Service
	validate *validator.Validate
}

// Service описывает интерфейс отчётов.
type Service interface {
	CreateReport(ctx context.Context, req models.ReportRequest) (*models.ReportResult, error)
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
// @Summary Отчёт о восстановлении
// @Description Сохраняет количество восстановленных SMS, сообщений WhatsApp, уведомлений и медиафайлов.
// @Tags Recovery
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param request body models.ReportRequest true "Отчёт"
// @Success 201 {object} models.ReportResult
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 403 {object} response.ErrorResponse "Чужой аккаунт"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 422 {object} response.ErrorResponse "Ошибка валидации"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /recovery/report [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.recovery.report"

	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
	)

	var req models.ReportRequest
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

	res, err := h.service.CreateReport(r.Context(), req)
	if err != nil {
		log.Error("failed to store report", sl.Err(err))
		response.WriteError(w, r, err, "could not store report")
		return
	}

	log.Info("recovery report stored", slog.String("report_id", res.ReportID))
	render.Status(r, http.StatusCreated)
	render.JSON(w, r, res)
}
