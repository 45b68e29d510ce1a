// Package block реализует HTTP-обработчик блокировки пользователя.
// Тело запроса опционально: без него аккаунт блокируется.
package block

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-chi/render"

	"github.com/magabrotheeeer/recovera/internal/http/response"
	"github.com/magabrotheeeer/recovera/internal/lib/sl"
)

// Request тело запроса. Blocked=false снимает блокировку.
type Request struct {
	Blocked *bool `json:"blocked,omitempty"`
}

// Handler обрабатывает запросы на блокировку.
type Handler struct {
	log     *slog.Logger
	service Service
}

// Service описывает интерфейс админки.
type Service interface {
	Block(ctx context.Context, id string, blocked bool) error
}

// New создает новый Handler.
func New(log *slog.Logger, service Service) *Handler {
	return &Handler{log: log, service: service}
}

// ServeHTTP godoc
// @Summary Блокировка пользователя
// @Tags Admin
// @Security BearerAuth
// @Accept  json
// @Produce  json
// @Param id path string true "ID пользователя"
// @Param request body Request false "blocked=false снимает блокировку"
// @Success 200 {object} response.MessageResponse
// @Failure 400 {object} response.ErrorResponse "Некорректный JSON"
// @Failure 404 {object} response.ErrorResponse "Пользователь не найден"
// @Failure 500 {object} response.ErrorResponse "Внутренняя ошибка сервера"
// @Router /admin/users/{id}/block [post]
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	const op = "handlers.admin.block"

	id := chi.URLParam(r, "id")
	log := h.log.With(
		slog.String("op", op),
		slog.String("request_id", middleware.GetReqID(r.Context())),
		slog.String("user_id", id),
	)

	var req Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		log.Error("failed to decode request body", sl.Err(err))
		render.Status(r, http.StatusBadRequest)
		render.JSON(w, r, response.Error("invalid request body"))
		return
	}
	blocked := req.Blocked == nil || *req.Blocked

	if err := h.service.Block(r.Context(), id, blocked); err != nil {
		log.Info("failed to change block flag", sl.Err(err))
		response.WriteError(w, r, err, "could not block user")
		return
	}

	msg := "User blocked"
	if !blocked {
		msg = "User unblocked"
	}
	render.JSON(w, r, response.Message(msg))
}
