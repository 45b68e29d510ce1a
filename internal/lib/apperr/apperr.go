// Package apperr описывает доменные ошибки сервиса. Каждая ошибка относится
// к одному из видов (NotFound, Conflict, Unauthorized, Forbidden, Validation),
// несёт человекочитаемое сообщение и однозначно отображается в HTTP статус.
package apperr

import (
	"errors"
	"net/http"
)

// Виды ошибок. Проверяются через errors.Is.
var (
	ErrNotFound     = errors.New("not found")
	ErrConflict     = errors.New("conflict")
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrValidation   = errors.New("validation failed")
)

// Error доменная ошибка с сообщением для клиента.
type Error struct {
	Kind     error
	Message  string
	Internal error
}

func (e *Error) Error() string {
	if e.Internal != nil {
		return e.Message + ": " + e.Internal.Error()
	}
	return e.Message
}

// Is сравнивает ошибку с видом.
func (e *Error) Is(target error) bool {
	return target == e.Kind
}

func (e *Error) Unwrap() error {
	return e.Internal
}

// Wrap создаёт ошибку вида kind с исходной причиной err.
func Wrap(kind error, msg string, err error) error {
	return &Error{Kind: kind, Message: msg, Internal: err}
}

// NotFound запрошенная сущность отсутствует.
func NotFound(msg string) error {
	return &Error{Kind: ErrNotFound, Message: msg}
}

// Conflict нарушение уникальности или лимита.
func Conflict(msg string) error {
	return &Error{Kind: ErrConflict, Message: msg}
}

// Unauthorized неверные учётные данные или токен.
func Unauthorized(msg string) error {
	return &Error{Kind: ErrUnauthorized, Message: msg}
}

// Forbidden недостаточно прав.
func Forbidden(msg string) error {
	return &Error{Kind: ErrForbidden, Message: msg}
}

// Validation некорректные входные данные.
func Validation(msg string) error {
	return &Error{Kind: ErrValidation, Message: msg}
}

// HTTPStatus возвращает HTTP статус для ошибки. Неизвестные ошибки дают 500.
func HTTPStatus(err error) int {
	switch {
	case errors.Is(err, ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrConflict):
		return http.StatusConflict
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, ErrValidation):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Message возвращает сообщение доменной ошибки либо fallback,
// чтобы детали внутренних ошибок не уходили клиенту.
func Message(err error, fallback string) string {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Message
	}
	return fallback
}
