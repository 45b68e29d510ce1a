package register

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/middleware"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/recovera/internal/lib/apperr"
	"github.com/magabrotheeeer/recovera/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*models.AuthResult)
	return res, args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

func TestRegisterHandler_ServeHTTP(t *testing.T) {
	valid := models.RegisterRequest{Email: "user@example.com", Password: "secret1", DeviceID: "dev-1"}

	tests := []struct {
		name           string
		body           string
		setupMock      func(m *MockService)
		wantStatusCode int
		wantBody       string
	}{
		{
			name: "successful registration",
			body: `{"email":"user@example.com","password":"secret1","deviceId":"dev-1"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, valid).
					Return(&models.AuthResult{Token: "tok", UserID: "acc-1", Email: "user@example.com"}, nil).Once()
			},
			wantStatusCode: http.StatusCreated,
			wantBody:       `{"token":"tok","userId":"acc-1","email":"user@example.com"}`,
		},
		{
			name:           "invalid json body",
			body:           "not a json",
			setupMock:      func(_ *MockService) {},
			wantStatusCode: http.StatusBadRequest,
			wantBody:       `{"status":"Error","error":"invalid request body"}`,
		},
		{
			name:           "invalid email",
			body:           `{"email":"nope","password":"secret1"}`,
			setupMock:      func(_ *MockService) {},
			wantStatusCode: http.StatusUnprocessableEntity,
			wantBody:       `{"status":"Error","error":"field Email must be a valid email"}`,
		},
		{
			name: "email already registered",
			body: `{"email":"user@example.com","password":"secret1","deviceId":"dev-1"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, valid).Return(nil, apperr.Conflict("email already registered")).Once()
			},
			wantStatusCode: http.StatusConflict,
			wantBody:       `{"status":"Error","error":"email already registered"}`,
		},
		{
			name: "internal error",
			body: `{"email":"user@example.com","password":"secret1","deviceId":"dev-1"}`,
			setupMock: func(m *MockService) {
				m.On("Register", mock.Anything, valid).Return(nil, errors.New("db down")).Once()
			},
			wantStatusCode: http.StatusInternalServerError,
			wantBody:       `{"status":"Error","error":"could not register user"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)
			handler := New(newNoopLogger(), svc)

			req := httptest.NewRequest(http.MethodPost, "/auth/register", bytes.NewReader([]byte(tt.body)))
			req = req.WithContext(context.WithValue(req.Context(), middleware.RequestIDKey, "reqid123"))
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatusCode, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			assert.True(t, json.Valid(rec.Body.Bytes()))
			svc.AssertExpectations(t)
		})
	}
}
