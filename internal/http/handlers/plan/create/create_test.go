package create

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/recovera/internal/lib/apperr"
	"github.com/magabrotheeeer/recovera/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) Create(ctx context.Context, in models.PlanInput) (*models.Plan, error) {
	args := m.Called(ctx, in)
	if res := args.Get(0); res != nil {
		return res.(*models.Plan), args.Error(1)
	}
	return nil, args.Error(1)
}

func TestCreateHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	valid := `{"code":"gold","name":"Gold","price":19.99,"features":["All"],"maxDevices":3,"dataRetentionDays":365,"supportResponseHours":4}`

	tests := []struct {
		name       string
		body       string
		setupMock  func(*MockService)
		wantStatus int
		wantBody   string
	}{
		{
			name: "создание тарифа",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(in models.PlanInput) bool {
					return in.Code == "gold" && in.MaxDevices == 3
				})).Return(&models.Plan{ID: "p-1", Code: "gold"}, nil).Once()
			},
			wantStatus: http.StatusCreated,
			wantBody:   `"code":"gold"`,
		},
		{
			name: "код занят",
			body: valid,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.Anything).Return(nil, apperr.Conflict("plan with this code already exists")).Once()
			},
			wantStatus: http.StatusConflict,
			wantBody:   `plan with this code already exists`,
		},
		{
			name:       "лимит устройств вне диапазона",
			body:       `{"code":"gold","name":"Gold","price":19.99,"features":["All"],"maxDevices":50,"dataRetentionDays":365,"supportResponseHours":4}`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `field MaxDevices must be at most 10`,
		},
		{
			name: "цена вне диапазона",
			body: `{"code":"gold","name":"Gold","price":1000000000000,"features":["All"],"maxDevices":3,"dataRetentionDays":365,"supportResponseHours":4}`,
			setupMock: func(m *MockService) {
				m.On("Create", mock.Anything, mock.MatchedBy(func(in models.PlanInput) bool {
					return in.Price.Equal(decimal.NewFromInt(1000000000000))
				})).Return(nil, apperr.Validation("price must be between 0 and 99999999.99")).Once()
			},
			wantStatus: http.StatusBadRequest,
			wantBody:   `price must be between 0 and 99999999.99`,
		},
		{
			name:       "битый json",
			body:       `{"code":`,
			setupMock:  func(_ *MockService) {},
			wantStatus: http.StatusBadRequest,
			wantBody:   `invalid request body`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			tt.setupMock(svc)

			req := httptest.NewRequest(http.MethodPost, "/admin/plans", bytes.NewBufferString(tt.body))
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.wantBody)
			svc.AssertExpectations(t)
		})
	}
}
