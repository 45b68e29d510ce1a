package report

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/magabrotheeeer/recovera/internal/http/middlewarectx"
	"github.com/magabrotheeeer/recovera/internal/lib/apperr"
	"github.com/magabrotheeeer/recovera/internal/models"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) CreateReport(ctx context.Context, req models.ReportRequest) (*models.ReportResult, error) {
	args := m.Called(ctx, req)
	if res := args.Get(0); res != nil {
		return res.(*models.ReportResult), args.Error(1)
	}
	return nil, args.Error(1)
}

const ownerID = "0b6f1f9e-8c39-4a53-9b1e-4f1f3c0e2a11"

func TestReportHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
	body := `{"userId":"` + ownerID + `","smsCount":12,"whatsappCount":3,"notificationCount":40,"mediaCount":0}`
	req := models.ReportRequest{UserID: ownerID, SMSCount: 12, WhatsappCount: 3, NotificationCount: 40}

	tests := []struct {
		name       string
		body       string
		callsSvc   bool
		result     *models.ReportResult
		err        error
		wantStatus int
		wantBody   string
	}{
		{
			name:     "stored",
			body:     body,
			callsSvc: true,
			result: &models.ReportResult{ReportID: "rep-1", Summary: models.ReportSummary{
				SMS: 12, Whatsapp: 3, Notifications: 40,
			}},
			wantStatus: http.StatusCreated,
			wantBody:   `{"reportId":"rep-1","summary":{"sms":12,"whatsapp":3,"notifications":40,"media":0}}`,
		},
		{
			name:       "negative count",
			body:       `{"userId":"` + ownerID + `","smsCount":-1}`,
			wantStatus: http.StatusUnprocessableEntity,
			wantBody:   `{"status":"Error","error":"field SMSCount must be greater than or equal to 0"}`,
		},
		{
			name:       "account missing",
			body:       body,
			callsSvc:   true,
			err:        apperr.NotFound("user not found"),
			wantStatus: http.StatusNotFound,
			wantBody:   `{"status":"Error","error":"user not found"}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := new(MockService)
			if tt.callsSvc {
				svc.On("CreateReport", mock.Anything, req).Return(tt.result, tt.err).Once()
			}

			r := httptest.NewRequest(http.MethodPost, "/recovery/report", bytes.NewBufferString(tt.body))
			ctx := context.WithValue(r.Context(), middlewarectx.AccountID, ownerID)
			ctx = context.WithValue(ctx, middlewarectx.Role, models.RoleUser)
			rec := httptest.NewRecorder()

			New(logger, svc).ServeHTTP(rec, r.WithContext(ctx))

			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.JSONEq(t, tt.wantBody, rec.Body.String())
			svc.AssertExpectations(t)
		})
	}
}
