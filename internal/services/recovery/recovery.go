// Package recovery сохраняет отчёты сканера о восстановленных данных.
package recovery

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/magabrotheeeer/recovera/internal/lib/apperr"
	"github.com/magabrotheeeer/recovera/internal/metrics"
	"github.com/magabrotheeeer/recovera/internal/models"
	"github.com/magabrotheeeer/recovera/internal/storage"
)

// HistoryLimit сколько последних отчётов отдаёт History.
const HistoryLimit = 10

// Repository хранилище отчётов.
type Repository interface {
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	CreateReport(ctx context.Context, r models.RecoveryReport) (*models.RecoveryReport, error)
	ListReports(ctx context.Context, accountID string, limit int) ([]models.RecoveryReport, error)
}

// Service отчёты о восстановлении.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создаёт Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log}
}

// CreateReport сохраняет отчёт и возвращает его сводку.
func (s *Service) CreateReport(ctx context.Context, req models.ReportRequest) (*models.ReportResult, error) {
	const op = "recovery.CreateReport"

	if req.SMSCount < 0 || req.WhatsappCount < 0 || req.NotificationCount < 0 || req.MediaCount < 0 {
		return nil, apperr.Validation("counts must not be negative")
	}

	if _, err := s.repo.GetAccountByID(ctx, req.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "user not found", err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	report, err := s.repo.CreateReport(ctx, models.RecoveryReport{
		AccountID:         req.UserID,
		SMSCount:          req.SMSCount,
		WhatsappCount:     req.WhatsappCount,
		NotificationCount: req.NotificationCount,
		MediaCount:        req.MediaCount,
		DeviceID:          req.DeviceID,
		Metadata:          req.Metadata,
	})
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "user not found", err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	metrics.RecordRecoveryReport()
	s.log.Debug("recovery report stored", slog.String("report_id", report.ID), slog.String("account_id", req.UserID))

	return &models.ReportResult{
		ReportID: report.ID,
		Summary: models.ReportSummary{
			SMS:           report.SMSCount,
			Whatsapp:      report.WhatsappCount,
			Notifications: report.NotificationCount,
			Media:         report.MediaCount,
		},
	}, nil
}

// History возвращает последние HistoryLimit отчётов аккаунта, новые первыми.
func (s *Service) History(ctx context.Context, accountID string) ([]models.RecoveryReport, error) {
	const op = "recovery.History"
	reports, err := s.repo.ListReports(ctx, accountID, HistoryLimit)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []models.RecoveryReport{}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return reports, nil
}
