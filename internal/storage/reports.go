package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/magabrotheeeer/recovera/internal/models"
)

// CreateReport сохраняет отчёт о восстановлении.
func (s *Storage) CreateReport(ctx context.Context, r models.RecoveryReport) (*models.RecoveryReport, error) {
	const op = "storage.CreateReport"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO recovery_reports (account_id, sms_count, whatsapp_count, notification_count,
				  media_count, device_id, metadata)
			  VALUES ($1, $2, $3, $4, $5, $6, $7)
			  RETURNING id, created_at`
	err := s.conn(ctx).QueryRowContext(ctx, query, r.AccountID, r.SMSCount, r.WhatsappCount,
		r.NotificationCount, r.MediaCount, r.DeviceID, r.Metadata).Scan(&r.ID, &r.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return &r, nil
}

// ListReports возвращает последние limit отчётов аккаунта.
func (s *Storage) ListReports(ctx context.Context, accountID string, limit int) ([]models.RecoveryReport, error) {
	const op = "storage.ListReports"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT id, account_id, sms_count, whatsapp_count, notification_count, media_count,
				  device_id, metadata, created_at
			  FROM recovery_reports
			  WHERE account_id = $1
			  ORDER BY created_at DESC
			  LIMIT $2`
	rows, err := s.conn(ctx).QueryContext(ctx, query, accountID, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer rows.Close()

	result := []models.RecoveryReport{}
	for rows.Next() {
		var r models.RecoveryReport
		if err := rows.Scan(&r.ID, &r.AccountID, &r.SMSCount, &r.WhatsappCount, &r.NotificationCount,
			&r.MediaCount, &r.DeviceID, &r.Metadata, &r.CreatedAt); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return result, nil
}

// CountReports считает отчёты аккаунта.
func (s *Storage) CountReports(ctx context.Context, accountID string) (int, error) {
	const op = "storage.CountReports"

	var n int
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recovery_reports WHERE account_id = $1`, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return n, nil
}

// CountReportsSince считает отчёты, созданные начиная с since.
func (s *Storage) CountReportsSince(ctx context.Context, since time.Time) (int, error) {
	const op = "storage.CountReportsSince"

	var n int
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM recovery_reports WHERE created_at >= $1`, since).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
