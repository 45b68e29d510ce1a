package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/magabrotheeeer/recovera/internal/models"
)

const deviceColumns = `id, device_id, model, os_version, app_version, account_id, is_active,
	last_active_at, created_at, updated_at`

func scanDevice(row rowScanner) (*models.Device, error) {
	var d models.Device
	if err := row.Scan(&d.ID, &d.DeviceID, &d.Model, &d.OSVersion, &d.AppVersion, &d.AccountID,
		&d.IsActive, &d.LastActiveAt, &d.CreatedAt, &d.UpdatedAt); err != nil {
		return nil, err
	}
	return &d, nil
}

func collectDevices(rows *sql.Rows) ([]models.Device, error) {
	defer rows.Close()
	result := []models.Device{}
	for rows.Next() {
		d, err := scanDevice(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *d)
	}
	if err := rows.Err(); err != nil {
		return nil, mapError(err)
	}
	return result, nil
}

// CountActiveDevices считает активные устройства аккаунта.
func (s *Storage) CountActiveDevices(ctx context.Context, accountID string) (int, error) {
	const op = "storage.CountActiveDevices"

	var n int
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM devices WHERE account_id = $1 AND is_active`, accountID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return n, nil
}

// DeviceExists сообщает, зарегистрирован ли device_id у любого аккаунта,
// включая отвязанные устройства.
func (s *Storage) DeviceExists(ctx context.Context, deviceID string) (bool, error) {
	const op = "storage.DeviceExists"

	var exists bool
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM devices WHERE device_id = $1)`, deviceID).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return exists, nil
}

// CreateDevice сохраняет активное устройство и возвращает его идентификатор.
func (s *Storage) CreateDevice(ctx context.Context, d models.Device) (string, error) {
	const op = "storage.CreateDevice"
	select {
	case <-ctx.Done():
		return "", fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO devices (device_id, model, os_version, app_version, account_id, is_active, last_active_at)
			  VALUES ($1, $2, $3, $4, $5, TRUE, NOW())
			  RETURNING id`
	var id string
	err := s.conn(ctx).QueryRowContext(ctx, query,
		d.DeviceID, d.Model, d.OSVersion, d.AppVersion, d.AccountID).Scan(&id)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, mapError(err))
	}
	return id, nil
}

// GetDevice возвращает устройство по идентификатору записи.
func (s *Storage) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	const op = "storage.GetDevice"

	d, err := scanDevice(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return d, nil
}

// DeactivateDevice помечает устройство неактивным.
func (s *Storage) DeactivateDevice(ctx context.Context, id string) error {
	const op = "storage.DeactivateDevice"

	result, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE devices SET is_active = FALSE, updated_at = NOW() WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err := checkAffected(result); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListActiveDevices возвращает активные устройства аккаунта в порядке привязки.
func (s *Storage) ListActiveDevices(ctx context.Context, accountID string) ([]models.Device, error) {
	const op = "storage.ListActiveDevices"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices WHERE account_id = $1 AND is_active ORDER BY created_at`, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	result, err := collectDevices(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListDevices возвращает все устройства, недавно активные первыми.
// Пустой accountID отключает фильтр.
func (s *Storage) ListDevices(ctx context.Context, accountID string) ([]models.Device, error) {
	const op = "storage.ListDevices"

	var filter sql.NullString
	if accountID != "" {
		filter = sql.NullString{String: accountID, Valid: true}
	}

	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+deviceColumns+` FROM devices
		 WHERE $1::uuid IS NULL OR account_id = $1::uuid
		 ORDER BY last_active_at DESC`, filter)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	result, err := collectDevices(rows)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
