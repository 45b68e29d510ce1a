package storage

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/magabrotheeeer/recovera/internal/models"
)

const planColumns = `id, code, name, price, currency, description, features, max_devices, data_retention_days,
	sms_recovery, notification_recovery, whatsapp_recovery, media_recovery, export_formats,
	support_response_hours, is_active, display_order, badge, created_at, updated_at`

func scanPlan(row rowScanner) (*models.Plan, error) {
	var p models.Plan
	var features, exportFormats []byte
	if err := row.Scan(&p.ID, &p.Code, &p.Name, &p.Price, &p.Currency, &p.Description, &features,
		&p.MaxDevices, &p.DataRetentionDays, &p.SMSRecovery, &p.NotificationRecovery, &p.WhatsappRecovery,
		&p.MediaRecovery, &exportFormats, &p.SupportResponseHours, &p.IsActive, &p.DisplayOrder, &p.Badge,
		&p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(features, &p.Features); err != nil {
		return nil, fmt.Errorf("decode features: %w", err)
	}
	if err := json.Unmarshal(exportFormats, &p.ExportFormats); err != nil {
		return nil, fmt.Errorf("decode export formats: %w", err)
	}
	return &p, nil
}

func planJSON(p models.Plan) (features, exportFormats []byte, err error) {
	if p.Features == nil {
		p.Features = []string{}
	}
	if p.ExportFormats == nil {
		p.ExportFormats = []string{}
	}
	if features, err = json.Marshal(p.Features); err != nil {
		return nil, nil, err
	}
	if exportFormats, err = json.Marshal(p.ExportFormats); err != nil {
		return nil, nil, err
	}
	return features, exportFormats, nil
}

// CreatePlan добавляет тариф. Занятый code даёт ErrConflict.
func (s *Storage) CreatePlan(ctx context.Context, p models.Plan) (*models.Plan, error) {
	const op = "storage.CreatePlan"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	features, exportFormats, err := planJSON(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `INSERT INTO plans (code, name, price, currency, description, features, max_devices,
				  data_retention_days, sms_recovery, notification_recovery, whatsapp_recovery, media_recovery,
				  export_formats, support_response_hours, is_active, display_order, badge)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
			  RETURNING ` + planColumns
	created, err := scanPlan(s.conn(ctx).QueryRowContext(ctx, query,
		p.Code, p.Name, p.Price, p.Currency, p.Description, features, p.MaxDevices,
		p.DataRetentionDays, p.SMSRecovery, p.NotificationRecovery, p.WhatsappRecovery, p.MediaRecovery,
		exportFormats, p.SupportResponseHours, p.IsActive, p.DisplayOrder, p.Badge))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return created, nil
}

// ListPlans возвращает тарифы по возрастанию display_order, затем цены.
// При activeOnly скрытые тарифы не попадают в выборку.
func (s *Storage) ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error) {
	const op = "storage.ListPlans"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + planColumns + ` FROM plans
			  WHERE is_active OR NOT $1
			  ORDER BY display_order ASC, price ASC`
	rows, err := s.conn(ctx).QueryContext(ctx, query, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	result := []models.Plan{}
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetPlanByCode возвращает тариф по коду.
func (s *Storage) GetPlanByCode(ctx context.Context, code string) (*models.Plan, error) {
	const op = "storage.GetPlanByCode"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p, err := scanPlan(s.conn(ctx).QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE code = $1`, code))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// GetPlanByID возвращает тариф по идентификатору.
func (s *Storage) GetPlanByID(ctx context.Context, id string) (*models.Plan, error) {
	const op = "storage.GetPlanByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p, err := scanPlan(s.conn(ctx).QueryRowContext(ctx, `SELECT `+planColumns+` FROM plans WHERE id = $1`, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// UpdatePlan перезаписывает изменяемые поля тарифа p.ID.
func (s *Storage) UpdatePlan(ctx context.Context, p models.Plan) (*models.Plan, error) {
	const op = "storage.UpdatePlan"

	features, exportFormats, err := planJSON(p)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	query := `UPDATE plans
			  SET code = $1, name = $2, price = $3, currency = $4, description = $5, features = $6,
			      max_devices = $7, data_retention_days = $8, sms_recovery = $9, notification_recovery = $10,
			      whatsapp_recovery = $11, media_recovery = $12, export_formats = $13,
			      support_response_hours = $14, is_active = $15, display_order = $16, badge = $17,
			      updated_at = NOW()
			  WHERE id = $18
			  RETURNING ` + planColumns
	updated, err := scanPlan(s.conn(ctx).QueryRowContext(ctx, query,
		p.Code, p.Name, p.Price, p.Currency, p.Description, features, p.MaxDevices,
		p.DataRetentionDays, p.SMSRecovery, p.NotificationRecovery, p.WhatsappRecovery, p.MediaRecovery,
		exportFormats, p.SupportResponseHours, p.IsActive, p.DisplayOrder, p.Badge, p.ID))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return updated, nil
}

// TogglePlan инвертирует флаг активности тарифа.
func (s *Storage) TogglePlan(ctx context.Context, id string) (*models.Plan, error) {
	const op = "storage.TogglePlan"

	query := `UPDATE plans SET is_active = NOT is_active, updated_at = NOW()
			  WHERE id = $1
			  RETURNING ` + planColumns
	p, err := scanPlan(s.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// DeletePlan удаляет тариф. Ссылки из аккаунтов и платежей по коду не проверяются.
func (s *Storage) DeletePlan(ctx context.Context, id string) error {
	const op = "storage.DeletePlan"

	result, err := s.conn(ctx).ExecContext(ctx, `DELETE FROM plans WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err := checkAffected(result); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
