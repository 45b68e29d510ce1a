package storage

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/recovera/internal/models"
)

const paymentColumns = `p.id, p.reference, p.account_id, p.amount, p.currency, p.status, p.provider,
	p.plan_code, p.phone_number, p.provider_response, p.created_at, p.updated_at`

func scanPayment(row rowScanner, extra ...any) (*models.Payment, error) {
	var p models.Payment
	var status, provider string
	dest := []any{&p.ID, &p.Reference, &p.AccountID, &p.Amount, &p.Currency, &status, &provider,
		&p.PlanCode, &p.PhoneNumber, &p.ProviderResponse, &p.CreatedAt, &p.UpdatedAt}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	p.Status = models.PaymentStatus(status)
	p.Provider = models.Provider(provider)
	return &p, nil
}

// CreatePayment сохраняет платёж. Повтор reference даёт ErrConflict.
func (s *Storage) CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error) {
	const op = "storage.CreatePayment"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO payments AS p (reference, account_id, amount, currency, status, provider, plan_code, phone_number)
			  VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			  RETURNING ` + paymentColumns
	created, err := scanPayment(s.conn(ctx).QueryRowContext(ctx, query,
		p.Reference, p.AccountID, p.Amount, p.Currency, string(p.Status), string(p.Provider), p.PlanCode, p.PhoneNumber))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return created, nil
}

// GetPaymentByReference возвращает платёж по reference.
func (s *Storage) GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error) {
	const op = "storage.GetPaymentByReference"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	p, err := scanPayment(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments p WHERE p.reference = $1`, reference))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// LockPayment читает платёж с блокировкой строки. Вызывается только внутри InTx.
func (s *Storage) LockPayment(ctx context.Context, reference string) (*models.Payment, error) {
	const op = "storage.LockPayment"

	p, err := scanPayment(s.conn(ctx).QueryRowContext(ctx,
		`SELECT `+paymentColumns+` FROM payments p WHERE p.reference = $1 FOR UPDATE`, reference))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// UpdatePaymentStatus переводит платёж в status и сохраняет ответ провайдера.
func (s *Storage) UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, providerResponse *string) error {
	const op = "storage.UpdatePaymentStatus"

	result, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE payments SET status = $1, provider_response = $2, updated_at = NOW() WHERE id = $3`,
		string(status), providerResponse, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err := checkAffected(result); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListPayments возвращает страницу платежей с email владельца, новые первыми.
// Пустой status отключает фильтр.
func (s *Storage) ListPayments(ctx context.Context, status models.PaymentStatus, limit, offset int) ([]models.PaymentWithEmail, int, error) {
	const op = "storage.ListPayments"
	select {
	case <-ctx.Done():
		return nil, 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var filter sql.NullString
	if status != "" {
		filter = sql.NullString{String: string(status), Valid: true}
	}

	var total int
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM payments WHERE $1::payment_status IS NULL OR status = $1::payment_status`,
		filter).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, mapError(err))
	}

	query := `SELECT ` + paymentColumns + `, a.email
			  FROM payments p
			  JOIN accounts a ON a.id = p.account_id
			  WHERE $1::payment_status IS NULL OR p.status = $1::payment_status
			  ORDER BY p.created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.conn(ctx).QueryContext(ctx, query, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer rows.Close()

	result := make([]models.PaymentWithEmail, 0, limit)
	for rows.Next() {
		var email string
		p, err := scanPayment(rows, &email)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, models.PaymentWithEmail{Payment: *p, Email: email})
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// ListPaymentsByAccount возвращает платежи аккаунта, новые первыми.
func (s *Storage) ListPaymentsByAccount(ctx context.Context, accountID string) ([]models.Payment, error) {
	const op = "storage.ListPaymentsByAccount"

	rows, err := s.conn(ctx).QueryContext(ctx,
		`SELECT `+paymentColumns+` FROM payments p WHERE p.account_id = $1 ORDER BY p.created_at DESC`, accountID)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer rows.Close()

	result := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
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

// SumCompletedRevenue суммирует завершённые платежи.
func (s *Storage) SumCompletedRevenue(ctx context.Context) (decimal.Decimal, error) {
	const op = "storage.SumCompletedRevenue"

	var sum decimal.Decimal
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT COALESCE(SUM(amount), 0) FROM payments WHERE status = 'completed'`).Scan(&sum)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s: %w", op, err)
	}
	return sum, nil
}
