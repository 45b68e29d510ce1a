package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/magabrotheeeer/recovera/internal/models"
)

const accountColumns = `id, email, password_hash, role, subscription_status, subscription_plan,
	subscription_expires_at, is_blocked, reset_password_token, reset_password_expires, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (*models.Account, error) {
	var a models.Account
	var status string
	if err := row.Scan(&a.ID, &a.Email, &a.PasswordHash, &a.Role, &status, &a.SubscriptionPlan,
		&a.SubscriptionExpiresAt, &a.IsBlocked, &a.ResetPasswordToken, &a.ResetPasswordExpires,
		&a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, err
	}
	a.SubscriptionStatus = models.SubscriptionStatus(status)
	return &a, nil
}

// CreateAccount добавляет аккаунт. Занятый email даёт ErrConflict.
func (s *Storage) CreateAccount(ctx context.Context, email, passwordHash, role string) (*models.Account, error) {
	const op = "storage.CreateAccount"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `INSERT INTO accounts (email, password_hash, role)
			  VALUES ($1, $2, $3)
			  RETURNING ` + accountColumns
	a, err := scanAccount(s.conn(ctx).QueryRowContext(ctx, query, email, passwordHash, role))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return a, nil
}

// GetAccountByID возвращает аккаунт по идентификатору.
func (s *Storage) GetAccountByID(ctx context.Context, id string) (*models.Account, error) {
	const op = "storage.GetAccountByID"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1`
	a, err := scanAccount(s.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return a, nil
}

// LockAccount читает аккаунт с блокировкой строки до конца транзакции.
// Вызывается только внутри InTx.
func (s *Storage) LockAccount(ctx context.Context, id string) (*models.Account, error) {
	const op = "storage.LockAccount"

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE id = $1 FOR UPDATE`
	a, err := scanAccount(s.conn(ctx).QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return a, nil
}

// GetAccountByEmail возвращает аккаунт по email.
func (s *Storage) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	const op = "storage.GetAccountByEmail"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE email = $1`
	a, err := scanAccount(s.conn(ctx).QueryRowContext(ctx, query, email))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return a, nil
}

// GetAccountByResetToken ищет аккаунт по токену сброса пароля.
func (s *Storage) GetAccountByResetToken(ctx context.Context, token string) (*models.Account, error) {
	const op = "storage.GetAccountByResetToken"

	query := `SELECT ` + accountColumns + ` FROM accounts WHERE reset_password_token = $1`
	a, err := scanAccount(s.conn(ctx).QueryRowContext(ctx, query, token))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return a, nil
}

// SetResetToken сохраняет токен сброса пароля и срок его действия.
func (s *Storage) SetResetToken(ctx context.Context, id, token string, expires time.Time) error {
	const op = "storage.SetResetToken"

	query := `UPDATE accounts SET reset_password_token = $1, reset_password_expires = $2, updated_at = NOW()
			  WHERE id = $3`
	result, err := s.conn(ctx).ExecContext(ctx, query, token, expires, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err := checkAffected(result); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// UpdatePassword меняет хэш пароля и сбрасывает токен восстановления.
func (s *Storage) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	const op = "storage.UpdatePassword"

	query := `UPDATE accounts
			  SET password_hash = $1, reset_password_token = NULL, reset_password_expires = NULL, updated_at = NOW()
			  WHERE id = $2`
	result, err := s.conn(ctx).ExecContext(ctx, query, passwordHash, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err := checkAffected(result); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetRole меняет роль аккаунта.
func (s *Storage) SetRole(ctx context.Context, id, role string) error {
	const op = "storage.SetRole"

	result, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE accounts SET role = $1, updated_at = NOW() WHERE id = $2`, role, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err := checkAffected(result); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ActivateSubscription переводит аккаунт в active с тарифом plan до expiresAt.
func (s *Storage) ActivateSubscription(ctx context.Context, id, plan string, expiresAt time.Time) error {
	const op = "storage.ActivateSubscription"

	query := `UPDATE accounts
			  SET subscription_status = 'active', subscription_plan = $1, subscription_expires_at = $2, updated_at = NOW()
			  WHERE id = $3`
	result, err := s.conn(ctx).ExecContext(ctx, query, plan, expiresAt, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err := checkAffected(result); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// SetBlocked выставляет или снимает блокировку аккаунта.
func (s *Storage) SetBlocked(ctx context.Context, id string, blocked bool) error {
	const op = "storage.SetBlocked"

	result, err := s.conn(ctx).ExecContext(ctx,
		`UPDATE accounts SET is_blocked = $1, updated_at = NOW() WHERE id = $2`, blocked, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err := checkAffected(result); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ListAccounts возвращает страницу аккаунтов, новые первыми, и общее число записей.
// Пустой status отключает фильтр.
func (s *Storage) ListAccounts(ctx context.Context, status models.SubscriptionStatus, limit, offset int) ([]models.Account, int, error) {
	const op = "storage.ListAccounts"
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
		`SELECT COUNT(*) FROM accounts WHERE $1::subscription_status IS NULL OR subscription_status = $1::subscription_status`,
		filter).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, mapError(err))
	}

	query := `SELECT ` + accountColumns + ` FROM accounts
			  WHERE $1::subscription_status IS NULL OR subscription_status = $1::subscription_status
			  ORDER BY created_at DESC
			  LIMIT $2 OFFSET $3`
	rows, err := s.conn(ctx).QueryContext(ctx, query, filter, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, mapError(err))
	}
	defer rows.Close()

	result := make([]models.Account, 0, limit)
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("%s: %w", op, err)
	}
	return result, total, nil
}

// ExpireLapsed переводит в expired все активные подписки со сроком до now
// и возвращает затронутые аккаунты.
func (s *Storage) ExpireLapsed(ctx context.Context, now time.Time) ([]models.Account, error) {
	const op = "storage.ExpireLapsed"

	query := `UPDATE accounts SET subscription_status = 'expired', updated_at = NOW()
			  WHERE subscription_status = 'active' AND subscription_expires_at < $1
			  RETURNING ` + accountColumns
	rows, err := s.conn(ctx).QueryContext(ctx, query, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// ListExpiringBetween возвращает активные незаблокированные аккаунты,
// чья подписка истекает в интервале (from, to].
func (s *Storage) ListExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Account, error) {
	const op = "storage.ListExpiringBetween"

	query := `SELECT ` + accountColumns + ` FROM accounts
			  WHERE subscription_status = 'active' AND NOT is_blocked
			    AND subscription_expires_at > $1 AND subscription_expires_at <= $2
			  ORDER BY subscription_expires_at`
	rows, err := s.conn(ctx).QueryContext(ctx, query, from, to)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var result []models.Account
	for rows.Next() {
		a, err := scanAccount(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// CountAccounts возвращает общее число аккаунтов.
func (s *Storage) CountAccounts(ctx context.Context) (int, error) {
	const op = "storage.CountAccounts"

	var n int
	if err := s.conn(ctx).QueryRowContext(ctx, `SELECT COUNT(*) FROM accounts`).Scan(&n); err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}

// CountActiveSubscriptions считает аккаунты, активные на момент now.
func (s *Storage) CountActiveSubscriptions(ctx context.Context, now time.Time) (int, error) {
	const op = "storage.CountActiveSubscriptions"

	var n int
	err := s.conn(ctx).QueryRowContext(ctx,
		`SELECT COUNT(*) FROM accounts
		 WHERE subscription_status = 'active'
		   AND (subscription_expires_at IS NULL OR subscription_expires_at >= $1)`, now).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return n, nil
}
