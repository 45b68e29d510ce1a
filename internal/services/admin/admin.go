// Package admin собирает данные для панели администратора: списки
// пользователей, платежей и устройств, карточку пользователя и сводную статистику.
package admin

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/magabrotheeeer/recovera/internal/lib/apperr"
	"github.com/magabrotheeeer/recovera/internal/models"
	"github.com/magabrotheeeer/recovera/internal/storage"
)

const (
	// DefaultPage номер страницы, если он не задан.
	DefaultPage = 1
	// DefaultLimit размер страницы, если он не задан.
	DefaultLimit = 20
	// MaxLimit верхняя граница размера страницы.
	MaxLimit = 100
	// MaxPage верхняя граница номера страницы, смещение (page-1)*limit не переполняется.
	MaxPage = 1_000_000
)

// Repository выборки для админки.
type Repository interface {
	ListAccounts(ctx context.Context, status models.SubscriptionStatus, limit, offset int) ([]models.Account, int, error)
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	SetBlocked(ctx context.Context, id string, blocked bool) error
	ListPayments(ctx context.Context, status models.PaymentStatus, limit, offset int) ([]models.PaymentWithEmail, int, error)
	ListPaymentsByAccount(ctx context.Context, accountID string) ([]models.Payment, error)
	ListDevices(ctx context.Context, accountID string) ([]models.Device, error)
	CountReports(ctx context.Context, accountID string) (int, error)
	CountReportsSince(ctx context.Context, since time.Time) (int, error)
	CountAccounts(ctx context.Context) (int, error)
	CountActiveSubscriptions(ctx context.Context, now time.Time) (int, error)
	SumCompletedRevenue(ctx context.Context) (decimal.Decimal, error)
}

// Service отчёты для администратора.
type Service struct {
	repo Repository
	log  *slog.Logger
	now  func() time.Time
}

// New создаёт Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{repo: repo, log: log, now: time.Now}
}

func normalizePage(page, limit int) (int, int, error) {
	if page < 1 {
		page = DefaultPage
	}
	if page > MaxPage {
		return 0, 0, apperr.Validation(fmt.Sprintf("page must be at most %d", MaxPage))
	}
	if limit < 1 {
		limit = DefaultLimit
	}
	if limit > MaxLimit {
		limit = MaxLimit
	}
	return page, limit, nil
}

// Users возвращает страницу пользователей, новые первыми.
// Пустой status отключает фильтр.
func (s *Service) Users(ctx context.Context, page, limit int, status models.SubscriptionStatus) (models.Page[models.Account], error) {
	const op = "admin.Users"

	if status != "" && !status.Valid() {
		return models.Page[models.Account]{}, apperr.Validation("unknown subscription status")
	}
	page, limit, err := normalizePage(page, limit)
	if err != nil {
		return models.Page[models.Account]{}, err
	}

	accounts, total, err := s.repo.ListAccounts(ctx, status, limit, (page-1)*limit)
	if err != nil {
		return models.Page[models.Account]{}, fmt.Errorf("%s: %w", op, err)
	}
	return models.NewPage(accounts, total, page, limit), nil
}

// User возвращает карточку пользователя с устройствами, платежами и числом сканирований.
func (s *Service) User(ctx context.Context, id string) (*models.AccountDetail, error) {
	const op = "admin.User"

	account, err := s.repo.GetAccountByID(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "user not found", err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	devices, err := s.repo.ListDevices(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	payments, err := s.repo.ListPaymentsByAccount(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	scans, err := s.repo.CountReports(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if devices == nil {
		devices = []models.Device{}
	}
	if payments == nil {
		payments = []models.Payment{}
	}
	return &models.AccountDetail{Account: *account, Devices: devices, Payments: payments, TotalScans: scans}, nil
}

// Block выставляет или снимает блокировку. Статус подписки не меняется.
func (s *Service) Block(ctx context.Context, id string, blocked bool) error {
	const op = "admin.Block"

	if err := s.repo.SetBlocked(ctx, id, blocked); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.Wrap(apperr.ErrNotFound, "user not found", err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("account block flag changed", slog.String("account_id", id), slog.Bool("blocked", blocked))
	return nil
}

// Payments возвращает страницу платежей с email владельца.
func (s *Service) Payments(ctx context.Context, page, limit int, status models.PaymentStatus) (models.Page[models.PaymentWithEmail], error) {
	const op = "admin.Payments"

	if status != "" && !status.Valid() {
		return models.Page[models.PaymentWithEmail]{}, apperr.Validation("unknown payment status")
	}
	page, limit, err := normalizePage(page, limit)
	if err != nil {
		return models.Page[models.PaymentWithEmail]{}, err
	}

	payments, total, err := s.repo.ListPayments(ctx, status, limit, (page-1)*limit)
	if err != nil {
		return models.Page[models.PaymentWithEmail]{}, fmt.Errorf("%s: %w", op, err)
	}
	return models.NewPage(payments, total, page, limit), nil
}

// Devices возвращает устройства, недавно активные первыми. Пустой
// accountID означает все аккаунты.
func (s *Service) Devices(ctx context.Context, accountID string) ([]models.Device, error) {
	const op = "admin.Devices"

	devices, err := s.repo.ListDevices(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []models.Device{}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if devices == nil {
		devices = []models.Device{}
	}
	return devices, nil
}

// Statistics сводка для дашборда. Конверсия считается как доля активных
// подписок от всех пользователей в процентах с двумя знаками.
func (s *Service) Statistics(ctx context.Context) (*models.Statistics, error) {
	const op = "admin.Statistics"

	now := s.now().UTC()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	total, err := s.repo.CountAccounts(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	active, err := s.repo.CountActiveSubscriptions(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	revenue, err := s.repo.SumCompletedRevenue(ctx)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	scans, err := s.repo.CountReportsSince(ctx, startOfDay)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.Statistics{
		TotalUsers:          total,
		ActiveSubscriptions: active,
		TotalRevenue:        revenue,
		TodayScans:          scans,
		ConversionRate:      conversionRate(active, total),
	}, nil
}

func conversionRate(active, total int) decimal.Decimal {
	if total == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(int64(active)).
		Mul(decimal.NewFromInt(100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(2)
}
