// Package device привязывает устройства к аккаунтам с учётом лимита тарифа.
package device

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/recovera/internal/lib/apperr"
	"github.com/magabrotheeeer/recovera/internal/metrics"
	"github.com/magabrotheeeer/recovera/internal/models"
	"github.com/magabrotheeeer/recovera/internal/storage"
)

// Repository хранилище устройств.
type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	LockAccount(ctx context.Context, id string) (*models.Account, error)
	GetPlanByCode(ctx context.Context, code string) (*models.Plan, error)
	CountActiveDevices(ctx context.Context, accountID string) (int, error)
	DeviceExists(ctx context.Context, deviceID string) (bool, error)
	CreateDevice(ctx context.Context, d models.Device) (string, error)
	GetDevice(ctx context.Context, id string) (*models.Device, error)
	DeactivateDevice(ctx context.Context, id string) error
	ListActiveDevices(ctx context.Context, accountID string) ([]models.Device, error)
}

// Service привязка устройств.
type Service struct {
	repo         Repository
	defaultLimit int
	log          *slog.Logger
	now          func() time.Time
}

// New создаёт Service. defaultLimit действует для аккаунтов без активной подписки.
func New(repo Repository, defaultLimit int, log *slog.Logger) *Service {
	if defaultLimit < 1 {
		defaultLimit = 1
	}
	return &Service{
		repo:         repo,
		defaultLimit: defaultLimit,
		log:          log,
		now:          time.Now,
	}
}

// Bind привязывает устройство к аккаунту и возвращает идентификатор записи.
// Строка аккаунта блокируется до конца транзакции, поэтому параллельные
// привязки одного аккаунта проверяют лимит по очереди.
func (s *Service) Bind(ctx context.Context, req models.BindRequest) (string, error) {
	const op = "device.Bind"
	log := s.log.With(slog.String("op", op), slog.String("account_id", req.UserID))

	var id string
	err := s.repo.InTx(ctx, func(ctx context.Context) error {
		account, err := s.repo.LockAccount(ctx, req.UserID)
		if err != nil {
			if errors.Is(err, storage.ErrNotFound) {
				return apperr.Wrap(apperr.ErrNotFound, "user not found", err)
			}
			return err
		}

		limit, err := s.limit(ctx, account)
		if err != nil {
			return err
		}
		count, err := s.repo.CountActiveDevices(ctx, account.ID)
		if err != nil {
			return err
		}
		if count >= limit {
			metrics.RecordDeviceBind("limit")
			return apperr.Conflict(fmt.Sprintf("maximum %d device(s) allowed for your plan", limit))
		}

		exists, err := s.repo.DeviceExists(ctx, req.DeviceID)
		if err != nil {
			return err
		}
		if exists {
			metrics.RecordDeviceBind("duplicate")
			return apperr.Conflict("device already registered")
		}

		now := s.now()
		id, err = s.repo.CreateDevice(ctx, models.Device{
			DeviceID:     req.DeviceID,
			Model:        req.Model,
			OSVersion:    req.OSVersion,
			AppVersion:   req.AppVersion,
			AccountID:    account.ID,
			IsActive:     true,
			LastActiveAt: now,
		})
		if err != nil {
			if errors.Is(err, storage.ErrConflict) {
				metrics.RecordDeviceBind("duplicate")
				return apperr.Wrap(apperr.ErrConflict, "device already registered", err)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	metrics.RecordDeviceBind("ok")
	log.Info("device bound", slog.String("device_id", req.DeviceID), slog.String("id", id))
	return id, nil
}

// limit возвращает лимит устройств: из тарифа при активной подписке,
// иначе значение по умолчанию.
func (s *Service) limit(ctx context.Context, account *models.Account) (int, error) {
	if account.EffectiveStatus(s.now()) != models.StatusActive || account.SubscriptionPlan == nil {
		return s.defaultLimit, nil
	}
	plan, err := s.repo.GetPlanByCode(ctx, *account.SubscriptionPlan)
	if errors.Is(err, storage.ErrNotFound) {
		return s.defaultLimit, nil
	}
	if err != nil {
		return 0, err
	}
	return plan.MaxDevices, nil
}

// List возвращает активные устройства аккаунта.
func (s *Service) List(ctx context.Context, accountID string) ([]models.DeviceView, error) {
	const op = "device.List"
	devices, err := s.repo.ListActiveDevices(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return []models.DeviceView{}, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	views := make([]models.DeviceView, 0, len(devices))
	for _, d := range devices {
		views = append(views, d.View())
	}
	return views, nil
}

// Unbind снимает устройство id с учёта. Если ownerID не пуст, устройство
// другого аккаунта считается отсутствующим. Идентификатор устройства
// остаётся занятым.
func (s *Service) Unbind(ctx context.Context, id, ownerID string) error {
	const op = "device.Unbind"

	d, err := s.repo.GetDevice(ctx, id)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.Wrap(apperr.ErrNotFound, "device not found", err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if ownerID != "" && d.AccountID != ownerID {
		return apperr.NotFound("device not found")
	}

	if err := s.repo.DeactivateDevice(ctx, id); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.Wrap(apperr.ErrNotFound, "device not found", err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("device unbound", slog.String("id", id), slog.String("account_id", d.AccountID))
	return nil
}
