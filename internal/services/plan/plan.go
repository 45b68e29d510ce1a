// Package plan управляет каталогом тарифов. Список активных тарифов
// и тарифы по коду кешируются; любое изменение каталога сбрасывает кеш.
package plan

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/magabrotheeeer/recovera/internal/lib/apperr"
	"github.com/magabrotheeeer/recovera/internal/lib/sl"
	"github.com/magabrotheeeer/recovera/internal/models"
	"github.com/magabrotheeeer/recovera/internal/storage"
)

const (
	activeKey     = "plans:active"
	codeKeyPrefix = "plan:"

	errInvalidPrice = "price must be between 0 and 99999999.99"
)

// Repository хранилище тарифов.
type Repository interface {
	CreatePlan(ctx context.Context, p models.Plan) (*models.Plan, error)
	ListPlans(ctx context.Context, activeOnly bool) ([]models.Plan, error)
	GetPlanByCode(ctx context.Context, code string) (*models.Plan, error)
	GetPlanByID(ctx context.Context, id string) (*models.Plan, error)
	UpdatePlan(ctx context.Context, p models.Plan) (*models.Plan, error)
	TogglePlan(ctx context.Context, id string) (*models.Plan, error)
	DeletePlan(ctx context.Context, id string) error
}

// Cache кеш каталога.
type Cache interface {
	Get(ctx context.Context, key string, result any) (bool, error)
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Invalidate(ctx context.Context, keys ...string) error
}

// Service каталог тарифов.
type Service struct {
	repo  Repository
	cache Cache
	ttl   time.Duration
	log   *slog.Logger
}

// New создаёт Service. Кеш живёт ttl.
func New(repo Repository, cache Cache, ttl time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:  repo,
		cache: cache,
		ttl:   ttl,
		log:   log,
	}
}

// Create добавляет тариф. Занятый code даёт Conflict.
func (s *Service) Create(ctx context.Context, in models.PlanInput) (*models.Plan, error) {
	const op = "plan.Create"

	if !models.ValidPrice(in.Price) {
		return nil, apperr.Validation(errInvalidPrice)
	}
	if _, err := s.repo.GetPlanByCode(ctx, in.Code); err == nil {
		return nil, apperr.Conflict("plan with this code already exists")
	} else if !errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	p, err := s.repo.CreatePlan(ctx, in.ToPlan())
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	s.log.Info("plan created", slog.String("code", p.Code), slog.String("id", p.ID))
	s.invalidate(ctx, p.Code)
	return p, nil
}

// ListAll возвращает все тарифы, включая скрытые.
func (s *Service) ListAll(ctx context.Context) ([]models.Plan, error) {
	const op = "plan.ListAll"
	plans, err := s.repo.ListPlans(ctx, false)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return plans, nil
}

// ListActive возвращает активные тарифы, сначала из кеша.
func (s *Service) ListActive(ctx context.Context) ([]models.Plan, error) {
	const op = "plan.ListActive"

	var cached []models.Plan
	found, err := s.cache.Get(ctx, activeKey, &cached)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", activeKey), sl.Err(err))
	}
	if found {
		return cached, nil
	}

	plans, err := s.repo.ListPlans(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if err := s.cache.Set(ctx, activeKey, plans, s.ttl); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", activeKey), sl.Err(err))
	}
	return plans, nil
}

// GetByCode возвращает тариф по коду, сначала из кеша.
func (s *Service) GetByCode(ctx context.Context, code string) (*models.Plan, error) {
	const op = "plan.GetByCode"
	key := codeKeyPrefix + code

	var cached models.Plan
	found, err := s.cache.Get(ctx, key, &cached)
	if err != nil {
		s.log.Warn("failed to read from cache", slog.String("key", key), sl.Err(err))
	}
	if found {
		return &cached, nil
	}

	p, err := s.repo.GetPlanByCode(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err := s.cache.Set(ctx, key, p, s.ttl); err != nil {
		s.log.Warn("failed to add to cache", slog.String("key", key), sl.Err(err))
	}
	return p, nil
}

// GetByID возвращает тариф по идентификатору.
func (s *Service) GetByID(ctx context.Context, id string) (*models.Plan, error) {
	const op = "plan.GetByID"
	p, err := s.repo.GetPlanByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	return p, nil
}

// Update применяет к тарифу заданные поля patch.
func (s *Service) Update(ctx context.Context, id string, patch models.PlanPatch) (*models.Plan, error) {
	const op = "plan.Update"

	if patch.Price != nil && !models.ValidPrice(*patch.Price) {
		return nil, apperr.Validation(errInvalidPrice)
	}
	current, err := s.repo.GetPlanByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	oldCode := current.Code
	patch.Apply(current)

	updated, err := s.repo.UpdatePlan(ctx, *current)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	s.log.Info("plan updated", slog.String("id", id))
	s.invalidate(ctx, oldCode, updated.Code)
	return updated, nil
}

// ToggleActive переключает видимость тарифа.
func (s *Service) ToggleActive(ctx context.Context, id string) (*models.Plan, error) {
	const op = "plan.ToggleActive"
	p, err := s.repo.TogglePlan(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, mapError(err))
	}
	s.log.Info("plan toggled", slog.String("id", id), slog.Bool("is_active", p.IsActive))
	s.invalidate(ctx, p.Code)
	return p, nil
}

// Remove удаляет тариф без проверки ссылок на него.
func (s *Service) Remove(ctx context.Context, id string) error {
	const op = "plan.Remove"
	p, err := s.repo.GetPlanByID(ctx, id)
	if err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	if err := s.repo.DeletePlan(ctx, id); err != nil {
		return fmt.Errorf("%s: %w", op, mapError(err))
	}
	s.log.Info("plan removed", slog.String("id", id), slog.String("code", p.Code))
	s.invalidate(ctx, p.Code)
	return nil
}

func (s *Service) invalidate(ctx context.Context, codes ...string) {
	keys := []string{activeKey}
	for _, c := range codes {
		keys = append(keys, codeKeyPrefix+c)
	}
	if err := s.cache.Invalidate(ctx, keys...); err != nil {
		s.log.Warn("failed to remove from cache", slog.Any("keys", keys), sl.Err(err))
	}
}

func mapError(err error) error {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		return apperr.Wrap(apperr.ErrNotFound, "plan not found", err)
	case errors.Is(err, storage.ErrConflict):
		return apperr.Wrap(apperr.ErrConflict, "plan with this code already exists", err)
	}
	return err
}
