// Package scheduler переводит просроченные подписки в expired и рассылает
// напоминания об окончании подписки по расписанию cron.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/magabrotheeeer/recovera/internal/lib/sl"
	"github.com/magabrotheeeer/recovera/internal/metrics"
	"github.com/magabrotheeeer/recovera/internal/models"
)

// ErrAlreadyRunning планировщик уже запущен.
var ErrAlreadyRunning = errors.New("scheduler is already running")

// RemindWindow за сколько до окончания подписки отправляется напоминание.
const RemindWindow = 24 * time.Hour

// AccountRepository выборки аккаунтов для фоновых задач.
type AccountRepository interface {
	ExpireLapsed(ctx context.Context, now time.Time) ([]models.Account, error)
	ListExpiringBetween(ctx context.Context, from, to time.Time) ([]models.Account, error)
}

// Publisher публикует уведомления.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// SchedulerService фоновые задачи по подпискам.
type SchedulerService struct {
	repo AccountRepository
	pub  Publisher
	log  *slog.Logger
	now  func() time.Time

	mu   sync.Mutex
	cron *cron.Cron
}

// NewSchedulerService создает новый экземпляр SchedulerService.
func NewSchedulerService(repo AccountRepository, pub Publisher, log *slog.Logger) *SchedulerService {
	return &SchedulerService{
		repo: repo,
		pub:  pub,
		log:  log,
		now:  time.Now,
	}
}

// ExpireLapsed переводит активные подписки с истёкшим сроком в expired
// и публикует по уведомлению на каждый аккаунт. Возвращает число аккаунтов.
func (s *SchedulerService) ExpireLapsed(ctx context.Context) (int, error) {
	const op = "scheduler.ExpireLapsed"
	log := s.log.With(slog.String("op", op))

	accounts, err := s.repo.ExpireLapsed(ctx, s.now())
	if err != nil {
		log.Error("failed to expire subscriptions", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	metrics.AddExpiredAccounts(len(accounts))
	if len(accounts) == 0 {
		log.Debug("no lapsed subscriptions found")
		return 0, nil
	}
	log.Info("subscriptions expired", slog.Int("count", len(accounts)))

	s.notify(ctx, log, models.NotificationSubscriptionExpired, accounts)
	return len(accounts), nil
}

// RemindExpiring публикует напоминания аккаунтам, чья подписка истекает
// в ближайшие RemindWindow.
func (s *SchedulerService) RemindExpiring(ctx context.Context) (int, error) {
	const op = "scheduler.RemindExpiring"
	log := s.log.With(slog.String("op", op))

	now := s.now()
	accounts, err := s.repo.ListExpiringBetween(ctx, now, now.Add(RemindWindow))
	if err != nil {
		log.Error("failed to find expiring subscriptions", sl.Err(err))
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	if len(accounts) == 0 {
		log.Debug("no expiring subscriptions found")
		return 0, nil
	}
	log.Info("found expiring subscriptions", slog.Int("count", len(accounts)))

	s.notify(ctx, log, models.NotificationSubscriptionExpiring, accounts)
	return len(accounts), nil
}

func (s *SchedulerService) notify(ctx context.Context, log *slog.Logger, kind string, accounts []models.Account) {
	for _, a := range accounts {
		msg := models.Notification{
			Type:      kind,
			Email:     a.Email,
			Plan:      a.SubscriptionPlan,
			ExpiresAt: a.SubscriptionExpiresAt,
		}
		if err := s.pub.Publish(ctx, kind, msg); err != nil {
			log.Error("failed to publish message", slog.String("account_id", a.ID), sl.Err(err))
		}
	}
}

// Start регистрирует задачи с расписаниями expireSpec и remindSpec и запускает cron.
// Задачи выполняются с контекстом ctx.
func (s *SchedulerService) Start(ctx context.Context, expireSpec, remindSpec string) error {
	const op = "scheduler.Start"
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cron != nil {
		return fmt.Errorf("%s: %w", op, ErrAlreadyRunning)
	}

	c := cron.New()
	if _, err := c.AddFunc(expireSpec, func() { _, _ = s.ExpireLapsed(ctx) }); err != nil {
		return fmt.Errorf("%s: invalid expire spec %q: %w", op, expireSpec, err)
	}
	if _, err := c.AddFunc(remindSpec, func() { _, _ = s.RemindExpiring(ctx) }); err != nil {
		return fmt.Errorf("%s: invalid remind spec %q: %w", op, remindSpec, err)
	}
	c.Start()
	s.cron = c

	s.log.Info("scheduler started",
		slog.String("expire_spec", expireSpec),
		slog.String("remind_spec", remindSpec))
	return nil
}

// Stop останавливает cron и ждёт завершения выполняющихся задач.
func (s *SchedulerService) Stop() {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()

	if c == nil {
		return
	}
	<-c.Stop().Done()
	s.log.Info("scheduler stopped")
}
