// Package billing создаёт намерения оплаты, подтверждает платежи
// и продлевает подписку аккаунта.
package billing

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/segmentio/ksuid"

	"github.com/magabrotheeeer/recovera/internal/lib/apperr"
	"github.com/magabrotheeeer/recovera/internal/metrics"
	"github.com/magabrotheeeer/recovera/internal/models"
	"github.com/magabrotheeeer/recovera/internal/paymentprovider"
	"github.com/magabrotheeeer/recovera/internal/storage"
)

// referenceAttempts сколько раз пробуем вставить платёж при совпадении reference.
const referenceAttempts = 3

// Repository хранилище аккаунтов, тарифов и платежей.
type Repository interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	ActivateSubscription(ctx context.Context, id, plan string, expiresAt time.Time) error
	GetPlanByCode(ctx context.Context, code string) (*models.Plan, error)
	CreatePayment(ctx context.Context, p models.Payment) (*models.Payment, error)
	GetPaymentByReference(ctx context.Context, reference string) (*models.Payment, error)
	LockPayment(ctx context.Context, reference string) (*models.Payment, error)
	UpdatePaymentStatus(ctx context.Context, id string, status models.PaymentStatus, providerResponse *string) error
}

// Gateway платёжный шлюз.
type Gateway interface {
	CheckoutURL(p models.Payment) string
	Confirm(ctx context.Context, p models.Payment) (paymentprovider.Confirmation, error)
}

// Service биллинг подписок.
type Service struct {
	repo    Repository
	gateway Gateway
	period  time.Duration
	log     *slog.Logger

	now          func() time.Time
	newReference func() string
}

// New создаёт Service. Оплата продлевает подписку на period.
func New(repo Repository, gateway Gateway, period time.Duration, log *slog.Logger) *Service {
	return &Service{
		repo:         repo,
		gateway:      gateway,
		period:       period,
		log:          log,
		now:          time.Now,
		newReference: NewReference,
	}
}

// NewReference возвращает reference платежа: REF- и KSUID,
// который упорядочен по времени и содержит 128 случайных бит.
func NewReference() string {
	return "REF-" + ksuid.New().String()
}

// CreateIntent создаёт платёж в статусе pending по цене тарифа planCode.
func (s *Service) CreateIntent(ctx context.Context, req models.IntentRequest) (*models.PaymentIntent, error) {
	const op = "billing.CreateIntent"
	log := s.log.With(slog.String("op", op), slog.String("account_id", req.UserID))

	provider := models.Provider(req.Provider)
	if !provider.Valid() {
		return nil, apperr.Validation("unsupported payment provider")
	}

	if _, err := s.repo.GetAccountByID(ctx, req.UserID); err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "user not found", err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	plan, err := s.repo.GetPlanByCode(ctx, req.Plan)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "plan not found", err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if !plan.IsActive {
		return nil, apperr.NotFound("plan not found")
	}

	var phone *string
	if provider.MobileMoney() {
		if req.PhoneNumber == "" {
			return nil, apperr.Validation("phone number is required for mobile money payments")
		}
		phone = &req.PhoneNumber
	}

	payment := models.Payment{
		AccountID:   req.UserID,
		Amount:      plan.Price,
		Currency:    plan.Currency,
		Status:      models.PaymentPending,
		Provider:    provider,
		PlanCode:    plan.Code,
		PhoneNumber: phone,
	}

	var created *models.Payment
	for attempt := 1; attempt <= referenceAttempts; attempt++ {
		payment.Reference = s.newReference()
		created, err = s.repo.CreatePayment(ctx, payment)
		if err == nil {
			break
		}
		if !errors.Is(err, storage.ErrConflict) {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		log.Warn("payment reference collision, retrying", slog.Int("attempt", attempt))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: reference collisions exhausted: %w", op, err)
	}

	metrics.RecordPaymentIntent(string(provider), plan.Code)
	log.Info("payment intent created",
		slog.String("reference", created.Reference),
		slog.String("plan", plan.Code),
		slog.String("provider", string(provider)))

	return &models.PaymentIntent{
		Reference:  created.Reference,
		Amount:     created.Amount,
		Currency:   created.Currency,
		PaymentURL: s.gateway.CheckoutURL(*created),
	}, nil
}

// VerifyPayment подтверждает платёж у шлюза и активирует подписку.
// Шлюз опрашивается вне транзакции. Затем платёж блокируется, его статус
// перепроверяется, и изменения платежа и аккаунта фиксируются вместе.
// Повторная проверка завершённого платежа ничего не меняет, а платёж,
// который провайдер ещё не завершил, остаётся pending.
func (s *Service) VerifyPayment(ctx context.Context, req models.VerifyRequest) (*models.VerifyResult, error) {
	const op = "billing.VerifyPayment"
	log := s.log.With(slog.String("op", op), slog.String("reference", req.Reference))

	provider := models.Provider(req.Provider)
	if !provider.Valid() {
		return nil, apperr.Validation("unsupported payment provider")
	}

	payment, err := s.repo.GetPaymentByReference(ctx, req.Reference)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "payment not found", err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if payment.Provider != provider {
		return nil, apperr.Validation("provider does not match payment")
	}
	if payment.Status != models.PaymentPending {
		log.Info("payment already processed", slog.String("status", string(payment.Status)))
		return s.result(ctx, op, payment)
	}

	confirmation, err := s.gateway.Confirm(ctx, *payment)
	if err != nil {
		return nil, fmt.Errorf("%s: confirm payment: %w", op, err)
	}
	if confirmation.Outcome == paymentprovider.OutcomePending {
		metrics.RecordPaymentVerified(string(provider), string(models.PaymentPending))
		log.Info("payment is not settled by provider yet")
		return s.result(ctx, op, payment)
	}

	var result *models.VerifyResult
	err = s.repo.InTx(ctx, func(ctx context.Context) error {
		locked, err := s.repo.LockPayment(ctx, req.Reference)
		if err != nil {
			return err
		}
		if locked.Status != models.PaymentPending {
			log.Info("payment processed concurrently", slog.String("status", string(locked.Status)))
			result, err = s.currentResult(ctx, locked)
			return err
		}

		raw := &confirmation.Raw
		if confirmation.Outcome != paymentprovider.OutcomeSucceeded {
			if err := s.repo.UpdatePaymentStatus(ctx, locked.ID, models.PaymentFailed, raw); err != nil {
				return err
			}
			locked.Status = models.PaymentFailed
			metrics.RecordPaymentVerified(string(provider), string(models.PaymentFailed))
			log.Warn("payment declined by provider")
			result, err = s.currentResult(ctx, locked)
			return err
		}

		if err := s.repo.UpdatePaymentStatus(ctx, locked.ID, models.PaymentCompleted, raw); err != nil {
			return err
		}
		expiresAt := s.now().Add(s.period)
		if err := s.repo.ActivateSubscription(ctx, locked.AccountID, locked.PlanCode, expiresAt); err != nil {
			return err
		}
		metrics.RecordPaymentVerified(string(provider), string(models.PaymentCompleted))
		log.Info("subscription activated",
			slog.String("account_id", locked.AccountID),
			slog.String("plan", locked.PlanCode),
			slog.Time("expires_at", expiresAt))

		plan := locked.PlanCode
		result = &models.VerifyResult{
			Status:    models.StatusActive,
			Plan:      &plan,
			ExpiresAt: &expiresAt,
			Payment:   models.PaymentCompleted,
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

func (s *Service) result(ctx context.Context, op string, payment *models.Payment) (*models.VerifyResult, error) {
	res, err := s.currentResult(ctx, payment)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return res, nil
}

func (s *Service) currentResult(ctx context.Context, payment *models.Payment) (*models.VerifyResult, error) {
	account, err := s.repo.GetAccountByID(ctx, payment.AccountID)
	if err != nil {
		return nil, err
	}
	sub := account.Subscription(s.now())
	return &models.VerifyResult{
		Status:    sub.Status,
		Plan:      sub.Plan,
		ExpiresAt: sub.ExpiresAt,
		Payment:   payment.Status,
	}, nil
}

// GetSubscriptionStatus возвращает подписку аккаунта с учётом срока действия.
func (s *Service) GetSubscriptionStatus(ctx context.Context, accountID string) (*models.Subscription, error) {
	const op = "billing.GetSubscriptionStatus"
	account, err := s.repo.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Wrap(apperr.ErrNotFound, "user not found", err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	sub := account.Subscription(s.now())
	return &sub, nil
}
