// Package auth содержит логику регистрации, входа и восстановления пароля.
package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"time"

	"github.com/magabrotheeeer/recovera/internal/lib/apperr"
	"github.com/magabrotheeeer/recovera/internal/lib/jwt"
	"github.com/magabrotheeeer/recovera/internal/lib/password"
	"github.com/magabrotheeeer/recovera/internal/lib/sl"
	"github.com/magabrotheeeer/recovera/internal/models"
	"github.com/magabrotheeeer/recovera/internal/storage"
)

// ForgotPasswordMessage ответ на запрос сброса, одинаковый для любого email.
const ForgotPasswordMessage = "If an account with that email exists, a password reset link has been sent"

// AccountRepository описывает контракт для работы с аккаунтами в базе данных.
type AccountRepository interface {
	CreateAccount(ctx context.Context, email, passwordHash, role string) (*models.Account, error)
	GetAccountByID(ctx context.Context, id string) (*models.Account, error)
	GetAccountByEmail(ctx context.Context, email string) (*models.Account, error)
	GetAccountByResetToken(ctx context.Context, token string) (*models.Account, error)
	SetResetToken(ctx context.Context, id, token string, expires time.Time) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	SetRole(ctx context.Context, id, role string) error
}

// DeviceBinder привязывает устройство, указанное при регистрации.
type DeviceBinder interface {
	Bind(ctx context.Context, req models.BindRequest) (string, error)
}

// Publisher отправляет уведомление в брокер.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, message any) error
}

// Service отвечает за регистрацию, авторизацию и смену пароля.
type Service struct {
	accounts  AccountRepository
	devices   DeviceBinder
	publisher Publisher
	jwtMaker  jwt.Maker
	log       *slog.Logger
	resetTTL  time.Duration
	resetURL  string
	now       func() time.Time
}

// New создаёт Service. resetURL адрес страницы сброса пароля, к нему
// дописывается параметр token.
func New(accounts AccountRepository, devices DeviceBinder, publisher Publisher, jwtMaker jwt.Maker,
	resetTTL time.Duration, resetURL string, log *slog.Logger) *Service {
	return &Service{
		accounts:  accounts,
		devices:   devices,
		publisher: publisher,
		jwtMaker:  jwtMaker,
		log:       log,
		resetTTL:  resetTTL,
		resetURL:  resetURL,
		now:       time.Now,
	}
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Register создаёт аккаунт с ролью user и возвращает токен.
// Если передан deviceId, устройство привязывается; ошибка привязки
// только логируется.
func (s *Service) Register(ctx context.Context, req models.RegisterRequest) (*models.AuthResult, error) {
	const op = "auth.Register"
	log := s.log.With(slog.String("op", op))

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	account, err := s.accounts.CreateAccount(ctx, normalizeEmail(req.Email), hash, models.RoleUser)
	if err != nil {
		if errors.Is(err, storage.ErrConflict) {
			return nil, apperr.Wrap(apperr.ErrConflict, "email already registered", err)
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	if req.DeviceID != "" && s.devices != nil {
		bind := models.BindRequest{UserID: account.ID, DeviceID: req.DeviceID, Model: "unknown"}
		if req.DeviceInfo != nil {
			if req.DeviceInfo.Model != "" {
				bind.Model = req.DeviceInfo.Model
			}
			bind.OSVersion = req.DeviceInfo.OSVersion
			bind.AppVersion = req.DeviceInfo.AppVersion
		}
		if _, err := s.devices.Bind(ctx, bind); err != nil {
			log.Warn("device bind on register failed", slog.String("account_id", account.ID), sl.Err(err))
		}
	}

	token, err := s.jwtMaker.GenerateToken(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	log.Info("account registered", slog.String("account_id", account.ID))
	return &models.AuthResult{Token: token, UserID: account.ID, Email: account.Email}, nil
}

// Login проверяет пароль и выдаёт токен. Заблокированный аккаунт
// не входит даже с верным паролем.
func (s *Service) Login(ctx context.Context, req models.LoginRequest) (*models.AuthResult, error) {
	const op = "auth.Login"

	account, err := s.accounts.GetAccountByEmail(ctx, normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, apperr.Unauthorized("invalid credentials")
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if account.IsBlocked {
		return nil, apperr.Unauthorized("account is blocked")
	}
	if err := password.CompareHash(account.PasswordHash, req.Password); err != nil {
		return nil, apperr.Wrap(apperr.ErrUnauthorized, "invalid credentials", err)
	}

	token, err := s.jwtMaker.GenerateToken(account.ID, account.Email, account.Role)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &models.AuthResult{
		Token:              token,
		UserID:             account.ID,
		Email:              account.Email,
		SubscriptionStatus: account.EffectiveStatus(s.now()),
		SubscriptionPlan:   account.SubscriptionPlan,
	}, nil
}

// ForgotPassword выпускает токен сброса и отправляет письмо.
// Ответ не раскрывает, существует ли аккаунт.
func (s *Service) ForgotPassword(ctx context.Context, email string) (string, error) {
	const op = "auth.ForgotPassword"
	log := s.log.With(slog.String("op", op))

	account, err := s.accounts.GetAccountByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return ForgotPasswordMessage, nil
		}
		return "", fmt.Errorf("%s: %w", op, err)
	}

	token, err := password.NewResetToken()
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	if err := s.accounts.SetResetToken(ctx, account.ID, token, s.now().Add(s.resetTTL)); err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	msg := models.Notification{
		Type:     models.NotificationPasswordReset,
		Email:    account.Email,
		ResetURL: s.resetLink(token),
	}
	if err := s.publisher.Publish(ctx, models.NotificationPasswordReset, msg); err != nil {
		log.Error("failed to publish password reset", slog.String("account_id", account.ID), sl.Err(err))
	}

	return ForgotPasswordMessage, nil
}

func (s *Service) resetLink(token string) string {
	sep := "?"
	if strings.Contains(s.resetURL, "?") {
		sep = "&"
	}
	return s.resetURL + sep + "token=" + url.QueryEscape(token)
}

// ResetPassword устанавливает новый пароль по токену из письма.
func (s *Service) ResetPassword(ctx context.Context, req models.ResetPasswordRequest) error {
	const op = "auth.ResetPassword"

	account, err := s.accounts.GetAccountByResetToken(ctx, req.Token)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.Unauthorized("invalid or expired reset token")
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if account.ResetPasswordExpires == nil || s.now().After(*account.ResetPasswordExpires) {
		return apperr.Unauthorized("invalid or expired reset token")
	}

	hash, err := password.GetHash(req.Password)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// ChangePassword меняет пароль после проверки текущего.
func (s *Service) ChangePassword(ctx context.Context, accountID string, req models.ChangePasswordRequest) error {
	const op = "auth.ChangePassword"

	account, err := s.accounts.GetAccountByID(ctx, accountID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return apperr.Wrap(apperr.ErrNotFound, "user not found", err)
		}
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := password.CompareHash(account.PasswordHash, req.CurrentPassword); err != nil {
		return apperr.Wrap(apperr.ErrUnauthorized, "current password is incorrect", err)
	}

	hash, err := password.GetHash(req.NewPassword)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if err := s.accounts.UpdatePassword(ctx, account.ID, hash); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// EnsureAdmin создаёт администратора при первом запуске или повышает
// существующий аккаунт до роли admin. Пароль существующего аккаунта не меняется.
func (s *Service) EnsureAdmin(ctx context.Context, email, rawPassword string) error {
	const op = "auth.EnsureAdmin"
	log := s.log.With(slog.String("op", op))

	email = normalizeEmail(email)
	if email == "" || rawPassword == "" {
		log.Debug("admin bootstrap skipped")
		return nil
	}

	account, err := s.accounts.GetAccountByEmail(ctx, email)
	switch {
	case errors.Is(err, storage.ErrNotFound):
		hash, err := password.GetHash(rawPassword)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		created, err := s.accounts.CreateAccount(ctx, email, hash, models.RoleAdmin)
		if err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		log.Info("admin account created", slog.String("account_id", created.ID))
		return nil
	case err != nil:
		return fmt.Errorf("%s: %w", op, err)
	}

	if account.Role == models.RoleAdmin {
		return nil
	}
	if err := s.accounts.SetRole(ctx, account.ID, models.RoleAdmin); err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	log.Info("account promoted to admin", slog.String("account_id", account.ID))
	return nil
}
