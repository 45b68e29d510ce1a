// Package sender отправляет письма по уведомлениям из брокера.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/magabrotheeeer/recovera/internal/lib/sl"
	"github.com/magabrotheeeer/recovera/internal/lib/smtp"
	"github.com/magabrotheeeer/recovera/internal/metrics"
	"github.com/magabrotheeeer/recovera/internal/models"
)

var (
	// ErrUnknownNotification тип уведомления не поддерживается.
	ErrUnknownNotification = errors.New("unknown notification type")
	// ErrMalformed сообщение не разбирается или в нём нет получателя.
	ErrMalformed = errors.New("malformed notification")
)

// Transport открывает соединение с почтовым сервером.
type Transport interface {
	Connect(ctx context.Context) (smtp.Client, error)
	GetSMTPUser() string
}

// SenderService превращает уведомления в письма.
type SenderService struct {
	transport Transport
	log       *slog.Logger
}

// NewSenderService создает новый экземпляр SenderService.
func NewSenderService(log *slog.Logger, transport Transport) *SenderService {
	return &SenderService{
		transport: transport,
		log:       log,
	}
}

// Handle разбирает уведомление и отправляет соответствующее письмо.
// Нераспознанные сообщения не отправляются и возвращают ошибку.
func (s *SenderService) Handle(ctx context.Context, body []byte) error {
	const op = "sender.Handle"

	var n models.Notification
	if err := json.Unmarshal(body, &n); err != nil {
		s.log.Error("failed to unmarshal message body", sl.Err(err))
		return fmt.Errorf("%s: error unmarshalling message: %w: %w", op, ErrMalformed, err)
	}
	if n.Email == "" {
		return fmt.Errorf("%s: empty recipient: %w", op, ErrMalformed)
	}

	subject, text, err := compose(n)
	if err != nil {
		s.log.Warn("skipping notification", slog.String("type", n.Type), sl.Err(err))
		metrics.RecordNotification(n.Type, "skipped")
		return fmt.Errorf("%s: %w", op, err)
	}

	if err := s.sendEmail(ctx, []string{n.Email}, subject, text); err != nil {
		metrics.RecordNotification(n.Type, "failed")
		return fmt.Errorf("%s: %w", op, err)
	}
	metrics.RecordNotification(n.Type, "sent")
	return nil
}

func compose(n models.Notification) (subject, text string, err error) {
	plan := "your plan"
	if n.Plan != nil && *n.Plan != "" {
		plan = *n.Plan
	}
	expires := ""
	if n.ExpiresAt != nil {
		expires = n.ExpiresAt.UTC().Format(time.RFC1123)
	}

	switch n.Type {
	case models.NotificationPasswordReset:
		return "Password reset",
			fmt.Sprintf("Hello!\n\nWe received a request to reset your password.\n"+
				"Open the link below within one hour to choose a new one:\n\n%s\n\n"+
				"If you did not request a reset, ignore this email.", n.ResetURL), nil
	case models.NotificationSubscriptionExpired:
		return "Your subscription has expired",
			fmt.Sprintf("Hello!\n\nYour %s subscription expired on %s.\n"+
				"Renew it in the app to keep recovering your messages.", plan, expires), nil
	case models.NotificationSubscriptionExpiring:
		return "Your subscription expires soon",
			fmt.Sprintf("Hello!\n\nYour %s subscription expires on %s.\n"+
				"Renew it in the app to avoid losing access.", plan, expires), nil
	}
	return "", "", fmt.Errorf("%w: %q", ErrUnknownNotification, n.Type)
}

func (s *SenderService) sendEmail(ctx context.Context, to []string, subject, bodyText string) error {
	from := s.transport.GetSMTPUser()
	msg := strings.Join([]string{
		"From: " + from,
		"To: " + strings.Join(to, ";"),
		"Subject: " + subject,
		"MIME-Version: 1.0",
		"Content-Type: text/plain; charset=\"UTF-8\"",
		"",
		bodyText,
	}, "\r\n")

	client, err := s.transport.Connect(ctx)
	if err != nil {
		s.log.Error("failed to connect to SMTP server", sl.Err(err))
		return err
	}
	defer client.Close()

	if err := client.Mail(from); err != nil {
		s.log.Error("failed to set MAIL FROM", slog.String("from", from), sl.Err(err))
		return err
	}

	for _, addr := range to {
		if err := client.Rcpt(addr); err != nil {
			s.log.Error("failed to set RCPT TO", slog.String("recipient", addr), sl.Err(err))
			return err
		}
	}

	wc, err := client.Data()
	if err != nil {
		s.log.Error("failed to get Data writer", sl.Err(err))
		return err
	}

	if _, err = wc.Write([]byte(msg)); err != nil {
		s.log.Error("failed to write email body", sl.Err(err))
		_ = wc.Close()
		return err
	}

	if err = wc.Close(); err != nil {
		s.log.Error("failed to close Data writer", sl.Err(err))
		return err
	}

	if err = client.Quit(); err != nil {
		s.log.Error("failed to quit SMTP client", sl.Err(err))
		return err
	}

	s.log.Info("email sent successfully", slog.Any("to", to), slog.String("subject", subject))
	return nil
}
