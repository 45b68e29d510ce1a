package sender

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/magabrotheeeer/recovera/internal/lib/smtp"
	senderservice "github.com/magabrotheeeer/recovera/internal/services/sender"
)

type failingTransport struct{}

func (failingTransport) Connect(context.Context) (smtp.Client, error) {
	return nil, errors.New("smtp unavailable")
}

func (failingTransport) GetSMTPUser() string { return "noreply@recovera.app" }

func TestApp_Handler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	a := &App{
		senderService: senderservice.NewSenderService(logger, failingTransport{}),
		logger:        logger,
	}
	handle := a.handler(context.Background())

	tests := []struct {
		name    string
		body    string
		wantErr bool
	}{
		{name: "broken json is dropped", body: `{`},
		{name: "no recipient is dropped", body: `{"type":"password.reset"}`},
		{name: "unknown type is dropped", body: `{"type":"promo","email":"a@b.c"}`},
		{name: "smtp failure is requeued", body: `{"type":"password.reset","email":"a@b.c","resetUrl":"http://x/reset?token=t"}`, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := handle([]byte(tt.body))
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
