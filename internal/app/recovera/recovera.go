package recovera

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/magabrotheeeer/recovera/internal/cache"
	"github.com/magabrotheeeer/recovera/internal/config"
	"github.com/magabrotheeeer/recovera/internal/http/middlewarectx"
	"github.com/magabrotheeeer/recovera/internal/lib/jwt"
	"github.com/magabrotheeeer/recovera/internal/lib/sl"
	"github.com/magabrotheeeer/recovera/internal/migrations"
	"github.com/magabrotheeeer/recovera/internal/paymentprovider"
	"github.com/magabrotheeeer/recovera/internal/rabbitmq"
	adminservice "github.com/magabrotheeeer/recovera/internal/services/admin"
	authservice "github.com/magabrotheeeer/recovera/internal/services/auth"
	billingservice "github.com/magabrotheeeer/recovera/internal/services/billing"
	deviceservice "github.com/magabrotheeeer/recovera/internal/services/device"
	planservice "github.com/magabrotheeeer/recovera/internal/services/plan"
	recoveryservice "github.com/magabrotheeeer/recovera/internal/services/recovery"
	"github.com/magabrotheeeer/recovera/internal/storage"
)

const (
	shutdownTimeout = 15 * time.Second
	limiterIdle     = 10 * time.Minute
)

// App HTTP API сервиса.
type App struct {
	server  *http.Server
	logger  *slog.Logger
	db      *storage.Storage
	cache   *cache.Cache
	limiter *middlewarectx.RateLimiter
	conn    *amqp.Connection
	ch      *amqp.Channel
}

// New подключает хранилище, кеш и брокер, накатывает миграции,
// создаёт администратора и собирает маршруты.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := storage.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		_ = db.Close()
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	app := &App{
		logger:  logger,
		db:      db,
		cache:   cacheRedis,
		limiter: middlewarectx.NewRateLimiter(cfg.RateLimit.RPS, cfg.RateLimit.Burst),
	}

	publisher, err := app.publisher(ctx, cfg)
	if err != nil {
		app.close()
		return nil, err
	}

	var gateway billingservice.Gateway = paymentprovider.NewManual(cfg.CheckoutBaseURL)
	if cfg.GatewayURL != "" {
		gateway = paymentprovider.NewClient(cfg.GatewayURL, cfg.GatewaySecret, cfg.CheckoutBaseURL, cfg.GatewayTimeout)
	}

	jwtMaker := jwt.NewJWTMaker(cfg.JWTSecretKey, cfg.TokenTTL)
	devices := deviceservice.New(db, cfg.DefaultMaxDevices, logger)
	auth := authservice.New(db, devices, publisher, jwtMaker, cfg.ResetTokenTTL, cfg.ResetURL, logger)

	if err := auth.EnsureAdmin(ctx, cfg.AdminEmail, cfg.AdminPassword); err != nil {
		app.close()
		return nil, fmt.Errorf("bootstrap admin: %w", err)
	}

	router := chi.NewRouter()
	RegisterRoutes(router, logger, Services{
		Auth:     auth,
		Plans:    planservice.New(db, cacheRedis, cfg.PlansTTL, logger),
		Billing:  billingservice.New(db, gateway, cfg.SubscriptionPeriod, logger),
		Devices:  devices,
		Recovery: recoveryservice.New(db, logger),
		Admin:    adminservice.New(db, logger),
		Health:   db,
	}, RouterDeps{
		Tokens:         jwtMaker,
		Limiter:        app.limiter,
		AllowedOrigins: cfg.AllowedOrigins,
	})

	app.server = &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}
	return app, nil
}

// publisher подключается к RabbitMQ. Без адреса брокера уведомления только логируются.
func (a *App) publisher(ctx context.Context, cfg *config.Config) (authservice.Publisher, error) {
	if cfg.RabbitMQURL == "" {
		a.logger.Warn("rabbitmq url is empty, notifications are disabled")
		return rabbitmq.NewLogPublisher(a.logger), nil
	}

	conn, err := rabbitmq.Connect(ctx, cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, fmt.Errorf("failed to connect RabbitMQ: %w", err)
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.NotificationQueues())
	if err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to setup RabbitMQ channel: %w", err)
	}
	a.conn, a.ch = conn, ch
	return rabbitmq.NewPublisher(ch), nil
}

// Run запускает HTTP-сервер и очистку лимитера, при отмене ctx
// останавливает сервер и освобождает ресурсы.
func (a *App) Run(ctx context.Context) error {
	go a.cleanupLimiter(ctx)

	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		a.close()
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		a.logger.Info("shutting down HTTP server gracefully")
		err := a.server.Shutdown(timeoutCtx)
		a.close()
		return err
	}
}

func (a *App) cleanupLimiter(ctx context.Context) {
	ticker := time.NewTicker(limiterIdle)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			if n := a.limiter.Cleanup(limiterIdle); n > 0 {
				a.logger.Debug("rate limiter cleaned up", slog.Int("removed", n))
			}
		case <-ctx.Done():
			return
		}
	}
}

func (a *App) close() {
	if a.ch != nil {
		if err := a.ch.Close(); err != nil {
			a.logger.Error("failed to close channel", sl.Err(err))
		}
	}
	if a.conn != nil {
		if err := a.conn.Close(); err != nil {
			a.logger.Error("failed to close connection", sl.Err(err))
		}
	}
	if err := a.cache.Close(); err != nil {
		a.logger.Error("failed to close redis", sl.Err(err))
	}
	if err := a.db.Close(); err != nil {
		a.logger.Error("failed to close storage", sl.Err(err))
	}
}
