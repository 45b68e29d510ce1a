package storage

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/magabrotheeeer/recovera/internal/migrations"
	"github.com/magabrotheeeer/recovera/internal/models"
)

// TestDataFactory содержит методы для создания тестовых данных
type TestDataFactory struct {
	storage *Storage
}

// NewTestDataFactory создает новую фабрику тестовых данных
func NewTestDataFactory(storage *Storage) *TestDataFactory {
	return &TestDataFactory{storage: storage}
}

// CreateAccount создает тестовый аккаунт с уникальным email
func (f *TestDataFactory) CreateAccount(t *testing.T) *models.Account {
	email := uuid.NewString() + "@example.com"
	a, err := f.storage.CreateAccount(context.Background(), email, "hashedpassword", models.RoleUser)
	require.NoError(t, err)
	return a
}

// CreateActiveAccount создает аккаунт с активной подпиской на plan
func (f *TestDataFactory) CreateActiveAccount(t *testing.T, plan string, expiresAt time.Time) *models.Account {
	a := f.CreateAccount(t)
	require.NoError(t, f.storage.ActivateSubscription(context.Background(), a.ID, plan, expiresAt))
	a, err := f.storage.GetAccountByID(context.Background(), a.ID)
	require.NoError(t, err)
	return a
}

// CreateDevice привязывает тестовое устройство к аккаунту
func (f *TestDataFactory) CreateDevice(t *testing.T, accountID string) string {
	id, err := f.storage.CreateDevice(context.Background(), models.Device{
		DeviceID:  "dev-" + uuid.NewString(),
		Model:     "Pixel 8",
		AccountID: accountID,
	})
	require.NoError(t, err)
	return id
}

// setupTestDatabase поднимает PostgreSQL в контейнере и накатывает миграции
func setupTestDatabase(t *testing.T) (*Storage, func()) {
	if testing.Short() {
		t.Skip("skipping container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:15-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	require.NoError(t, err, "failed to start container")

	connStr, err := pgContainer.ConnectionString(ctx, "sslmode=disable")
	require.NoError(t, err)

	storage, err := New(connStr)
	require.NoError(t, err, "failed to create storage")

	migrationsPath, err := filepath.Abs("../../migrations")
	require.NoError(t, err)
	require.NoError(t, migrations.Run(storage.DB, migrationsPath))

	cleanup := func() {
		_ = storage.Close()
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	}
	return storage, cleanup
}

// SetupTestDatabase открывает setupTestDatabase внешнему пакету storage_test,
// где тесты гоняют сервисы поверх настоящего хранилища.
func SetupTestDatabase(t *testing.T) (*Storage, func()) {
	return setupTestDatabase(t)
}
