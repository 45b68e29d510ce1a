package device

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/recovera/internal/lib/apperr"
	"github.com/magabrotheeeer/recovera/internal/models"
	"github.com/magabrotheeeer/recovera/internal/storage"
)

type RepoMock struct{ mock.Mock }

func (m *RepoMock) InTx(ctx context.Context, fn func(ctx context.Context) error) error {
	m.Called(ctx)
	return fn(ctx)
}

func (m *RepoMock) LockAccount(ctx context.Context, id string) (*models.Account, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Account), args.Error(1)
}

func (m *RepoMock) GetPlanByCode(ctx context.Context, code string) (*models.Plan, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Plan), args.Error(1)
}

func (m *RepoMock) CountActiveDevices(ctx context.Context, accountID string) (int, error) {
	args := m.Called(ctx, accountID)
	return args.Int(0), args.Error(1)
}

func (m *RepoMock) DeviceExists(ctx context.Context, deviceID string) (bool, error) {
	args := m.Called(ctx, deviceID)
	return args.Bool(0), args.Error(1)
}

func (m *RepoMock) CreateDevice(ctx context.Context, d models.Device) (string, error) {
	args := m.Called(ctx, d)
	return args.String(0), args.Error(1)
}

func (m *RepoMock) GetDevice(ctx context.Context, id string) (*models.Device, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Device), args.Error(1)
}

func (m *RepoMock) DeactivateDevice(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *RepoMock) ListActiveDevices(ctx context.Context, accountID string) ([]models.Device, error) {
	args := m.Called(ctx, accountID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Device), args.Error(1)
}

func newNoopLogger() *slog.Logger {
	h := slog.NewTextHandler(io.Discard, &slog.HandlerOptions{})
	return slog.New(h)
}

const accountID = "acc-1"

func TestService_Bind(t *testing.T) {
	now := time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)
	future := now.Add(24 * time.Hour)
	past := now.Add(-time.Hour)
	family := "family"

	inactive := &models.Account{ID: accountID, SubscriptionStatus: models.StatusInactive}
	activeFamily := &models.Account{ID: accountID, SubscriptionStatus: models.StatusActive, SubscriptionPlan: &family, SubscriptionExpiresAt: &future}
	lapsedFamily := &models.Account{ID: accountID, SubscriptionStatus: models.StatusActive, SubscriptionPlan: &family, SubscriptionExpiresAt: &past}
	req := models.BindRequest{UserID: accountID, DeviceID: "imei-1", Model: "Galaxy S21"}

	tests := []struct {
		name       string
		setupMocks func(r *RepoMock)
		wantID     string
		wantKind   error
		wantMsg    string
	}{
		{
			name: "first device on default limit",
			setupMocks: func(r *RepoMock) {
				r.On("LockAccount", mock.Anything, accountID).Return(inactive, nil).Once()
				r.On("CountActiveDevices", mock.Anything, accountID).Return(0, nil).Once()
				r.On("DeviceExists", mock.Anything, "imei-1").Return(false, nil).Once()
				r.On("CreateDevice", mock.Anything, mock.MatchedBy(func(d models.Device) bool {
					return d.IsActive && d.AccountID == accountID && d.LastActiveAt.Equal(now)
				})).Return("dev-1", nil).Once()
			},
			wantID: "dev-1",
		},
		{
			name: "default limit reached",
			setupMocks: func(r *RepoMock) {
				r.On("LockAccount", mock.Anything, accountID).Return(inactive, nil).Once()
				r.On("CountActiveDevices", mock.Anything, accountID).Return(1, nil).Once()
			},
			wantKind: apperr.ErrConflict,
			wantMsg:  "maximum 1 device(s) allowed for your plan",
		},
		{
			name: "family plan allows third device",
			setupMocks: func(r *RepoMock) {
				r.On("LockAccount", mock.Anything, accountID).Return(activeFamily, nil).Once()
				r.On("GetPlanByCode", mock.Anything, "family").Return(&models.Plan{Code: "family", MaxDevices: 3}, nil).Once()
				r.On("CountActiveDevices", mock.Anything, accountID).Return(2, nil).Once()
				r.On("DeviceExists", mock.Anything, "imei-1").Return(false, nil).Once()
				r.On("CreateDevice", mock.Anything, mock.Anything).Return("dev-3", nil).Once()
			},
			wantID: "dev-3",
		},
		{
			name: "family plan full",
			setupMocks: func(r *RepoMock) {
				r.On("LockAccount", mock.Anything, accountID).Return(activeFamily, nil).Once()
				r.On("GetPlanByCode", mock.Anything, "family").Return(&models.Plan{Code: "family", MaxDevices: 3}, nil).Once()
				r.On("CountActiveDevices", mock.Anything, accountID).Return(3, nil).Once()
			},
			wantKind: apperr.ErrConflict,
			wantMsg:  "maximum 3 device(s) allowed for your plan",
		},
		{
			name: "lapsed subscription falls back to default",
			setupMocks: func(r *RepoMock) {
				r.On("LockAccount", mock.Anything, accountID).Return(lapsedFamily, nil).Once()
				r.On("CountActiveDevices", mock.Anything, accountID).Return(1, nil).Once()
			},
			wantKind: apperr.ErrConflict,
			wantMsg:  "maximum 1 device(s) allowed for your plan",
		},
		{
			name: "plan removed from catalog falls back to default",
			setupMocks: func(r *RepoMock) {
				r.On("LockAccount", mock.Anything, accountID).Return(activeFamily, nil).Once()
				r.On("GetPlanByCode", mock.Anything, "family").Return(nil, storage.ErrNotFound).Once()
				r.On("CountActiveDevices", mock.Anything, accountID).Return(1, nil).Once()
			},
			wantKind: apperr.ErrConflict,
			wantMsg:  "maximum 1 device(s) allowed for your plan",
		},
		{
			name: "device registered elsewhere",
			setupMocks: func(r *RepoMock) {
				r.On("LockAccount", mock.Anything, accountID).Return(inactive, nil).Once()
				r.On("CountActiveDevices", mock.Anything, accountID).Return(0, nil).Once()
				r.On("DeviceExists", mock.Anything, "imei-1").Return(true, nil).Once()
			},
			wantKind: apperr.ErrConflict,
			wantMsg:  "device already registered",
		},
		{
			name: "unique violation on insert",
			setupMocks: func(r *RepoMock) {
				r.On("LockAccount", mock.Anything, accountID).Return(inactive, nil).Once()
				r.On("CountActiveDevices", mock.Anything, accountID).Return(0, nil).Once()
				r.On("DeviceExists", mock.Anything, "imei-1").Return(false, nil).Once()
				r.On("CreateDevice", mock.Anything, mock.Anything).Return("", storage.ErrConflict).Once()
			},
			wantKind: apperr.ErrConflict,
			wantMsg:  "device already registered",
		},
		{
			name: "account missing",
			setupMocks: func(r *RepoMock) {
				r.On("LockAccount", mock.Anything, accountID).Return(nil, storage.ErrNotFound).Once()
			},
			wantKind: apperr.ErrNotFound,
			wantMsg:  "user not found",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			repo.On("InTx", mock.Anything).Once()
			tt.setupMocks(repo)

			svc := New(repo, 1, newNoopLogger())
			svc.now = func() time.Time { return now }

			id, err := svc.Bind(context.Background(), req)
			if tt.wantKind != nil {
				assert.ErrorIs(t, err, tt.wantKind)
				assert.Equal(t, tt.wantMsg, apperr.Message(err, ""))
				assert.Empty(t, id)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.wantID, id)
			}
			repo.AssertExpectations(t)
		})
	}
}

func TestService_List(t *testing.T) {
	repo := new(RepoMock)
	os := "14"
	repo.On("ListActiveDevices", mock.Anything, accountID).Return([]models.Device{
		{ID: "dev-1", DeviceID: "imei-1", Model: "Pixel 8", OSVersion: &os, AccountID: accountID, IsActive: true},
	}, nil).Once()

	views, err := New(repo, 1, newNoopLogger()).List(context.Background(), accountID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "imei-1", views[0].DeviceID)
	assert.Equal(t, "14", *views[0].OSVersion)

	repo.On("ListActiveDevices", mock.Anything, "not-a-uuid").Return(nil, storage.ErrNotFound).Once()
	views, err = New(repo, 1, newNoopLogger()).List(context.Background(), "not-a-uuid")
	require.NoError(t, err)
	assert.Empty(t, views)
	repo.AssertExpectations(t)
}

func TestService_Unbind(t *testing.T) {
	tests := []struct {
		name       string
		ownerID    string
		setupMocks func(r *RepoMock)
		wantKind   error
		wantErr    bool
	}{
		{
			name:    "owner unbinds",
			ownerID: accountID,
			setupMocks: func(r *RepoMock) {
				r.On("GetDevice", mock.Anything, "dev-1").Return(&models.Device{ID: "dev-1", AccountID: accountID}, nil).Once()
				r.On("DeactivateDevice", mock.Anything, "dev-1").Return(nil).Once()
			},
		},
		{
			name:    "admin unbinds any device",
			ownerID: "",
			setupMocks: func(r *RepoMock) {
				r.On("GetDevice", mock.Anything, "dev-1").Return(&models.Device{ID: "dev-1", AccountID: "other"}, nil).Once()
				r.On("DeactivateDevice", mock.Anything, "dev-1").Return(nil).Once()
			},
		},
		{
			name:    "foreign device looks absent",
			ownerID: accountID,
			setupMocks: func(r *RepoMock) {
				r.On("GetDevice", mock.Anything, "dev-1").Return(&models.Device{ID: "dev-1", AccountID: "other"}, nil).Once()
			},
			wantKind: apperr.ErrNotFound,
		},
		{
			name:    "missing device",
			ownerID: accountID,
			setupMocks: func(r *RepoMock) {
				r.On("GetDevice", mock.Anything, "dev-1").Return(nil, storage.ErrNotFound).Once()
			},
			wantKind: apperr.ErrNotFound,
		},
		{
			name:    "storage failure",
			ownerID: accountID,
			setupMocks: func(r *RepoMock) {
				r.On("GetDevice", mock.Anything, "dev-1").Return(&models.Device{ID: "dev-1", AccountID: accountID}, nil).Once()
				r.On("DeactivateDevice", mock.Anything, "dev-1").Return(errors.New("db down")).Once()
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(RepoMock)
			tt.setupMocks(repo)

			err := New(repo, 1, newNoopLogger()).Unbind(context.Background(), "dev-1", tt.ownerID)
			switch {
			case tt.wantKind != nil:
				assert.ErrorIs(t, err, tt.wantKind)
			case tt.wantErr:
				assert.Error(t, err)
			default:
				assert.NoError(t, err)
			}
			repo.AssertExpectations(t)
		})
	}
}
