package storage

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/magabrotheeeer/recovera/internal/models"
)

func TestStorage_Accounts(t *testing.T) {
	s, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	f := NewTestDataFactory(s)

	t.Run("create and read", func(t *testing.T) {
		a, err := s.CreateAccount(ctx, "alice@example.com", "hash", models.RoleUser)
		require.NoError(t, err)
		assert.Equal(t, models.StatusInactive, a.SubscriptionStatus)
		assert.Nil(t, a.SubscriptionPlan)
		assert.False(t, a.IsBlocked)

		got, err := s.GetAccountByEmail(ctx, "alice@example.com")
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
	})

	t.Run("duplicate email", func(t *testing.T) {
		_, err := s.CreateAccount(ctx, "alice@example.com", "hash", models.RoleUser)
		assert.ErrorIs(t, err, ErrConflict)
	})

	t.Run("not found", func(t *testing.T) {
		_, err := s.GetAccountByID(ctx, uuid.NewString())
		assert.ErrorIs(t, err, ErrNotFound)

		_, err = s.GetAccountByID(ctx, "not-a-uuid")
		assert.ErrorIs(t, err, ErrNotFound)

		assert.ErrorIs(t, s.SetBlocked(ctx, uuid.NewString(), true), ErrNotFound)
	})

	t.Run("reset token lifecycle", func(t *testing.T) {
		a := f.CreateAccount(t)
		expires := time.Now().Add(time.Hour).UTC().Truncate(time.Second)
		require.NoError(t, s.SetResetToken(ctx, a.ID, "token-"+a.ID, expires))

		got, err := s.GetAccountByResetToken(ctx, "token-"+a.ID)
		require.NoError(t, err)
		assert.Equal(t, a.ID, got.ID)
		require.NotNil(t, got.ResetPasswordExpires)
		assert.WithinDuration(t, expires, *got.ResetPasswordExpires, time.Second)

		require.NoError(t, s.UpdatePassword(ctx, a.ID, "newhash"))
		_, err = s.GetAccountByResetToken(ctx, "token-"+a.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("activate and expire", func(t *testing.T) {
		lapsed := f.CreateActiveAccount(t, "pro", time.Now().Add(-time.Hour))
		fresh := f.CreateActiveAccount(t, "basic", time.Now().Add(12*time.Hour))

		expiring, err := s.ListExpiringBetween(ctx, time.Now(), time.Now().Add(24*time.Hour))
		require.NoError(t, err)
		assert.True(t, containsAccount(expiring, fresh.ID))
		assert.False(t, containsAccount(expiring, lapsed.ID))

		expired, err := s.ExpireLapsed(ctx, time.Now())
		require.NoError(t, err)
		assert.True(t, containsAccount(expired, lapsed.ID))
		assert.False(t, containsAccount(expired, fresh.ID))

		got, err := s.GetAccountByID(ctx, lapsed.ID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusExpired, got.SubscriptionStatus)
		assert.Equal(t, "pro", *got.SubscriptionPlan)
	})

	t.Run("list with filter", func(t *testing.T) {
		all, total, err := s.ListAccounts(ctx, "", 100, 0)
		require.NoError(t, err)
		assert.Equal(t, total, len(all))

		active, activeTotal, err := s.ListAccounts(ctx, models.StatusActive, 100, 0)
		require.NoError(t, err)
		assert.Equal(t, activeTotal, len(active))
		for _, a := range active {
			assert.Equal(t, models.StatusActive, a.SubscriptionStatus)
		}
		assert.Less(t, activeTotal, total)

		page, _, err := s.ListAccounts(ctx, "", 1, 0)
		require.NoError(t, err)
		assert.Len(t, page, 1)
	})
}

func TestStorage_Plans(t *testing.T) {
	s, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	t.Run("seeded plans ordered", func(t *testing.T) {
		plans, err := s.ListPlans(ctx, true)
		require.NoError(t, err)
		require.Len(t, plans, 3)
		assert.Equal(t, []string{"basic", "pro", "family"}, []string{plans[0].Code, plans[1].Code, plans[2].Code})
		assert.True(t, plans[2].Price.Equal(decimal.NewFromInt(12)))
		assert.Equal(t, 3, plans[2].MaxDevices)
		assert.Contains(t, plans[1].Features, "WhatsApp recovery")
	})

	t.Run("create, toggle, update, delete", func(t *testing.T) {
		p, err := s.CreatePlan(ctx, models.PlanInput{
			Code: "starter", Name: "Starter", Price: decimal.RequireFromString("1.5"), MaxDevices: 1, DataRetentionDays: 7,
			SupportResponseHours: 72, Features: []string{"SMS recovery"},
		}.ToPlan())
		require.NoError(t, err)
		assert.True(t, p.IsActive)

		_, err = s.CreatePlan(ctx, models.Plan{Code: "starter", Name: "Dup", Currency: "USD"})
		assert.ErrorIs(t, err, ErrConflict)

		toggled, err := s.TogglePlan(ctx, p.ID)
		require.NoError(t, err)
		assert.False(t, toggled.IsActive)

		active, err := s.ListPlans(ctx, true)
		require.NoError(t, err)
		for _, ap := range active {
			assert.NotEqual(t, "starter", ap.Code)
		}
		all, err := s.ListPlans(ctx, false)
		require.NoError(t, err)
		assert.Len(t, all, 4)

		toggled.Name = "Starter+"
		toggled.DisplayOrder = 0
		updated, err := s.UpdatePlan(ctx, *toggled)
		require.NoError(t, err)
		assert.Equal(t, "Starter+", updated.Name)

		byCode, err := s.GetPlanByCode(ctx, "starter")
		require.NoError(t, err)
		assert.Equal(t, p.ID, byCode.ID)

		require.NoError(t, s.DeletePlan(ctx, p.ID))
		assert.ErrorIs(t, s.DeletePlan(ctx, p.ID), ErrNotFound)
		_, err = s.GetPlanByID(ctx, p.ID)
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestStorage_Payments(t *testing.T) {
	s, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	f := NewTestDataFactory(s)

	a := f.CreateAccount(t)
	phone := "254700000000"
	p, err := s.CreatePayment(ctx, models.Payment{
		Reference: "REF-1", AccountID: a.ID, Amount: decimal.RequireFromString("8.00"), Currency: "USD",
		Status: models.PaymentPending, Provider: models.ProviderMpesa, PlanCode: "pro", PhoneNumber: &phone,
	})
	require.NoError(t, err)
	assert.Equal(t, models.PaymentPending, p.Status)
	assert.Equal(t, models.ProviderMpesa, p.Provider)

	_, err = s.CreatePayment(ctx, models.Payment{
		Reference: "REF-1", AccountID: a.ID, Amount: decimal.NewFromInt(1), Currency: "USD",
		Status: models.PaymentPending, Provider: models.ProviderCards, PlanCode: "basic",
	})
	assert.ErrorIs(t, err, ErrConflict)

	err = s.InTx(ctx, func(ctx context.Context) error {
		locked, err := s.LockPayment(ctx, "REF-1")
		if err != nil {
			return err
		}
		response := `{"ok":true}`
		if err := s.UpdatePaymentStatus(ctx, locked.ID, models.PaymentCompleted, &response); err != nil {
			return err
		}
		return s.ActivateSubscription(ctx, a.ID, locked.PlanCode, time.Now().Add(720*time.Hour))
	})
	require.NoError(t, err)

	got, err := s.GetPaymentByReference(ctx, "REF-1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentCompleted, got.Status)

	revenue, err := s.SumCompletedRevenue(ctx)
	require.NoError(t, err)
	assert.True(t, revenue.Equal(decimal.NewFromInt(8)))

	list, total, err := s.ListPayments(ctx, models.PaymentCompleted, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, total)
	assert.Equal(t, a.Email, list[0].Email)

	byAccount, err := s.ListPaymentsByAccount(ctx, a.ID)
	require.NoError(t, err)
	assert.Len(t, byAccount, 1)

	_, err = s.LockPayment(ctx, "REF-404")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestStorage_InTxRollback(t *testing.T) {
	s, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	f := NewTestDataFactory(s)

	a := f.CreateAccount(t)
	boom := errors.New("boom")

	err := s.InTx(ctx, func(ctx context.Context) error {
		if err := s.ActivateSubscription(ctx, a.ID, "pro", time.Now().Add(time.Hour)); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	got, err := s.GetAccountByID(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, got.SubscriptionStatus)
	assert.Nil(t, got.SubscriptionPlan)
}

func TestStorage_DevicesAndReports(t *testing.T) {
	s, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()
	f := NewTestDataFactory(s)

	a := f.CreateAccount(t)
	other := f.CreateAccount(t)

	id, err := s.CreateDevice(ctx, models.Device{DeviceID: "imei-1", Model: "Galaxy S21", AccountID: a.ID})
	require.NoError(t, err)
	f.CreateDevice(t, other.ID)

	_, err = s.CreateDevice(ctx, models.Device{DeviceID: "imei-1", Model: "Galaxy S21", AccountID: other.ID})
	assert.ErrorIs(t, err, ErrConflict)

	n, err := s.CountActiveDevices(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	require.NoError(t, s.DeactivateDevice(ctx, id))
	n, err = s.CountActiveDevices(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, n)

	exists, err := s.DeviceExists(ctx, "imei-1")
	require.NoError(t, err)
	assert.True(t, exists, "soft-deleted device keeps its id reserved")

	active, err := s.ListActiveDevices(ctx, a.ID)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := s.ListDevices(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)
	own, err := s.ListDevices(ctx, other.ID)
	require.NoError(t, err)
	assert.Len(t, own, 1)

	assert.ErrorIs(t, s.DeactivateDevice(ctx, uuid.NewString()), ErrNotFound)

	for i := range 12 {
		_, err := s.CreateReport(ctx, models.RecoveryReport{AccountID: a.ID, SMSCount: i})
		require.NoError(t, err)
	}
	reports, err := s.ListReports(ctx, a.ID, 10)
	require.NoError(t, err)
	assert.Len(t, reports, 10)
	assert.Equal(t, 11, reports[0].SMSCount)

	total, err := s.CountReports(ctx, a.ID)
	require.NoError(t, err)
	assert.Equal(t, 12, total)

	today, err := s.CountReportsSince(ctx, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	assert.Equal(t, 12, today)

	_, err = s.CreateReport(ctx, models.RecoveryReport{AccountID: uuid.NewString()})
	assert.ErrorIs(t, err, ErrNotFound)
}

func containsAccount(accounts []models.Account, id string) bool {
	for _, a := range accounts {
		if a.ID == id {
			return true
		}
	}
	return false
}
