package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bedrik/gospelbot/internal/models"
)

func newTestSettingsService(repo *fakeSettingsRepo, now *time.Time) *SettingsService {
	return newSettingsService(testConfig(), testLogger(), repo, func() time.Time { return *now })
}

func TestSettingsRoundTripPreservesType(t *testing.T) {
	repo := newFakeSettingsRepo()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestSettingsService(repo, &now)
	ctx := context.Background()

	require.True(t, svc.Set(ctx, "ai_daily_limit", 5, "", ""))
	require.True(t, svc.Set(ctx, "admin_premium_mode", true, "", ""))
	require.True(t, svc.Set(ctx, "threshold", 0.5, "", ""))
	require.True(t, svc.Set(ctx, "motd", "мир вам", "", ""))

	// Set fills the cache, so the reads below must not touch the store.
	assert.Equal(t, 5, svc.Get(ctx, "ai_daily_limit", 0))
	assert.Equal(t, true, svc.Get(ctx, "admin_premium_mode", false))
	assert.Equal(t, 0.5, svc.Get(ctx, "threshold", 0.0))
	assert.Equal(t, "мир вам", svc.Get(ctx, "motd", ""))
	assert.Zero(t, repo.getCalls)

	// A second service shares the store but not the cache, so decoding is
	// exercised from the persisted rows.
	fresh := newTestSettingsService(repo, &now)
	assert.Equal(t, 5, fresh.Get(ctx, "ai_daily_limit", 0))
	assert.Equal(t, true, fresh.Get(ctx, "admin_premium_mode", false))
	assert.Equal(t, 0.5, fresh.Get(ctx, "threshold", 0.0))
	assert.Equal(t, "мир вам", fresh.Get(ctx, "motd", ""))
}

func TestSettingsGetReturnsDefaultWhenAbsent(t *testing.T) {
	repo := newFakeSettingsRepo()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestSettingsService(repo, &now)

	assert.Equal(t, 42, svc.Get(context.Background(), "missing", 42))
}

func TestSettingsGetFallsBackOnStoreError(t *testing.T) {
	repo := newFakeSettingsRepo()
	repo.getErr = assert.AnError
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestSettingsService(repo, &now)

	assert.Equal(t, 7, svc.Get(context.Background(), "ai_daily_limit", 7))
}

func TestSettingsCacheServesWithinTTL(t *testing.T) {
	repo := newFakeSettingsRepo()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestSettingsService(repo, &now)
	ctx := context.Background()

	require.True(t, svc.Set(ctx, "ai_daily_limit", 5, "", ""))
	calls := repo.getCalls

	// Within the TTL the cached value answers without touching the store.
	now = now.Add(settingsCacheTTL - time.Second)
	assert.Equal(t, 5, svc.Get(ctx, "ai_daily_limit", 0))
	assert.Equal(t, calls, repo.getCalls)

	// Past the TTL the store is consulted again.
	now = now.Add(2 * time.Second)
	assert.Equal(t, 5, svc.Get(ctx, "ai_daily_limit", 0))
	assert.Equal(t, calls+1, repo.getCalls)
}

func TestSettingsSetRefreshesCacheImmediately(t *testing.T) {
	repo := newFakeSettingsRepo()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestSettingsService(repo, &now)
	ctx := context.Background()

	require.True(t, svc.Set(ctx, "ai_daily_limit", 3, "", ""))
	assert.Equal(t, 3, svc.Get(ctx, "ai_daily_limit", 0))
	require.True(t, svc.Set(ctx, "ai_daily_limit", 10, "", ""))
	assert.Equal(t, 10, svc.Get(ctx, "ai_daily_limit", 0))
}

func TestSettingsMalformedValueDecodesAsRawString(t *testing.T) {
	repo := newFakeSettingsRepo()
	repo.rows["ai_daily_limit"] = models.Setting{
		Key:   "ai_daily_limit",
		Value: "not-a-number",
		Type:  models.SettingInteger,
	}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestSettingsService(repo, &now)

	assert.Equal(t, "not-a-number", svc.Get(context.Background(), "ai_daily_limit", 0))
	// The typed getter coerces the failure to its default.
	assert.Equal(t, 3, svc.GetDailyLimit(context.Background()))
}

func TestFreePremiumListAddRemoveIdempotent(t *testing.T) {
	repo := newFakeSettingsRepo()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestSettingsService(repo, &now)
	ctx := context.Background()

	require.True(t, svc.AddFreePremiumUser(ctx, 100))
	require.True(t, svc.AddFreePremiumUser(ctx, 100))
	require.True(t, svc.AddFreePremiumUser(ctx, 200))

	users := svc.GetFreePremiumUsers(ctx)
	assert.Len(t, users, 2)
	assert.True(t, svc.IsFreePremiumUser(ctx, 100))
	assert.True(t, svc.IsFreePremiumUser(ctx, 200))

	require.True(t, svc.RemoveFreePremiumUser(ctx, 100))
	require.True(t, svc.RemoveFreePremiumUser(ctx, 100))
	assert.False(t, svc.IsFreePremiumUser(ctx, 100))
	assert.True(t, svc.IsFreePremiumUser(ctx, 200))
}

func TestFreePremiumListMalformedDegradesToEmpty(t *testing.T) {
	repo := newFakeSettingsRepo()
	repo.rows[KeyFreePremiumUsers] = models.Setting{
		Key:   KeyFreePremiumUsers,
		Value: "{broken",
		Type:  models.SettingString,
	}
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestSettingsService(repo, &now)

	assert.Empty(t, svc.GetFreePremiumUsers(context.Background()))
}

func TestResetToDefaults(t *testing.T) {
	repo := newFakeSettingsRepo()
	now := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	svc := newTestSettingsService(repo, &now)
	ctx := context.Background()

	require.True(t, svc.Set(ctx, KeyDailyLimit, 99, "", ""))
	require.True(t, svc.AddFreePremiumUser(ctx, 123))
	require.True(t, svc.SetAdminPremiumMode(ctx, false))
	require.True(t, svc.SetCalendarEnabled(ctx, false))

	require.True(t, svc.ResetToDefaults(ctx))

	assert.Equal(t, 3, svc.GetDailyLimit(ctx))
	assert.Equal(t, 100, svc.GetPremiumPrice(ctx))
	assert.Equal(t, 50, svc.GetPremiumRequests(ctx))
	assert.True(t, svc.GetAdminPremiumMode(ctx))
	assert.True(t, svc.IsCalendarEnabled(ctx))
	assert.Empty(t, svc.GetFreePremiumUsers(ctx))
}
