package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/bedrik/gospelbot/internal/config"
	"github.com/bedrik/gospelbot/internal/models"
	"github.com/bedrik/gospelbot/internal/repository"
)

const (
	adminDailyLimit = 1000
	quotaResetHour  = 0 // UTC

	quotaDateLayout = "2006-01-02"
)

// QuotaService gates every AI request: a daily allowance counted per UTC
// calendar day, backed by the premium ledger once the allowance runs out.
type QuotaService struct {
	cfg      config.Config
	log      *slog.Logger
	usage    repository.UsageRepository
	settings *SettingsService
	premium  *PremiumService
	now      func() time.Time
}

func NewQuotaService(cfg config.Config, log *slog.Logger, usage repository.UsageRepository, settings *SettingsService, premium *PremiumService) *QuotaService {
	return newQuotaService(cfg, log, usage, settings, premium, time.Now)
}

func newQuotaService(cfg config.Config, log *slog.Logger, usage repository.UsageRepository, settings *SettingsService, premium *PremiumService, now func() time.Time) *QuotaService {
	return &QuotaService{
		cfg:      cfg,
		log:      log,
		usage:    usage,
		settings: settings,
		premium:  premium,
		now:      now,
	}
}

func (s *QuotaService) isAdmin(userID int64) bool {
	return s.cfg.AdminUserID != 0 && userID == s.cfg.AdminUserID
}

func (s *QuotaService) dailyLimitFor(ctx context.Context, userID int64) int {
	if s.isAdmin(userID) {
		return adminDailyLimit
	}
	return s.settings.GetDailyLimit(ctx)
}

// premiumEligible reports whether the user gets premium-tier responses:
// a positive ledger balance, membership in the free allow-list, or being
// the admin while admin premium mode is on.
func (s *QuotaService) premiumEligible(ctx context.Context, userID int64, premiumBalance int) bool {
	if premiumBalance > 0 {
		return true
	}
	if s.settings.IsFreePremiumUser(ctx, userID) {
		return true
	}
	return s.isAdmin(userID) && s.settings.GetAdminPremiumMode(ctx)
}

// GetUserQuotaInfo assembles the user's current allowance snapshot. On a
// storage error it falls back to an optimistic snapshot with CanUseAI=true:
// a broken quota store must not lock everyone out of the AI.
func (s *QuotaService) GetUserQuotaInfo(ctx context.Context, userID int64) models.QuotaInfo {
	now := s.now().UTC()
	limit := s.dailyLimitFor(ctx, userID)

	used, err := s.usage.CountForDay(ctx, userID, now)
	if err != nil {
		s.log.Error("get quota info", "user_id", userID, "err", err)
		return s.fallbackQuotaInfo(ctx, userID, now, limit)
	}

	remaining := limit - used
	if remaining < 0 {
		remaining = 0
	}
	premiumBalance := s.premium.GetUserPremiumRequests(ctx, userID)
	nextReset := nextResetTime(now)

	return models.QuotaInfo{
		UserID:          userID,
		Date:            now.Format(quotaDateLayout),
		DailyLimit:      limit,
		UsedToday:       used,
		Remaining:       remaining,
		PremiumRequests: premiumBalance,
		TotalAvailable:  remaining + premiumBalance,
		IsAdmin:         s.isAdmin(userID),
		NextReset:       nextReset,
		HoursUntilReset: hoursUntil(now, nextReset),
		CanUseAI:        remaining > 0 || premiumBalance > 0 || s.isAdmin(userID),
	}
}

// fallbackQuotaInfo is the fail-open snapshot: full allowance, no premium.
func (s *QuotaService) fallbackQuotaInfo(ctx context.Context, userID int64, now time.Time, limit int) models.QuotaInfo {
	nextReset := nextResetTime(now)
	return models.QuotaInfo{
		UserID:          userID,
		Date:            now.Format(quotaDateLayout),
		DailyLimit:      limit,
		UsedToday:       0,
		Remaining:       limit,
		PremiumRequests: 0,
		TotalAvailable:  limit,
		IsAdmin:         s.isAdmin(userID),
		NextReset:       nextReset,
		HoursUntilReset: hoursUntil(now, nextReset),
		CanUseAI:        true,
	}
}

// CheckAndIncrementUsage authorizes one AI request and charges the right
// bucket. The daily allowance is spent first; premium-eligible users then
// fall through to the ledger. The returned tier tells the caller which model
// quality the user gets: premium-eligible users receive premium-tier output
// even while still spending the daily allowance.
func (s *QuotaService) CheckAndIncrementUsage(ctx context.Context, userID int64) (bool, models.Tier, error) {
	now := s.now().UTC()
	limit := s.dailyLimitFor(ctx, userID)

	used, err := s.usage.CountForDay(ctx, userID, now)
	if err != nil {
		return false, models.TierNone, fmt.Errorf("check quota: %w", err)
	}

	premiumBalance := s.premium.GetUserPremiumRequests(ctx, userID)
	eligible := s.premiumEligible(ctx, userID, premiumBalance)

	if used < limit {
		if err := s.usage.Increment(ctx, userID, now); err != nil {
			return false, models.TierNone, fmt.Errorf("increment usage: %w", err)
		}
		tier := models.TierRegular
		if eligible {
			tier = models.TierPremium
		}
		s.log.Info("ai request granted", "user_id", userID, "tier", tier, "used", used+1, "limit", limit)
		return true, tier, nil
	}

	if eligible {
		consumed, err := s.premium.UsePremiumRequest(ctx, userID)
		if err != nil {
			return false, models.TierNone, fmt.Errorf("check quota: %w", err)
		}
		if consumed {
			s.log.Info("ai request granted from premium balance", "user_id", userID)
			return true, models.TierPremium, nil
		}
	}

	s.log.Info("ai request denied", "user_id", userID, "used", used, "limit", limit)
	return false, models.TierNone, nil
}

// RunResetScheduler sleeps until the next UTC midnight, logs the rollover,
// and repeats until the context is cancelled. The reset itself is a no-op:
// usage rows are keyed by date, so a new day simply reads as zero. A failure
// retries after an hour instead of killing the loop.
func (s *QuotaService) RunResetScheduler(ctx context.Context) {
	for {
		now := s.now().UTC()
		next := nextResetTime(now)
		s.log.Info("quota reset scheduled", "next_reset", next.Format(time.RFC3339))

		select {
		case <-ctx.Done():
			s.log.Info("quota reset scheduler stopped")
			return
		case <-time.After(next.Sub(now)):
		}

		if err := s.onDailyReset(ctx); err != nil {
			s.log.Error("quota reset", "err", err)
			select {
			case <-ctx.Done():
				s.log.Info("quota reset scheduler stopped")
				return
			case <-time.After(time.Hour):
			}
			continue
		}
	}
}

func (s *QuotaService) onDailyReset(ctx context.Context) error {
	// Usage is date-keyed, so yesterday's rows age out on their own.
	s.log.Info("daily quota rolled over", "date", s.now().UTC().Format(quotaDateLayout))
	return nil
}

// nextResetTime is the next occurrence of the reset hour in UTC, strictly
// after now.
func nextResetTime(now time.Time) time.Time {
	now = now.UTC()
	reset := time.Date(now.Year(), now.Month(), now.Day(), quotaResetHour, 0, 0, 0, time.UTC)
	if !reset.After(now) {
		reset = reset.Add(24 * time.Hour)
	}
	return reset
}

func hoursUntil(now, next time.Time) int {
	hours := int(next.Sub(now).Hours())
	if hours < 0 {
		return 0
	}
	return hours
}
