package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/bedrik/gospelbot/internal/config"
	"github.com/bedrik/gospelbot/internal/models"
	"github.com/bedrik/gospelbot/internal/repository"
)

const settingsCacheTTL = 300 * time.Second

const (
	KeyDailyLimit       = "ai_daily_limit"
	KeyPremiumPrice     = "premium_package_price"
	KeyPremiumRequests  = "premium_package_requests"
	KeyAdminPremiumMode = "admin_premium_mode"
	KeyFreePremiumUsers = "free_premium_users"
	KeyCalendarEnabled  = "calendar_enabled"
)

type settingsCacheEntry struct {
	value    interface{}
	cachedAt time.Time
}

// SettingsService is the typed settings store with a per-key TTL cache.
// Read failures degrade to the caller's default; write failures return false.
// Neither ever surfaces an error to a chat handler.
type SettingsService struct {
	cfg  config.Config
	log  *slog.Logger
	repo repository.SettingsRepository
	now  func() time.Time

	mu    sync.RWMutex
	cache map[string]settingsCacheEntry
}

func NewSettingsService(cfg config.Config, log *slog.Logger, repo repository.SettingsRepository) *SettingsService {
	return newSettingsService(cfg, log, repo, time.Now)
}

func newSettingsService(cfg config.Config, log *slog.Logger, repo repository.SettingsRepository, now func() time.Time) *SettingsService {
	return &SettingsService{
		cfg:   cfg,
		log:   log,
		repo:  repo,
		now:   now,
		cache: make(map[string]settingsCacheEntry),
	}
}

// Get returns the setting value decoded per its stored type tag, or
// defaultValue when the key is absent or the store is unreachable.
// An absent key is not negatively cached.
func (s *SettingsService) Get(ctx context.Context, key string, defaultValue interface{}) interface{} {
	if value, ok := s.cached(key); ok {
		return value
	}

	setting, err := s.repo.Get(ctx, key)
	if err != nil {
		s.log.Error("get setting", "key", key, "err", err)
		return defaultValue
	}
	if setting == nil {
		return defaultValue
	}

	value := s.decode(setting.Value, setting.Type)
	s.store(key, value)
	return value
}

// Set writes the setting, inferring the type tag from the runtime type when
// settingType is empty, and refreshes the cache immediately on success.
func (s *SettingsService) Set(ctx context.Context, key string, value interface{}, settingType models.SettingType, description string) bool {
	if settingType == "" {
		settingType = typeOf(value)
	}

	setting := &models.Setting{
		Key:         key,
		Value:       encodeValue(value),
		Type:        settingType,
		Description: description,
	}
	if err := s.repo.Upsert(ctx, setting); err != nil {
		s.log.Error("set setting", "key", key, "err", err)
		return false
	}

	s.store(key, value)
	s.log.Info("setting updated", "key", key, "value", setting.Value)
	return true
}

// ResetToDefaults rewrites the quota settings to their compiled-in values.
func (s *SettingsService) ResetToDefaults(ctx context.Context) bool {
	defaults := []struct {
		key   string
		value interface{}
	}{
		{KeyDailyLimit, s.cfg.AIDailyLimit},
		{KeyPremiumPrice, s.cfg.PremiumPackagePrice},
		{KeyPremiumRequests, s.cfg.PremiumPackageRequests},
		{KeyAdminPremiumMode, true},
		{KeyFreePremiumUsers, "[]"},
		{KeyCalendarEnabled, true},
	}
	ok := true
	for _, d := range defaults {
		if !s.Set(ctx, d.key, d.value, "", "") {
			ok = false
		}
	}
	if ok {
		s.log.Info("settings reset to defaults")
	}
	return ok
}

func (s *SettingsService) List(ctx context.Context) ([]models.Setting, error) {
	return s.repo.List(ctx)
}

// ClearCache drops every cached value; the next reads go to the store.
func (s *SettingsService) ClearCache() {
	s.mu.Lock()
	s.cache = make(map[string]settingsCacheEntry)
	s.mu.Unlock()
}

func (s *SettingsService) GetDailyLimit(ctx context.Context) int {
	return s.getInt(ctx, KeyDailyLimit, s.cfg.AIDailyLimit)
}

func (s *SettingsService) GetPremiumPrice(ctx context.Context) int {
	return s.getInt(ctx, KeyPremiumPrice, s.cfg.PremiumPackagePrice)
}

func (s *SettingsService) GetPremiumRequests(ctx context.Context) int {
	return s.getInt(ctx, KeyPremiumRequests, s.cfg.PremiumPackageRequests)
}

func (s *SettingsService) GetAdminPremiumMode(ctx context.Context) bool {
	return s.getBool(ctx, KeyAdminPremiumMode, true)
}

func (s *SettingsService) SetAdminPremiumMode(ctx context.Context, enabled bool) bool {
	return s.Set(ctx, KeyAdminPremiumMode, enabled, models.SettingBoolean, "Использует ли админ премиум ИИ по умолчанию")
}

func (s *SettingsService) IsCalendarEnabled(ctx context.Context) bool {
	return s.getBool(ctx, KeyCalendarEnabled, true)
}

func (s *SettingsService) SetCalendarEnabled(ctx context.Context, enabled bool) bool {
	return s.Set(ctx, KeyCalendarEnabled, enabled, models.SettingBoolean, "Включена ли функция православного календаря")
}

// GetFreePremiumUsers decodes the allow-list of user ids granted premium-tier
// output within their daily allowance. A malformed stored list degrades to an
// empty set.
func (s *SettingsService) GetFreePremiumUsers(ctx context.Context) map[int64]struct{} {
	raw := s.Get(ctx, KeyFreePremiumUsers, "[]")
	encoded, ok := raw.(string)
	if !ok {
		encoded = fmt.Sprintf("%v", raw)
	}

	var ids []int64
	if err := json.Unmarshal([]byte(encoded), &ids); err != nil {
		s.log.Warn("parse free premium users", "err", err)
		return map[int64]struct{}{}
	}
	users := make(map[int64]struct{}, len(ids))
	for _, id := range ids {
		users[id] = struct{}{}
	}
	return users
}

func (s *SettingsService) SetFreePremiumUsers(ctx context.Context, users map[int64]struct{}) bool {
	ids := make([]int64, 0, len(users))
	for id := range users {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	encoded, err := json.Marshal(ids)
	if err != nil {
		s.log.Error("encode free premium users", "err", err)
		return false
	}
	return s.Set(ctx, KeyFreePremiumUsers, string(encoded), models.SettingString, "JSON список пользователей с бесплатным премиум доступом")
}

// AddFreePremiumUser is idempotent: adding a present id is a no-op write.
func (s *SettingsService) AddFreePremiumUser(ctx context.Context, userID int64) bool {
	users := s.GetFreePremiumUsers(ctx)
	users[userID] = struct{}{}
	return s.SetFreePremiumUsers(ctx, users)
}

// RemoveFreePremiumUser is idempotent: removing an absent id leaves the set unchanged.
func (s *SettingsService) RemoveFreePremiumUser(ctx context.Context, userID int64) bool {
	users := s.GetFreePremiumUsers(ctx)
	delete(users, userID)
	return s.SetFreePremiumUsers(ctx, users)
}

func (s *SettingsService) IsFreePremiumUser(ctx context.Context, userID int64) bool {
	_, ok := s.GetFreePremiumUsers(ctx)[userID]
	return ok
}

func (s *SettingsService) getInt(ctx context.Context, key string, defaultValue int) int {
	switch v := s.Get(ctx, key, defaultValue).(type) {
	case int:
		return v
	case float64:
		return int(v)
	case string:
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return defaultValue
}

func (s *SettingsService) getBool(ctx context.Context, key string, defaultValue bool) bool {
	switch v := s.Get(ctx, key, defaultValue).(type) {
	case bool:
		return v
	case string:
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return defaultValue
}

func (s *SettingsService) cached(key string) (interface{}, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	entry, ok := s.cache[key]
	if !ok {
		return nil, false
	}
	if s.now().Sub(entry.cachedAt) >= settingsCacheTTL {
		return nil, false
	}
	return entry.value, true
}

func (s *SettingsService) store(key string, value interface{}) {
	s.mu.Lock()
	s.cache[key] = settingsCacheEntry{value: value, cachedAt: s.now()}
	s.mu.Unlock()
}

// decode converts the stored text per the type tag. A value that refuses to
// parse comes back as the raw string: a bad row must not take the bot down.
func (s *SettingsService) decode(raw string, settingType models.SettingType) interface{} {
	switch settingType {
	case models.SettingInteger:
		if n, err := strconv.Atoi(raw); err == nil {
			return n
		}
	case models.SettingFloat:
		if f, err := strconv.ParseFloat(raw, 64); err == nil {
			return f
		}
	case models.SettingBoolean:
		switch raw {
		case "true", "1", "yes", "on", "True":
			return true
		case "false", "0", "no", "off", "False":
			return false
		}
	default:
		return raw
	}
	s.log.Warn("setting value does not match its type tag", "value", raw, "type", settingType)
	return raw
}

func typeOf(value interface{}) models.SettingType {
	switch value.(type) {
	case bool:
		return models.SettingBoolean
	case int, int32, int64:
		return models.SettingInteger
	case float32, float64:
		return models.SettingFloat
	default:
		return models.SettingString
	}
}

func encodeValue(value interface{}) string {
	switch v := value.(type) {
	case bool:
		return strconv.FormatBool(v)
	case int:
		return strconv.Itoa(v)
	case int32:
		return strconv.FormatInt(int64(v), 10)
	case int64:
		return strconv.FormatInt(v, 10)
	case float32:
		return strconv.FormatFloat(float64(v), 'g', -1, 64)
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64)
	case string:
		return v
	default:
		return fmt.Sprintf("%v", v)
	}
}
