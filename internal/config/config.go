package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config aggregates runtime configuration for the bot and supporting services.
type Config struct {
	BotToken string

	// Remote store. Backend is "mysql" or "supabase".
	StoreBackend string
	MySQLDSN     string
	SupabaseURL  string
	SupabaseKey  string

	// Local data files.
	BiblePath   string
	PlansDir    string
	Translation string

	// AI upstream (OpenRouter-compatible).
	AIAPIKey       string
	AIBaseURL      string
	AIModel        string
	AIPremiumModel string
	RequestTimeout time.Duration

	// Compiled-in quota defaults; live values come from the settings store.
	AIDailyLimit           int
	PremiumPackagePrice    int
	PremiumPackageRequests int
	AdminUserID            int64

	// Payments.
	YooKassaShopID    string
	YooKassaSecretKey string
	YooKassaReturnURL string

	AdminListenAddr string
	AdminUsername   string
	AdminPassword   string

	LogLevel string
}

// Load reads configuration from environment variables, applying sane defaults.
func Load() (Config, error) {
	if err := loadEnvFile(); err != nil {
		return Config{}, err
	}

	cfg := Config{
		StoreBackend:           strings.ToLower(getEnv("STORE_BACKEND", "supabase")),
		BiblePath:              getEnv("BIBLE_DATA_PATH", filepath.Join("data", "rst.json")),
		PlansDir:               getEnv("READING_PLANS_DIR", filepath.Join("data", "plans")),
		Translation:            getEnv("BIBLE_TRANSLATION", "rst"),
		AIBaseURL:              getEnv("OPENROUTER_BASE_URL", "https://openrouter.ai/api/v1"),
		AIModel:                getEnv("AI_MODEL", "deepseek/deepseek-chat"),
		AIPremiumModel:         getEnv("AI_PREMIUM_MODEL", "anthropic/claude-3.5-sonnet"),
		RequestTimeout:         time.Second * time.Duration(getInt("HTTP_TIMEOUT_SECONDS", 60)),
		AIDailyLimit:           getInt("AI_DAILY_LIMIT", 3),
		PremiumPackagePrice:    getInt("PREMIUM_PACKAGE_PRICE", 100),
		PremiumPackageRequests: getInt("PREMIUM_PACKAGE_REQUESTS", 50),
		AdminUserID:            getInt64("ADMIN_USER_ID", 0),
		YooKassaShopID:         getEnv("YOOKASSA_SHOP_ID", ""),
		YooKassaSecretKey:      getEnv("YOOKASSA_SECRET_KEY", ""),
		YooKassaReturnURL:      getEnv("YOOKASSA_RETURN_URL", ""),
		AdminListenAddr:        getEnv("ADMIN_LISTEN_ADDR", ":8080"),
		AdminUsername:          getEnv("ADMIN_USERNAME", "admin"),
		AdminPassword:          getEnv("ADMIN_PASSWORD", "change-me"),
		LogLevel:               getEnv("LOG_LEVEL", "info"),
	}

	cfg.BotToken = os.Getenv("TELEGRAM_BOT_TOKEN")
	cfg.MySQLDSN = os.Getenv("MYSQL_DSN")
	cfg.SupabaseURL = os.Getenv("SUPABASE_URL")
	cfg.SupabaseKey = os.Getenv("SUPABASE_KEY")
	cfg.AIAPIKey = os.Getenv("OPENROUTER_API_KEY")

	var missing []string
	if cfg.BotToken == "" {
		missing = append(missing, "TELEGRAM_BOT_TOKEN")
	}
	switch cfg.StoreBackend {
	case "mysql":
		if cfg.MySQLDSN == "" {
			missing = append(missing, "MYSQL_DSN")
		}
	case "supabase":
		if cfg.SupabaseURL == "" {
			missing = append(missing, "SUPABASE_URL")
		}
		if cfg.SupabaseKey == "" {
			missing = append(missing, "SUPABASE_KEY")
		}
	default:
		return Config{}, fmt.Errorf("unsupported STORE_BACKEND: %s", cfg.StoreBackend)
	}
	if cfg.AIAPIKey == "" {
		missing = append(missing, "OPENROUTER_API_KEY")
	}
	if len(missing) > 0 {
		return Config{}, fmt.Errorf("missing required environment variables: %v", missing)
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getInt(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return i
}

func getInt64(key string, fallback int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return fallback
	}
	return i
}

func loadEnvFile() error {
	candidates := []string{}
	if custom, ok := os.LookupEnv("CONFIG_ENV_PATH"); ok && custom != "" {
		candidates = append(candidates, custom)
	}
	candidates = append(candidates,
		filepath.Join("configs", ".env"),
		".env",
	)

	for _, path := range candidates {
		info, err := os.Stat(path)
		if err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}
			return fmt.Errorf("access env file %s: %w", path, err)
		}
		if info.IsDir() {
			continue
		}
		if err := godotenv.Overload(path); err != nil {
			return fmt.Errorf("load env file %s: %w", path, err)
		}
		return nil
	}
	// No .env is fine; process env alone may be complete.
	return nil
}
