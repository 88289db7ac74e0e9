package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bedrik/gospelbot/internal/admin"
	"github.com/bedrik/gospelbot/internal/ai"
	"github.com/bedrik/gospelbot/internal/bible"
	"github.com/bedrik/gospelbot/internal/calendar"
	"github.com/bedrik/gospelbot/internal/config"
	"github.com/bedrik/gospelbot/internal/database"
	"github.com/bedrik/gospelbot/internal/plans"
	"github.com/bedrik/gospelbot/internal/repository"
	"github.com/bedrik/gospelbot/internal/service"
	"github.com/bedrik/gospelbot/internal/telegram"
	"github.com/bedrik/gospelbot/internal/yookassa"
	"github.com/bedrik/gospelbot/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logr := logger.New(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var (
		settingsRepo repository.SettingsRepository
		premiumRepo  repository.PremiumRepository
		usageRepo    repository.UsageRepository
		txnRepo      repository.TransactionRepository
		bookmarkRepo repository.BookmarkRepository
	)
	switch cfg.StoreBackend {
	case "mysql":
		db, err := database.Connect(cfg)
		if err != nil {
			log.Fatalf("database connect: %v", err)
		}
		defer db.Close()
		if err := database.Migrate(ctx, db); err != nil {
			log.Fatalf("database migrate: %v", err)
		}
		settingsRepo = repository.NewSQLSettingsRepository(db)
		premiumRepo = repository.NewSQLPremiumRepository(db)
		usageRepo = repository.NewSQLUsageRepository(db)
		txnRepo = repository.NewSQLTransactionRepository(db)
		bookmarkRepo = repository.NewSQLBookmarkRepository(db)
	case "supabase":
		client, err := database.ConnectSupabase(cfg)
		if err != nil {
			log.Fatalf("supabase connect: %v", err)
		}
		settingsRepo = repository.NewSupabaseSettingsRepository(client)
		premiumRepo = repository.NewSupabasePremiumRepository(client)
		usageRepo = repository.NewSupabaseUsageRepository(client)
		txnRepo = repository.NewSupabaseTransactionRepository(client)
		bookmarkRepo = repository.NewSupabaseBookmarkRepository(client)
	default:
		log.Fatalf("unsupported store backend: %s", cfg.StoreBackend)
	}

	scripture, err := bible.Load(cfg.BiblePath)
	if err != nil {
		log.Fatalf("load bible: %v", err)
	}
	library, loadErrs := plans.LoadDir(cfg.PlansDir)
	for _, loadErr := range loadErrs {
		logr.Warn("reading plan skipped", "err", loadErr)
	}

	botAPI, err := tgbotapi.NewBotAPI(cfg.BotToken)
	if err != nil {
		log.Fatalf("telegram bot: %v", err)
	}

	settingsService := service.NewSettingsService(cfg, logr, settingsRepo)
	premiumService := service.NewPremiumService(logr, premiumRepo, txnRepo)
	quotaService := service.NewQuotaService(cfg, logr, usageRepo, settingsService, premiumService)
	kassaClient := yookassa.NewClient(cfg, logr)
	paymentService := service.NewPaymentService(cfg, logr, premiumService, settingsService, kassaClient)
	bookmarkService := service.NewBookmarkService(logr, bookmarkRepo)
	aiClient := ai.NewClient(cfg, logr)
	calendarClient := calendar.NewClient(cfg.RequestTimeout, logr)

	go quotaService.RunResetScheduler(ctx)

	bot := telegram.NewBot(cfg, botAPI, logr, quotaService, premiumService, settingsService, paymentService, bookmarkService, aiClient, scripture, library, calendarClient)

	adminServer := admin.NewServer(cfg.AdminListenAddr, cfg.AdminUsername, cfg.AdminPassword, logr, settingsService, paymentService, bot, botAPI)
	go func() {
		if err := adminServer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			logr.Error("admin server stopped", "err", err)
		}
	}()

	if err := bot.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logr.Error("bot stopped", "err", err)
	}
}
