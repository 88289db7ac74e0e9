package telegram

import (
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bedrik/gospelbot/internal/models"
	"github.com/bedrik/gospelbot/internal/service"
)

func passageKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🤖 Объяснить с ИИ", "ai_explain"),
			tgbotapi.NewInlineKeyboardButtonData("🔖 В закладки", "bookmark_add"),
		),
	)
}

func bookmarksKeyboard(bookmarks []models.Bookmark) tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(bookmarks))
	for _, bm := range bookmarks {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("📖 %s", bm.Reference),
				fmt.Sprintf("bookmark_open_%d", bm.ID),
			),
			tgbotapi.NewInlineKeyboardButtonData("❌", fmt.Sprintf("bookmark_del_%d", bm.ID)),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func limitsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("📊 Мои лимиты", "ai_limits_my"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("⭐ Купить премиум", "buy_premium_menu"),
		),
	)
}

func donationKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(service.DonationAmounts))
	for _, amount := range service.DonationAmounts {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%d ⭐", amount),
				fmt.Sprintf("donate_stars_%d", amount),
			),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func premiumKeyboard() tgbotapi.InlineKeyboardMarkup {
	rows := make([][]tgbotapi.InlineKeyboardButton, 0, len(service.StarPackages))
	for _, pkg := range service.StarPackages {
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(
				fmt.Sprintf("%d запросов — %d ⭐", pkg.Requests, pkg.Stars),
				fmt.Sprintf("buy_premium_stars_%d", pkg.Requests),
			),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func adminKeyboard(adminPremium, calendarEnabled bool) tgbotapi.InlineKeyboardMarkup {
	premiumLabel := "Премиум админа: выкл"
	if adminPremium {
		premiumLabel = "Премиум админа: вкл"
	}
	calendarLabel := "Календарь: выкл"
	if calendarEnabled {
		calendarLabel = "Календарь: вкл"
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Дневной лимит", "admin_set_limit"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Цена пакета", "admin_set_price"),
			tgbotapi.NewInlineKeyboardButtonData("Размер пакета", "admin_set_requests"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(premiumLabel, "admin_toggle_premium"),
			tgbotapi.NewInlineKeyboardButtonData(calendarLabel, "admin_toggle_calendar"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("➕ Бесплатный премиум", "admin_free_add"),
			tgbotapi.NewInlineKeyboardButtonData("➖ Убрать", "admin_free_remove"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("Список бесплатных", "admin_free_list"),
		),
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🔄 Сбросить настройки", "admin_reset_defaults"),
		),
	)
}
