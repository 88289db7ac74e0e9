package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/bedrik/gospelbot/internal/bible"
	"github.com/bedrik/gospelbot/internal/calendar"
	"github.com/bedrik/gospelbot/internal/config"
	"github.com/bedrik/gospelbot/internal/models"
	"github.com/bedrik/gospelbot/internal/plans"
	"github.com/bedrik/gospelbot/internal/service"
)

type AIClient interface {
	ExplainVerse(ctx context.Context, reference, passage string, tier models.Tier) (string, error)
	Answer(ctx context.Context, question string, tier models.Tier) (string, error)
}

type Bot struct {
	cfg       config.Config
	api       *tgbotapi.BotAPI
	log       *slog.Logger
	quota     *service.QuotaService
	premium   *service.PremiumService
	settings  *service.SettingsService
	payments  *service.PaymentService
	bookmarks *service.BookmarkService
	ai        AIClient
	bible     *bible.Bible
	plans     *plans.Library
	calendar  *calendar.Client
	state     *StateManager
}

func NewBot(cfg config.Config, api *tgbotapi.BotAPI, log *slog.Logger, quota *service.QuotaService, premium *service.PremiumService, settings *service.SettingsService, payments *service.PaymentService, bookmarks *service.BookmarkService, ai AIClient, scripture *bible.Bible, library *plans.Library, church *calendar.Client) *Bot {
	return &Bot{
		cfg:       cfg,
		api:       api,
		log:       log,
		quota:     quota,
		premium:   premium,
		settings:  settings,
		payments:  payments,
		bookmarks: bookmarks,
		ai:        ai,
		bible:     scripture,
		plans:     library,
		calendar:  church,
		state:     NewStateManager(),
	}
}

func (b *Bot) Run(ctx context.Context) error {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60

	updates := b.api.GetUpdatesChan(u)
	b.log.Info("telegram bot started")

	for {
		select {
		case update := <-updates:
			if update.Message != nil {
				b.handleMessage(ctx, update.Message)
			} else if update.CallbackQuery != nil {
				b.handleCallback(ctx, update.CallbackQuery)
			} else if update.PreCheckoutQuery != nil {
				if err := b.payments.HandlePreCheckout(b.api, update.PreCheckoutQuery); err != nil {
					b.log.Error("pre-checkout failed", "err", err)
				}
			}
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return ctx.Err()
		}
	}
}

// Notify sends a plain text message outside the update loop, used by the
// payment webhook path to confirm credited purchases.
func (b *Bot) Notify(chatID int64, text string) {
	b.sendText(chatID, text)
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.SuccessfulPayment != nil {
		b.handleSuccessfulPayment(ctx, msg)
		return
	}

	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	session := b.state.Get(msg.Chat.ID)
	switch session.State {
	case StateAwaitingQuestion:
		b.state.Reset(msg.Chat.ID)
		b.runAIQuestion(ctx, msg, strings.TrimSpace(msg.Text))
	case StateAwaitingSettingValue:
		b.handleSettingInput(ctx, msg, session)
	case StateAwaitingFreeUserAdd, StateAwaitingFreeUserRemove:
		b.handleFreeUserInput(ctx, msg, session)
	default:
		b.handleFreeText(ctx, msg)
	}
}

func (b *Bot) handleFreeText(ctx context.Context, msg *tgbotapi.Message) {
	ref, ok := bible.ParseReference(msg.Text)
	if !ok {
		b.sendText(msg.Chat.ID, "Отправьте ссылку на отрывок, например «Бытие 1:1» или «Иоанна 3:16-18», либо используйте /help.")
		return
	}

	text := b.bible.Lookup(ref)
	switch text {
	case bible.MsgBookNotFound, bible.MsgChapterNotFound, bible.MsgVerseNotFound, bible.MsgBadVerseRange:
		b.sendText(msg.Chat.ID, text)
		return
	}

	b.state.SetReference(msg.Chat.ID, ref.String())
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyMarkup = passageKeyboard()
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("send passage", "err", err)
	}
}

func (b *Bot) handleSuccessfulPayment(ctx context.Context, msg *tgbotapi.Message) {
	userID := msg.Chat.ID
	if msg.From != nil {
		userID = msg.From.ID
	}

	result, err := b.payments.HandleSuccessfulPayment(ctx, userID, msg.SuccessfulPayment)
	if err != nil {
		b.log.Error("process successful payment", "err", err)
		b.sendText(msg.Chat.ID, "Оплата получена, но возникла ошибка обработки. Напишите в поддержку.")
		return
	}
	if result.Duplicate {
		return
	}
	switch result.Kind {
	case "donation":
		b.sendText(msg.Chat.ID, fmt.Sprintf("Спасибо за пожертвование %d ⭐! 🙏", result.AmountStars))
	case "premium":
		balance := b.premium.GetUserPremiumRequests(ctx, userID)
		b.sendText(msg.Chat.ID, fmt.Sprintf("Оплата получена! Начислено %d премиум-запросов. Доступно: %d.", result.RequestsAdded, balance))
	}
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		name := ""
		if msg.From != nil {
			name = msg.From.FirstName
		}
		text := fmt.Sprintf(
			"Мир вам, %s!\n\nЯ помогу читать Библию: отправьте ссылку на отрывок, например «Иоанна 3:16», и я пришлю текст. Кнопка под отрывком даст объяснение от ИИ.\n\nКоманды:\n/plans — планы чтения\n/bookmarks — мои закладки\n/calendar — православный календарь\n/ask — задать вопрос о Писании\n/limits — мои лимиты ИИ\n/buy — купить премиум-запросы\n/donate — поддержать проект",
			name,
		)
		b.sendText(msg.Chat.ID, strings.TrimSpace(text))
	case "help":
		b.sendText(msg.Chat.ID, "Отправьте ссылку на отрывок: «Бытие 1:1», «Псалтирь 22» или «Иоанна 3:16-18».\n\n/plans — планы чтения\n/bookmarks — закладки\n/calendar — православный календарь\n/ask — вопрос к ИИ\n/limits — лимиты ИИ\n/buy — премиум-запросы\n/donate — пожертвование")
	case "plans":
		b.handlePlans(msg)
	case "plan":
		b.handlePlanDay(msg)
	case "bookmarks":
		b.handleBookmarks(ctx, msg.Chat.ID, b.userID(msg))
	case "calendar":
		b.handleCalendar(ctx, msg.Chat.ID)
	case "ask":
		question := strings.TrimSpace(msg.CommandArguments())
		if question == "" {
			session := b.state.Get(msg.Chat.ID)
			session.State = StateAwaitingQuestion
			b.state.Set(msg.Chat.ID, session)
			b.sendText(msg.Chat.ID, "Напишите ваш вопрос о Писании.")
			return
		}
		b.runAIQuestion(ctx, msg, question)
	case "limits":
		b.sendQuotaInfo(ctx, msg.Chat.ID, b.userID(msg))
	case "donate":
		reply := tgbotapi.NewMessage(msg.Chat.ID, "Поддержите проект пожертвованием в Telegram Stars:")
		reply.ReplyMarkup = donationKeyboard()
		if _, err := b.api.Send(reply); err != nil {
			b.log.Error("send donation menu", "err", err)
		}
	case "buy":
		b.sendPremiumMenu(msg.Chat.ID)
	case "settings":
		b.handleAdminSettings(ctx, msg)
	default:
		b.sendText(msg.Chat.ID, "Неизвестная команда. Используйте /help.")
	}
}

func (b *Bot) handlePlans(msg *tgbotapi.Message) {
	list := b.plans.List()
	if len(list) == 0 {
		b.sendText(msg.Chat.ID, "Планы чтения пока не загружены.")
		return
	}
	var sb strings.Builder
	sb.WriteString("📅 Планы чтения:\n\n")
	for _, plan := range list {
		fmt.Fprintf(&sb, "• %s — %d дней (/plan %s 1)\n", plan.Title, len(plan.Days), plan.Key)
	}
	b.sendText(msg.Chat.ID, strings.TrimRight(sb.String(), "\n"))
}

func (b *Bot) handlePlanDay(msg *tgbotapi.Message) {
	args := strings.Fields(msg.CommandArguments())
	if len(args) < 2 {
		b.sendText(msg.Chat.ID, "Формат: /plan <план> <день>, например /plan plan_1 1")
		return
	}
	day, err := strconv.Atoi(args[1])
	if err != nil || day <= 0 {
		b.sendText(msg.Chat.ID, "День должен быть положительным числом.")
		return
	}
	reading, ok := b.plans.DayReading(args[0], day)
	if !ok {
		b.sendText(msg.Chat.ID, "План или день не найден. Список планов: /plans")
		return
	}
	plan, _ := b.plans.Get(args[0])
	b.sendText(msg.Chat.ID, fmt.Sprintf("📅 %s, день %d:\n%s", plan.Title, day, reading))
}

func (b *Bot) handleBookmarks(ctx context.Context, chatID, userID int64) {
	list, err := b.bookmarks.List(ctx, userID)
	if err != nil {
		b.log.Error("list bookmarks", "err", err)
		b.sendText(chatID, "Не удалось загрузить закладки, попробуйте позже.")
		return
	}
	if len(list) == 0 {
		b.sendText(chatID, "У вас пока нет закладок. Отправьте ссылку на отрывок и нажмите «🔖 В закладки».")
		return
	}

	reply := tgbotapi.NewMessage(chatID, "🔖 Ваши закладки:")
	reply.ReplyMarkup = bookmarksKeyboard(list)
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("send bookmarks", "err", err)
	}
}

func (b *Bot) handleCalendar(ctx context.Context, chatID int64) {
	if !b.settings.IsCalendarEnabled(ctx) {
		b.sendText(chatID, "Православный календарь отключен администратором.")
		return
	}
	day, err := b.calendar.DayAt(ctx, time.Now().UTC())
	if err != nil {
		b.log.Error("fetch calendar", "err", err)
		b.sendText(chatID, "Не удалось получить данные календаря, попробуйте позже.")
		return
	}
	b.sendText(chatID, day.Format())
}

func (b *Bot) runAIQuestion(ctx context.Context, msg *tgbotapi.Message, question string) {
	if question == "" {
		b.sendText(msg.Chat.ID, "Вопрос не может быть пустым.")
		return
	}
	userID := b.userID(msg)

	allowed, tier, err := b.quota.CheckAndIncrementUsage(ctx, userID)
	if err != nil {
		b.log.Error("check quota", "err", err)
		b.sendText(msg.Chat.ID, "Не удалось проверить лимит, попробуйте позже.")
		return
	}
	if !allowed {
		b.sendQuotaExceeded(ctx, msg.Chat.ID, userID)
		return
	}

	b.sendText(msg.Chat.ID, "Думаю над ответом...")
	answer, err := b.ai.Answer(ctx, question, tier)
	if err != nil {
		b.log.Error("ai answer", "err", err)
		b.sendText(msg.Chat.ID, "Не удалось получить ответ от ИИ, попробуйте позже.")
		return
	}
	b.sendText(msg.Chat.ID, answer)
}

func (b *Bot) runAIExplain(ctx context.Context, chatID, userID int64, reference string) {
	ref, ok := bible.ParseReference(reference)
	if !ok {
		b.sendText(chatID, "Сначала отправьте ссылку на отрывок.")
		return
	}
	passage := b.bible.Lookup(ref)

	allowed, tier, err := b.quota.CheckAndIncrementUsage(ctx, userID)
	if err != nil {
		b.log.Error("check quota", "err", err)
		b.sendText(chatID, "Не удалось проверить лимит, попробуйте позже.")
		return
	}
	if !allowed {
		b.sendQuotaExceeded(ctx, chatID, userID)
		return
	}

	b.sendText(chatID, "Готовлю объяснение...")
	answer, err := b.ai.ExplainVerse(ctx, reference, passage, tier)
	if err != nil {
		b.log.Error("ai explain", "err", err)
		b.sendText(chatID, "Не удалось получить объяснение от ИИ, попробуйте позже.")
		return
	}
	b.sendText(chatID, answer)
}

func (b *Bot) sendQuotaExceeded(ctx context.Context, chatID, userID int64) {
	info := b.quota.GetUserQuotaInfo(ctx, userID)
	text := fmt.Sprintf(
		"Дневной лимит ИИ исчерпан (%d/%d).\nСброс через %d ч.\n\nПремиум-запросы позволяют не ждать сброса.",
		info.UsedToday, info.DailyLimit, info.HoursUntilReset,
	)
	reply := tgbotapi.NewMessage(chatID, text)
	reply.ReplyMarkup = limitsKeyboard()
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("send quota exceeded", "err", err)
	}
}

func (b *Bot) sendQuotaInfo(ctx context.Context, chatID, userID int64) {
	info := b.quota.GetUserQuotaInfo(ctx, userID)
	stats := b.premium.GetUserPremiumStats(ctx, userID)

	var sb strings.Builder
	sb.WriteString("📊 Ваши лимиты ИИ\n\n")
	fmt.Fprintf(&sb, "Сегодня: %d из %d\n", info.UsedToday, info.DailyLimit)
	fmt.Fprintf(&sb, "Осталось: %d\n", info.Remaining)
	fmt.Fprintf(&sb, "Премиум-запросы: %d\n", info.PremiumRequests)
	fmt.Fprintf(&sb, "Всего доступно: %d\n", info.TotalAvailable)
	fmt.Fprintf(&sb, "Сброс через: %d ч.\n", info.HoursUntilReset)
	if stats.TotalPurchased > 0 {
		fmt.Fprintf(&sb, "\nКуплено всего: %d, использовано: %d\n", stats.TotalPurchased, stats.TotalUsed)
	}
	if info.IsAdmin {
		sb.WriteString("\n(режим администратора)")
	}

	reply := tgbotapi.NewMessage(chatID, strings.TrimRight(sb.String(), "\n"))
	reply.ReplyMarkup = premiumKeyboard()
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("send quota info", "err", err)
	}
}

func (b *Bot) sendPremiumMenu(chatID int64) {
	reply := tgbotapi.NewMessage(chatID, "⭐ Пакеты премиум-запросов:\n\nПремиум-запросы используют более сильную модель и не сгорают в полночь.")
	reply.ReplyMarkup = premiumKeyboard()
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("send premium menu", "err", err)
	}
}

func (b *Bot) handleCallback(ctx context.Context, cb *tgbotapi.CallbackQuery) {
	chatID := cb.Message.Chat.ID
	userID := cb.From.ID
	data := cb.Data

	ack := func(text string) {
		if _, err := b.api.Request(tgbotapi.NewCallback(cb.ID, text)); err != nil {
			b.log.Error("callback ack", "err", err)
		}
	}

	switch {
	case data == "ai_explain":
		ack("")
		session := b.state.Get(chatID)
		if session.LastReference == "" {
			b.sendText(chatID, "Сначала отправьте ссылку на отрывок.")
			return
		}
		b.runAIExplain(ctx, chatID, userID, session.LastReference)

	case data == "bookmark_add":
		session := b.state.Get(chatID)
		if session.LastReference == "" {
			ack("Сначала отправьте ссылку на отрывок")
			return
		}
		added, err := b.bookmarks.Add(ctx, userID, session.LastReference)
		if err != nil {
			b.log.Error("add bookmark", "err", err)
			ack("Не удалось сохранить закладку")
			return
		}
		if added {
			ack("Сохранено в закладки")
		} else {
			ack("Уже в закладках")
		}

	case strings.HasPrefix(data, "bookmark_open_"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "bookmark_open_"), 10, 64)
		if err != nil {
			ack("Закладка не найдена")
			return
		}
		ack("")
		b.openBookmark(ctx, chatID, userID, id)

	case strings.HasPrefix(data, "bookmark_del_"):
		id, err := strconv.ParseInt(strings.TrimPrefix(data, "bookmark_del_"), 10, 64)
		if err != nil {
			ack("Закладка не найдена")
			return
		}
		removed, err := b.bookmarks.Remove(ctx, userID, id)
		if err != nil {
			b.log.Error("remove bookmark", "err", err)
			ack("Не удалось удалить закладку")
			return
		}
		if removed {
			ack("Закладка удалена")
			b.handleBookmarks(ctx, chatID, userID)
		} else {
			ack("Закладка не найдена")
		}

	case data == "ai_limits_my":
		ack("")
		b.sendQuotaInfo(ctx, chatID, userID)

	case data == "buy_premium_menu":
		ack("")
		b.sendPremiumMenu(chatID)

	case strings.HasPrefix(data, "donate_stars_"):
		amount, err := strconv.Atoi(strings.TrimPrefix(data, "donate_stars_"))
		if err != nil || amount <= 0 {
			ack("Неизвестная сумма")
			return
		}
		ack("")
		if err := b.payments.SendDonationInvoice(b.api, chatID, userID, amount); err != nil {
			b.log.Error("send donation invoice", "err", err)
			b.sendText(chatID, "Не удалось отправить счет. Попробуйте позже.")
		}

	case strings.HasPrefix(data, "buy_premium_stars_"):
		requests, err := strconv.Atoi(strings.TrimPrefix(data, "buy_premium_stars_"))
		if err != nil {
			ack("Неизвестный пакет")
			return
		}
		pkg, ok := service.FindStarPackage(requests)
		if !ok {
			ack("Неизвестный пакет")
			return
		}
		ack("")
		if err := b.payments.SendPremiumInvoice(b.api, chatID, userID, pkg); err != nil {
			b.log.Error("send premium invoice", "err", err)
			b.sendText(chatID, "Не удалось отправить счет. Попробуйте позже.")
		}

	case strings.HasPrefix(data, "admin_"):
		if !b.isAdmin(userID) {
			ack("Недоступно")
			return
		}
		ack("")
		b.handleAdminCallback(ctx, chatID, data)

	default:
		ack("Неизвестный выбор")
	}
}

func (b *Bot) openBookmark(ctx context.Context, chatID, userID, id int64) {
	bookmark, err := b.bookmarks.Get(ctx, userID, id)
	if err != nil {
		b.log.Error("get bookmark", "err", err)
		b.sendText(chatID, "Не удалось открыть закладку.")
		return
	}
	if bookmark == nil {
		b.sendText(chatID, "Закладка не найдена.")
		return
	}

	ref, ok := bible.ParseReference(bookmark.Reference)
	if !ok {
		b.sendText(chatID, "Закладка повреждена, удалите её и сохраните отрывок заново.")
		return
	}
	b.state.SetReference(chatID, ref.String())
	reply := tgbotapi.NewMessage(chatID, b.bible.Lookup(ref))
	reply.ReplyMarkup = passageKeyboard()
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("send bookmarked passage", "err", err)
	}
}

func (b *Bot) isAdmin(userID int64) bool {
	return b.cfg.AdminUserID != 0 && userID == b.cfg.AdminUserID
}

func (b *Bot) userID(msg *tgbotapi.Message) int64 {
	if msg.From != nil {
		return msg.From.ID
	}
	return msg.Chat.ID
}

func (b *Bot) handleAdminSettings(ctx context.Context, msg *tgbotapi.Message) {
	if !b.isAdmin(b.userID(msg)) {
		b.sendText(msg.Chat.ID, "Команда доступна только администратору.")
		return
	}

	text := fmt.Sprintf(
		"⚙️ Настройки ИИ\n\nДневной лимит: %d\nЦена пакета: %d ₽\nРазмер пакета: %d запросов",
		b.settings.GetDailyLimit(ctx),
		b.settings.GetPremiumPrice(ctx),
		b.settings.GetPremiumRequests(ctx),
	)
	reply := tgbotapi.NewMessage(msg.Chat.ID, text)
	reply.ReplyMarkup = adminKeyboard(b.settings.GetAdminPremiumMode(ctx), b.settings.IsCalendarEnabled(ctx))
	if _, err := b.api.Send(reply); err != nil {
		b.log.Error("send admin settings", "err", err)
	}
}

func (b *Bot) handleAdminCallback(ctx context.Context, chatID int64, data string) {
	prompt := func(key, text string) {
		session := b.state.Get(chatID)
		session.State = StateAwaitingSettingValue
		session.PendingSetting = key
		b.state.Set(chatID, session)
		b.sendText(chatID, text)
	}

	switch data {
	case "admin_set_limit":
		prompt(service.KeyDailyLimit, "Введите новый дневной лимит (число запросов):")
	case "admin_set_price":
		prompt(service.KeyPremiumPrice, "Введите новую цену пакета в рублях:")
	case "admin_set_requests":
		prompt(service.KeyPremiumRequests, "Введите новый размер пакета (число запросов):")
	case "admin_toggle_premium":
		enabled := !b.settings.GetAdminPremiumMode(ctx)
		if !b.settings.SetAdminPremiumMode(ctx, enabled) {
			b.sendText(chatID, "Не удалось сохранить настройку.")
			return
		}
		if enabled {
			b.sendText(chatID, "Премиум-режим администратора включен.")
		} else {
			b.sendText(chatID, "Премиум-режим администратора выключен.")
		}
	case "admin_toggle_calendar":
		enabled := !b.settings.IsCalendarEnabled(ctx)
		if !b.settings.SetCalendarEnabled(ctx, enabled) {
			b.sendText(chatID, "Не удалось сохранить настройку.")
			return
		}
		if enabled {
			b.sendText(chatID, "Православный календарь включен.")
		} else {
			b.sendText(chatID, "Православный календарь выключен.")
		}
	case "admin_free_add":
		session := b.state.Get(chatID)
		session.State = StateAwaitingFreeUserAdd
		b.state.Set(chatID, session)
		b.sendText(chatID, "Введите ID пользователя для бесплатного премиума:")
	case "admin_free_remove":
		session := b.state.Get(chatID)
		session.State = StateAwaitingFreeUserRemove
		b.state.Set(chatID, session)
		b.sendText(chatID, "Введите ID пользователя для удаления из списка:")
	case "admin_free_list":
		users := b.settings.GetFreePremiumUsers(ctx)
		if len(users) == 0 {
			b.sendText(chatID, "Список бесплатного премиума пуст.")
			return
		}
		ids := make([]int64, 0, len(users))
		for id := range users {
			ids = append(ids, id)
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		var sb strings.Builder
		sb.WriteString("Бесплатный премиум:\n")
		for _, id := range ids {
			fmt.Fprintf(&sb, "• %d\n", id)
		}
		b.sendText(chatID, strings.TrimRight(sb.String(), "\n"))
	case "admin_reset_defaults":
		if b.settings.ResetToDefaults(ctx) {
			b.sendText(chatID, "Настройки сброшены к значениям по умолчанию.")
		} else {
			b.sendText(chatID, "Не удалось сбросить настройки.")
		}
	default:
		b.sendText(chatID, "Неизвестное действие.")
	}
}

func (b *Bot) handleSettingInput(ctx context.Context, msg *tgbotapi.Message, session *Session) {
	key := session.PendingSetting
	b.state.Reset(msg.Chat.ID)
	if !b.isAdmin(b.userID(msg)) {
		return
	}

	value, err := strconv.Atoi(strings.TrimSpace(msg.Text))
	if err != nil || value <= 0 {
		b.sendText(msg.Chat.ID, "Нужно положительное число. Откройте /settings и попробуйте снова.")
		return
	}
	if !b.settings.Set(ctx, key, value, models.SettingInteger, "") {
		b.sendText(msg.Chat.ID, "Не удалось сохранить настройку.")
		return
	}
	b.sendText(msg.Chat.ID, fmt.Sprintf("Сохранено: %s = %d", key, value))
}

func (b *Bot) handleFreeUserInput(ctx context.Context, msg *tgbotapi.Message, session *Session) {
	adding := session.State == StateAwaitingFreeUserAdd
	b.state.Reset(msg.Chat.ID)
	if !b.isAdmin(b.userID(msg)) {
		return
	}

	id, err := strconv.ParseInt(strings.TrimSpace(msg.Text), 10, 64)
	if err != nil || id <= 0 {
		b.sendText(msg.Chat.ID, "Нужен числовой ID пользователя.")
		return
	}

	var ok bool
	if adding {
		ok = b.settings.AddFreePremiumUser(ctx, id)
	} else {
		ok = b.settings.RemoveFreePremiumUser(ctx, id)
	}
	if !ok {
		b.sendText(msg.Chat.ID, "Не удалось обновить список.")
		return
	}
	if adding {
		b.sendText(msg.Chat.ID, fmt.Sprintf("Пользователь %d получил бесплатный премиум.", id))
	} else {
		b.sendText(msg.Chat.ID, fmt.Sprintf("Пользователь %d удален из списка.", id))
	}
}

func (b *Bot) sendText(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.log.Error("send text", "err", err)
	}
}
