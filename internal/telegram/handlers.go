package telegram

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/utils"
	"github.com/akarpov/weatherbot/internal/weather"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleMessage processes incoming messages
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	ctx := context.Background()
	chatID := message.Chat.ID
	userID := message.From.ID
	lang := b.service.Language(ctx, chatID)

	if !b.guardAllows(userID, chatID, message.Text, true, lang) {
		return
	}

	if message.Location != nil {
		b.handleLocation(ctx, message, lang)
		return
	}

	if message.IsCommand() {
		b.handleCommand(ctx, message, lang)
		return
	}

	// Bare text is treated as a city name
	if strings.TrimSpace(message.Text) != "" {
		b.replyWithCityWeather(ctx, chatID, message.Text, lang)
		return
	}

	b.sendMessage(chatID, b.translator.T(lang, "unknown_command"))
}

// handleCommand routes bot commands
func (b *Bot) handleCommand(ctx context.Context, message *tgbotapi.Message, lang string) {
	chatID := message.Chat.ID

	if strings.HasPrefix(message.Command(), "admin_") {
		b.handleAdminCommand(ctx, message)
		return
	}

	switch message.Command() {
	case "start":
		// First contact: adopt the Telegram client language if we have it
		detected := b.translator.DetectLanguage(message.From.LanguageCode)
		if detected != lang {
			if err := b.service.SetLanguage(ctx, chatID, detected); err == nil {
				lang = detected
			}
		}
		b.sendMessage(chatID, b.translator.T(lang, "welcome"))
	case "help":
		b.sendMessage(chatID, b.translator.T(lang, "help_message"))
	case "weather":
		city := message.CommandArguments()
		if strings.TrimSpace(city) == "" {
			b.sendMessage(chatID, b.translator.T(lang, "weather_usage"))
			return
		}
		b.replyWithCityWeather(ctx, chatID, city, lang)
	case "sethome":
		b.handleSetHome(ctx, chatID, message.CommandArguments(), lang)
	case "home":
		b.handleHomeWeather(ctx, chatID, lang)
	case "unsethome":
		b.handleUnsetHome(ctx, chatID, lang)
	case "subscribe":
		b.handleSubscribe(ctx, chatID, message.CommandArguments(), lang)
	case "unsubscribe":
		b.handleUnsubscribe(ctx, chatID, lang)
	case "language":
		b.sendLanguageKeyboard(chatID, lang)
	case "delete_me":
		b.handleDeleteMe(ctx, chatID, lang)
	default:
		b.sendMessage(chatID, b.translator.T(lang, "unknown_command"))
	}
}

// handleLocation replies with the weather at a shared location
func (b *Bot) handleLocation(ctx context.Context, message *tgbotapi.Message, lang string) {
	chatID := message.Chat.ID
	loc := message.Location

	report, err := b.service.WeatherByCoordinates(ctx, loc.Latitude, loc.Longitude)
	if err != nil {
		b.sendMessage(chatID, b.weatherErrorText(err, "", lang))
		return
	}

	b.sendHTML(chatID, weather.Format(report, "", lang, b.translator))
	b.notifyQuotaIfNeeded()
}

// replyWithCityWeather fetches and sends weather for a named city
func (b *Bot) replyWithCityWeather(ctx context.Context, chatID int64, city, lang string) {
	report, label, err := b.service.WeatherByCity(ctx, city)
	if err != nil {
		b.sendMessage(chatID, b.weatherErrorText(err, city, lang))
		return
	}

	b.sendHTML(chatID, weather.Format(report, label, lang, b.translator))
	b.notifyQuotaIfNeeded()
}

func (b *Bot) handleSetHome(ctx context.Context, chatID int64, city, lang string) {
	if strings.TrimSpace(city) == "" {
		b.sendMessage(chatID, b.translator.T(lang, "sethome_usage"))
		return
	}

	home, err := b.service.SetHomeByCity(ctx, chatID, city)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrCityNotFound):
			b.sendMessage(chatID, b.translator.T(lang, "city_not_found", "city", strings.TrimSpace(city)))
		case domain.IsValidationError(err):
			b.sendMessage(chatID, b.translator.T(lang, "sethome_usage"))
		default:
			b.logger.Error("Error saving home", "chat_id", chatID, "error", err)
			b.sendMessage(chatID, b.translator.T(lang, "storage_error"))
		}
		return
	}

	b.sendMessage(chatID, b.translator.T(lang, "home_saved", "label", home.Label))
}

func (b *Bot) handleHomeWeather(ctx context.Context, chatID int64, lang string) {
	report, home, err := b.service.WeatherForHome(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			b.sendMessage(chatID, b.translator.T(lang, "home_not_set"))
			return
		}
		b.sendMessage(chatID, b.weatherErrorText(err, "", lang))
		return
	}

	b.sendHTML(chatID, weather.Format(report, home.Label, lang, b.translator))
	b.notifyQuotaIfNeeded()
}

func (b *Bot) handleUnsetHome(ctx context.Context, chatID int64, lang string) {
	removed, err := b.service.RemoveHome(ctx, chatID)
	if err != nil {
		b.logger.Error("Error removing home", "chat_id", chatID, "error", err)
		b.sendMessage(chatID, b.translator.T(lang, "storage_error"))
		return
	}
	if !removed {
		b.sendMessage(chatID, b.translator.T(lang, "home_not_set"))
		return
	}
	b.sendMessage(chatID, b.translator.T(lang, "home_removed"))
}

func (b *Bot) handleSubscribe(ctx context.Context, chatID int64, args, lang string) {
	hour, minute, ok := utils.ParseClockTime(strings.TrimSpace(args))
	if !ok {
		b.sendMessage(chatID, b.translator.T(lang, "subscribe_usage"))
		return
	}

	err := b.service.Subscribe(ctx, chatID, hour, minute)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrUserNotFound):
			b.sendMessage(chatID, b.translator.T(lang, "subscribe_needs_home"))
		case domain.IsValidationError(err):
			b.sendMessage(chatID, b.translator.T(lang, "subscribe_usage"))
		default:
			b.logger.Error("Error saving subscription", "chat_id", chatID, "error", err)
			b.sendMessage(chatID, b.translator.T(lang, "storage_error"))
		}
		return
	}

	b.sendMessage(chatID, b.translator.T(lang, "subscribed",
		"time", fmt.Sprintf("%02d:%02d", hour, minute)))
}

func (b *Bot) handleUnsubscribe(ctx context.Context, chatID int64, lang string) {
	removed, err := b.service.Unsubscribe(ctx, chatID)
	if err != nil {
		b.logger.Error("Error removing subscription", "chat_id", chatID, "error", err)
		b.sendMessage(chatID, b.translator.T(lang, "storage_error"))
		return
	}
	if !removed {
		b.sendMessage(chatID, b.translator.T(lang, "not_subscribed"))
		return
	}
	b.sendMessage(chatID, b.translator.T(lang, "unsubscribed"))
}

func (b *Bot) handleDeleteMe(ctx context.Context, chatID int64, lang string) {
	removed, err := b.service.DeleteUserData(ctx, chatID)
	if err != nil {
		b.logger.Error("Error deleting user data", "chat_id", chatID, "error", err)
		b.sendMessage(chatID, b.translator.T(lang, "storage_error"))
		return
	}
	if !removed {
		b.sendMessage(chatID, b.translator.T(lang, "no_stored_data"))
		return
	}
	b.sendMessage(chatID, b.translator.T(lang, "data_deleted"))
}

// sendLanguageKeyboard offers the enabled languages as inline buttons
func (b *Bot) sendLanguageKeyboard(chatID int64, lang string) {
	langs := b.translator.GetAvailableLanguages()
	buttons := make([]tgbotapi.InlineKeyboardButton, 0, len(langs))
	for _, code := range langs {
		buttons = append(buttons,
			tgbotapi.NewInlineKeyboardButtonData(languageLabel(code), "lang:"+code))
	}

	msg := tgbotapi.NewMessage(chatID, b.translator.T(lang, "language_command"))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(tgbotapi.NewInlineKeyboardRow(buttons...))
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Error sending language keyboard", "chat_id", chatID, "error", err)
	}
}

func languageLabel(code string) string {
	switch code {
	case "en":
		return "English"
	case "ru":
		return "Русский"
	case "de":
		return "Deutsch"
	default:
		return code
	}
}

// handleCallbackQuery handles button presses. Callbacks are passive
// probes: they pass through the guard but do not count against the
// request ceilings.
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	ctx := context.Background()
	chatID := query.Message.Chat.ID
	lang := b.service.Language(ctx, chatID)

	callback := tgbotapi.NewCallback(query.ID, "")
	if _, err := b.api.Request(callback); err != nil {
		b.logger.Debug("Error acknowledging callback", "error", err)
	}

	if !b.guardAllows(query.From.ID, chatID, query.Data, false, lang) {
		return
	}

	if code, ok := strings.CutPrefix(query.Data, "lang:"); ok {
		if !b.cfg.IsLanguageEnabled(code) {
			b.sendMessage(chatID, b.translator.T(lang, "language_not_supported"))
			return
		}
		if err := b.service.SetLanguage(ctx, chatID, code); err != nil {
			b.logger.Error("Error saving language", "chat_id", chatID, "error", err)
			b.sendMessage(chatID, b.translator.T(lang, "storage_error"))
			return
		}
		b.sendMessage(chatID, b.translator.T(code, "language_set"))
		return
	}

	b.logger.Debug("Unknown callback data", "data", query.Data)
}

// weatherErrorText maps a weather pipeline error to a user message
func (b *Bot) weatherErrorText(err error, city, lang string) string {
	var quotaErr *domain.QuotaExceededError
	switch {
	case errors.As(err, &quotaErr):
		return b.translator.T(lang, "weather_quota_exceeded",
			"reset_time", utils.FormatResetTime(quotaErr.ResetAt, b.cfg.Telegram.Timezone))
	case errors.Is(err, domain.ErrCityNotFound):
		return b.translator.T(lang, "city_not_found", "city", strings.TrimSpace(city))
	case domain.IsValidationError(err):
		return b.translator.T(lang, "weather_usage")
	default:
		b.logger.Error("Weather lookup failed", "error", err)
		return b.translator.T(lang, "weather_error")
	}
}
