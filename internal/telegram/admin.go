package telegram

import (
	"context"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/akarpov/weatherbot/internal/storage"
	"github.com/akarpov/weatherbot/internal/weather"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Release metadata reported by /admin_version.
const (
	botVersion     = "1.2.0"
	botReleaseDate = "2026-08-20"
)

// subscriptionListLimit caps the /admin_subscriptions listing.
const subscriptionListLimit = 10

// handleAdminCommand routes /admin_* commands. Non-admins get the
// generic unknown-command reply so the admin surface stays invisible.
func (b *Bot) handleAdminCommand(ctx context.Context, message *tgbotapi.Message) {
	chatID := message.Chat.ID

	if !b.cfg.IsAdmin(message.From.ID) {
		lang := b.service.Language(ctx, chatID)
		b.sendMessage(chatID, b.translator.T(lang, "unknown_command"))
		return
	}

	lang := b.cfg.Telegram.AdminLanguage

	switch message.Command() {
	case "admin_stats":
		b.handleAdminStats(chatID, lang)
	case "admin_user_info":
		b.handleAdminUserInfo(chatID, message.CommandArguments(), lang)
	case "admin_unblock":
		b.handleAdminUnblock(chatID, message.CommandArguments(), lang)
	case "admin_cleanup":
		b.service.CleanupSpam()
		b.sendMessage(chatID, b.translator.T(lang, "admin_cleanup_success"))
	case "admin_quota":
		b.handleAdminQuota(chatID, lang)
	case "admin_test_weather":
		b.handleAdminTestWeather(ctx, chatID, message.CommandArguments(), lang)
	case "admin_backup":
		b.handleAdminBackup(chatID, lang)
	case "admin_subscriptions":
		b.handleAdminSubscriptions(ctx, chatID, lang)
	case "admin_config":
		b.handleAdminConfig(chatID, lang)
	case "admin_version":
		b.handleAdminVersion(chatID, lang)
	case "admin_help":
		b.sendMessage(chatID, b.translator.T(lang, "admin_help"))
	default:
		b.sendMessage(chatID, b.translator.T(lang, "admin_help"))
	}
}

func (b *Bot) handleAdminStats(chatID int64, lang string) {
	overview := b.service.Stats()

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n", b.translator.T(lang, "admin_stats_title"))
	fmt.Fprintf(&sb, "%s: %d\n", b.translator.T(lang, "admin_total_users"), overview.TrackedUsers)
	fmt.Fprintf(&sb, "%s: %d\n", b.translator.T(lang, "admin_blocked_users"), overview.BlockedUsers)

	if len(overview.Top) > 0 {
		fmt.Fprintf(&sb, "\n<b>%s</b>\n", b.translator.T(lang, "admin_top_users"))
		for i, user := range overview.Top {
			suffix := ""
			if user.IsBlocked {
				suffix = " 🚫"
			}
			fmt.Fprintf(&sb, "%d. ID %d: %d %s%s\n",
				i+1, user.UserID, user.RequestsToday,
				b.translator.T(lang, "admin_requests_today"), suffix)
		}
	}

	b.sendHTML(chatID, sb.String())
}

func (b *Bot) handleAdminUserInfo(chatID int64, args, lang string) {
	userID, ok := parseUserID(args)
	if !ok {
		if strings.TrimSpace(args) == "" {
			b.sendMessage(chatID, b.translator.T(lang, "admin_user_info_usage"))
		} else {
			b.sendMessage(chatID, b.translator.T(lang, "admin_invalid_user_id"))
		}
		return
	}

	info := b.service.UserInfo(userID)

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n", b.translator.T(lang, "admin_user_info_title", "user_id", strconv.FormatInt(userID, 10)))
	fmt.Fprintf(&sb, "%s: %d\n", b.translator.T(lang, "admin_user_requests_today"), info.RequestsToday)

	blockedText := b.translator.T(lang, "admin_no")
	if info.IsBlocked {
		blockedText = b.translator.T(lang, "admin_yes")
	}
	fmt.Fprintf(&sb, "%s: %s\n", b.translator.T(lang, "admin_user_blocked"), blockedText)
	fmt.Fprintf(&sb, "%s: %d\n", b.translator.T(lang, "admin_user_block_count"), info.BlockCount)

	if info.BlockedUntil != nil {
		localized := localizeTime(*info.BlockedUntil, b.cfg.Telegram.Timezone)
		fmt.Fprintf(&sb, "%s: %s\n", b.translator.T(lang, "admin_user_blocked_until"),
			localized.Format("2006-01-02 15:04:05"))
	}

	b.sendHTML(chatID, sb.String())
}

func (b *Bot) handleAdminUnblock(chatID int64, args, lang string) {
	userID, ok := parseUserID(args)
	if !ok {
		if strings.TrimSpace(args) == "" {
			b.sendMessage(chatID, b.translator.T(lang, "admin_unblock_usage"))
		} else {
			b.sendMessage(chatID, b.translator.T(lang, "admin_invalid_user_id"))
		}
		return
	}

	idText := strconv.FormatInt(userID, 10)
	if b.service.UnblockUser(userID) {
		b.sendMessage(chatID, "✅ "+b.translator.T(lang, "admin_user_unblocked", "user_id", idText))
	} else {
		b.sendMessage(chatID, "❌ "+b.translator.T(lang, "admin_user_not_found", "user_id", idText))
	}
}

func (b *Bot) handleAdminQuota(chatID int64, lang string) {
	status, err := b.service.QuotaStatus()
	if err != nil {
		b.logger.Error("Error reading quota status", "error", err)
		b.sendMessage(chatID, b.translator.T(lang, "admin_error"))
		return
	}

	percent := int(status.Ratio * 100)
	if percent > 100 {
		percent = 100
	}
	b.sendHTML(chatID, b.translator.T(lang, "admin_quota_status",
		"used", strconv.Itoa(status.Used),
		"limit", strconv.Itoa(status.Limit),
		"remaining", strconv.Itoa(status.Remaining),
		"percent", strconv.Itoa(percent),
		"reset_time", b.formatResetTime(status.ResetAt, lang)))
}

func (b *Bot) handleAdminTestWeather(ctx context.Context, chatID int64, city, lang string) {
	if strings.TrimSpace(city) == "" {
		b.sendMessage(chatID, b.translator.T(lang, "weather_usage"))
		return
	}

	report, label, err := b.service.TestWeather(ctx, city)
	if err != nil {
		b.sendMessage(chatID, b.weatherErrorText(err, city, lang))
		return
	}

	b.sendHTML(chatID, weather.Format(report, label, lang, b.translator))
	b.notifyQuotaIfNeeded()
}

func (b *Bot) handleAdminBackup(chatID int64, lang string) {
	source, ok := b.cfg.StorageFilePath()
	if !ok {
		b.sendMessage(chatID, b.translator.T(lang, "admin_backup_unsupported"))
		return
	}

	path, err := storage.Backup(source, b.cfg.Backup.RetentionDays, time.Now(), b.logger)
	if err != nil {
		b.logger.Error("Manual backup failed", "error", err)
		b.sendMessage(chatID, "❌ "+b.translator.T(lang, "admin_backup_error"))
		return
	}

	b.sendMessage(chatID, "✅ "+b.translator.T(lang, "admin_backup_success", "file", filepath.Base(path)))
}

func (b *Bot) handleAdminSubscriptions(ctx context.Context, chatID int64, lang string) {
	entries, err := b.service.Subscriptions(ctx)
	if err != nil {
		b.logger.Error("Error listing subscriptions", "error", err)
		b.sendMessage(chatID, b.translator.T(lang, "admin_error"))
		return
	}

	if len(entries) == 0 {
		b.sendMessage(chatID, b.translator.T(lang, "admin_subscriptions_empty"))
		return
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n", b.translator.T(lang, "admin_subscriptions_title",
		"total", strconv.Itoa(len(entries))))

	shown := entries
	if len(shown) > subscriptionListLimit {
		shown = shown[:subscriptionListLimit]
	}
	for i, entry := range shown {
		fmt.Fprintf(&sb, "%d. ID %d — %02d:%02d",
			i+1, entry.ChatID, entry.Subscription.Hour, entry.Subscription.Minute)
		if entry.Home != nil && entry.Home.Label != "" {
			fmt.Fprintf(&sb, " (%s)", entry.Home.Label)
		}
		sb.WriteString("\n")
	}

	if remaining := len(entries) - len(shown); remaining > 0 {
		fmt.Fprintf(&sb, "%s\n", b.translator.T(lang, "admin_subscriptions_more",
			"remaining", strconv.Itoa(remaining)))
	}

	b.sendHTML(chatID, sb.String())
}

func (b *Bot) handleAdminConfig(chatID int64, lang string) {
	limits := b.service.SpamLimits()

	var sb strings.Builder
	fmt.Fprintf(&sb, "<b>%s</b>\n", b.translator.T(lang, "admin_config_title"))
	fmt.Fprintf(&sb, "%s: %s\n", b.translator.T(lang, "admin_config_timezone"), b.cfg.Telegram.Timezone)
	fmt.Fprintf(&sb, "%s: %s (%s)\n", b.translator.T(lang, "admin_config_storage"),
		b.cfg.GetStorageType(), b.cfg.Storage.ConnectionString)

	backupText := b.translator.T(lang, "admin_config_backup_off")
	if b.cfg.Backup.Enabled {
		backupText = b.translator.T(lang, "admin_config_backup_on",
			"hour", fmt.Sprintf("%02d", b.cfg.Backup.Hour),
			"retention", strconv.Itoa(b.cfg.Backup.RetentionDays))
	}
	fmt.Fprintf(&sb, "%s: %s\n", b.translator.T(lang, "admin_config_backup"), backupText)

	fmt.Fprintf(&sb, "%s: %d/%s, %d/%s, %d/%s\n", b.translator.T(lang, "admin_config_spam"),
		limits.MaxRequestsPerMinute, b.translator.T(lang, "admin_config_per_minute"),
		limits.MaxRequestsPerHour, b.translator.T(lang, "admin_config_per_hour"),
		limits.MaxRequestsPerDay, b.translator.T(lang, "admin_config_per_day"))
	fmt.Fprintf(&sb, "%s: %d\n", b.translator.T(lang, "admin_config_quota"), b.cfg.Quota.DailyLimit)

	b.sendHTML(chatID, sb.String())
}

func (b *Bot) handleAdminVersion(chatID int64, lang string) {
	b.sendMessage(chatID, b.translator.T(lang, "admin_version",
		"version", botVersion,
		"date", botReleaseDate,
		"languages", strings.Join(b.cfg.GetEnabledLanguages(), ", ")))
}

// notifyQuotaIfNeeded sends pending quota threshold alerts to all
// administrators. Each threshold fires at most once per reset cycle,
// even when no admins are configured.
func (b *Bot) notifyQuotaIfNeeded() {
	status, err := b.service.QuotaStatus()
	if err != nil {
		b.logger.Error("Error reading quota status for alerts", "error", err)
		return
	}
	if len(status.PendingAlertThresholds) == 0 {
		return
	}

	maxThreshold := status.PendingAlertThresholds[len(status.PendingAlertThresholds)-1]

	if len(b.cfg.Telegram.AdminIDs) == 0 {
		b.service.MarkQuotaAlertSent(maxThreshold, status)
		return
	}

	lang := b.cfg.Telegram.AdminLanguage
	resetText := b.formatResetTime(status.ResetAt, lang)

	for _, threshold := range status.PendingAlertThresholds {
		var text string
		if threshold >= 1.0 {
			text = b.translator.T(lang, "admin_quota_alert_exhausted",
				"limit", strconv.Itoa(status.Limit),
				"reset_time", resetText)
		} else {
			text = b.translator.T(lang, "admin_quota_alert_threshold",
				"percent", strconv.Itoa(int(threshold*100)),
				"used", strconv.Itoa(status.Used),
				"limit", strconv.Itoa(status.Limit),
				"remaining", strconv.Itoa(status.Remaining),
				"reset_time", resetText)
		}
		b.NotifyAdmins(text)
	}

	b.service.MarkQuotaAlertSent(maxThreshold, status)
}

// CheckQuotaAlerts is the scheduler entry point for quota alerting.
func (b *Bot) CheckQuotaAlerts() {
	b.notifyQuotaIfNeeded()
}

func parseUserID(args string) (int64, bool) {
	fields := strings.Fields(args)
	if len(fields) == 0 {
		return 0, false
	}
	id, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

func localizeTime(t time.Time, tzName string) time.Time {
	loc, err := time.LoadLocation(tzName)
	if err != nil {
		return t.UTC()
	}
	return t.In(loc)
}
