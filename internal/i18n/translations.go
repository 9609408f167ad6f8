package i18n

// LoadDefaultTranslations loads the default translations for the bot
func LoadDefaultTranslations(translator *Translator) {
	// English translations
	translator.LoadTranslations("en", map[string]string{
		"welcome":                 "Hi! I can tell you the weather. Send me your location, or use /weather <city>.",
		"help_message":            "Here's how to use the weather bot:\n\n• Send a location to get the current weather\n• /weather <city> - weather for a city\n• /sethome <city> - remember your home location\n• /home - weather for your home\n• /subscribe <HH:MM> - daily forecast at the given time\n• /unsubscribe - stop the daily forecast\n• /language - change language\n• /help - show this message",
		"unknown_command":         "Unknown command. Use /help to see what I can do.",
		"weather_usage":           "Please name a city: /weather <city>.",
		"city_not_found":          "I couldn't find \"{city}\". Please check the spelling.",
		"weather_error":           "Sorry, I couldn't fetch the weather right now. Please try again later.",
		"weather_quota_exceeded":  "The daily weather lookup budget is spent. Try again after {reset_time}.",
		"home_not_set":            "You haven't set a home location yet. Use /sethome <city>.",
		"home_saved":              "Home location saved: {label}.",
		"home_removed":            "Home location removed.",
		"sethome_usage":           "Please name a city: /sethome <city>.",
		"data_deleted":            "All your stored data has been deleted.",
		"no_stored_data":          "I have no stored data for you.",
		"subscribe_usage":         "Please give a time: /subscribe <HH:MM>, e.g. /subscribe 08:00.",
		"subscribe_needs_home":    "Set a home location first with /sethome <city>.",
		"subscribed":              "Daily forecast scheduled for {time}.",
		"unsubscribed":            "Daily forecast cancelled.",
		"not_subscribed":          "You don't have a daily forecast subscription.",
		"language_command":        "Please select your preferred language:",
		"language_set":            "Language set to English.",
		"language_not_supported":  "Sorry, this language is not supported yet.",
		"storage_error":           "Sorry, I couldn't save that. Please try again later.",
		"spam_blocked_message":    "You are temporarily blocked for sending too many requests. Try again in {seconds} seconds.",
		"spam_message_too_long":   "Your message is too long. You have been temporarily blocked.",
		"spam_too_fast":           "Too fast! Please wait {seconds} seconds.",
		"spam_rate_limit_minute":  "Too many requests per minute. You have been temporarily blocked.",
		"spam_rate_limit_hour":    "Too many requests per hour. You have been temporarily blocked.",
		"spam_daily_limit":        "Daily request limit reached. You have been temporarily blocked.",
		"weather_now":             "Now",
		"weather_feels_like":      "feels like",
		"weather_wind":            "wind",
		"weather_today":           "Today",
		"weather_precipitation":   "precipitation",
		"weather_sunrise":         "sunrise",
		"weather_sunset":          "sunset",
	})

	// Russian translations (default)
	translator.LoadTranslations("ru", map[string]string{
		"welcome":                 "Привет! Я подскажу погоду. Отправьте геолокацию или используйте /weather <город>.",
		"help_message":            "Как пользоваться ботом:\n\n• Отправьте геолокацию, чтобы узнать текущую погоду\n• /weather <город> - погода в городе\n• /sethome <город> - запомнить домашний город\n• /home - погода дома\n• /subscribe <ЧЧ:ММ> - ежедневный прогноз в указанное время\n• /unsubscribe - отключить ежедневный прогноз\n• /language - сменить язык\n• /help - показать это сообщение",
		"unknown_command":         "Неизвестная команда. Используйте /help, чтобы узнать, что я умею.",
		"weather_usage":           "Укажите город: /weather <город>.",
		"city_not_found":          "Не удалось найти \"{city}\". Проверьте написание.",
		"weather_error":           "Не получилось узнать погоду. Попробуйте позже.",
		"weather_quota_exceeded":  "Дневной лимит запросов погоды исчерпан. Попробуйте после {reset_time}.",
		"home_not_set":            "Домашний город ещё не задан. Используйте /sethome <город>.",
		"home_saved":              "Домашний город сохранён: {label}.",
		"home_removed":            "Домашний город удалён.",
		"sethome_usage":           "Укажите город: /sethome <город>.",
		"data_deleted":            "Все ваши данные удалены.",
		"no_stored_data":          "У меня нет сохранённых данных о вас.",
		"subscribe_usage":         "Укажите время: /subscribe <ЧЧ:ММ>, например /subscribe 08:00.",
		"subscribe_needs_home":    "Сначала задайте домашний город командой /sethome <город>.",
		"subscribed":              "Ежедневный прогноз запланирован на {time}.",
		"unsubscribed":            "Ежедневный прогноз отключён.",
		"not_subscribed":          "У вас нет подписки на ежедневный прогноз.",
		"language_command":        "Выберите язык:",
		"language_set":            "Язык переключён на русский.",
		"language_not_supported":  "Извините, этот язык пока не поддерживается.",
		"storage_error":           "Не удалось сохранить данные. Попробуйте позже.",
		"spam_blocked_message":    "Вы временно заблокированы за слишком частые запросы. Попробуйте через {seconds} секунд.",
		"spam_message_too_long":   "Сообщение слишком длинное. Вы временно заблокированы.",
		"spam_too_fast":           "Слишком быстро! Подождите {seconds} секунд.",
		"spam_rate_limit_minute":  "Слишком много запросов в минуту. Вы временно заблокированы.",
		"spam_rate_limit_hour":    "Слишком много запросов в час. Вы временно заблокированы.",
		"spam_daily_limit":        "Дневной лимит запросов исчерпан. Вы временно заблокированы.",
		"weather_now":             "Сейчас",
		"weather_feels_like":      "ощущается как",
		"weather_wind":            "ветер",
		"weather_today":           "Сегодня",
		"weather_precipitation":   "осадки",
		"weather_sunrise":         "восход",
		"weather_sunset":          "закат",
	})

	// German translations
	translator.LoadTranslations("de", map[string]string{
		"welcome":                 "Hallo! Ich sage dir das Wetter. Sende deinen Standort oder nutze /weather <Stadt>.",
		"help_message":            "So benutzt du den Wetter-Bot:\n\n• Sende einen Standort für das aktuelle Wetter\n• /weather <Stadt> - Wetter für eine Stadt\n• /sethome <Stadt> - Heimatort speichern\n• /home - Wetter zu Hause\n• /subscribe <HH:MM> - tägliche Vorhersage\n• /unsubscribe - tägliche Vorhersage abbestellen\n• /language - Sprache ändern\n• /help - diese Nachricht anzeigen",
		"unknown_command":         "Unbekannter Befehl. Nutze /help, um zu sehen, was ich kann.",
		"weather_usage":           "Bitte eine Stadt angeben: /weather <Stadt>.",
		"city_not_found":          "Ich konnte \"{city}\" nicht finden. Bitte prüfe die Schreibweise.",
		"weather_error":           "Das Wetter konnte gerade nicht abgerufen werden. Bitte versuche es später.",
		"weather_quota_exceeded":  "Das tägliche Wetterabfrage-Budget ist aufgebraucht. Versuche es nach {reset_time}.",
		"home_not_set":            "Du hast noch keinen Heimatort gesetzt. Nutze /sethome <Stadt>.",
		"home_saved":              "Heimatort gespeichert: {label}.",
		"home_removed":            "Heimatort entfernt.",
		"sethome_usage":           "Bitte eine Stadt angeben: /sethome <Stadt>.",
		"data_deleted":            "Alle deine gespeicherten Daten wurden gelöscht.",
		"no_stored_data":          "Ich habe keine gespeicherten Daten über dich.",
		"subscribe_usage":         "Bitte eine Zeit angeben: /subscribe <HH:MM>, z.B. /subscribe 08:00.",
		"subscribe_needs_home":    "Setze zuerst einen Heimatort mit /sethome <Stadt>.",
		"subscribed":              "Tägliche Vorhersage um {time} geplant.",
		"unsubscribed":            "Tägliche Vorhersage abbestellt.",
		"not_subscribed":          "Du hast keine tägliche Vorhersage abonniert.",
		"language_command":        "Bitte wähle deine Sprache:",
		"language_set":            "Sprache auf Deutsch umgestellt.",
		"language_not_supported":  "Diese Sprache wird leider noch nicht unterstützt.",
		"storage_error":           "Das konnte nicht gespeichert werden. Bitte versuche es später.",
		"spam_blocked_message":    "Du bist wegen zu vieler Anfragen vorübergehend blockiert. Versuche es in {seconds} Sekunden erneut.",
		"spam_message_too_long":   "Deine Nachricht ist zu lang. Du wurdest vorübergehend blockiert.",
		"spam_too_fast":           "Zu schnell! Bitte warte {seconds} Sekunden.",
		"spam_rate_limit_minute":  "Zu viele Anfragen pro Minute. Du wurdest vorübergehend blockiert.",
		"spam_rate_limit_hour":    "Zu viele Anfragen pro Stunde. Du wurdest vorübergehend blockiert.",
		"spam_daily_limit":        "Tageslimit erreicht. Du wurdest vorübergehend blockiert.",
		"weather_now":             "Jetzt",
		"weather_feels_like":      "gefühlt",
		"weather_wind":            "Wind",
		"weather_today":           "Heute",
		"weather_precipitation":   "Niederschlag",
		"weather_sunrise":         "Sonnenaufgang",
		"weather_sunset":          "Sonnenuntergang",
	})
}

// LoadAdminTranslations loads the administrator-facing strings. Admin
// messages are kept separate because they are only ever rendered in the
// configured admin language.
func LoadAdminTranslations(translator *Translator) {
	translator.LoadTranslations("en", map[string]string{
		"admin_stats_title":           "Bot statistics",
		"admin_total_users":           "Total users",
		"admin_blocked_users":         "Blocked users",
		"admin_top_users":             "Most active today",
		"admin_requests_today":        "requests today",
		"admin_unblock_usage":         "Usage: /admin_unblock <user_id>",
		"admin_user_info_usage":       "Usage: /admin_user_info <user_id>",
		"admin_invalid_user_id":       "That doesn't look like a numeric user id.",
		"admin_user_unblocked":        "User {user_id} unblocked.",
		"admin_user_not_found":        "User {user_id} has no activity record.",
		"admin_user_info_title":       "User {user_id}",
		"admin_user_requests_today":   "Requests today",
		"admin_user_blocked":          "Blocked",
		"admin_user_block_count":      "Times blocked",
		"admin_user_blocked_until":    "Blocked until",
		"admin_yes":                   "yes",
		"admin_no":                    "no",
		"admin_cleanup_success":       "Stale activity records purged.",
		"admin_quota_status":          "Weather API quota: {used}/{limit} used ({percent}%), {remaining} remaining. Resets: {reset_time}.",
		"admin_quota_no_reset":        "no consumption in the current window",
		"admin_quota_alert_threshold": "Weather API quota at {percent}%: {used}/{limit} used, {remaining} remaining. Resets: {reset_time}.",
		"admin_quota_alert_exhausted": "Weather API quota exhausted ({limit} requests in 24h). Resets: {reset_time}.",
		"admin_error":                 "Admin command failed, see logs.",
		"admin_backup_success":        "Backup created: {file}",
		"admin_backup_error":          "Backup failed, see logs.",
		"admin_backup_unsupported":    "Backups are only available for file-based storage backends.",
		"admin_subscriptions_title":   "Subscriptions: {total}",
		"admin_subscriptions_empty":   "No active subscriptions.",
		"admin_subscriptions_more":    "… and {remaining} more",
		"admin_config_title":          "Current configuration",
		"admin_config_timezone":       "Timezone",
		"admin_config_storage":        "Storage",
		"admin_config_backup":         "Backups",
		"admin_config_backup_on":      "daily at {hour}:05, keep {retention} days",
		"admin_config_backup_off":     "disabled",
		"admin_config_spam":           "Spam limits",
		"admin_config_per_minute":     "min",
		"admin_config_per_hour":       "hour",
		"admin_config_per_day":        "day",
		"admin_config_quota":          "Weather API daily limit",
		"admin_version":               "Weather Bot {version} ({date})\nLanguages: {languages}",
		"admin_help":                  "Admin commands:\n/admin_stats - usage statistics\n/admin_user_info <user_id> - abuse record of a user\n/admin_unblock <user_id> - lift a block\n/admin_cleanup - purge stale activity records\n/admin_quota - weather API quota status\n/admin_test_weather <city> - fetch a report bypassing rate limits\n/admin_backup - back up the storage file now\n/admin_subscriptions - list daily forecast subscriptions\n/admin_config - show effective configuration\n/admin_version - bot version\n/admin_help - this message",
	})

	translator.LoadTranslations("ru", map[string]string{
		"admin_stats_title":           "Статистика бота",
		"admin_total_users":           "Всего пользователей",
		"admin_blocked_users":         "Заблокировано",
		"admin_top_users":             "Самые активные за сегодня",
		"admin_requests_today":        "запросов сегодня",
		"admin_unblock_usage":         "Использование: /admin_unblock <user_id>",
		"admin_user_info_usage":       "Использование: /admin_user_info <user_id>",
		"admin_invalid_user_id":       "Это не похоже на числовой идентификатор пользователя.",
		"admin_user_unblocked":        "Пользователь {user_id} разблокирован.",
		"admin_user_not_found":        "У пользователя {user_id} нет записей активности.",
		"admin_user_info_title":       "Пользователь {user_id}",
		"admin_user_requests_today":   "Запросов сегодня",
		"admin_user_blocked":          "Заблокирован",
		"admin_user_block_count":      "Блокировок всего",
		"admin_user_blocked_until":    "Заблокирован до",
		"admin_yes":                   "да",
		"admin_no":                    "нет",
		"admin_cleanup_success":       "Устаревшие записи активности удалены.",
		"admin_quota_status":          "Квота погодного API: использовано {used}/{limit} ({percent}%), осталось {remaining}. Сброс: {reset_time}.",
		"admin_quota_no_reset":        "в текущем окне запросов не было",
		"admin_quota_alert_threshold": "Квота погодного API на {percent}%: использовано {used}/{limit}, осталось {remaining}. Сброс: {reset_time}.",
		"admin_quota_alert_exhausted": "Квота погодного API исчерпана ({limit} запросов за 24ч). Сброс: {reset_time}.",
		"admin_error":                 "Команда администратора не выполнена, см. логи.",
		"admin_backup_success":        "Резервная копия создана: {file}",
		"admin_backup_error":          "Не удалось создать резервную копию, см. логи.",
		"admin_backup_unsupported":    "Резервные копии доступны только для файловых хранилищ.",
		"admin_subscriptions_title":   "Подписки: {total}",
		"admin_subscriptions_empty":   "Активных подписок нет.",
		"admin_subscriptions_more":    "… и ещё {remaining}",
		"admin_config_title":          "Текущая конфигурация",
		"admin_config_timezone":       "Часовой пояс",
		"admin_config_storage":        "Хранилище",
		"admin_config_backup":         "Резервные копии",
		"admin_config_backup_on":      "ежедневно в {hour}:05, хранить {retention} дней",
		"admin_config_backup_off":     "отключены",
		"admin_config_spam":           "Лимиты запросов",
		"admin_config_per_minute":     "мин",
		"admin_config_per_hour":       "час",
		"admin_config_per_day":        "день",
		"admin_config_quota":          "Дневной лимит погодного API",
		"admin_version":               "Погодный бот {version} ({date})\nЯзыки: {languages}",
		"admin_help":                  "Команды администратора:\n/admin_stats - статистика использования\n/admin_user_info <user_id> - запись активности пользователя\n/admin_unblock <user_id> - снять блокировку\n/admin_cleanup - удалить устаревшие записи\n/admin_quota - статус квоты погодного API\n/admin_test_weather <city> - запросить прогноз в обход лимитов\n/admin_backup - создать резервную копию хранилища\n/admin_subscriptions - список подписок на ежедневный прогноз\n/admin_config - текущая конфигурация\n/admin_version - версия бота\n/admin_help - это сообщение",
	})
}
