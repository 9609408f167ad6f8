package telegram

import (
	"fmt"
	"strconv"
	"sync"
	"time"

	"github.com/akarpov/weatherbot/internal/config"
	"github.com/akarpov/weatherbot/internal/i18n"
	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/service"
	"github.com/akarpov/weatherbot/internal/utils"
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// BotAPI is the slice of the Telegram API the bot relies on. The real
// *tgbotapi.BotAPI satisfies it; tests substitute a recording fake.
type BotAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
}

// Bot represents the Telegram bot
type Bot struct {
	api        BotAPI
	self       tgbotapi.User
	service    *service.Service
	translator *i18n.Translator
	cfg        *config.Config
	logger     *logger.Logger
	running    bool
	waitGroup  sync.WaitGroup
	stopCh     chan struct{}
}

// New creates a new Telegram bot connected to the real API
func New(cfg *config.Config, svc *service.Service, translator *i18n.Translator, logger *logger.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.Telegram.Token)
	if err != nil {
		return nil, fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	return NewWithAPI(cfg, svc, translator, logger, api, api.Self), nil
}

// NewWithAPI creates a bot on an already constructed API client
func NewWithAPI(cfg *config.Config, svc *service.Service, translator *i18n.Translator,
	logger *logger.Logger, api BotAPI, self tgbotapi.User) *Bot {
	return &Bot{
		api:        api,
		self:       self,
		service:    svc,
		translator: translator,
		cfg:        cfg,
		logger:     logger,
		stopCh:     make(chan struct{}),
	}
}

// Start starts the bot
func (b *Bot) Start() error {
	if b.running {
		return fmt.Errorf("bot is already running")
	}

	b.running = true
	b.logger.Info("Bot started", "username", b.self.UserName)

	u := tgbotapi.NewUpdate(0)
	u.Timeout = 60
	updates := b.api.GetUpdatesChan(u)

	b.waitGroup.Add(1)
	go func() {
		defer b.waitGroup.Done()
		b.processUpdates(updates)
	}()

	return nil
}

// Stop stops the bot
func (b *Bot) Stop() {
	if !b.running {
		return
	}

	b.running = false
	close(b.stopCh)
	b.api.StopReceivingUpdates()
	b.waitGroup.Wait()

	b.logger.Info("Bot stopped")
}

// processUpdates processes updates from Telegram
func (b *Bot) processUpdates(updates tgbotapi.UpdatesChannel) {
	for {
		select {
		case <-b.stopCh:
			return
		case update, ok := <-updates:
			if !ok {
				return
			}
			go b.HandleUpdate(update)
		}
	}
}

// HandleUpdate handles a single update. Every inbound interaction runs
// through the abuse guard first; a silent verdict means no reply at all.
func (b *Bot) HandleUpdate(update tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleUpdate", "panic", r)
		}
	}()

	if update.Message != nil {
		b.handleMessage(update.Message)
	} else if update.CallbackQuery != nil {
		b.handleCallbackQuery(update.CallbackQuery)
	}
}

// guardAllows runs the abuse check and notifies the user when a
// non-silent throttle verdict comes back.
func (b *Bot) guardAllows(userID, chatID int64, text string, countRequest bool, lang string) bool {
	verdict := b.service.CheckAccess(userID, text, countRequest)
	if verdict.Allowed() {
		return true
	}
	if verdict.Silent {
		return false
	}

	seconds := verdict.RetryAfter
	if verdict.Cooldown > 0 {
		seconds = verdict.Cooldown
	}
	b.sendMessage(chatID, b.translator.T(lang, string(verdict.Reason),
		"seconds", strconv.Itoa(int(seconds.Round(time.Second).Seconds()))))
	return false
}

// sendMessage sends a plain text message to a chat
func (b *Bot) sendMessage(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Error sending message", "chat_id", chatID, "error", err)
	}
}

// sendHTML sends an HTML-formatted message to a chat
func (b *Bot) sendHTML(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ParseMode = tgbotapi.ModeHTML
	if _, err := b.api.Send(msg); err != nil {
		b.logger.Error("Error sending message", "chat_id", chatID, "error", err)
	}
}

// SendMessage exposes plain message delivery for the job scheduler.
func (b *Bot) SendMessage(chatID int64, text string) {
	b.sendMessage(chatID, text)
}

// SendHTML exposes HTML message delivery for the job scheduler.
func (b *Bot) SendHTML(chatID int64, text string) {
	b.sendHTML(chatID, text)
}

// NotifyAdmins sends a message to every configured administrator.
func (b *Bot) NotifyAdmins(text string) {
	for _, adminID := range b.cfg.Telegram.AdminIDs {
		b.sendHTML(adminID, text)
	}
}

// formatResetTime renders a quota reset time in the admin timezone.
func (b *Bot) formatResetTime(resetAt *time.Time, lang string) string {
	if resetAt == nil {
		return b.translator.T(lang, "admin_quota_no_reset")
	}
	return utils.FormatResetTime(*resetAt, b.cfg.Telegram.Timezone)
}
