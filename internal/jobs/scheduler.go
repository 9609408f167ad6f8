package jobs

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/akarpov/weatherbot/internal/config"
	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/i18n"
	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/service"
	"github.com/akarpov/weatherbot/internal/storage"
	"github.com/akarpov/weatherbot/internal/utils"
	"github.com/akarpov/weatherbot/internal/weather"
)

const (
	// deliveryTickInterval is how often due subscriptions are checked.
	deliveryTickInterval = 30 * time.Second
	// cleanupInterval is how often stale abuse records are purged.
	cleanupInterval = 6 * time.Hour
	// backupMinute offsets the daily backup past the configured hour.
	backupMinute = 5
)

// Messenger is the outbound channel the scheduler delivers through.
// The Telegram bot satisfies it.
type Messenger interface {
	SendMessage(chatID int64, text string)
	SendHTML(chatID int64, text string)
	CheckQuotaAlerts()
}

// Scheduler drives the periodic work: daily forecast deliveries in each
// user's timezone, stale abuse-record cleanup, and quota alert checks.
type Scheduler struct {
	service    *service.Service
	messenger  Messenger
	translator *i18n.Translator
	cfg        *config.Config
	logger     *logger.Logger
	clock      func() time.Time

	mu         sync.Mutex
	delivered  map[int64]string // chat id -> date last delivered
	lastBackup string           // date of the last storage backup

	stopCh    chan struct{}
	waitGroup sync.WaitGroup
	running   bool
}

// New creates a scheduler. The clock may be nil for the wall clock.
func New(svc *service.Service, messenger Messenger, translator *i18n.Translator,
	cfg *config.Config, logger *logger.Logger, clock func() time.Time) *Scheduler {
	if clock == nil {
		clock = time.Now
	}
	return &Scheduler{
		service:    svc,
		messenger:  messenger,
		translator: translator,
		cfg:        cfg,
		logger:     logger,
		clock:      clock,
		delivered:  make(map[int64]string),
		stopCh:     make(chan struct{}),
	}
}

// Start launches the background loops
func (s *Scheduler) Start() {
	if s.running {
		return
	}
	s.running = true

	s.waitGroup.Add(2)
	go s.deliveryLoop()
	go s.cleanupLoop()

	s.logger.Info("Scheduler started",
		"delivery_tick", deliveryTickInterval, "cleanup_interval", cleanupInterval)
}

// Stop terminates the background loops and waits for them
func (s *Scheduler) Stop() {
	if !s.running {
		return
	}
	s.running = false
	close(s.stopCh)
	s.waitGroup.Wait()
	s.logger.Info("Scheduler stopped")
}

func (s *Scheduler) deliveryLoop() {
	defer s.waitGroup.Done()

	ticker := time.NewTicker(deliveryTickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			now := s.clock()
			s.RunPending(now)
			s.RunBackup(now)
		case <-s.stopCh:
			return
		}
	}
}

func (s *Scheduler) cleanupLoop() {
	defer s.waitGroup.Done()

	ticker := time.NewTicker(cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			purged := s.service.CleanupSpam()
			s.logger.Debug("Scheduled cleanup finished", "purged", purged)
		case <-s.stopCh:
			return
		}
	}
}

// RunPending delivers every subscription whose wall-clock time in the
// subscriber's timezone has been reached and was not yet delivered
// today. Exposed for deterministic tests.
func (s *Scheduler) RunPending(now time.Time) {
	ctx := context.Background()

	entries, err := s.service.Subscriptions(ctx)
	if err != nil {
		s.logger.Error("Error listing subscriptions", "error", err)
		return
	}

	for _, entry := range entries {
		local := now.In(s.locationFor(entry))
		if !timeReached(local, entry.Subscription) {
			continue
		}

		date := local.Format("2006-01-02")
		s.mu.Lock()
		already := s.delivered[entry.ChatID] == date
		if !already {
			s.delivered[entry.ChatID] = date
		}
		s.mu.Unlock()
		if already {
			continue
		}

		s.deliver(ctx, entry)
	}

	s.pruneDelivered(entries, now)
}

// pruneDelivered drops delivery bookkeeping for chats that are no longer
// subscribed and for dates that are no longer current, so the map cannot
// grow across the process lifetime. Yesterday is kept because subscriber
// timezones may still be on it.
func (s *Scheduler) pruneDelivered(entries []domain.SubscriptionEntry, now time.Time) {
	subscribed := make(map[int64]bool, len(entries))
	for _, entry := range entries {
		subscribed[entry.ChatID] = true
	}
	oldest := now.UTC().AddDate(0, 0, -1).Format("2006-01-02")

	s.mu.Lock()
	defer s.mu.Unlock()
	for chatID, date := range s.delivered {
		if !subscribed[chatID] || date < oldest {
			delete(s.delivered, chatID)
		}
	}
}

// TrackedDeliveries reports how many chats currently have delivery
// bookkeeping. Exposed for tests.
func (s *Scheduler) TrackedDeliveries() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.delivered)
}

// RunBackup performs the daily storage backup once the configured hour
// has been reached, at most once per day. Only file-based storage
// backends are backed up. Exposed for deterministic tests.
func (s *Scheduler) RunBackup(now time.Time) {
	if !s.cfg.Backup.Enabled {
		return
	}
	source, ok := s.cfg.StorageFilePath()
	if !ok {
		return
	}

	local := now
	if loc, err := time.LoadLocation(s.cfg.Telegram.Timezone); err == nil {
		local = now.In(loc)
	}
	if local.Hour()*60+local.Minute() < s.cfg.Backup.Hour*60+backupMinute {
		return
	}

	date := local.Format("2006-01-02")
	s.mu.Lock()
	already := s.lastBackup == date
	if !already {
		s.lastBackup = date
	}
	s.mu.Unlock()
	if already {
		return
	}

	if _, err := storage.Backup(source, s.cfg.Backup.RetentionDays, now, s.logger); err != nil {
		s.logger.Error("Scheduled storage backup failed", "error", err)
	}
}

// locationFor resolves the delivery timezone: the subscriber's home
// timezone when set, otherwise the configured bot timezone, then UTC.
func (s *Scheduler) locationFor(entry domain.SubscriptionEntry) *time.Location {
	if entry.Home != nil && entry.Home.Timezone != "" {
		if loc, err := time.LoadLocation(entry.Home.Timezone); err == nil {
			return loc
		}
		s.logger.Warn("Unknown home timezone, using fallback",
			"chat_id", entry.ChatID, "timezone", entry.Home.Timezone)
	}
	if loc, err := time.LoadLocation(s.cfg.Telegram.Timezone); err == nil {
		return loc
	}
	return time.UTC
}

// timeReached reports whether the subscription delivery time has passed
// today. Matching on "reached" rather than an exact minute keeps a
// missed tick from skipping the whole day.
func timeReached(local time.Time, sub domain.Subscription) bool {
	return local.Hour()*60+local.Minute() >= sub.Hour*60+sub.Minute
}

func (s *Scheduler) deliver(ctx context.Context, entry domain.SubscriptionEntry) {
	lang := entry.Language
	if lang == "" {
		lang = s.cfg.GetDefaultLanguage()
	}

	if entry.Home == nil {
		s.messenger.SendMessage(entry.ChatID, s.translator.T(lang, "home_not_set"))
		return
	}

	report, err := s.service.WeatherByCoordinates(ctx, entry.Home.Lat, entry.Home.Lon)
	if err != nil {
		var quotaErr *domain.QuotaExceededError
		if errors.As(err, &quotaErr) {
			s.messenger.SendMessage(entry.ChatID, s.translator.T(lang, "weather_quota_exceeded",
				"reset_time", utils.FormatResetTime(quotaErr.ResetAt, entry.Home.Timezone)))
			s.messenger.CheckQuotaAlerts()
			return
		}
		s.logger.Error("Error delivering daily forecast",
			"chat_id", entry.ChatID, "error", err)
		s.messenger.SendMessage(entry.ChatID, s.translator.T(lang, "weather_error"))
		return
	}

	header := fmt.Sprintf("⏰ %02d:%02d\n", entry.Subscription.Hour, entry.Subscription.Minute)
	s.messenger.SendHTML(entry.ChatID, header+weather.Format(report, entry.Home.Label, lang, s.translator))
	s.logger.Debug("Daily forecast delivered", "chat_id", entry.ChatID)
	s.messenger.CheckQuotaAlerts()
}
