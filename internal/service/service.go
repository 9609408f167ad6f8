package service

import (
	"context"
	"errors"
	"time"

	"github.com/akarpov/weatherbot/internal/config"
	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/geocode"
	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/quota"
	"github.com/akarpov/weatherbot/internal/spamguard"
	"github.com/akarpov/weatherbot/internal/storage"
	"github.com/akarpov/weatherbot/internal/utils"
	"github.com/akarpov/weatherbot/internal/weather"
)

// topUsersLimit caps the top-users list in the admin stats overview.
const topUsersLimit = 10

// Service handles business logic for the bot
type Service struct {
	repo        domain.Repository
	guard       *spamguard.Guard
	quota       *quota.Ledger
	provider    weather.Provider
	geocoder    geocode.Geocoder
	logger      *logger.Logger
	defaultLang string
	clock       func() time.Time
}

// New creates a new service instance
func New(ctx context.Context, cfg *config.Config, logger *logger.Logger) (*Service, error) {
	repo, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, err
	}

	guard, err := spamguard.New(spamguard.Config{
		MaxRequestsPerMinute:  cfg.Spam.MaxRequestsPerMinute,
		MaxRequestsPerHour:    cfg.Spam.MaxRequestsPerHour,
		MaxRequestsPerDay:     cfg.Spam.MaxRequestsPerDay,
		BlockDuration:         time.Duration(cfg.Spam.BlockDuration) * time.Second,
		ExtendedBlockDuration: time.Duration(cfg.Spam.ExtendedBlockDuration) * time.Second,
		MinCooldown:           cfg.Spam.MinCooldownDuration(),
		MaxMessageLength:      cfg.Spam.MaxMessageLength,
	}, logger)
	if err != nil {
		repo.Close()
		return nil, err
	}

	ledger, err := quota.New(cfg.Quota.Path, cfg.Quota.DailyLimit, logger)
	if err != nil {
		repo.Close()
		return nil, err
	}

	return &Service{
		repo:        repo,
		guard:       guard,
		quota:       ledger,
		provider:    weather.NewOpenMeteoClient(logger),
		geocoder:    geocode.NewNominatimClient(logger),
		logger:      logger,
		defaultLang: cfg.GetDefaultLanguage(),
		clock:       time.Now,
	}, nil
}

// NewForTest creates a new service instance with injected collaborators
func NewForTest(repo domain.Repository, guard *spamguard.Guard, ledger *quota.Ledger,
	provider weather.Provider, geocoder geocode.Geocoder,
	logger *logger.Logger, clock func() time.Time) *Service {
	if clock == nil {
		clock = time.Now
	}
	return &Service{
		repo:        repo,
		guard:       guard,
		quota:       ledger,
		provider:    provider,
		geocoder:    geocoder,
		logger:      logger,
		defaultLang: "ru",
		clock:       clock,
	}
}

// CheckAccess runs the abuse-mitigation decision chain for one inbound
// request. countRequest must be true for content-bearing requests and
// false for passive probes like callback queries.
func (s *Service) CheckAccess(userID int64, messageText string, countRequest bool) spamguard.Verdict {
	return s.guard.Evaluate(userID, messageText, countRequest, s.clock())
}

// WeatherByCoordinates fetches current weather, consuming one unit of
// the external API quota. A QuotaExceededError carries the reset time.
func (s *Service) WeatherByCoordinates(ctx context.Context, lat, lon float64) (weather.Report, error) {
	resetAt, err := s.quota.TryConsume(s.clock())
	if err != nil {
		s.logger.Error("Quota ledger error", "error", err)
		return weather.Report{}, err
	}
	if resetAt != nil {
		s.logger.Warn("Weather API quota exhausted", "reset_at", *resetAt)
		return weather.Report{}, &domain.QuotaExceededError{ResetAt: *resetAt}
	}

	return s.provider.Fetch(ctx, lat, lon)
}

// WeatherByCity geocodes a city name and fetches its weather. The
// returned label is the resolved place name.
func (s *Service) WeatherByCity(ctx context.Context, city string) (weather.Report, string, error) {
	city = utils.NormalizeCityInput(city)
	if city == "" {
		return weather.Report{}, "", &domain.ValidationError{Field: "city", Message: "city name cannot be empty"}
	}

	place, err := s.geocoder.GeocodeCity(ctx, city)
	if err != nil {
		return weather.Report{}, "", err
	}

	report, err := s.WeatherByCoordinates(ctx, place.Lat, place.Lon)
	if err != nil {
		return weather.Report{}, "", err
	}

	label := place.Label
	if label == "" {
		label = city
	}
	return report, label, nil
}

// WeatherForHome fetches weather for a user's saved home location.
func (s *Service) WeatherForHome(ctx context.Context, chatID int64) (weather.Report, *domain.Home, error) {
	profile, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return weather.Report{}, nil, domain.ErrUserNotFound
		}
		return weather.Report{}, nil, err
	}
	if profile.Home == nil {
		return weather.Report{}, nil, domain.ErrUserNotFound
	}

	report, err := s.WeatherByCoordinates(ctx, profile.Home.Lat, profile.Home.Lon)
	if err != nil {
		return weather.Report{}, nil, err
	}
	return report, profile.Home, nil
}

// getOrCreateProfile returns the stored profile or a fresh empty one.
func (s *Service) getOrCreateProfile(ctx context.Context, chatID int64) (*domain.UserProfile, error) {
	profile, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return &domain.UserProfile{}, nil
		}
		return nil, err
	}
	return profile, nil
}

// SetHomeByCity resolves a city name and stores it as the user's home.
func (s *Service) SetHomeByCity(ctx context.Context, chatID int64, city string) (*domain.Home, error) {
	city = utils.NormalizeCityInput(city)
	if city == "" {
		return nil, &domain.ValidationError{Field: "city", Message: "city name cannot be empty"}
	}

	place, err := s.geocoder.GeocodeCity(ctx, city)
	if err != nil {
		return nil, err
	}

	home := &domain.Home{Lat: place.Lat, Lon: place.Lon, Label: place.Label}
	if home.Label == "" {
		home.Label = city
	}
	if err := s.SetHome(ctx, chatID, home); err != nil {
		return nil, err
	}
	return home, nil
}

// SetHome stores a home location for a chat.
func (s *Service) SetHome(ctx context.Context, chatID int64, home *domain.Home) error {
	profile, err := s.getOrCreateProfile(ctx, chatID)
	if err != nil {
		return err
	}
	profile.Home = home
	if err := s.repo.SaveUser(ctx, chatID, profile); err != nil {
		return err
	}
	s.logger.Info("Home location saved", "chat_id", chatID, "label", home.Label)
	return nil
}

// Home returns the stored home location, or ErrUserNotFound.
func (s *Service) Home(ctx context.Context, chatID int64) (*domain.Home, error) {
	profile, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if profile.Home == nil {
		return nil, domain.ErrUserNotFound
	}
	return profile.Home, nil
}

// RemoveHome deletes the stored home location. It also drops the
// subscription, which cannot be delivered without a location.
func (s *Service) RemoveHome(ctx context.Context, chatID int64) (bool, error) {
	profile, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	if profile.Home == nil {
		return false, nil
	}

	profile.Home = nil
	profile.Subscription = nil
	if profile.IsEmpty() {
		return s.repo.DeleteUser(ctx, chatID)
	}
	if err := s.repo.SaveUser(ctx, chatID, profile); err != nil {
		return false, err
	}
	return true, nil
}

// Language returns the user's language, falling back to the default.
func (s *Service) Language(ctx context.Context, chatID int64) string {
	profile, err := s.repo.GetUser(ctx, chatID)
	if err != nil || profile.Language == "" {
		return s.defaultLang
	}
	return profile.Language
}

// SetLanguage stores the user's preferred language.
func (s *Service) SetLanguage(ctx context.Context, chatID int64, lang string) error {
	profile, err := s.getOrCreateProfile(ctx, chatID)
	if err != nil {
		return err
	}
	profile.Language = lang
	if err := s.repo.SaveUser(ctx, chatID, profile); err != nil {
		return err
	}
	s.logger.Info("Language saved", "chat_id", chatID, "language", lang)
	return nil
}

// Subscribe stores a daily forecast subscription. A home location must
// exist first.
func (s *Service) Subscribe(ctx context.Context, chatID int64, hour, minute int) error {
	sub := domain.Subscription{Hour: hour, Minute: minute}
	if err := sub.Validate(); err != nil {
		return &domain.ValidationError{Field: "time", Message: err.Error()}
	}

	profile, err := s.getOrCreateProfile(ctx, chatID)
	if err != nil {
		return err
	}
	if profile.Home == nil {
		return domain.ErrUserNotFound
	}

	profile.Subscription = &sub
	if err := s.repo.SaveUser(ctx, chatID, profile); err != nil {
		return err
	}
	s.logger.Info("Subscription saved", "chat_id", chatID, "hour", hour, "minute", minute)
	return nil
}

// Unsubscribe removes a subscription, reporting whether one existed.
func (s *Service) Unsubscribe(ctx context.Context, chatID int64) (bool, error) {
	profile, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return false, nil
		}
		return false, err
	}
	if profile.Subscription == nil {
		return false, nil
	}

	profile.Subscription = nil
	if profile.IsEmpty() {
		return s.repo.DeleteUser(ctx, chatID)
	}
	if err := s.repo.SaveUser(ctx, chatID, profile); err != nil {
		return false, err
	}
	s.logger.Info("Subscription removed", "chat_id", chatID)
	return true, nil
}

// Subscription returns the stored subscription, or nil when absent.
func (s *Service) Subscription(ctx context.Context, chatID int64) (*domain.Subscription, error) {
	profile, err := s.repo.GetUser(ctx, chatID)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return profile.Subscription, nil
}

// Subscriptions lists all chats with a subscription, ordered by
// delivery time then chat id.
func (s *Service) Subscriptions(ctx context.Context) ([]domain.SubscriptionEntry, error) {
	users, err := s.repo.AllUsers(ctx)
	if err != nil {
		return nil, err
	}

	entries := make([]domain.SubscriptionEntry, 0)
	for chatID, profile := range users {
		if profile.Subscription == nil {
			continue
		}
		entries = append(entries, domain.SubscriptionEntry{
			ChatID:       chatID,
			Subscription: *profile.Subscription,
			Home:         profile.Home,
			Language:     profile.Language,
		})
	}
	sortSubscriptions(entries)
	return entries, nil
}

// DeleteUserData removes everything stored for a chat.
func (s *Service) DeleteUserData(ctx context.Context, chatID int64) (bool, error) {
	return s.repo.DeleteUser(ctx, chatID)
}

// Close closes the service and its dependencies
func (s *Service) Close() error {
	return s.repo.Close()
}
