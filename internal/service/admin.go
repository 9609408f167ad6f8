package service

import (
	"context"
	"sort"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/quota"
	"github.com/akarpov/weatherbot/internal/spamguard"
	"github.com/akarpov/weatherbot/internal/weather"
)

// Stats builds the admin overview of the tracked user population.
func (s *Service) Stats() spamguard.Overview {
	return s.guard.Snapshot(topUsersLimit, s.clock())
}

// UserInfo returns the abuse-tracking snapshot for one user.
func (s *Service) UserInfo(userID int64) domain.UserStats {
	return s.guard.Stats(userID, s.clock())
}

// UnblockUser lifts an active block. False means the user was never seen.
func (s *Service) UnblockUser(userID int64) bool {
	return s.guard.Unblock(userID)
}

// CleanupSpam purges abuse-tracking records of long-inactive users and
// returns how many were removed.
func (s *Service) CleanupSpam() int {
	return s.guard.Cleanup(s.clock(), spamguard.DefaultCleanupAge)
}

// QuotaStatus reports the external API quota ledger state.
func (s *Service) QuotaStatus() (quota.Status, error) {
	return s.quota.Status(s.clock())
}

// MarkQuotaAlertSent records that an alert for the given threshold was
// delivered, so it is not repeated within the same reset cycle.
func (s *Service) MarkQuotaAlertSent(threshold float64, status quota.Status) {
	s.quota.MarkAlertSent(threshold, status.ResetAt)
}

// TestWeather fetches weather for an arbitrary city without counting it
// against any user. The API quota is still consumed.
func (s *Service) TestWeather(ctx context.Context, city string) (weather.Report, string, error) {
	return s.WeatherByCity(ctx, city)
}

// SpamLimits returns the configured abuse thresholds.
func (s *Service) SpamLimits() spamguard.Config {
	return s.guard.Limits()
}

func sortSubscriptions(entries []domain.SubscriptionEntry) {
	sort.Slice(entries, func(i, j int) bool {
		a, b := entries[i], entries[j]
		if a.Subscription.Hour != b.Subscription.Hour {
			return a.Subscription.Hour < b.Subscription.Hour
		}
		if a.Subscription.Minute != b.Subscription.Minute {
			return a.Subscription.Minute < b.Subscription.Minute
		}
		return a.ChatID < b.ChatID
	})
}
