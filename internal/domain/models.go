package domain

import (
	"context"
	"fmt"
	"time"
)

// Home is a user's saved home location for weather lookups.
type Home struct {
	Lat      float64
	Lon      float64
	Label    string
	Timezone string // IANA name, may be empty
}

// Subscription is a daily forecast delivery time in the user's timezone.
type Subscription struct {
	Hour   int
	Minute int
}

// Validate checks that the subscription time is a valid wall-clock time.
func (s Subscription) Validate() error {
	if s.Hour < 0 || s.Hour > 23 {
		return fmt.Errorf("invalid subscription hour: %d", s.Hour)
	}
	if s.Minute < 0 || s.Minute > 59 {
		return fmt.Errorf("invalid subscription minute: %d", s.Minute)
	}
	return nil
}

// UserProfile holds everything the bot remembers about a chat.
type UserProfile struct {
	Language     string
	Home         *Home
	Subscription *Subscription
}

// IsEmpty returns true if the profile carries no information worth persisting.
func (p *UserProfile) IsEmpty() bool {
	return p.Home == nil && p.Subscription == nil && p.Language == ""
}

// UserStats is the abuse-tracking snapshot for a single user, as shown
// to administrators.
type UserStats struct {
	RequestsToday int
	IsBlocked     bool
	BlockCount    int
	BlockedUntil  *time.Time
}

// SubscriptionEntry pairs a chat with its daily forecast subscription.
type SubscriptionEntry struct {
	ChatID       int64
	Subscription Subscription
	Home         *Home
	Language     string
}

// Repository is the interface that all user-profile storage backends must satisfy
type Repository interface {
	GetUser(ctx context.Context, chatID int64) (*UserProfile, error)
	SaveUser(ctx context.Context, chatID int64, profile *UserProfile) error
	DeleteUser(ctx context.Context, chatID int64) (bool, error)
	AllUsers(ctx context.Context) (map[int64]*UserProfile, error)
	Close() error
}
