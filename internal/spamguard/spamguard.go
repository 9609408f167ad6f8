package spamguard

import (
	"fmt"
	"sort"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/logger"
)

// blockNoticeInterval is how long a blocked user stays muted between
// repeated "you are blocked" notices.
const blockNoticeInterval = 300 * time.Second

// DefaultCleanupAge is how long an inactive user's record is kept.
const DefaultCleanupAge = 30 * 24 * time.Hour

// Config holds the abuse-mitigation thresholds. All limits must be
// positive; New rejects anything else.
type Config struct {
	MaxRequestsPerMinute  int
	MaxRequestsPerHour    int
	MaxRequestsPerDay     int
	BlockDuration         time.Duration
	ExtendedBlockDuration time.Duration
	MinCooldown           time.Duration
	MaxMessageLength      int
}

// DefaultConfig returns the stock thresholds.
func DefaultConfig() Config {
	return Config{
		MaxRequestsPerMinute:  30,
		MaxRequestsPerHour:    200,
		MaxRequestsPerDay:     300,
		BlockDuration:         300 * time.Second,
		ExtendedBlockDuration: 3600 * time.Second,
		MinCooldown:           time.Second,
		MaxMessageLength:      1000,
	}
}

func (c Config) validate() error {
	if c.MaxRequestsPerMinute <= 0 {
		return fmt.Errorf("max requests per minute must be positive, got %d", c.MaxRequestsPerMinute)
	}
	if c.MaxRequestsPerHour <= 0 {
		return fmt.Errorf("max requests per hour must be positive, got %d", c.MaxRequestsPerHour)
	}
	if c.MaxRequestsPerDay <= 0 {
		return fmt.Errorf("max requests per day must be positive, got %d", c.MaxRequestsPerDay)
	}
	if c.BlockDuration <= 0 {
		return fmt.Errorf("block duration must be positive, got %v", c.BlockDuration)
	}
	if c.ExtendedBlockDuration <= 0 {
		return fmt.Errorf("extended block duration must be positive, got %v", c.ExtendedBlockDuration)
	}
	if c.MinCooldown < 0 {
		return fmt.Errorf("min cooldown must not be negative, got %v", c.MinCooldown)
	}
	if c.MaxMessageLength <= 0 {
		return fmt.Errorf("max message length must be positive, got %d", c.MaxMessageLength)
	}
	return nil
}

// Reason identifies why a request was throttled. Values double as
// translation keys; the transport layer renders them for the user.
type Reason string

const (
	// ReasonActiveBlock is returned while a previously applied block
	// has not yet expired.
	ReasonActiveBlock Reason = "spam_blocked_message"
	// ReasonMessageTooLong is returned for oversized message payloads.
	ReasonMessageTooLong Reason = "spam_message_too_long"
	// ReasonTooFast is the soft cooldown throttle. It never escalates
	// into a block.
	ReasonTooFast Reason = "spam_too_fast"
	// ReasonMinuteLimit, ReasonHourLimit and ReasonDailyLimit are the
	// sliding-window ceilings. Each triggers a block.
	ReasonMinuteLimit Reason = "spam_rate_limit_minute"
	ReasonHourLimit   Reason = "spam_rate_limit_hour"
	ReasonDailyLimit  Reason = "spam_daily_limit"
)

// Verdict is the outcome of evaluating one inbound request.
//
// Exactly one of three shapes comes back: allowed (Blocked false),
// blocked with a reason to show the user, or blocked silently
// (Silent true, nothing may be sent to the user).
type Verdict struct {
	Blocked bool
	Silent  bool
	Reason  Reason
	// RetryAfter is the remaining block time for ReasonActiveBlock.
	RetryAfter time.Duration
	// Cooldown is the remaining wait for ReasonTooFast.
	Cooldown time.Duration
}

// Allowed reports whether the request may proceed.
func (v Verdict) Allowed() bool { return !v.Blocked }

// activity is the per-user abuse-tracking record. All fields are
// guarded by the Guard's mutex.
type activity struct {
	requestTimes    []time.Time // requests in the trailing hour, pruned lazily
	lastRequest     time.Time
	blockedUntil    time.Time
	blockCount      int // cumulative, never reset
	dailyRequests   int
	lastResetDate   string // calendar date the daily counter was reset for
	lastBlockNotice time.Time
}

// Guard classifies inbound user actions as allowed or throttled and
// applies escalating temporary blocks. State is in-memory only and
// re-accumulates from empty after a restart.
type Guard struct {
	cfg        Config
	logger     *logger.Logger
	mu         sync.Mutex
	activities map[int64]*activity
	blocked    map[int64]struct{}
}

// New creates a guard with the given thresholds.
func New(cfg Config, log *logger.Logger) (*Guard, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("invalid spam guard config: %w", err)
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Guard{
		cfg:        cfg,
		logger:     log,
		activities: make(map[int64]*activity),
		blocked:    make(map[int64]struct{}),
	}, nil
}

// Evaluate decides whether the request identified by userID may proceed.
// countRequest distinguishes content-bearing requests (counted against
// the per-minute/hour/day ceilings) from passive probes such as callback
// queries, which only refresh the cooldown timestamp.
//
// now is supplied by the caller so the decision chain is deterministic.
func (g *Guard) Evaluate(userID int64, messageText string, countRequest bool, now time.Time) Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()

	act := g.getOrCreate(userID)

	// Daily counter rolls over at the local calendar date.
	today := now.Format("2006-01-02")
	if act.lastResetDate != today {
		act.dailyRequests = 0
		act.lastResetDate = today
	}

	// An active block wins over everything else. The user is told once,
	// then muted for blockNoticeInterval to avoid notification spam.
	if act.blockedUntil.After(now) {
		remaining := act.blockedUntil.Sub(now)
		if act.lastBlockNotice.IsZero() || now.Sub(act.lastBlockNotice) > blockNoticeInterval {
			act.lastBlockNotice = now
			return Verdict{Blocked: true, Reason: ReasonActiveBlock, RetryAfter: remaining}
		}
		return Verdict{Blocked: true, Silent: true}
	}

	if utf8.RuneCountInString(messageText) > g.cfg.MaxMessageLength {
		g.block(userID, act, "message too long", now)
		return Verdict{Blocked: true, Reason: ReasonMessageTooLong}
	}

	// Cooldown is a soft throttle: it rejects the request but never
	// escalates into a block, and applies to passive probes too.
	sinceLast := now.Sub(act.lastRequest)
	if sinceLast < g.cfg.MinCooldown {
		remaining := g.cfg.MinCooldown - sinceLast
		g.logger.Debug("Request under cooldown", "user_id", userID, "since_last", sinceLast)
		return Verdict{Blocked: true, Reason: ReasonTooFast, Cooldown: remaining}
	}

	if !countRequest {
		act.lastRequest = now
		return Verdict{}
	}

	// Prune the rolling-hour window before counting.
	hourAgo := now.Add(-time.Hour)
	kept := act.requestTimes[:0]
	for _, t := range act.requestTimes {
		if t.After(hourAgo) {
			kept = append(kept, t)
		}
	}
	act.requestTimes = kept

	minuteAgo := now.Add(-time.Minute)
	lastMinute := 0
	for _, t := range act.requestTimes {
		if t.After(minuteAgo) {
			lastMinute++
		}
	}

	if lastMinute >= g.cfg.MaxRequestsPerMinute {
		g.block(userID, act, "per-minute limit exceeded", now)
		return Verdict{Blocked: true, Reason: ReasonMinuteLimit}
	}
	if len(act.requestTimes) >= g.cfg.MaxRequestsPerHour {
		g.block(userID, act, "per-hour limit exceeded", now)
		return Verdict{Blocked: true, Reason: ReasonHourLimit}
	}
	if act.dailyRequests >= g.cfg.MaxRequestsPerDay {
		g.block(userID, act, "daily limit exceeded", now)
		return Verdict{Blocked: true, Reason: ReasonDailyLimit}
	}

	act.requestTimes = append(act.requestTimes, now)
	act.lastRequest = now
	act.dailyRequests++
	return Verdict{}
}

// block applies an escalating temporary block. Must be called with the
// mutex held. The first offense gets the short duration, every later
// one the extended duration. Resetting lastBlockNotice guarantees the
// next evaluation sends a non-silent notice.
func (g *Guard) block(userID int64, act *activity, reason string, now time.Time) {
	act.blockCount++

	duration := g.cfg.BlockDuration
	if act.blockCount > 1 {
		duration = g.cfg.ExtendedBlockDuration
	}
	act.blockedUntil = now.Add(duration)
	act.lastBlockNotice = time.Time{}
	g.blocked[userID] = struct{}{}

	g.logger.Warn("User blocked",
		"user_id", userID,
		"duration", duration,
		"reason", reason,
		"offense", act.blockCount)
}

// Unblock lifts an active block. It returns false if the user has no
// record at all.
func (g *Guard) Unblock(userID int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	act, ok := g.activities[userID]
	if !ok {
		return false
	}
	act.blockedUntil = time.Time{}
	act.lastBlockNotice = time.Time{}
	delete(g.blocked, userID)
	g.logger.Info("User unblocked", "user_id", userID)
	return true
}

// Stats returns the admin-facing snapshot for a user.
func (g *Guard) Stats(userID int64, now time.Time) domain.UserStats {
	g.mu.Lock()
	defer g.mu.Unlock()

	act, ok := g.activities[userID]
	if !ok {
		return domain.UserStats{}
	}

	stats := domain.UserStats{
		RequestsToday: act.dailyRequests,
		IsBlocked:     act.blockedUntil.After(now),
		BlockCount:    act.blockCount,
	}
	if stats.IsBlocked {
		until := act.blockedUntil
		stats.BlockedUntil = &until
	}
	return stats
}

// UserActivity is one row of the admin stats overview.
type UserActivity struct {
	UserID        int64
	RequestsToday int
	IsBlocked     bool
}

// Overview summarizes the tracked population for administrators.
type Overview struct {
	TrackedUsers int
	BlockedUsers int
	// Top holds up to the requested number of users, ordered by
	// requests today descending.
	Top []UserActivity
}

// Snapshot builds the admin stats overview with at most topN top users.
func (g *Guard) Snapshot(topN int, now time.Time) Overview {
	g.mu.Lock()
	defer g.mu.Unlock()

	top := make([]UserActivity, 0, len(g.activities))
	for userID, act := range g.activities {
		top = append(top, UserActivity{
			UserID:        userID,
			RequestsToday: act.dailyRequests,
			IsBlocked:     act.blockedUntil.After(now),
		})
	}
	sort.Slice(top, func(i, j int) bool {
		if top[i].RequestsToday != top[j].RequestsToday {
			return top[i].RequestsToday > top[j].RequestsToday
		}
		return top[i].UserID < top[j].UserID
	})
	if len(top) > topN {
		top = top[:topN]
	}

	return Overview{
		TrackedUsers: len(g.activities),
		BlockedUsers: len(g.blocked),
		Top:          top,
	}
}

// BlockedUsers returns the ids of all users ever blocked and not yet
// unblocked or purged, in ascending order.
func (g *Guard) BlockedUsers() []int64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]int64, 0, len(g.blocked))
	for id := range g.blocked {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Cleanup purges records of users whose last request is older than
// maxAge, also dropping them from the blocked set. Called periodically
// by the job scheduler.
func (g *Guard) Cleanup(now time.Time, maxAge time.Duration) int {
	g.mu.Lock()
	defer g.mu.Unlock()

	purged := 0
	for userID, act := range g.activities {
		if now.Sub(act.lastRequest) > maxAge {
			delete(g.activities, userID)
			delete(g.blocked, userID)
			purged++
		}
	}
	if purged > 0 {
		g.logger.Info("Purged inactive user records", "count", purged)
	}
	return purged
}

// Limits returns the configured thresholds, for admin introspection.
func (g *Guard) Limits() Config {
	return g.cfg
}

// getOrCreate must be called with the mutex held.
func (g *Guard) getOrCreate(userID int64) *activity {
	act, ok := g.activities[userID]
	if !ok {
		act = &activity{}
		g.activities[userID] = act
	}
	return act
}
