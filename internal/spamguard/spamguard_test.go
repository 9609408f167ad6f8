package spamguard_test

import (
	"strings"
	"testing"
	"time"

	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/spamguard"
)

func testConfig() spamguard.Config {
	return spamguard.Config{
		MaxRequestsPerMinute:  5,
		MaxRequestsPerHour:    20,
		MaxRequestsPerDay:     30,
		BlockDuration:         300 * time.Second,
		ExtendedBlockDuration: 3600 * time.Second,
		MinCooldown:           time.Second,
		MaxMessageLength:      50,
	}
}

func newGuard(t *testing.T, cfg spamguard.Config) *spamguard.Guard {
	t.Helper()
	guard, err := spamguard.New(cfg, logger.New("error"))
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}
	return guard
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*spamguard.Config)
	}{
		{"ZeroMinuteLimit", func(c *spamguard.Config) { c.MaxRequestsPerMinute = 0 }},
		{"NegativeHourLimit", func(c *spamguard.Config) { c.MaxRequestsPerHour = -1 }},
		{"ZeroDayLimit", func(c *spamguard.Config) { c.MaxRequestsPerDay = 0 }},
		{"ZeroBlockDuration", func(c *spamguard.Config) { c.BlockDuration = 0 }},
		{"ZeroExtendedDuration", func(c *spamguard.Config) { c.ExtendedBlockDuration = 0 }},
		{"NegativeCooldown", func(c *spamguard.Config) { c.MinCooldown = -time.Second }},
		{"ZeroMessageLength", func(c *spamguard.Config) { c.MaxMessageLength = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if _, err := spamguard.New(cfg, logger.New("error")); err == nil {
				t.Error("Expected error for invalid config, got nil")
			}
		})
	}

	if _, err := spamguard.New(testConfig(), nil); err == nil {
		t.Error("Expected error for nil logger, got nil")
	}
}

func TestAllowsNormalTraffic(t *testing.T) {
	guard := newGuard(t, testConfig())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		verdict := guard.Evaluate(1, "weather Berlin", true, now)
		if !verdict.Allowed() {
			t.Fatalf("Request %d unexpectedly blocked: %+v", i, verdict)
		}
		now = now.Add(2 * time.Second)
	}
}

func TestCooldownThrottlesWithoutBlocking(t *testing.T) {
	guard := newGuard(t, testConfig())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if verdict := guard.Evaluate(1, "hi", true, now); !verdict.Allowed() {
		t.Fatalf("First request unexpectedly blocked: %+v", verdict)
	}

	verdict := guard.Evaluate(1, "hi", true, now.Add(400*time.Millisecond))
	if !verdict.Blocked || verdict.Reason != spamguard.ReasonTooFast {
		t.Fatalf("Expected cooldown rejection, got %+v", verdict)
	}
	if verdict.Cooldown != 600*time.Millisecond {
		t.Errorf("Expected 600ms remaining cooldown, got %v", verdict.Cooldown)
	}

	// Cooldown never escalates: the user is not blocked afterwards.
	stats := guard.Stats(1, now.Add(400*time.Millisecond))
	if stats.IsBlocked || stats.BlockCount != 0 {
		t.Errorf("Cooldown must not block, got %+v", stats)
	}

	if verdict := guard.Evaluate(1, "hi", true, now.Add(2*time.Second)); !verdict.Allowed() {
		t.Errorf("Request after cooldown unexpectedly blocked: %+v", verdict)
	}
}

func TestOversizedMessageBlocks(t *testing.T) {
	guard := newGuard(t, testConfig())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	verdict := guard.Evaluate(1, strings.Repeat("x", 51), true, now)
	if !verdict.Blocked || verdict.Reason != spamguard.ReasonMessageTooLong {
		t.Fatalf("Expected too-long rejection, got %+v", verdict)
	}

	stats := guard.Stats(1, now)
	if !stats.IsBlocked || stats.BlockCount != 1 {
		t.Errorf("Expected an active first block, got %+v", stats)
	}

	// Multi-byte runes count as one character each.
	guard2 := newGuard(t, testConfig())
	if verdict := guard2.Evaluate(1, strings.Repeat("ä", 50), true, now); !verdict.Allowed() {
		t.Errorf("50-rune message unexpectedly blocked: %+v", verdict)
	}
}

func TestMinuteLimitBlocks(t *testing.T) {
	guard := newGuard(t, testConfig())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		if verdict := guard.Evaluate(1, "hi", true, now); !verdict.Allowed() {
			t.Fatalf("Request %d unexpectedly blocked: %+v", i, verdict)
		}
		now = now.Add(2 * time.Second)
	}

	verdict := guard.Evaluate(1, "hi", true, now)
	if !verdict.Blocked || verdict.Reason != spamguard.ReasonMinuteLimit {
		t.Fatalf("Expected per-minute rejection, got %+v", verdict)
	}
}

func TestMinuteWindowSlides(t *testing.T) {
	guard := newGuard(t, testConfig())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		guard.Evaluate(1, "hi", true, now)
		now = now.Add(2 * time.Second)
	}

	// 61 seconds after the first request the minute window has drained.
	verdict := guard.Evaluate(1, "hi", true, now.Add(55*time.Second))
	if !verdict.Allowed() {
		t.Fatalf("Request after window drain unexpectedly blocked: %+v", verdict)
	}
}

func TestHourLimitBlocks(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequestsPerMinute = 100
	guard := newGuard(t, cfg)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 20; i++ {
		if verdict := guard.Evaluate(1, "hi", true, now); !verdict.Allowed() {
			t.Fatalf("Request %d unexpectedly blocked: %+v", i, verdict)
		}
		now = now.Add(90 * time.Second)
	}

	verdict := guard.Evaluate(1, "hi", true, now)
	if !verdict.Blocked || verdict.Reason != spamguard.ReasonHourLimit {
		t.Fatalf("Expected per-hour rejection, got %+v", verdict)
	}
}

func TestDailyLimitBlocksAndResets(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequestsPerMinute = 1000
	cfg.MaxRequestsPerHour = 1000
	cfg.MaxRequestsPerDay = 10
	guard := newGuard(t, cfg)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 10; i++ {
		if verdict := guard.Evaluate(1, "hi", true, now); !verdict.Allowed() {
			t.Fatalf("Request %d unexpectedly blocked: %+v", i, verdict)
		}
		now = now.Add(2 * time.Minute)
	}

	verdict := guard.Evaluate(1, "hi", true, now)
	if !verdict.Blocked || verdict.Reason != spamguard.ReasonDailyLimit {
		t.Fatalf("Expected daily rejection, got %+v", verdict)
	}

	// The daily counter rolls over at the calendar date, after the block
	// has expired.
	nextDay := time.Date(2024, 6, 2, 14, 0, 0, 0, time.UTC)
	if verdict := guard.Evaluate(1, "hi", true, nextDay); !verdict.Allowed() {
		t.Fatalf("Request on the next day unexpectedly blocked: %+v", verdict)
	}
	if stats := guard.Stats(1, nextDay); stats.RequestsToday != 1 {
		t.Errorf("Expected daily counter reset to 1, got %d", stats.RequestsToday)
	}
}

func TestBlockNoticeThrottling(t *testing.T) {
	guard := newGuard(t, testConfig())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	guard.Evaluate(1, strings.Repeat("x", 100), true, now)

	// First evaluation after the block carries the notice.
	verdict := guard.Evaluate(1, "hi", true, now.Add(time.Second))
	if !verdict.Blocked || verdict.Silent || verdict.Reason != spamguard.ReasonActiveBlock {
		t.Fatalf("Expected audible block notice, got %+v", verdict)
	}
	if verdict.RetryAfter != 299*time.Second {
		t.Errorf("Expected 299s retry-after, got %v", verdict.RetryAfter)
	}

	// Subsequent evaluations within the notice interval are silent.
	verdict = guard.Evaluate(1, "hi", true, now.Add(2*time.Second))
	if !verdict.Blocked || !verdict.Silent {
		t.Fatalf("Expected silent drop, got %+v", verdict)
	}
}

func TestBlockNoticeRepeatsAfterInterval(t *testing.T) {
	cfg := testConfig()
	cfg.BlockDuration = 3600 * time.Second
	guard := newGuard(t, cfg)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	guard.Evaluate(1, strings.Repeat("x", 100), true, now)

	verdict := guard.Evaluate(1, "hi", true, now.Add(2*time.Second))
	if !verdict.Blocked || verdict.Silent {
		t.Fatalf("Expected audible first notice, got %+v", verdict)
	}

	verdict = guard.Evaluate(1, "hi", true, now.Add(10*time.Second))
	if !verdict.Blocked || !verdict.Silent {
		t.Fatalf("Expected silent drop inside the interval, got %+v", verdict)
	}

	// Still blocked well past the notice interval: the user is told again.
	verdict = guard.Evaluate(1, "hi", true, now.Add(303*time.Second))
	if !verdict.Blocked || verdict.Silent || verdict.Reason != spamguard.ReasonActiveBlock {
		t.Fatalf("Expected audible re-notice after the interval, got %+v", verdict)
	}

	// And the interval starts over from the repeated notice.
	verdict = guard.Evaluate(1, "hi", true, now.Add(305*time.Second))
	if !verdict.Blocked || !verdict.Silent {
		t.Errorf("Expected silent drop after the re-notice, got %+v", verdict)
	}
}

func TestRepeatedOffenseExtendsBlock(t *testing.T) {
	guard := newGuard(t, testConfig())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	guard.Evaluate(1, strings.Repeat("x", 100), true, now)

	stats := guard.Stats(1, now)
	if stats.BlockedUntil == nil || !stats.BlockedUntil.Equal(now.Add(300*time.Second)) {
		t.Fatalf("Expected first block of 300s, got %+v", stats)
	}

	// Second offense after the first block expired gets the extended
	// duration.
	later := now.Add(10 * time.Minute)
	guard.Evaluate(1, strings.Repeat("x", 100), true, later)

	stats = guard.Stats(1, later)
	if stats.BlockCount != 2 {
		t.Fatalf("Expected block count 2, got %d", stats.BlockCount)
	}
	if stats.BlockedUntil == nil || !stats.BlockedUntil.Equal(later.Add(3600*time.Second)) {
		t.Errorf("Expected extended block of 3600s, got %+v", stats)
	}
}

func TestUnblock(t *testing.T) {
	guard := newGuard(t, testConfig())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	if guard.Unblock(1) {
		t.Error("Unblock of unknown user should return false")
	}

	guard.Evaluate(1, strings.Repeat("x", 100), true, now)
	if !guard.Unblock(1) {
		t.Fatal("Unblock of blocked user should return true")
	}

	verdict := guard.Evaluate(1, "hi", true, now.Add(2*time.Second))
	if !verdict.Allowed() {
		t.Errorf("Request after unblock unexpectedly blocked: %+v", verdict)
	}
	if ids := guard.BlockedUsers(); len(ids) != 0 {
		t.Errorf("Expected empty blocked set, got %v", ids)
	}
}

func TestUsersAreIndependent(t *testing.T) {
	guard := newGuard(t, testConfig())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	guard.Evaluate(1, strings.Repeat("x", 100), true, now)

	verdict := guard.Evaluate(2, "hi", true, now)
	if !verdict.Allowed() {
		t.Errorf("Unrelated user unexpectedly blocked: %+v", verdict)
	}
}

func TestPassiveProbesAreNotCounted(t *testing.T) {
	cfg := testConfig()
	cfg.MinCooldown = 0
	guard := newGuard(t, cfg)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	// Far more probes than the minute limit, none counted.
	for i := 0; i < 20; i++ {
		verdict := guard.Evaluate(1, "", false, now)
		if !verdict.Allowed() {
			t.Fatalf("Probe %d unexpectedly blocked: %+v", i, verdict)
		}
		now = now.Add(time.Second)
	}

	if stats := guard.Stats(1, now); stats.RequestsToday != 0 {
		t.Errorf("Probes must not count against the daily limit, got %d", stats.RequestsToday)
	}
}

func TestSnapshot(t *testing.T) {
	guard := newGuard(t, testConfig())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		guard.Evaluate(1, "hi", true, now.Add(time.Duration(i)*10*time.Second))
	}
	guard.Evaluate(2, "hi", true, now)
	guard.Evaluate(3, strings.Repeat("x", 100), true, now)

	overview := guard.Snapshot(2, now.Add(time.Minute))
	if overview.TrackedUsers != 3 {
		t.Errorf("Expected 3 tracked users, got %d", overview.TrackedUsers)
	}
	if overview.BlockedUsers != 1 {
		t.Errorf("Expected 1 blocked user, got %d", overview.BlockedUsers)
	}
	if len(overview.Top) != 2 {
		t.Fatalf("Expected top list truncated to 2, got %d", len(overview.Top))
	}
	if overview.Top[0].UserID != 1 || overview.Top[0].RequestsToday != 3 {
		t.Errorf("Unexpected top entry %+v", overview.Top[0])
	}
}

func TestCleanup(t *testing.T) {
	guard := newGuard(t, testConfig())
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	guard.Evaluate(1, "hi", true, now)
	guard.Evaluate(2, strings.Repeat("x", 100), true, now)

	// Nobody is old enough yet.
	if purged := guard.Cleanup(now.Add(time.Hour), spamguard.DefaultCleanupAge); purged != 0 {
		t.Errorf("Expected no purges, got %d", purged)
	}

	purged := guard.Cleanup(now.Add(31*24*time.Hour), spamguard.DefaultCleanupAge)
	if purged != 2 {
		t.Errorf("Expected 2 purged records, got %d", purged)
	}
	if overview := guard.Snapshot(10, now); overview.TrackedUsers != 0 || overview.BlockedUsers != 0 {
		t.Errorf("Expected empty guard after cleanup, got %+v", overview)
	}
}
