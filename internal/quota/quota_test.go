package quota_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/quota"
)

func newLedger(t *testing.T, limit int) (*quota.Ledger, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "quota.json")
	ledger, err := quota.New(path, limit, logger.New("error"))
	if err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}
	return ledger, path
}

func mustConsume(t *testing.T, ledger *quota.Ledger, now time.Time) {
	t.Helper()
	resetAt, err := ledger.TryConsume(now)
	if err != nil {
		t.Fatalf("Error consuming quota: %v", err)
	}
	if resetAt != nil {
		t.Fatalf("Expected consumption, got exhaustion with reset at %v", resetAt)
	}
}

func TestNewRejectsInvalidArguments(t *testing.T) {
	log := logger.New("error")

	if _, err := quota.New("", 10, log); err == nil {
		t.Error("Expected error for empty path")
	}
	if _, err := quota.New("quota.json", 0, log); err == nil {
		t.Error("Expected error for zero limit")
	}
	if _, err := quota.New("quota.json", -5, log); err == nil {
		t.Error("Expected error for negative limit")
	}
	if _, err := quota.New("quota.json", 10, nil); err == nil {
		t.Error("Expected error for nil logger")
	}
}

func TestConsumeUntilExhausted(t *testing.T) {
	ledger, _ := newLedger(t, 3)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		mustConsume(t, ledger, now.Add(time.Duration(i)*time.Minute))
	}

	resetAt, err := ledger.TryConsume(now.Add(10 * time.Minute))
	if err != nil {
		t.Fatalf("Error consuming quota: %v", err)
	}
	if resetAt == nil {
		t.Fatal("Expected exhaustion, got consumption")
	}
	// The quota frees up 24h after the oldest consumed unit.
	if want := now.Add(24 * time.Hour); !resetAt.Equal(want) {
		t.Errorf("Expected reset at %v, got %v", want, resetAt)
	}
}

func TestWindowSlides(t *testing.T) {
	ledger, _ := newLedger(t, 2)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mustConsume(t, ledger, now)
	mustConsume(t, ledger, now.Add(time.Hour))

	if resetAt, _ := ledger.TryConsume(now.Add(2 * time.Hour)); resetAt == nil {
		t.Fatal("Expected exhaustion within the window")
	}

	// 24h after the first unit, one slot frees up.
	mustConsume(t, ledger, now.Add(24*time.Hour+time.Second))

	status, err := ledger.Status(now.Add(24*time.Hour + time.Minute))
	if err != nil {
		t.Fatalf("Error reading status: %v", err)
	}
	if status.Used != 2 {
		t.Errorf("Expected 2 used after slide, got %d", status.Used)
	}
}

func TestStatusReportsUsage(t *testing.T) {
	ledger, _ := newLedger(t, 10)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	status, err := ledger.Status(now)
	if err != nil {
		t.Fatalf("Error reading status: %v", err)
	}
	if status.Used != 0 || status.Remaining != 10 || status.ResetAt != nil {
		t.Errorf("Unexpected empty status %+v", status)
	}

	for i := 0; i < 4; i++ {
		mustConsume(t, ledger, now.Add(time.Duration(i)*time.Minute))
	}

	status, _ = ledger.Status(now.Add(5 * time.Minute))
	if status.Used != 4 || status.Remaining != 6 {
		t.Errorf("Expected 4/10 used, got %+v", status)
	}
	if status.Ratio != 0.4 {
		t.Errorf("Expected ratio 0.4, got %v", status.Ratio)
	}
	if status.ResetAt == nil || !status.ResetAt.Equal(now.Add(24*time.Hour)) {
		t.Errorf("Unexpected reset time %v", status.ResetAt)
	}
	if len(status.PendingAlertThresholds) != 0 {
		t.Errorf("Expected no pending alerts at 40%%, got %v", status.PendingAlertThresholds)
	}
}

func TestAlertThresholds(t *testing.T) {
	ledger, _ := newLedger(t, 10)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 8; i++ {
		mustConsume(t, ledger, now.Add(time.Duration(i)*time.Second))
	}

	status, _ := ledger.Status(now.Add(time.Minute))
	if len(status.PendingAlertThresholds) != 1 || status.PendingAlertThresholds[0] != 0.8 {
		t.Fatalf("Expected pending [0.8], got %v", status.PendingAlertThresholds)
	}

	// Acknowledged alerts stay acknowledged within the cycle.
	ledger.MarkAlertSent(0.8, status.ResetAt)
	status, _ = ledger.Status(now.Add(2 * time.Minute))
	if len(status.PendingAlertThresholds) != 0 {
		t.Fatalf("Expected no pending alerts after acknowledgement, got %v", status.PendingAlertThresholds)
	}

	// Crossing further thresholds re-arms only the higher ones.
	mustConsume(t, ledger, now.Add(3*time.Minute))
	mustConsume(t, ledger, now.Add(3*time.Minute+time.Second))

	status, _ = ledger.Status(now.Add(4 * time.Minute))
	want := []float64{0.9, 1.0}
	if len(status.PendingAlertThresholds) != len(want) {
		t.Fatalf("Expected pending %v, got %v", want, status.PendingAlertThresholds)
	}
	for i, threshold := range want {
		if status.PendingAlertThresholds[i] != threshold {
			t.Errorf("Expected pending %v, got %v", want, status.PendingAlertThresholds)
		}
	}

	ledger.MarkAlertSent(1.0, status.ResetAt)
	status, _ = ledger.Status(now.Add(5 * time.Minute))
	if len(status.PendingAlertThresholds) != 0 {
		t.Errorf("Expected no pending alerts after full acknowledgement, got %v", status.PendingAlertThresholds)
	}
}

func TestAlertWatermarkResetsWithNewCycle(t *testing.T) {
	ledger, _ := newLedger(t, 2)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mustConsume(t, ledger, now)
	mustConsume(t, ledger, now.Add(time.Second))

	status, _ := ledger.Status(now.Add(time.Minute))
	if len(status.PendingAlertThresholds) == 0 {
		t.Fatal("Expected pending alerts at 100%")
	}
	ledger.MarkAlertSent(1.0, status.ResetAt)

	// A day later everything expired; consuming again starts a new cycle
	// with a fresh watermark.
	later := now.Add(25 * time.Hour)
	mustConsume(t, ledger, later)
	mustConsume(t, ledger, later.Add(time.Second))

	status, _ = ledger.Status(later.Add(time.Minute))
	if len(status.PendingAlertThresholds) == 0 {
		t.Error("Expected alerts to re-arm in a new cycle")
	}
}

func TestPersistenceAcrossInstances(t *testing.T) {
	ledger, path := newLedger(t, 5)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 3; i++ {
		mustConsume(t, ledger, now.Add(time.Duration(i)*time.Minute))
	}

	reopened, err := quota.New(path, 5, logger.New("error"))
	if err != nil {
		t.Fatalf("Failed to reopen ledger: %v", err)
	}
	status, err := reopened.Status(now.Add(10 * time.Minute))
	if err != nil {
		t.Fatalf("Error reading reopened status: %v", err)
	}
	if status.Used != 3 {
		t.Errorf("Expected 3 used after reopen, got %d", status.Used)
	}
}

func TestLoadsTimestampsWithoutZone(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota.json")
	content := `["2024-06-01T12:00:00", "2024-06-01T12:05:00.123456", "garbage"]`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	ledger, err := quota.New(path, 5, logger.New("error"))
	if err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}

	status, err := ledger.Status(time.Date(2024, 6, 1, 13, 0, 0, 0, time.UTC))
	if err != nil {
		t.Fatalf("Error reading status: %v", err)
	}
	// Zone-less stamps are read as UTC, the invalid entry is dropped.
	if status.Used != 2 {
		t.Errorf("Expected 2 used, got %d", status.Used)
	}
}

func TestCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "quota.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("Failed to seed file: %v", err)
	}

	ledger, err := quota.New(path, 5, logger.New("error"))
	if err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}

	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)
	mustConsume(t, ledger, now)

	status, _ := ledger.Status(now.Add(time.Minute))
	if status.Used != 1 {
		t.Errorf("Expected fresh ledger after corruption, got %d used", status.Used)
	}
}

func TestReset(t *testing.T) {
	ledger, _ := newLedger(t, 2)
	now := time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

	mustConsume(t, ledger, now)
	mustConsume(t, ledger, now.Add(time.Second))
	if resetAt, _ := ledger.TryConsume(now.Add(2 * time.Second)); resetAt == nil {
		t.Fatal("Expected exhaustion before reset")
	}

	if err := ledger.Reset(); err != nil {
		t.Fatalf("Error resetting ledger: %v", err)
	}

	mustConsume(t, ledger, now.Add(3*time.Second))
	status, _ := ledger.Status(now.Add(time.Minute))
	if status.Used != 1 {
		t.Errorf("Expected 1 used after reset, got %d", status.Used)
	}
}
