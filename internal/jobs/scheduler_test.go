package jobs_test

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/akarpov/weatherbot/internal/config"
	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/geocode"
	"github.com/akarpov/weatherbot/internal/i18n"
	"github.com/akarpov/weatherbot/internal/jobs"
	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/quota"
	"github.com/akarpov/weatherbot/internal/service"
	"github.com/akarpov/weatherbot/internal/spamguard"
	"github.com/akarpov/weatherbot/internal/weather"
)

type fakeRepo struct {
	users map[int64]*domain.UserProfile
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{users: make(map[int64]*domain.UserProfile)}
}

func (r *fakeRepo) GetUser(_ context.Context, chatID int64) (*domain.UserProfile, error) {
	p, ok := r.users[chatID]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	copied := *p
	return &copied, nil
}

func (r *fakeRepo) SaveUser(_ context.Context, chatID int64, profile *domain.UserProfile) error {
	copied := *profile
	r.users[chatID] = &copied
	return nil
}

func (r *fakeRepo) DeleteUser(_ context.Context, chatID int64) (bool, error) {
	if _, ok := r.users[chatID]; !ok {
		return false, nil
	}
	delete(r.users, chatID)
	return true, nil
}

func (r *fakeRepo) AllUsers(_ context.Context) (map[int64]*domain.UserProfile, error) {
	out := make(map[int64]*domain.UserProfile, len(r.users))
	for id, p := range r.users {
		copied := *p
		out[id] = &copied
	}
	return out, nil
}

func (r *fakeRepo) Close() error { return nil }

type stubProvider struct{}

func (stubProvider) Fetch(_ context.Context, lat, lon float64) (weather.Report, error) {
	temp := 18.5
	return weather.Report{Current: weather.Current{Temperature: &temp}}, nil
}

type stubGeocoder struct{}

func (stubGeocoder) GeocodeCity(_ context.Context, city string) (geocode.Place, error) {
	return geocode.Place{Lat: 52.52, Lon: 13.4, Label: "Berlin"}, nil
}

type fakeMessenger struct {
	plain       map[int64][]string
	html        map[int64][]string
	alertChecks int
}

func newFakeMessenger() *fakeMessenger {
	return &fakeMessenger{plain: make(map[int64][]string), html: make(map[int64][]string)}
}

func (m *fakeMessenger) SendMessage(chatID int64, text string) {
	m.plain[chatID] = append(m.plain[chatID], text)
}

func (m *fakeMessenger) SendHTML(chatID int64, text string) {
	m.html[chatID] = append(m.html[chatID], text)
}

func (m *fakeMessenger) CheckQuotaAlerts() { m.alertChecks++ }

type schedulerFixture struct {
	scheduler *jobs.Scheduler
	messenger *fakeMessenger
	repo      *fakeRepo
	cfg       *config.Config
}

func newSchedulerFixture(t *testing.T, quotaLimit int) *schedulerFixture {
	t.Helper()

	l := logger.New("error")
	guard, err := spamguard.New(spamguard.DefaultConfig(), l)
	if err != nil {
		t.Fatalf("Failed to create guard: %v", err)
	}
	ledger, err := quota.New(filepath.Join(t.TempDir(), "quota.json"), quotaLimit, l)
	if err != nil {
		t.Fatalf("Failed to create ledger: %v", err)
	}

	repo := newFakeRepo()
	svc := service.NewForTest(repo, guard, ledger, stubProvider{}, stubGeocoder{}, l, nil)

	cfg := config.New()
	cfg.Telegram.Timezone = "UTC"

	translator := i18n.NewWithConfig(cfg)
	i18n.LoadDefaultTranslations(translator)

	messenger := newFakeMessenger()
	scheduler := jobs.New(svc, messenger, translator, cfg, l, nil)
	return &schedulerFixture{scheduler: scheduler, messenger: messenger, repo: repo, cfg: cfg}
}

func subscribedUser(lang, tz string, hour, minute int) *domain.UserProfile {
	return &domain.UserProfile{
		Language:     lang,
		Home:         &domain.Home{Lat: 52.52, Lon: 13.4, Label: "Berlin", Timezone: tz},
		Subscription: &domain.Subscription{Hour: hour, Minute: minute},
	}
}

func TestDeliveryAtSubscribedTime(t *testing.T) {
	f := newSchedulerFixture(t, 100)
	f.repo.users[10] = subscribedUser("en", "UTC", 8, 30)

	f.scheduler.RunPending(time.Date(2024, 6, 1, 8, 29, 0, 0, time.UTC))
	if len(f.messenger.html[10]) != 0 {
		t.Fatalf("Expected no delivery before subscribed time, got %d", len(f.messenger.html[10]))
	}

	f.scheduler.RunPending(time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC))
	if len(f.messenger.html[10]) != 1 {
		t.Fatalf("Expected 1 delivery at subscribed time, got %d", len(f.messenger.html[10]))
	}
	if !strings.Contains(f.messenger.html[10][0], "08:30") {
		t.Errorf("Expected delivery header with subscribed time, got %q", f.messenger.html[10][0])
	}
	if f.messenger.alertChecks != 1 {
		t.Errorf("Expected quota alert check after delivery, got %d", f.messenger.alertChecks)
	}
}

func TestDeliveryOncePerDay(t *testing.T) {
	f := newSchedulerFixture(t, 100)
	f.repo.users[10] = subscribedUser("en", "UTC", 8, 30)

	f.scheduler.RunPending(time.Date(2024, 6, 1, 8, 30, 0, 0, time.UTC))
	f.scheduler.RunPending(time.Date(2024, 6, 1, 8, 31, 0, 0, time.UTC))
	f.scheduler.RunPending(time.Date(2024, 6, 1, 17, 0, 0, 0, time.UTC))
	if len(f.messenger.html[10]) != 1 {
		t.Fatalf("Expected 1 delivery per day, got %d", len(f.messenger.html[10]))
	}

	f.scheduler.RunPending(time.Date(2024, 6, 2, 8, 30, 0, 0, time.UTC))
	if len(f.messenger.html[10]) != 2 {
		t.Fatalf("Expected second delivery the next day, got %d", len(f.messenger.html[10]))
	}
}

func TestDeliveryCatchesUpMissedTick(t *testing.T) {
	f := newSchedulerFixture(t, 100)
	f.repo.users[10] = subscribedUser("en", "UTC", 8, 30)

	// The first check of the day happens after the subscribed minute.
	f.scheduler.RunPending(time.Date(2024, 6, 1, 9, 45, 0, 0, time.UTC))
	if len(f.messenger.html[10]) != 1 {
		t.Fatalf("Expected a late delivery, got %d", len(f.messenger.html[10]))
	}
}

func TestDeliveryHonorsHomeTimezone(t *testing.T) {
	f := newSchedulerFixture(t, 100)
	f.repo.users[10] = subscribedUser("ru", "Europe/Moscow", 9, 0)

	// 05:59 UTC is 08:59 in Moscow.
	f.scheduler.RunPending(time.Date(2024, 6, 1, 5, 59, 0, 0, time.UTC))
	if len(f.messenger.html[10]) != 0 {
		t.Fatalf("Expected no delivery before 09:00 Moscow time")
	}

	// 06:00 UTC is 09:00 in Moscow.
	f.scheduler.RunPending(time.Date(2024, 6, 1, 6, 0, 0, 0, time.UTC))
	if len(f.messenger.html[10]) != 1 {
		t.Fatalf("Expected delivery at 09:00 Moscow time, got %d", len(f.messenger.html[10]))
	}
}

func TestDeliveryQuotaExceeded(t *testing.T) {
	f := newSchedulerFixture(t, 1)
	f.repo.users[10] = subscribedUser("en", "UTC", 8, 0)
	f.repo.users[20] = subscribedUser("en", "UTC", 8, 0)

	f.scheduler.RunPending(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))

	delivered := len(f.messenger.html[10]) + len(f.messenger.html[20])
	if delivered != 1 {
		t.Fatalf("Expected exactly 1 forecast within quota, got %d", delivered)
	}
	notified := len(f.messenger.plain[10]) + len(f.messenger.plain[20])
	if notified != 1 {
		t.Fatalf("Expected the over-quota subscriber to be notified, got %d messages", notified)
	}
	if f.messenger.alertChecks != 2 {
		t.Errorf("Expected quota alert checks for both attempts, got %d", f.messenger.alertChecks)
	}
}

func TestDailyBackup(t *testing.T) {
	f := newSchedulerFixture(t, 100)

	dir := t.TempDir()
	source := filepath.Join(dir, "storage.json")
	if err := os.WriteFile(source, []byte("{}"), 0o600); err != nil {
		t.Fatalf("Failed to write storage file: %v", err)
	}
	f.cfg.Storage.ConnectionString = source
	backupDir := filepath.Join(dir, "backups")

	countBackups := func() int {
		entries, err := os.ReadDir(backupDir)
		if os.IsNotExist(err) {
			return 0
		}
		if err != nil {
			t.Fatalf("Failed to list backups: %v", err)
		}
		return len(entries)
	}

	// Before the configured hour nothing happens
	f.scheduler.RunBackup(time.Date(2024, 6, 1, 3, 4, 0, 0, time.UTC))
	if got := countBackups(); got != 0 {
		t.Fatalf("Expected no backup before the hour, got %d", got)
	}

	// The first tick past 03:05 creates the backup
	f.scheduler.RunBackup(time.Date(2024, 6, 1, 3, 6, 0, 0, time.UTC))
	if got := countBackups(); got != 1 {
		t.Fatalf("Expected 1 backup after the hour, got %d", got)
	}

	// Later ticks the same day do not repeat it
	f.scheduler.RunBackup(time.Date(2024, 6, 1, 15, 0, 0, 0, time.UTC))
	if got := countBackups(); got != 1 {
		t.Fatalf("Expected still 1 backup the same day, got %d", got)
	}

	// The next day backs up again
	f.scheduler.RunBackup(time.Date(2024, 6, 2, 3, 6, 0, 0, time.UTC))
	if got := countBackups(); got != 2 {
		t.Errorf("Expected a second backup the next day, got %d", got)
	}
}

func TestBackupDisabled(t *testing.T) {
	f := newSchedulerFixture(t, 100)

	dir := t.TempDir()
	source := filepath.Join(dir, "storage.json")
	if err := os.WriteFile(source, []byte("{}"), 0o600); err != nil {
		t.Fatalf("Failed to write storage file: %v", err)
	}
	f.cfg.Storage.ConnectionString = source
	f.cfg.Backup.Enabled = false

	f.scheduler.RunBackup(time.Date(2024, 6, 1, 3, 6, 0, 0, time.UTC))
	if _, err := os.Stat(filepath.Join(dir, "backups")); !os.IsNotExist(err) {
		t.Error("Expected no backup directory when backups are disabled")
	}
}

func TestBackupSkipsNonFileBackend(t *testing.T) {
	f := newSchedulerFixture(t, 100)
	f.cfg.Storage.Type = "postgresql"
	f.cfg.Storage.ConnectionString = "postgres://localhost/weatherbot"

	// Must be a no-op rather than an attempted file copy
	f.scheduler.RunBackup(time.Date(2024, 6, 1, 3, 6, 0, 0, time.UTC))
}

func TestDeliveryRecordsPruned(t *testing.T) {
	f := newSchedulerFixture(t, 100)
	f.repo.users[10] = subscribedUser("en", "UTC", 8, 0)
	f.repo.users[20] = subscribedUser("en", "UTC", 8, 0)

	f.scheduler.RunPending(time.Date(2024, 6, 1, 8, 0, 0, 0, time.UTC))
	if got := f.scheduler.TrackedDeliveries(); got != 2 {
		t.Fatalf("Expected 2 tracked deliveries, got %d", got)
	}

	// An unsubscribed chat drops out of the bookkeeping on the next run
	delete(f.repo.users, 20)
	f.scheduler.RunPending(time.Date(2024, 6, 1, 8, 1, 0, 0, time.UTC))
	if got := f.scheduler.TrackedDeliveries(); got != 1 {
		t.Errorf("Expected unsubscribed chat to be pruned, got %d records", got)
	}

	// Stale dates are dropped as well, and today is re-recorded
	f.scheduler.RunPending(time.Date(2024, 6, 5, 8, 0, 0, 0, time.UTC))
	if got := f.scheduler.TrackedDeliveries(); got != 1 {
		t.Errorf("Expected only today's record, got %d", got)
	}
	if got := len(f.messenger.html[10]); got != 2 {
		t.Errorf("Expected deliveries on both days, got %d", got)
	}
}
