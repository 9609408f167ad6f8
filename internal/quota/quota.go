package quota

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/logger"
)

// AlertThresholds are the quota-usage fractions that trigger an admin
// alert once crossed, ascending.
var AlertThresholds = [...]float64{0.8, 0.9, 1.0}

// window is the rolling budget period.
const window = 24 * time.Hour

// stampLayout renders UTC timestamps with an explicit numeric offset,
// e.g. "2024-01-01T12:00:00+00:00".
const stampLayout = "2006-01-02T15:04:05.999999999-07:00"

// Status is a point-in-time snapshot of the quota ledger.
type Status struct {
	Limit     int
	Used      int
	Remaining int
	ResetAt   *time.Time // nil when nothing has been consumed
	Ratio     float64
	// PendingAlertThresholds are the thresholds crossed but not yet
	// acknowledged for the current reset cycle, ascending.
	PendingAlertThresholds []float64
}

// Ledger tracks consumption of the daily external weather API budget as
// a pruned list of UTC timestamps, persisted to a JSON file. One ledger
// instance owns its file; there is no file-level locking.
type Ledger struct {
	path   string
	limit  int
	logger *logger.Logger

	mu         sync.Mutex
	timestamps []time.Time
	loaded     bool

	// Alert bookkeeping, keyed by the reset cycle it was recorded for.
	alertCycleResetAt    *time.Time
	maxNotifiedThreshold float64
}

// New creates a quota ledger persisting to path. dailyLimit must be
// positive; this is a configuration error, not a runtime condition.
func New(path string, dailyLimit int, log *logger.Logger) (*Ledger, error) {
	if dailyLimit <= 0 {
		return nil, fmt.Errorf("quota daily limit must be positive, got %d", dailyLimit)
	}
	if path == "" {
		return nil, fmt.Errorf("quota storage path cannot be empty")
	}
	if log == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	return &Ledger{
		path:   path,
		limit:  dailyLimit,
		logger: log,
	}, nil
}

// TryConsume attempts to consume one quota unit at now. A nil result
// means the unit was consumed and persisted. A non-nil result is the
// time the quota next frees up; nothing was consumed.
func (l *Ledger) TryConsume(now time.Time) (*time.Time, error) {
	now = now.UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoadedLocked(); err != nil {
		return nil, err
	}

	purged := l.pruneLocked(now)

	if len(l.timestamps) >= l.limit {
		if purged {
			if err := l.saveLocked(); err != nil {
				return nil, err
			}
		}
		resetAt := l.timestamps[0].Add(window)
		l.logger.Info("Weather API quota exceeded",
			"used", len(l.timestamps),
			"reset_at", resetAt.Format(time.RFC3339))
		return &resetAt, nil
	}

	l.timestamps = append(l.timestamps, now)
	sort.Slice(l.timestamps, func(i, j int) bool { return l.timestamps[i].Before(l.timestamps[j]) })
	if err := l.saveLocked(); err != nil {
		return nil, err
	}
	return nil, nil
}

// Status prunes expired consumption and reports the current usage plus
// the alert thresholds still awaiting acknowledgement for this cycle.
func (l *Ledger) Status(now time.Time) (Status, error) {
	now = now.UTC()

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.ensureLoadedLocked(); err != nil {
		return Status{}, err
	}

	if l.pruneLocked(now) {
		if err := l.saveLocked(); err != nil {
			return Status{}, err
		}
	}

	used := len(l.timestamps)
	remaining := l.limit - used
	if remaining < 0 {
		remaining = 0
	}
	var resetAt *time.Time
	if used > 0 {
		t := l.timestamps[0].Add(window)
		resetAt = &t
	}
	ratio := float64(used) / float64(l.limit)

	// A new reset cycle clears the notified-threshold watermark.
	if !sameReset(l.alertCycleResetAt, resetAt) {
		l.alertCycleResetAt = resetAt
		l.maxNotifiedThreshold = 0
	}

	var pending []float64
	for _, threshold := range AlertThresholds {
		if ratio >= threshold && threshold > l.maxNotifiedThreshold {
			pending = append(pending, threshold)
		}
	}

	return Status{
		Limit:                  l.limit,
		Used:                   used,
		Remaining:              remaining,
		ResetAt:                resetAt,
		Ratio:                  ratio,
		PendingAlertThresholds: pending,
	}, nil
}

// Remaining is a convenience wrapper around Status.
func (l *Ledger) Remaining(now time.Time) (int, error) {
	status, err := l.Status(now)
	if err != nil {
		return 0, err
	}
	return status.Remaining, nil
}

// MarkAlertSent records that alerts up to threshold were delivered for
// the cycle identified by resetAt. Idempotent for repeated calls with
// the same or a lower threshold.
func (l *Ledger) MarkAlertSent(threshold float64, resetAt *time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if !sameReset(l.alertCycleResetAt, resetAt) {
		l.alertCycleResetAt = resetAt
		l.maxNotifiedThreshold = threshold
	} else if threshold > l.maxNotifiedThreshold {
		l.maxNotifiedThreshold = threshold
	}
}

// Reset clears all consumption and alert state and persists the empty
// ledger. Administrative escape hatch.
func (l *Ledger) Reset() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.timestamps = nil
	l.maxNotifiedThreshold = 0
	l.alertCycleResetAt = nil
	l.loaded = true
	return l.saveLocked()
}

// ensureLoadedLocked reads the ledger file once. Malformed content is
// recovered from by discarding only the invalid parts; only real I/O
// failures are fatal to the call.
func (l *Ledger) ensureLoadedLocked() error {
	if l.loaded {
		return nil
	}

	data, err := os.ReadFile(l.path)
	if err != nil {
		if os.IsNotExist(err) {
			l.timestamps = nil
			l.loaded = true
			return nil
		}
		return domain.NewStorageError(err, l.path, "load", "could not load weather quota storage")
	}

	var raw []string
	if err := json.Unmarshal(data, &raw); err != nil {
		l.logger.Warn("Quota storage corrupted, resetting", "path", l.path, "error", err)
		l.timestamps = nil
		l.loaded = true
		return nil
	}

	l.timestamps = l.timestamps[:0]
	for _, value := range raw {
		ts, err := parseStamp(value)
		if err != nil {
			l.logger.Warn("Skipping invalid timestamp in quota storage", "value", value)
			continue
		}
		l.timestamps = append(l.timestamps, ts)
	}
	sort.Slice(l.timestamps, func(i, j int) bool { return l.timestamps[i].Before(l.timestamps[j]) })
	l.loaded = true
	return nil
}

// pruneLocked drops timestamps outside the trailing 24h window and
// reports whether anything was removed.
func (l *Ledger) pruneLocked(now time.Time) bool {
	threshold := now.Add(-window)
	kept := l.timestamps[:0]
	for _, ts := range l.timestamps {
		if ts.After(threshold) {
			kept = append(kept, ts)
		}
	}
	changed := len(kept) != len(l.timestamps)
	l.timestamps = kept
	return changed
}

// saveLocked persists the ledger atomically: write to a temp file, then
// rename over the target so a crash never truncates the previous state.
func (l *Ledger) saveLocked() error {
	stamps := make([]string, len(l.timestamps))
	for i, ts := range l.timestamps {
		stamps[i] = ts.UTC().Format(stampLayout)
	}

	data, err := json.MarshalIndent(stamps, "", "  ")
	if err != nil {
		return domain.NewStorageError(err, l.path, "save", "could not encode weather quota storage")
	}

	if dir := filepath.Dir(l.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.NewStorageError(err, l.path, "save", "could not create quota storage directory")
		}
	}

	tmpPath := l.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return domain.NewStorageError(err, l.path, "save", "could not write weather quota storage")
	}
	if err := os.Rename(tmpPath, l.path); err != nil {
		return domain.NewStorageError(err, l.path, "save", "could not replace weather quota storage")
	}
	return nil
}

// parseStamp accepts RFC3339 timestamps with offsets; timestamps
// without zone information are assumed UTC.
func parseStamp(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts.UTC(), nil
	}
	for _, layout := range []string{"2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if ts, err := time.ParseInLocation(layout, value, time.UTC); err == nil {
			return ts, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", value)
}

// sameReset compares two reset markers, treating nil as a distinct
// "no active cycle" value.
func sameReset(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}
