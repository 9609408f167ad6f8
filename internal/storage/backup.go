package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/logger"
)

// backupTimestampLayout names backup files so retention can be applied
// from the name alone.
const backupTimestampLayout = "20060102-150405"

// Backup copies the storage file into a timestamped file under a
// backups/ directory next to it, then prunes backups older than
// retentionDays. Returns the path of the created backup.
func Backup(sourcePath string, retentionDays int, now time.Time, log *logger.Logger) (string, error) {
	data, err := os.ReadFile(sourcePath)
	if err != nil {
		return "", domain.NewStorageError(err, sourcePath, "backup", "failed to read storage file")
	}

	backupDir := filepath.Join(filepath.Dir(sourcePath), "backups")
	if err := os.MkdirAll(backupDir, 0o755); err != nil {
		return "", domain.NewStorageError(err, backupDir, "backup", "failed to create backup directory")
	}

	name := fmt.Sprintf("storage-%s%s", now.Format(backupTimestampLayout), filepath.Ext(sourcePath))
	backupPath := filepath.Join(backupDir, name)
	if err := os.WriteFile(backupPath, data, 0o600); err != nil {
		return "", domain.NewStorageError(err, backupPath, "backup", "failed to write backup file")
	}
	log.Info("Created storage backup", "file", name)

	pruneOldBackups(backupDir, retentionDays, now, log)
	return backupPath, nil
}

// pruneOldBackups removes backup files whose name timestamp is older
// than the retention window. Unexpected names are skipped.
func pruneOldBackups(backupDir string, retentionDays int, now time.Time, log *logger.Logger) {
	if retentionDays <= 0 {
		return
	}

	entries, err := os.ReadDir(backupDir)
	if err != nil {
		log.Warn("Error listing backup directory", "dir", backupDir, "error", err)
		return
	}

	cutoff := now.AddDate(0, 0, -retentionDays)
	deleted := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "storage-") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(name, "storage-"), filepath.Ext(name))
		created, err := time.ParseInLocation(backupTimestampLayout, stamp, now.Location())
		if err != nil {
			log.Warn("Skipping unexpected backup file name", "file", name)
			continue
		}
		if created.Before(cutoff) {
			if err := os.Remove(filepath.Join(backupDir, name)); err != nil {
				log.Warn("Error deleting old backup", "file", name, "error", err)
				continue
			}
			deleted++
		}
	}
	if deleted > 0 {
		log.Info("Deleted old backups", "count", deleted, "retention_days", retentionDays)
	}
}
