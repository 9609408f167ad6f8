package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/akarpov/weatherbot/internal/config"
	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/storage"
)

func TestFactory(t *testing.T) {
	l := logger.New("error")
	ctx := context.Background()
	dir := t.TempDir()

	t.Run("JSON", func(t *testing.T) {
		repo, err := storage.New(ctx, config.StorageConfig{
			Type:             "json",
			ConnectionString: filepath.Join(dir, "users.json"),
		}, l)
		if err != nil {
			t.Fatalf("Failed to create JSON repository: %v", err)
		}
		repo.Close()
	})

	t.Run("Empty type defaults to JSON", func(t *testing.T) {
		repo, err := storage.New(ctx, config.StorageConfig{
			ConnectionString: filepath.Join(dir, "default.json"),
		}, l)
		if err != nil {
			t.Fatalf("Failed to create default repository: %v", err)
		}
		repo.Close()
	})

	t.Run("SQLite", func(t *testing.T) {
		repo, err := storage.New(ctx, config.StorageConfig{
			Type:             "sqlite",
			ConnectionString: filepath.Join(dir, "users.db"),
		}, l)
		if err != nil {
			t.Fatalf("Failed to create SQLite repository: %v", err)
		}
		repo.Close()
	})

	t.Run("Unsupported type", func(t *testing.T) {
		_, err := storage.New(ctx, config.StorageConfig{Type: "cassandra"}, l)
		if err == nil {
			t.Error("Expected error for unsupported storage type")
		}
	})

	t.Run("Nil logger", func(t *testing.T) {
		_, err := storage.New(ctx, config.StorageConfig{Type: "json"}, nil)
		if err == nil {
			t.Error("Expected error for nil logger")
		}
	})
}
