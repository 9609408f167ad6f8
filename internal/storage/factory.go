package storage

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/akarpov/weatherbot/internal/config"
	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/logger"
)

// New creates a new repository instance based on the storage configuration
func New(ctx context.Context, cfg config.StorageConfig, logger *logger.Logger) (domain.Repository, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	storageType := strings.ToLower(cfg.Type)
	logger.Info("Initializing repository", "type", storageType, "connection", cfg.ConnectionString)

	switch storageType {
	case "json", "":
		return NewJSONRepository(cfg.ConnectionString, logger)
	case "sqlite":
		return NewSQLiteRepository(cfg.ConnectionString, logger)
	case "googlesheet":
		return NewGoogleSheetRepository(ctx, cfg.ConnectionString, logger)
	case "postgresql":
		return NewPostgresRepository(ctx, cfg.ConnectionString, logger)
	case "mysql":
		return NewMySQLRepository(ctx, cfg.ConnectionString, logger)
	case "mongodb":
		return NewMongoRepository(ctx, cfg.ConnectionString, logger)
	default:
		return nil, fmt.Errorf("unsupported storage type: %s", storageType)
	}
}

func chatKey(chatID int64) string {
	return strconv.FormatInt(chatID, 10)
}

func parseChatKey(key string) (int64, error) {
	return strconv.ParseInt(key, 10, 64)
}
