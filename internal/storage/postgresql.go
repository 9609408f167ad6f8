package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/logger"
	_ "github.com/lib/pq" // PostgreSQL driver
)

// PostgresRepository implements a PostgreSQL-backed profile repository
type PostgresRepository struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewPostgresRepository creates a new PostgreSQL repository
func NewPostgresRepository(ctx context.Context, connStr string, logger *logger.Logger) (*PostgresRepository, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open PostgreSQL database: %w", err)
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping PostgreSQL database: %w", err)
	}

	repo := &PostgresRepository{
		db:     db,
		logger: logger,
	}

	if err := repo.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *PostgresRepository) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		chat_id BIGINT PRIMARY KEY,
		language TEXT,
		home_lat DOUBLE PRECISION,
		home_lon DOUBLE PRECISION,
		home_label TEXT,
		home_timezone TEXT,
		sub_hour SMALLINT,
		sub_minute SMALLINT
	)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

// mapPostgresError translates connection problems into the storage sentinel
func (r *PostgresRepository) mapPostgresError(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "connection") {
		r.logger.Error("Database connection issue", "op", op, "error", err)
		return domain.ErrStorageUnavailable
	}
	return fmt.Errorf("database error: %w", err)
}

// GetUser finds a user profile by chat ID
func (r *PostgresRepository) GetUser(ctx context.Context, chatID int64) (*domain.UserProfile, error) {
	query := `SELECT language, home_lat, home_lon, home_label, home_timezone, sub_hour, sub_minute
		FROM users WHERE chat_id = $1`

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := r.db.QueryRowContext(ctxWithTimeout, query, chatID)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, r.mapPostgresError(err, "get")
	}
	return profile, nil
}

// SaveUser inserts or updates a user profile
func (r *PostgresRepository) SaveUser(ctx context.Context, chatID int64, profile *domain.UserProfile) error {
	query := `INSERT INTO users (chat_id, language, home_lat, home_lon, home_label, home_timezone, sub_hour, sub_minute)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (chat_id) DO UPDATE SET
			language = EXCLUDED.language,
			home_lat = EXCLUDED.home_lat,
			home_lon = EXCLUDED.home_lon,
			home_label = EXCLUDED.home_label,
			home_timezone = EXCLUDED.home_timezone,
			sub_hour = EXCLUDED.sub_hour,
			sub_minute = EXCLUDED.sub_minute`

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.db.ExecContext(ctxWithTimeout, query, profileArgs(chatID, profile)...); err != nil {
		return r.mapPostgresError(err, "save")
	}

	r.logger.Debug("User saved to PostgreSQL", "chat_id", chatID)
	return nil
}

// DeleteUser removes a user profile, reporting whether one existed
func (r *PostgresRepository) DeleteUser(ctx context.Context, chatID int64) (bool, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.db.ExecContext(ctxWithTimeout, `DELETE FROM users WHERE chat_id = $1`, chatID)
	if err != nil {
		return false, r.mapPostgresError(err, "delete")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, nil
	}
	return rowsAffected > 0, nil
}

// AllUsers returns every stored user profile keyed by chat ID
func (r *PostgresRepository) AllUsers(ctx context.Context) (map[int64]*domain.UserProfile, error) {
	query := `SELECT chat_id, language, home_lat, home_lon, home_label, home_timezone, sub_hour, sub_minute
		FROM users`

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctxWithTimeout, query)
	if err != nil {
		return nil, r.mapPostgresError(err, "list")
	}
	defer rows.Close()

	return collectProfiles(rows)
}

// Close closes the database connection
func (r *PostgresRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
