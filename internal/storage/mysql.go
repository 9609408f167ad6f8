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
	_ "github.com/go-sql-driver/mysql" // MySQL driver
)

// MySQLRepository implements a MySQL-backed profile repository
type MySQLRepository struct {
	db     *sql.DB
	logger *logger.Logger
}

// NewMySQLRepository creates a new MySQL repository
func NewMySQLRepository(ctx context.Context, connStr string, logger *logger.Logger) (*MySQLRepository, error) {
	db, err := sql.Open("mysql", connStr)
	if err != nil {
		return nil, fmt.Errorf("failed to open MySQL database: %w", err)
	}

	db.SetConnMaxLifetime(3 * time.Minute)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping MySQL database: %w", err)
	}

	repo := &MySQLRepository{
		db:     db,
		logger: logger,
	}

	if err := repo.initSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return repo, nil
}

func (r *MySQLRepository) initSchema(ctx context.Context) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		chat_id BIGINT PRIMARY KEY,
		language VARCHAR(16),
		home_lat DOUBLE,
		home_lon DOUBLE,
		home_label VARCHAR(255),
		home_timezone VARCHAR(64),
		sub_hour TINYINT,
		sub_minute TINYINT
	)`
	if _, err := r.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("failed to create users table: %w", err)
	}
	return nil
}

func (r *MySQLRepository) mapMySQLError(err error, op string) error {
	if errors.Is(err, context.DeadlineExceeded) || strings.Contains(err.Error(), "connection") {
		r.logger.Error("Database connection issue", "op", op, "error", err)
		return domain.ErrStorageUnavailable
	}
	return fmt.Errorf("database error: %w", err)
}

// GetUser finds a user profile by chat ID
func (r *MySQLRepository) GetUser(ctx context.Context, chatID int64) (*domain.UserProfile, error) {
	query := `SELECT language, home_lat, home_lon, home_label, home_timezone, sub_hour, sub_minute
		FROM users WHERE chat_id = ?`

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	row := r.db.QueryRowContext(ctxWithTimeout, query, chatID)
	profile, err := scanProfile(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, r.mapMySQLError(err, "get")
	}
	return profile, nil
}

// SaveUser inserts or updates a user profile
func (r *MySQLRepository) SaveUser(ctx context.Context, chatID int64, profile *domain.UserProfile) error {
	query := `INSERT INTO users (chat_id, language, home_lat, home_lon, home_label, home_timezone, sub_hour, sub_minute)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON DUPLICATE KEY UPDATE
			language = VALUES(language),
			home_lat = VALUES(home_lat),
			home_lon = VALUES(home_lon),
			home_label = VALUES(home_label),
			home_timezone = VALUES(home_timezone),
			sub_hour = VALUES(sub_hour),
			sub_minute = VALUES(sub_minute)`

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if _, err := r.db.ExecContext(ctxWithTimeout, query, profileArgs(chatID, profile)...); err != nil {
		return r.mapMySQLError(err, "save")
	}

	r.logger.Debug("User saved to MySQL", "chat_id", chatID)
	return nil
}

// DeleteUser removes a user profile, reporting whether one existed
func (r *MySQLRepository) DeleteUser(ctx context.Context, chatID int64) (bool, error) {
	ctxWithTimeout, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	result, err := r.db.ExecContext(ctxWithTimeout, `DELETE FROM users WHERE chat_id = ?`, chatID)
	if err != nil {
		return false, r.mapMySQLError(err, "delete")
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, nil
	}
	return rowsAffected > 0, nil
}

// AllUsers returns every stored user profile keyed by chat ID
func (r *MySQLRepository) AllUsers(ctx context.Context) (map[int64]*domain.UserProfile, error) {
	query := `SELECT chat_id, language, home_lat, home_lon, home_label, home_timezone, sub_hour, sub_minute
		FROM users`

	ctxWithTimeout, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	rows, err := r.db.QueryContext(ctxWithTimeout, query)
	if err != nil {
		return nil, r.mapMySQLError(err, "list")
	}
	defer rows.Close()

	return collectProfiles(rows)
}

// Close closes the database connection
func (r *MySQLRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
