package storage

import (
	"context"
	"database/sql"
	"fmt"
	"sync"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/logger"
	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteRepository implements the domain.Repository interface for SQLite
type SQLiteRepository struct {
	db     *sql.DB
	logger *logger.Logger
	mu     sync.Mutex // For thread safety
}

// OpenSQLiteForTesting opens the SQLite database for testing purposes
// This is only for testing and shouldn't be used in production code
func OpenSQLiteForTesting(dbPath string) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, err
	}

	if err := createSQLiteTableIfNotExists(db); err != nil {
		db.Close()
		return nil, err
	}

	return db, nil
}

// NewSQLiteRepository creates a new SQLite repository
func NewSQLiteRepository(dbPath string, logger *logger.Logger) (domain.Repository, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}

	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open SQLite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to SQLite database: %w", err)
	}

	if err := createSQLiteTableIfNotExists(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create table: %w", err)
	}

	logger.Info("SQLite repository initialized", "path", dbPath)

	return &SQLiteRepository{
		db:     db,
		logger: logger,
	}, nil
}

// createSQLiteTableIfNotExists creates the users table if it doesn't exist
func createSQLiteTableIfNotExists(db *sql.DB) error {
	query := `
	CREATE TABLE IF NOT EXISTS users (
		chat_id INTEGER PRIMARY KEY,
		language TEXT,
		home_lat REAL,
		home_lon REAL,
		home_label TEXT,
		home_timezone TEXT,
		sub_hour INTEGER,
		sub_minute INTEGER
	);
	`
	_, err := db.Exec(query)
	return err
}

// GetUser looks up a user profile by chat ID
func (r *SQLiteRepository) GetUser(ctx context.Context, chatID int64) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `SELECT language, home_lat, home_lon, home_label, home_timezone, sub_hour, sub_minute
		FROM users WHERE chat_id = ?`
	row := r.db.QueryRowContext(ctx, query, chatID)

	profile, err := scanProfile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, domain.ErrUserNotFound
		}
		r.logger.Error("Error querying user", "chat_id", chatID, "error", err)
		return nil, fmt.Errorf("database error: %w", err)
	}
	return profile, nil
}

// SaveUser inserts or replaces a user profile
func (r *SQLiteRepository) SaveUser(ctx context.Context, chatID int64, profile *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `INSERT INTO users (chat_id, language, home_lat, home_lon, home_label, home_timezone, sub_hour, sub_minute)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(chat_id) DO UPDATE SET
			language = excluded.language,
			home_lat = excluded.home_lat,
			home_lon = excluded.home_lon,
			home_label = excluded.home_label,
			home_timezone = excluded.home_timezone,
			sub_hour = excluded.sub_hour,
			sub_minute = excluded.sub_minute`

	args := profileArgs(chatID, profile)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		r.logger.Error("Error saving user", "chat_id", chatID, "error", err)
		return fmt.Errorf("database error: %w", err)
	}

	r.logger.Debug("User saved to SQLite", "chat_id", chatID)
	return nil
}

// DeleteUser removes a user profile, reporting whether one existed
func (r *SQLiteRepository) DeleteUser(ctx context.Context, chatID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	result, err := r.db.ExecContext(ctx, `DELETE FROM users WHERE chat_id = ?`, chatID)
	if err != nil {
		r.logger.Error("Error deleting user", "chat_id", chatID, "error", err)
		return false, fmt.Errorf("database error: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, nil
	}
	return rowsAffected > 0, nil
}

// AllUsers returns every stored user profile keyed by chat ID
func (r *SQLiteRepository) AllUsers(ctx context.Context) (map[int64]*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := `SELECT chat_id, language, home_lat, home_lon, home_label, home_timezone, sub_hour, sub_minute
		FROM users`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		r.logger.Error("Error listing users", "error", err)
		return nil, fmt.Errorf("database error: %w", err)
	}
	defer rows.Close()

	return collectProfiles(rows)
}

// Close closes the database connection
func (r *SQLiteRepository) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.db != nil {
		return r.db.Close()
	}
	return nil
}
