package storage

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/logger"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"
)

// Sheet columns: chat_id, language, lat, lon, label, timezone, sub_hour, sub_minute
const sheetColumnSpan = "A:H"

// GoogleSheetRepository implements a Google Sheets-backed profile repository.
// The sheet is read into an in-memory cache, refreshed every few minutes;
// writes go straight to the sheet and update the cache.
type GoogleSheetRepository struct {
	sheetID     string
	sheetName   string
	service     *sheets.Service
	cache       map[int64]*domain.UserProfile
	rowIndex    map[int64]int // 1-based sheet row, header is row 1
	cacheMutex  sync.RWMutex
	lastRefresh time.Time
	logger      *logger.Logger
}

// NewGoogleSheetRepository creates a new Google Sheets repository.
// The connection string format is "credentials_file:sheet_id:sheet_name".
func NewGoogleSheetRepository(ctx context.Context, connStr string, logger *logger.Logger) (*GoogleSheetRepository, error) {
	parts := strings.Split(connStr, ":")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid Google Sheets connection string format")
	}

	credentialsFile := parts[0]
	sheetID := parts[1]
	sheetName := parts[2]

	credentials, err := os.ReadFile(credentialsFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read credentials file: %w", err)
	}

	config, err := google.JWTConfigFromJSON(credentials, sheets.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("failed to parse credentials: %w", err)
	}

	service, err := sheets.NewService(ctx, option.WithHTTPClient(config.Client(ctx)))
	if err != nil {
		return nil, fmt.Errorf("failed to create Google Sheets service: %w", err)
	}

	repo := &GoogleSheetRepository{
		sheetID:   sheetID,
		sheetName: sheetName,
		service:   service,
		cache:     make(map[int64]*domain.UserProfile),
		rowIndex:  make(map[int64]int),
		logger:    logger,
	}

	if err := repo.refreshCache(ctx); err != nil {
		return nil, err
	}

	return repo, nil
}

func (r *GoogleSheetRepository) dataRange() string {
	return fmt.Sprintf("%s!%s", r.sheetName, sheetColumnSpan)
}

func (r *GoogleSheetRepository) rowRange(row int) string {
	return fmt.Sprintf("%s!A%d:H%d", r.sheetName, row, row)
}

// refreshCache reloads the whole sheet into the in-memory cache
func (r *GoogleSheetRepository) refreshCache(ctx context.Context) error {
	resp, err := r.service.Spreadsheets.Values.Get(r.sheetID, r.dataRange()).Context(ctx).Do()
	if err != nil {
		r.logger.Error("Error fetching sheet", "error", err)
		return domain.ErrStorageUnavailable
	}

	cache := make(map[int64]*domain.UserProfile)
	rowIndex := make(map[int64]int)

	for i, row := range resp.Values {
		if i == 0 {
			continue // header
		}
		chatID, profile, ok := parseSheetRow(row)
		if !ok {
			r.logger.Warn("Skipping unparseable sheet row", "row", i+1)
			continue
		}
		cache[chatID] = profile
		rowIndex[chatID] = i + 1
	}

	r.cacheMutex.Lock()
	r.cache = cache
	r.rowIndex = rowIndex
	r.lastRefresh = time.Now()
	r.cacheMutex.Unlock()

	r.logger.Debug("Sheet cache refreshed", "users", len(cache))
	return nil
}

func parseSheetRow(row []interface{}) (int64, *domain.UserProfile, bool) {
	if len(row) == 0 {
		return 0, nil, false
	}

	cell := func(i int) string {
		if i >= len(row) {
			return ""
		}
		s, _ := row[i].(string)
		return strings.TrimSpace(s)
	}

	chatID, err := strconv.ParseInt(cell(0), 10, 64)
	if err != nil {
		return 0, nil, false
	}

	profile := &domain.UserProfile{Language: cell(1)}

	if latStr, lonStr := cell(2), cell(3); latStr != "" && lonStr != "" {
		lat, errLat := strconv.ParseFloat(latStr, 64)
		lon, errLon := strconv.ParseFloat(lonStr, 64)
		if errLat == nil && errLon == nil {
			profile.Home = &domain.Home{
				Lat:      lat,
				Lon:      lon,
				Label:    cell(4),
				Timezone: cell(5),
			}
		}
	}

	if hourStr, minStr := cell(6), cell(7); hourStr != "" && minStr != "" {
		hour, errH := strconv.Atoi(hourStr)
		min, errM := strconv.Atoi(minStr)
		if errH == nil && errM == nil {
			profile.Subscription = &domain.Subscription{Hour: hour, Minute: min}
		}
	}

	return chatID, profile, true
}

func sheetRowValues(chatID int64, p *domain.UserProfile) []interface{} {
	row := []interface{}{
		strconv.FormatInt(chatID, 10),
		p.Language, "", "", "", "", "", "",
	}
	if p.Home != nil {
		row[2] = strconv.FormatFloat(p.Home.Lat, 'f', -1, 64)
		row[3] = strconv.FormatFloat(p.Home.Lon, 'f', -1, 64)
		row[4] = p.Home.Label
		row[5] = p.Home.Timezone
	}
	if p.Subscription != nil {
		row[6] = strconv.Itoa(p.Subscription.Hour)
		row[7] = strconv.Itoa(p.Subscription.Minute)
	}
	return row
}

func (r *GoogleSheetRepository) maybeRefresh(ctx context.Context) {
	r.cacheMutex.RLock()
	stale := time.Since(r.lastRefresh) > 5*time.Minute
	r.cacheMutex.RUnlock()

	if stale {
		if err := r.refreshCache(ctx); err != nil {
			r.logger.Warn("Using stale sheet cache after refresh failure", "error", err)
		}
	}
}

// GetUser finds a user profile by chat ID
func (r *GoogleSheetRepository) GetUser(ctx context.Context, chatID int64) (*domain.UserProfile, error) {
	r.maybeRefresh(ctx)

	r.cacheMutex.RLock()
	profile, exists := r.cache[chatID]
	r.cacheMutex.RUnlock()

	if !exists {
		return nil, domain.ErrUserNotFound
	}

	// Return a copy to prevent mutation of the cache
	copyProfile := *profile
	if profile.Home != nil {
		home := *profile.Home
		copyProfile.Home = &home
	}
	if profile.Subscription != nil {
		sub := *profile.Subscription
		copyProfile.Subscription = &sub
	}
	return &copyProfile, nil
}

// SaveUser writes a profile to its existing row or appends a new one
func (r *GoogleSheetRepository) SaveUser(ctx context.Context, chatID int64, profile *domain.UserProfile) error {
	r.maybeRefresh(ctx)

	r.cacheMutex.RLock()
	row, exists := r.rowIndex[chatID]
	r.cacheMutex.RUnlock()

	values := &sheets.ValueRange{Values: [][]interface{}{sheetRowValues(chatID, profile)}}

	if exists {
		_, err := r.service.Spreadsheets.Values.Update(r.sheetID, r.rowRange(row), values).
			ValueInputOption("RAW").Context(ctx).Do()
		if err != nil {
			r.logger.Error("Error updating sheet row", "chat_id", chatID, "error", err)
			return domain.ErrStorageUnavailable
		}
	} else {
		_, err := r.service.Spreadsheets.Values.Append(r.sheetID, r.dataRange(), values).
			ValueInputOption("RAW").InsertDataOption("INSERT_ROWS").Context(ctx).Do()
		if err != nil {
			r.logger.Error("Error appending sheet row", "chat_id", chatID, "error", err)
			return domain.ErrStorageUnavailable
		}
		// Append lands below the last known row; refresh picks up the index
		if err := r.refreshCache(ctx); err != nil {
			r.logger.Warn("Could not refresh sheet cache after append", "error", err)
		}
	}

	r.cacheMutex.Lock()
	saved := *profile
	r.cache[chatID] = &saved
	r.cacheMutex.Unlock()

	r.logger.Debug("User saved to Google Sheets", "chat_id", chatID)
	return nil
}

// DeleteUser clears a user's row, reporting whether one existed
func (r *GoogleSheetRepository) DeleteUser(ctx context.Context, chatID int64) (bool, error) {
	r.maybeRefresh(ctx)

	r.cacheMutex.RLock()
	row, exists := r.rowIndex[chatID]
	r.cacheMutex.RUnlock()

	if !exists {
		return false, nil
	}

	_, err := r.service.Spreadsheets.Values.Clear(r.sheetID, r.rowRange(row), &sheets.ClearValuesRequest{}).
		Context(ctx).Do()
	if err != nil {
		r.logger.Error("Error clearing sheet row", "chat_id", chatID, "error", err)
		return false, domain.ErrStorageUnavailable
	}

	r.cacheMutex.Lock()
	delete(r.cache, chatID)
	delete(r.rowIndex, chatID)
	r.cacheMutex.Unlock()

	return true, nil
}

// AllUsers returns every cached user profile keyed by chat ID
func (r *GoogleSheetRepository) AllUsers(ctx context.Context) (map[int64]*domain.UserProfile, error) {
	r.maybeRefresh(ctx)

	r.cacheMutex.RLock()
	defer r.cacheMutex.RUnlock()

	out := make(map[int64]*domain.UserProfile, len(r.cache))
	for chatID, profile := range r.cache {
		copyProfile := *profile
		if profile.Home != nil {
			home := *profile.Home
			copyProfile.Home = &home
		}
		if profile.Subscription != nil {
			sub := *profile.Subscription
			copyProfile.Subscription = &sub
		}
		out[chatID] = &copyProfile
	}
	return out, nil
}

// Close is a no-op for the Sheets API client
func (r *GoogleSheetRepository) Close() error {
	return nil
}
