package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/logger"
)

// storedUser is the on-disk shape of a user profile. Fields are flat so the
// file stays readable and hand-editable.
type storedUser struct {
	Language string   `json:"language,omitempty"`
	Lat      *float64 `json:"lat,omitempty"`
	Lon      *float64 `json:"lon,omitempty"`
	Label    string   `json:"label,omitempty"`
	Timezone string   `json:"timezone,omitempty"`
	SubHour  *int     `json:"sub_hour,omitempty"`
	SubMin   *int     `json:"sub_min,omitempty"`
}

// JSONRepository implements domain.Repository on a single JSON file,
// keyed by chat ID. The whole file is rewritten on every save via a
// temp file and rename.
type JSONRepository struct {
	path   string
	logger *logger.Logger
	mu     sync.Mutex
	users  map[string]storedUser
	loaded bool
}

// NewJSONRepository creates a JSON file repository. The file does not
// need to exist yet; it is created on first save.
func NewJSONRepository(path string, logger *logger.Logger) (domain.Repository, error) {
	if logger == nil {
		return nil, fmt.Errorf("logger cannot be nil")
	}
	if path == "" {
		return nil, fmt.Errorf("storage path cannot be empty")
	}

	logger.Info("JSON repository initialized", "path", path)

	return &JSONRepository{
		path:   path,
		logger: logger,
		users:  make(map[string]storedUser),
	}, nil
}

func (r *JSONRepository) ensureLoadedLocked() error {
	if r.loaded {
		return nil
	}

	data, err := os.ReadFile(r.path)
	if err != nil {
		if os.IsNotExist(err) {
			r.loaded = true
			return nil
		}
		return domain.NewStorageError(err, "read", r.path, "cannot read user store")
	}

	var users map[string]storedUser
	if err := json.Unmarshal(data, &users); err != nil {
		// A corrupt store should not take the bot down. Start empty; the
		// broken file is overwritten on the next save.
		r.logger.Warn("User store is corrupt, starting empty", "path", r.path, "error", err)
		r.loaded = true
		return nil
	}

	r.users = users
	if r.users == nil {
		r.users = make(map[string]storedUser)
	}
	r.loaded = true
	return nil
}

func (r *JSONRepository) saveLocked() error {
	data, err := json.MarshalIndent(r.users, "", "  ")
	if err != nil {
		return domain.NewStorageError(err, "marshal", r.path, "cannot encode user store")
	}

	if dir := filepath.Dir(r.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return domain.NewStorageError(err, "mkdir", r.path, "cannot create storage directory")
		}
	}

	tmp := r.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return domain.NewStorageError(err, "write", tmp, "cannot write user store")
	}
	if err := os.Rename(tmp, r.path); err != nil {
		return domain.NewStorageError(err, "rename", r.path, "cannot replace user store")
	}
	return nil
}

func toStored(p *domain.UserProfile) storedUser {
	s := storedUser{Language: p.Language}
	if p.Home != nil {
		lat, lon := p.Home.Lat, p.Home.Lon
		s.Lat = &lat
		s.Lon = &lon
		s.Label = p.Home.Label
		s.Timezone = p.Home.Timezone
	}
	if p.Subscription != nil {
		h, m := p.Subscription.Hour, p.Subscription.Minute
		s.SubHour = &h
		s.SubMin = &m
	}
	return s
}

func fromStored(s storedUser) *domain.UserProfile {
	p := &domain.UserProfile{Language: s.Language}
	if s.Lat != nil && s.Lon != nil {
		p.Home = &domain.Home{
			Lat:      *s.Lat,
			Lon:      *s.Lon,
			Label:    s.Label,
			Timezone: s.Timezone,
		}
	}
	if s.SubHour != nil && s.SubMin != nil {
		p.Subscription = &domain.Subscription{
			Hour:   *s.SubHour,
			Minute: *s.SubMin,
		}
	}
	return p
}

// GetUser returns the stored profile for a chat.
func (r *JSONRepository) GetUser(ctx context.Context, chatID int64) (*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoadedLocked(); err != nil {
		return nil, err
	}

	s, ok := r.users[chatKey(chatID)]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return fromStored(s), nil
}

// SaveUser stores the profile for a chat, overwriting any previous one.
func (r *JSONRepository) SaveUser(ctx context.Context, chatID int64, profile *domain.UserProfile) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoadedLocked(); err != nil {
		return err
	}

	r.users[chatKey(chatID)] = toStored(profile)
	if err := r.saveLocked(); err != nil {
		return err
	}

	r.logger.Debug("User saved", "chat_id", chatID)
	return nil
}

// DeleteUser removes a chat's profile. Returns false if none existed.
func (r *JSONRepository) DeleteUser(ctx context.Context, chatID int64) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoadedLocked(); err != nil {
		return false, err
	}

	key := chatKey(chatID)
	if _, ok := r.users[key]; !ok {
		return false, nil
	}
	delete(r.users, key)
	if err := r.saveLocked(); err != nil {
		return false, err
	}
	return true, nil
}

// AllUsers returns every stored profile keyed by chat ID.
func (r *JSONRepository) AllUsers(ctx context.Context) (map[int64]*domain.UserProfile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if err := r.ensureLoadedLocked(); err != nil {
		return nil, err
	}

	out := make(map[int64]*domain.UserProfile, len(r.users))
	for key, s := range r.users {
		id, err := parseChatKey(key)
		if err != nil {
			r.logger.Warn("Skipping unparseable chat key in user store", "key", key)
			continue
		}
		out[id] = fromStored(s)
	}
	return out, nil
}

// Close is a no-op; the file is rewritten on every save.
func (r *JSONRepository) Close() error {
	return nil
}
