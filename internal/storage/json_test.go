package storage_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/storage"
)

func testProfile() *domain.UserProfile {
	return &domain.UserProfile{
		Language: "ru",
		Home: &domain.Home{
			Lat:      55.75,
			Lon:      37.62,
			Label:    "Москва",
			Timezone: "Europe/Moscow",
		},
		Subscription: &domain.Subscription{Hour: 8, Minute: 30},
	}
}

func TestJSONRepository(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	l := logger.New("error")
	ctx := context.Background()

	repo, err := storage.NewJSONRepository(path, l)
	if err != nil {
		t.Fatalf("Failed to create JSON repository: %v", err)
	}
	defer repo.Close()

	t.Run("GetUser - Missing User", func(t *testing.T) {
		_, err := repo.GetUser(ctx, 42)
		if !errors.Is(err, domain.ErrUserNotFound) {
			t.Errorf("Expected ErrUserNotFound, got: %v", err)
		}
	})

	t.Run("SaveUser and GetUser", func(t *testing.T) {
		if err := repo.SaveUser(ctx, 42, testProfile()); err != nil {
			t.Fatalf("Error saving user: %v", err)
		}

		got, err := repo.GetUser(ctx, 42)
		if err != nil {
			t.Fatalf("Error finding user: %v", err)
		}
		if got.Language != "ru" {
			t.Errorf("Expected language ru, got %s", got.Language)
		}
		if got.Home == nil || got.Home.Label != "Москва" {
			t.Errorf("Home not round-tripped: %+v", got.Home)
		}
		if got.Subscription == nil || got.Subscription.Hour != 8 || got.Subscription.Minute != 30 {
			t.Errorf("Subscription not round-tripped: %+v", got.Subscription)
		}
	})

	t.Run("Partial profile keeps nil fields", func(t *testing.T) {
		if err := repo.SaveUser(ctx, 7, &domain.UserProfile{Language: "en"}); err != nil {
			t.Fatalf("Error saving user: %v", err)
		}

		got, err := repo.GetUser(ctx, 7)
		if err != nil {
			t.Fatalf("Error finding user: %v", err)
		}
		if got.Home != nil {
			t.Errorf("Expected nil home, got %+v", got.Home)
		}
		if got.Subscription != nil {
			t.Errorf("Expected nil subscription, got %+v", got.Subscription)
		}
	})

	t.Run("AllUsers", func(t *testing.T) {
		users, err := repo.AllUsers(ctx)
		if err != nil {
			t.Fatalf("Error listing users: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("Expected 2 users, got %d", len(users))
		}
		if _, ok := users[42]; !ok {
			t.Errorf("User 42 missing from AllUsers")
		}
	})

	t.Run("DeleteUser", func(t *testing.T) {
		removed, err := repo.DeleteUser(ctx, 7)
		if err != nil {
			t.Fatalf("Error deleting user: %v", err)
		}
		if !removed {
			t.Error("Expected delete to report an existing user")
		}

		removed, err = repo.DeleteUser(ctx, 7)
		if err != nil {
			t.Fatalf("Error deleting user: %v", err)
		}
		if removed {
			t.Error("Second delete should report no user")
		}
	})
}

func TestJSONRepositoryPersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	l := logger.New("error")
	ctx := context.Background()

	repo, err := storage.NewJSONRepository(path, l)
	if err != nil {
		t.Fatalf("Failed to create JSON repository: %v", err)
	}
	if err := repo.SaveUser(ctx, 100, testProfile()); err != nil {
		t.Fatalf("Error saving user: %v", err)
	}
	repo.Close()

	reopened, err := storage.NewJSONRepository(path, l)
	if err != nil {
		t.Fatalf("Failed to reopen JSON repository: %v", err)
	}
	defer reopened.Close()

	got, err := reopened.GetUser(ctx, 100)
	if err != nil {
		t.Fatalf("Error finding user after reopen: %v", err)
	}
	if got.Home == nil || got.Home.Lat != 55.75 {
		t.Errorf("Home lost across restart: %+v", got.Home)
	}
}

func TestJSONRepositoryCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "storage.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}

	l := logger.New("error")
	ctx := context.Background()

	repo, err := storage.NewJSONRepository(path, l)
	if err != nil {
		t.Fatalf("Failed to create JSON repository: %v", err)
	}
	defer repo.Close()

	// Corrupt store starts empty rather than failing
	_, err = repo.GetUser(ctx, 1)
	if !errors.Is(err, domain.ErrUserNotFound) {
		t.Errorf("Expected ErrUserNotFound from corrupt store, got: %v", err)
	}

	if err := repo.SaveUser(ctx, 1, &domain.UserProfile{Language: "de"}); err != nil {
		t.Fatalf("Error saving over corrupt store: %v", err)
	}
	got, err := repo.GetUser(ctx, 1)
	if err != nil {
		t.Fatalf("Error finding user: %v", err)
	}
	if got.Language != "de" {
		t.Errorf("Expected language de, got %s", got.Language)
	}
}
