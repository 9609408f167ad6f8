package storage_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/storage"
)

func TestSQLiteRepository(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "test.db")
	l := logger.New("error")
	ctx := context.Background()

	repo, err := storage.NewSQLiteRepository(dbPath, l)
	if err != nil {
		t.Fatalf("Failed to create SQLite repository: %v", err)
	}
	defer repo.Close()

	t.Run("GetUser - Missing User", func(t *testing.T) {
		_, err := repo.GetUser(ctx, 1)
		if !errors.Is(err, domain.ErrUserNotFound) {
			t.Errorf("Expected ErrUserNotFound, got: %v", err)
		}
	})

	t.Run("SaveUser - Insert and Update", func(t *testing.T) {
		if err := repo.SaveUser(ctx, 1, testProfile()); err != nil {
			t.Fatalf("Error saving user: %v", err)
		}

		updated := testProfile()
		updated.Language = "en"
		updated.Subscription = nil
		if err := repo.SaveUser(ctx, 1, updated); err != nil {
			t.Fatalf("Error updating user: %v", err)
		}

		got, err := repo.GetUser(ctx, 1)
		if err != nil {
			t.Fatalf("Error finding user: %v", err)
		}
		if got.Language != "en" {
			t.Errorf("Expected language en after update, got %s", got.Language)
		}
		if got.Subscription != nil {
			t.Errorf("Expected subscription cleared, got %+v", got.Subscription)
		}
		if got.Home == nil || got.Home.Timezone != "Europe/Moscow" {
			t.Errorf("Home not round-tripped: %+v", got.Home)
		}
	})

	t.Run("AllUsers", func(t *testing.T) {
		if err := repo.SaveUser(ctx, 2, &domain.UserProfile{Language: "de"}); err != nil {
			t.Fatalf("Error saving user: %v", err)
		}

		users, err := repo.AllUsers(ctx)
		if err != nil {
			t.Fatalf("Error listing users: %v", err)
		}
		if len(users) != 2 {
			t.Errorf("Expected 2 users, got %d", len(users))
		}
	})

	t.Run("DeleteUser", func(t *testing.T) {
		removed, err := repo.DeleteUser(ctx, 2)
		if err != nil {
			t.Fatalf("Error deleting user: %v", err)
		}
		if !removed {
			t.Error("Expected delete to report an existing user")
		}

		_, err = repo.GetUser(ctx, 2)
		if !errors.Is(err, domain.ErrUserNotFound) {
			t.Errorf("Expected ErrUserNotFound after delete, got: %v", err)
		}
	})
}
