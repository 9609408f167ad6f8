package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/akarpov/weatherbot/internal/domain"
	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/storage"
)

func main() {
	fmt.Println("Weather Bot SQLite Storage Demo")
	fmt.Println("===============================")

	dbPath := flag.String("db", "./demo_users.db", "Path to SQLite database file")
	keep := flag.Bool("keep", false, "Keep the database file after the demo")
	flag.Parse()

	log := logger.New("info")
	repo, err := storage.NewSQLiteRepository(*dbPath, log)
	if err != nil {
		fmt.Printf("Error opening repository: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		repo.Close()
		if !*keep {
			os.Remove(*dbPath)
		}
	}()

	ctx := context.Background()

	fmt.Println("\n1. Saving user profiles:")
	profiles := map[int64]*domain.UserProfile{
		100: {
			Language:     "ru",
			Home:         &domain.Home{Lat: 55.7558, Lon: 37.6173, Label: "Москва", Timezone: "Europe/Moscow"},
			Subscription: &domain.Subscription{Hour: 8, Minute: 0},
		},
		200: {
			Language: "en",
			Home:     &domain.Home{Lat: 52.52, Lon: 13.405, Label: "Berlin", Timezone: "Europe/Berlin"},
		},
		300: {Language: "de"},
	}
	for chatID, profile := range profiles {
		if err := repo.SaveUser(ctx, chatID, profile); err != nil {
			fmt.Printf("Error saving user %d: %v\n", chatID, err)
			os.Exit(1)
		}
		fmt.Printf("- saved chat %d (%s)\n", chatID, profile.Language)
	}

	fmt.Println("\n2. Reading a profile back:")
	profile, err := repo.GetUser(ctx, 100)
	if err != nil {
		fmt.Printf("Error reading user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("- chat 100: language=%s home=%s subscription=%02d:%02d\n",
		profile.Language, profile.Home.Label, profile.Subscription.Hour, profile.Subscription.Minute)

	fmt.Println("\n3. Updating a profile:")
	profile.Subscription = &domain.Subscription{Hour: 9, Minute: 30}
	if err := repo.SaveUser(ctx, 100, profile); err != nil {
		fmt.Printf("Error updating user: %v\n", err)
		os.Exit(1)
	}
	updated, _ := repo.GetUser(ctx, 100)
	fmt.Printf("- chat 100 subscription is now %02d:%02d\n",
		updated.Subscription.Hour, updated.Subscription.Minute)

	fmt.Println("\n4. Listing all users:")
	all, err := repo.AllUsers(ctx)
	if err != nil {
		fmt.Printf("Error listing users: %v\n", err)
		os.Exit(1)
	}
	for chatID, p := range all {
		home := "none"
		if p.Home != nil {
			home = p.Home.Label
		}
		fmt.Printf("- chat %d: language=%s home=%s\n", chatID, p.Language, home)
	}

	fmt.Println("\n5. Deleting a user:")
	deleted, err := repo.DeleteUser(ctx, 300)
	if err != nil {
		fmt.Printf("Error deleting user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("- chat 300 deleted: %v\n", deleted)

	fmt.Println("\nDemo completed successfully!")
}
