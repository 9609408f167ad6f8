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

// Exercises the Google Sheets storage backend against a real
// spreadsheet. Needs a service account credentials file and a sheet
// shared with the service account email.
func main() {
	fmt.Println("Weather Bot Google Sheets Storage Demo")
	fmt.Println("======================================")

	credentials := flag.String("credentials", "credentials.json", "Path to service account credentials JSON")
	sheetID := flag.String("sheet", "", "Spreadsheet ID")
	sheetName := flag.String("name", "Users", "Sheet name")
	chatID := flag.Int64("chat", 424242, "Chat id to write and read back")
	cleanup := flag.Bool("cleanup", true, "Delete the demo row afterwards")
	flag.Parse()

	if *sheetID == "" {
		fmt.Println("Error: -sheet is required")
		flag.Usage()
		os.Exit(1)
	}

	connStr := fmt.Sprintf("%s:%s:%s", *credentials, *sheetID, *sheetName)
	ctx := context.Background()

	repo, err := storage.NewGoogleSheetRepository(ctx, connStr, logger.New("info"))
	if err != nil {
		fmt.Printf("Error opening repository: %v\n", err)
		os.Exit(1)
	}
	defer repo.Close()

	fmt.Println("\n1. Saving a demo profile:")
	profile := &domain.UserProfile{
		Language:     "en",
		Home:         &domain.Home{Lat: 48.8566, Lon: 2.3522, Label: "Paris", Timezone: "Europe/Paris"},
		Subscription: &domain.Subscription{Hour: 7, Minute: 45},
	}
	if err := repo.SaveUser(ctx, *chatID, profile); err != nil {
		fmt.Printf("Error saving user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("- saved chat %d\n", *chatID)

	fmt.Println("\n2. Reading it back:")
	loaded, err := repo.GetUser(ctx, *chatID)
	if err != nil {
		fmt.Printf("Error reading user: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("- chat %d: language=%s home=%s subscription=%02d:%02d\n",
		*chatID, loaded.Language, loaded.Home.Label,
		loaded.Subscription.Hour, loaded.Subscription.Minute)

	fmt.Println("\n3. Listing all users:")
	all, err := repo.AllUsers(ctx)
	if err != nil {
		fmt.Printf("Error listing users: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("- sheet holds %d user(s)\n", len(all))

	if *cleanup {
		fmt.Println("\n4. Cleaning up:")
		deleted, err := repo.DeleteUser(ctx, *chatID)
		if err != nil {
			fmt.Printf("Error deleting user: %v\n", err)
			os.Exit(1)
		}
		fmt.Printf("- demo row removed: %v\n", deleted)
	}

	fmt.Println("\nDemo completed successfully!")
}
