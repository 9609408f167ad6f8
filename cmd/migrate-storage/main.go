package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"sort"

	"github.com/akarpov/weatherbot/internal/config"
	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/storage"
)

// Copies every user profile from one storage backend to another, e.g.
// from the default JSON file into SQLite or PostgreSQL.
func main() {
	fromType := flag.String("from", "json", "Source storage type")
	fromConn := flag.String("from-conn", "./data/storage.json", "Source connection string")
	toType := flag.String("to", "", "Destination storage type")
	toConn := flag.String("to-conn", "", "Destination connection string")
	dryRun := flag.Bool("dry-run", false, "List profiles without writing them")
	flag.Parse()

	if *toType == "" || *toConn == "" {
		fmt.Println("Error: -to and -to-conn are required")
		flag.Usage()
		os.Exit(1)
	}

	log := logger.New("info")
	ctx := context.Background()

	source, err := storage.New(ctx, config.StorageConfig{Type: *fromType, ConnectionString: *fromConn}, log)
	if err != nil {
		fmt.Printf("Error opening source storage: %v\n", err)
		os.Exit(1)
	}
	defer source.Close()

	users, err := source.AllUsers(ctx)
	if err != nil {
		fmt.Printf("Error reading source storage: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("Source %s (%s) holds %d user(s)\n", *fromType, *fromConn, len(users))

	chatIDs := make([]int64, 0, len(users))
	for chatID := range users {
		chatIDs = append(chatIDs, chatID)
	}
	sort.Slice(chatIDs, func(i, j int) bool { return chatIDs[i] < chatIDs[j] })

	if *dryRun {
		for _, chatID := range chatIDs {
			profile := users[chatID]
			home := "no home"
			if profile.Home != nil {
				home = profile.Home.Label
			}
			fmt.Printf("- chat %d: language=%s home=%s\n", chatID, profile.Language, home)
		}
		fmt.Println("Dry run, nothing written")
		return
	}

	dest, err := storage.New(ctx, config.StorageConfig{Type: *toType, ConnectionString: *toConn}, log)
	if err != nil {
		fmt.Printf("Error opening destination storage: %v\n", err)
		os.Exit(1)
	}
	defer dest.Close()

	migrated := 0
	for _, chatID := range chatIDs {
		if err := dest.SaveUser(ctx, chatID, users[chatID]); err != nil {
			fmt.Printf("Error migrating chat %d: %v\n", chatID, err)
			os.Exit(1)
		}
		migrated++
	}

	fmt.Printf("Migration completed: %d user(s) copied to %s (%s)\n", migrated, *toType, *toConn)
}
