package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/quota"
)

func main() {
	fmt.Println("Weather Bot Quota Ledger Demo")
	fmt.Println("=============================")

	path := flag.String("path", "./demo_quota.json", "Path to the quota ledger file")
	limit := flag.Int("limit", 10, "Daily request limit")
	requests := flag.Int("requests", 13, "Number of requests to simulate")
	reset := flag.Bool("reset", false, "Reset the ledger before the run")
	flag.Parse()

	ledger, err := quota.New(*path, *limit, logger.New("info"))
	if err != nil {
		fmt.Printf("Error creating ledger: %v\n", err)
		os.Exit(1)
	}

	if *reset {
		if err := ledger.Reset(); err != nil {
			fmt.Printf("Error resetting ledger: %v\n", err)
			os.Exit(1)
		}
		fmt.Println("Ledger reset")
	}

	fmt.Printf("Ledger file: %s, daily limit: %d\n\n", *path, *limit)

	for i := 1; i <= *requests; i++ {
		now := time.Now()
		resetAt, err := ledger.TryConsume(now)
		if err != nil {
			fmt.Printf("Error consuming quota: %v\n", err)
			os.Exit(1)
		}

		if resetAt != nil {
			fmt.Printf("request %2d: DENIED, quota exhausted, resets at %s\n",
				i, resetAt.Local().Format("15:04:05"))
			continue
		}

		remaining, _ := ledger.Remaining(now)
		fmt.Printf("request %2d: consumed, %d remaining\n", i, remaining)
	}

	status, err := ledger.Status(time.Now())
	if err != nil {
		fmt.Printf("Error reading status: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("\nFinal status:")
	fmt.Printf("- used: %d / %d (%.0f%%)\n", status.Used, status.Limit, status.Ratio*100)
	if status.ResetAt != nil {
		fmt.Printf("- next reset: %s\n", status.ResetAt.Local().Format("2006-01-02 15:04:05"))
	}
	if len(status.PendingAlertThresholds) > 0 {
		fmt.Printf("- pending alert thresholds: %v\n", status.PendingAlertThresholds)
	}
}
