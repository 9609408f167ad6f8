package main

import (
	"flag"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/spamguard"
)

// requestResult stores the outcome of one evaluated request
type requestResult struct {
	userID        int64
	requestNumber int
	verdict       spamguard.Verdict
	timestamp     time.Time
}

func main() {
	fmt.Println("Weather Bot Spam Guard Demo")
	fmt.Println("===========================")

	requestsPerMin := flag.Int("rpm", 10, "Requests per minute before blocking")
	requestsPerHour := flag.Int("rph", 100, "Requests per hour before blocking")
	requestsPerDay := flag.Int("rpd", 200, "Requests per day before blocking")
	concurrentUsers := flag.Int("users", 5, "Number of concurrent users to simulate")
	requestsPerUser := flag.Int("requests", 15, "Number of requests per user")
	delay := flag.Int("delay", 100, "Delay between requests in milliseconds")
	flag.Parse()

	cfg := spamguard.DefaultConfig()
	cfg.MaxRequestsPerMinute = *requestsPerMin
	cfg.MaxRequestsPerHour = *requestsPerHour
	cfg.MaxRequestsPerDay = *requestsPerDay
	cfg.MinCooldown = 0

	guard, err := spamguard.New(cfg, logger.New("warn"))
	if err != nil {
		fmt.Printf("Error creating guard: %v\n", err)
		return
	}

	fmt.Printf("Limits: %d req/min, %d req/hour, %d req/day\n\n",
		cfg.MaxRequestsPerMinute, cfg.MaxRequestsPerHour, cfg.MaxRequestsPerDay)
	fmt.Printf("Simulating %d users making %d requests each with %dms delay between requests\n\n",
		*concurrentUsers, *requestsPerUser, *delay)

	results := make(chan requestResult, *concurrentUsers**requestsPerUser)
	var wg sync.WaitGroup

	for user := 1; user <= *concurrentUsers; user++ {
		wg.Add(1)
		go func(userID int64) {
			defer wg.Done()
			for i := 1; i <= *requestsPerUser; i++ {
				now := time.Now()
				verdict := guard.Evaluate(userID, "weather Berlin", true, now)
				results <- requestResult{
					userID:        userID,
					requestNumber: i,
					verdict:       verdict,
					timestamp:     now,
				}
				time.Sleep(time.Duration(*delay) * time.Millisecond)
			}
		}(int64(user))
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	allowed := 0
	blocked := 0
	for result := range results {
		status := "ALLOWED"
		detail := ""
		if result.verdict.Blocked {
			status = "BLOCKED"
			detail = fmt.Sprintf(" (%s", result.verdict.Reason)
			if result.verdict.Silent {
				detail += ", silent"
			}
			detail += ")"
			blocked++
		} else {
			allowed++
		}
		fmt.Printf("[%s] user %d request %2d: %s%s\n",
			result.timestamp.Format("15:04:05.000"),
			result.userID, result.requestNumber, status, detail)
	}

	fmt.Println("\n" + strings.Repeat("=", 40))
	fmt.Printf("Total: %d allowed, %d blocked\n", allowed, blocked)

	fmt.Println("\nPer-user state after the run:")
	for user := 1; user <= *concurrentUsers; user++ {
		stats := guard.Stats(int64(user), time.Now())
		fmt.Printf("- user %d: %d requests today, blocked=%v, block count=%d\n",
			user, stats.RequestsToday, stats.IsBlocked, stats.BlockCount)
	}
}
