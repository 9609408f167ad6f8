package main

import (
	"fmt"
	"os"
	"time"

	"github.com/akarpov/weatherbot/internal/logger"
)

func main() {
	fmt.Println("Logger Demo")
	fmt.Println("===========")

	debugLogger := logger.New("debug")
	infoLogger := logger.New("info")

	fmt.Println("\n1. Basic logging with different levels:")
	debugLogger.Debug("This is a debug message")
	debugLogger.Info("This is an info message")
	debugLogger.Warn("This is a warning message")
	debugLogger.Error("This is an error message")

	fmt.Println("\n2. Level filtering (info level):")
	infoLogger.Debug("This debug message won't show with info level")
	infoLogger.Info("This info message will show")

	fmt.Println("\n3. Structured logging with key-value pairs:")
	debugLogger.Info(
		"Weather request served",
		"chat_id", 12345,
		"city", "Berlin",
		"served_at", time.Now().Format(time.RFC3339),
	)

	fmt.Println("\n4. Component-specific logging with prefixes:")
	storageLogger := debugLogger.WithPrefix("STORAGE")
	botLogger := debugLogger.WithPrefix("TELEGRAM")
	storageLogger.Info("Repository opened", "type", "sqlite", "path", "./data/users.db")
	botLogger.Warn("Spam guard triggered", "user_id", 12345, "reason", "spam_rate_limit_minute")

	fmt.Println("\n5. Secret redaction:")
	token := "123456789:AAF-demo-bot-token-value"
	redacting := logger.New("info")
	redacting.RedactSecret(token)
	redacting.Info("Connecting to Telegram", "token", token)

	fmt.Println("\n6. Changing log level dynamically:")
	dynamicLogger := logger.New("info")
	dynamicLogger.Debug("This debug message won't show")
	dynamicLogger.SetLevel("debug")
	dynamicLogger.Debug("Now this debug message will show")

	fmt.Println("\n7. Writing logs to a file:")
	f, err := os.Create("demo.log")
	if err != nil {
		fmt.Printf("Error creating log file: %v\n", err)
		return
	}
	defer f.Close()

	fileLogger := logger.NewWithWriter("info", f)
	fileLogger.Info("This message goes to the file", "file", "demo.log")

	fmt.Println("Log written to demo.log")
	fmt.Println("\nDemo completed. Check terminal output and demo.log file.")
}
