package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/akarpov/weatherbot/internal/api"
	"github.com/akarpov/weatherbot/internal/config"
	"github.com/akarpov/weatherbot/internal/i18n"
	"github.com/akarpov/weatherbot/internal/jobs"
	"github.com/akarpov/weatherbot/internal/logger"
	"github.com/akarpov/weatherbot/internal/service"
	"github.com/akarpov/weatherbot/internal/telegram"
	"github.com/akarpov/weatherbot/webui"
)

func main() {
	configPath := flag.String("config", "", "path to configuration file")
	flag.Parse()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg, err := config.Load(config.GetConfigPath(*configPath))
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	l := logger.New(cfg.LogLevel)
	l.RedactSecret(cfg.Telegram.Token)
	l.Info("Starting Weather Bot")

	svc, err := service.New(ctx, cfg, l)
	if err != nil {
		l.Fatal("Failed to initialize service", "error", err)
	}

	translator := i18n.NewWithConfig(cfg)
	i18n.LoadDefaultTranslations(translator)
	i18n.LoadAdminTranslations(translator)

	bot, err := telegram.New(cfg, svc, translator, l)
	if err != nil {
		l.Fatal("Failed to initialize Telegram bot", "error", err)
	}

	if err := bot.Start(); err != nil {
		l.Fatal("Failed to start bot", "error", err)
	}

	scheduler := jobs.New(svc, bot, translator, cfg, l, nil)
	scheduler.Start()

	var apiServer *api.Server
	if cfg.API.Enabled {
		apiServer, err = api.New(cfg, svc, l)
		if err != nil {
			l.Fatal("Failed to initialize operations endpoint", "error", err)
		}
		if err := apiServer.Start(); err != nil {
			l.Fatal("Failed to start operations endpoint", "error", err)
		}
	}

	var webServer *webui.Server
	if cfg.WebUI.Enabled {
		webServer, err = webui.New(cfg, l)
		if err != nil {
			l.Fatal("Failed to initialize Web UI", "error", err)
		}
		if err := webServer.Start(); err != nil {
			l.Fatal("Failed to start Web UI", "error", err)
		}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	l.Info("Bot is running. Press Ctrl+C to stop")
	<-sigCh
	l.Info("Received termination signal")

	l.Info("Shutting down")
	scheduler.Stop()
	bot.Stop()

	if webServer != nil {
		if err := webServer.Stop(); err != nil {
			l.Error("Error stopping Web UI", "error", err)
		}
	}

	if apiServer != nil {
		if err := apiServer.Stop(); err != nil {
			l.Error("Error stopping operations endpoint", "error", err)
		}
	}

	if err := svc.Close(); err != nil {
		l.Error("Error closing service", "error", err)
	}

	l.Info("Bot stopped")
}
