package main

import (
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mpetrov/wait-times-bot/internal/api"
	"github.com/mpetrov/wait-times-bot/internal/config"
	"github.com/mpetrov/wait-times-bot/internal/integration"
	"github.com/mpetrov/wait-times-bot/internal/repository"
	"github.com/mpetrov/wait-times-bot/internal/usecases"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)
	log.Println("Starting Wait Times Bot...")

	// Load .env if present; environment variables win either way
	_ = godotenv.Load()

	cfg := config.Load()

	// Initialize repository
	repo, err := repository.NewSQLiteWaitTimeRepository(cfg.DatabasePath)
	if err != nil {
		log.Fatalf("Failed to initialize repository: %v", err)
	}
	defer repo.Close()

	// Initialize API client
	client := integration.NewQueueTimesClient(cfg.APIBaseURL)

	// Initialize use case
	useCase := usecases.NewCollectUseCase(repo, client, cfg)

	// Get the bot token from environment variable
	botToken := os.Getenv("TELEGRAM_BOT_TOKEN")
	if botToken == "" {
		log.Fatal("TELEGRAM_BOT_TOKEN environment variable is not set")
	}

	// Initialize Telegram bot
	telegramBot, err := api.NewTelegramBot(botToken, useCase)
	if err != nil {
		log.Fatalf("Failed to initialize Telegram bot: %v", err)
	}

	// Start the bot
	telegramBot.Start()
}
