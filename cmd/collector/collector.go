package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"
	"github.com/mpetrov/wait-times-bot/internal/config"
	"github.com/mpetrov/wait-times-bot/internal/integration"
	"github.com/mpetrov/wait-times-bot/internal/repository"
	"github.com/mpetrov/wait-times-bot/internal/usecases"
	"github.com/robfig/cron/v3"
)

func main() {
	// Configure logging
	log.SetOutput(os.Stdout)
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	check := flag.Bool("check", false, "check database status without collecting data")
	daemon := flag.Bool("daemon", false, "keep running and collect every 30 minutes")
	flag.Parse()

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

	if *check {
		printStatus(cfg, useCase)
		return
	}

	if *daemon {
		runDaemon(useCase)
		return
	}

	log.Println("Starting wait time collection...")
	summary := useCase.CollectAll()

	// Partial success is fine; only a run where every park failed is fatal.
	if summary.Succeeded() == 0 && len(summary.Results) > 0 {
		os.Exit(1)
	}
}

// runDaemon collects immediately, then on a fixed schedule. Meant for hosts
// without an external trigger; scheduled runs otherwise come from CI.
func runDaemon(useCase *usecases.CollectUseCase) {
	log.Println("Starting wait time collector daemon...")

	summary := useCase.CollectAll()
	if summary.Succeeded() == 0 && len(summary.Results) > 0 {
		log.Println("Initial collection failed for every park")
	}

	c := cron.New()
	_, err := c.AddFunc("*/30 * * * *", func() {
		s := useCase.CollectAll()
		if s.Succeeded() == 0 && len(s.Results) > 0 {
			log.Println("Scheduled collection failed for every park")
		}
	})
	if err != nil {
		log.Fatalf("Failed to set up cron job: %v", err)
	}

	log.Println("Collector has been scheduled to run every 30 minutes")
	c.Start()

	// Keep the program running
	select {}
}

// printStatus reports what is in the database without collecting anything.
func printStatus(cfg *config.Config, useCase *usecases.CollectUseCase) {
	rideCount, err := useCase.RideCount()
	if err != nil {
		log.Fatalf("Failed to count rides: %v", err)
	}
	observationCount, err := useCase.ObservationCount()
	if err != nil {
		log.Fatalf("Failed to count observations: %v", err)
	}
	statuses, err := useCase.Statuses()
	if err != nil {
		log.Fatalf("Failed to read park statuses: %v", err)
	}

	fmt.Println("==================================================")
	fmt.Println("Wait Time Tracker - Status")
	fmt.Println("==================================================")
	fmt.Printf("Parks tracked: %d\n", len(cfg.Parks))
	for _, park := range cfg.Parks {
		fmt.Printf("  - %s\n", park.Name)
	}
	fmt.Printf("\nRides in database: %d\n", rideCount)
	fmt.Printf("Wait time records: %d\n", observationCount)

	if len(statuses) > 0 {
		fmt.Println("\nLast successful observation:")
		for _, status := range statuses {
			if status.LastObservedAt.IsZero() {
				fmt.Printf("  - %s: no data yet\n", status.Park.Name)
			} else {
				fmt.Printf("  - %s: %s\n", status.Park.Name, status.LastObservedAt.Format("2006-01-02 15:04:05"))
			}
		}
	}
	fmt.Println("==================================================")
}
