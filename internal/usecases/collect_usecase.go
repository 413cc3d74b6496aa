// Package usecases contains the application's business logic
package usecases

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mpetrov/wait-times-bot/internal/config"
	"github.com/mpetrov/wait-times-bot/internal/entities"
	"github.com/mpetrov/wait-times-bot/internal/integration"
	"github.com/mpetrov/wait-times-bot/internal/normalizer"
	"github.com/mpetrov/wait-times-bot/internal/repository"
)

// ParkResult is the outcome of one park's collection pipeline.
type ParkResult struct {
	Park       entities.Park
	Records    int
	Duplicates int
	Anomalies  int
	Err        error
}

// RunSummary aggregates per-park results for one collection run.
type RunSummary struct {
	StartedAt time.Time
	Results   []ParkResult
}

// Succeeded returns how many parks collected without error.
func (s RunSummary) Succeeded() int {
	n := 0
	for _, r := range s.Results {
		if r.Err == nil {
			n++
		}
	}
	return n
}

// Failed returns how many parks failed to collect.
func (s RunSummary) Failed() int {
	return len(s.Results) - s.Succeeded()
}

// CollectUseCase runs the fetch -> normalize -> persist pipeline and serves
// the read-side queries used by the status check and the bot.
type CollectUseCase struct {
	repo   repository.WaitTimeRepository
	client *integration.QueueTimesClient
	cfg    *config.Config
}

// NewCollectUseCase creates a new collection use case
func NewCollectUseCase(repo repository.WaitTimeRepository, client *integration.QueueTimesClient, cfg *config.Config) *CollectUseCase {
	return &CollectUseCase{
		repo:   repo,
		client: client,
		cfg:    cfg,
	}
}

// CollectAll runs one collection cycle over every configured park. Each
// park's pipeline is independent: a failure is recorded in its result and
// the run proceeds to the next park. All parks in a run share one
// observation timestamp so snapshots line up across parks.
func (uc *CollectUseCase) CollectAll() RunSummary {
	log.Println("Starting data collection for all parks")

	// Truncated to the second so the timestamp round-trips through the
	// database identically and duplicate runs collide on the unique key.
	observedAt := time.Now().Truncate(time.Second)
	summary := RunSummary{StartedAt: observedAt}

	for _, park := range uc.cfg.Parks {
		result := uc.CollectPark(park, observedAt)
		summary.Results = append(summary.Results, result)

		if result.Err != nil {
			log.Printf("Failed to collect data for %s: %v", park.Name, result.Err)
		} else {
			log.Printf("Inserted %d records for %s (%d duplicates, %d anomalies)",
				result.Records, park.Name, result.Duplicates, result.Anomalies)
		}
	}

	total := 0
	for _, r := range summary.Results {
		total += r.Records
	}
	log.Printf("Collection complete: %d total records", total)
	if failed := summary.Failed(); failed > 0 {
		log.Printf("Warning: %d park(s) failed to collect", failed)
	}

	return summary
}

// CollectPark runs the pipeline for a single park: fetch the snapshot,
// normalize it, and apply the batch. The park id is validated against the
// configured set before any network call.
func (uc *CollectUseCase) CollectPark(park entities.Park, observedAt time.Time) ParkResult {
	result := ParkResult{Park: park}

	if _, err := uc.cfg.ParkName(park.ID); err != nil {
		result.Err = err
		return result
	}

	log.Printf("Collecting data for %s (ID: %d)", park.Name, park.ID)

	snapshot, err := uc.client.Fetch(park.ID)
	if err != nil {
		result.Err = err
		return result
	}

	batch := normalizer.Normalize(park, snapshot, observedAt)
	result.Anomalies = batch.Anomalies

	applied, err := uc.repo.ApplyBatch(batch)
	if err != nil {
		result.Err = fmt.Errorf("failed to save data for %s: %v", park.Name, err)
		return result
	}

	result.Records = applied.Observations
	result.Duplicates = applied.Duplicates
	return result
}

// Statuses returns the last successful observation time per park.
func (uc *CollectUseCase) Statuses() ([]repository.ParkStatus, error) {
	log.Println("Retrieving park statuses")
	return uc.repo.ParkStatuses()
}

// AvailableParks returns the parks present in the database.
func (uc *CollectUseCase) AvailableParks() ([]entities.Park, error) {
	log.Println("Retrieving list of available parks")
	return uc.repo.ListParks()
}

// RideCount returns the total number of rides in the database.
func (uc *CollectUseCase) RideCount() (int, error) {
	return uc.repo.RideCount()
}

// ObservationCount returns the total number of wait time observations.
func (uc *CollectUseCase) ObservationCount() (int, error) {
	return uc.repo.ObservationCount()
}

// ParkWaitTimes retrieves the latest wait time per ride for a park.
func (uc *CollectUseCase) ParkWaitTimes(parkName string) ([]repository.RideWaitTime, error) {
	log.Printf("Retrieving wait times for park: %s", parkName)
	return uc.repo.LatestParkWaitTimes(parkName)
}

// FormatParkWaitTimes formats a park's latest wait times for display,
// grouped by land.
func (uc *CollectUseCase) FormatParkWaitTimes(parkName string, waitTimes []repository.RideWaitTime) string {
	if len(waitTimes) == 0 {
		return "No wait time information available for this park."
	}

	var result strings.Builder
	result.WriteString(fmt.Sprintf("Wait times for %s:\n\n", parkName))

	currentLand := "\x00"
	for _, wt := range waitTimes {
		if wt.LandName != currentLand {
			currentLand = wt.LandName
			if currentLand == "" {
				result.WriteString("🎡 Other attractions\n")
			} else {
				result.WriteString(fmt.Sprintf("🎡 %s\n", currentLand))
			}
		}

		if wt.IsOpen && wt.WaitMinutes != nil {
			result.WriteString(fmt.Sprintf("  🎢 %s: ⏱ %d min\n", wt.RideName, *wt.WaitMinutes))
		} else {
			result.WriteString(fmt.Sprintf("  🎢 %s: ⛔ closed\n", wt.RideName))
		}
	}

	result.WriteString(fmt.Sprintf("\n🕒 Last update: %s", waitTimes[0].ObservedAt.Format("2006-01-02 15:04:05")))

	return result.String()
}
