// Package normalizer flattens raw Queue-Times API snapshots into typed
// dimension and observation records.
package normalizer

import (
	"log"
	"time"

	"github.com/mpetrov/wait-times-bot/internal/entities"
	"github.com/mpetrov/wait-times-bot/internal/integration"
)

// Normalize walks the park -> land -> ride hierarchy of a raw snapshot and
// produces one NormalizedBatch: the dimension rows seen in this snapshot
// plus exactly one observation per successfully parsed ride, all stamped
// with observedAt. Rides appear both nested under lands and in the API's
// top-level rides array; both forms are handled. Entries missing an id or
// a name are skipped and counted as anomalies rather than aborting the
// batch, so upstream schema drift never halts the pipeline.
func Normalize(park entities.Park, snapshot *integration.RawSnapshot, observedAt time.Time) entities.NormalizedBatch {
	batch := entities.NormalizedBatch{Park: park}

	for _, land := range snapshot.Lands {
		if land.ID == nil || land.Name == "" {
			log.Printf("Warning: skipping land with missing id or name in park %d", park.ID)
			batch.Anomalies++
			continue
		}

		landID := *land.ID
		batch.Lands = append(batch.Lands, entities.Land{
			ID:     landID,
			ParkID: park.ID,
			Name:   land.Name,
		})

		for _, ride := range land.Rides {
			appendRide(&batch, park.ID, &landID, ride)
		}
	}

	// Standalone rides (usually single rider queues) have no land.
	for _, ride := range snapshot.Rides {
		appendRide(&batch, park.ID, nil, ride)
	}

	log.Printf("Normalized park %d: %d lands, %d rides, %d anomalies",
		park.ID, len(batch.Lands), len(batch.Rides), batch.Anomalies)

	for i := range batch.Observations {
		batch.Observations[i].ObservedAt = observedAt
	}

	return batch
}

// appendRide adds one ride's dimension row and observation to the batch,
// or counts an anomaly if the entry is missing identifying fields.
func appendRide(batch *entities.NormalizedBatch, parkID int64, landID *int64, ride integration.RawRide) {
	if ride.ID == nil || ride.Name == "" {
		log.Printf("Warning: skipping ride with missing id or name in park %d", parkID)
		batch.Anomalies++
		return
	}

	batch.Rides = append(batch.Rides, entities.Ride{
		ID:     *ride.ID,
		ParkID: parkID,
		LandID: landID,
		Name:   ride.Name,
	})

	// A null or absent wait time means the ride is not reporting a queue:
	// record it as closed with no wait. A numeric wait time means open.
	obs := entities.WaitTimeObservation{
		RideID:         *ride.ID,
		APILastUpdated: ride.LastUpdated,
	}
	if ride.WaitTime != nil {
		wait := *ride.WaitTime
		obs.WaitMinutes = &wait
		obs.IsOpen = true
	}
	batch.Observations = append(batch.Observations, obs)
}
