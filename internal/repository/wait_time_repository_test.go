package repository

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpetrov/wait-times-bot/internal/entities"
)

func newTestRepo(t *testing.T) *SQLiteWaitTimeRepository {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test-wait-times.db")
	repo, err := NewSQLiteWaitTimeRepository(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo
}

func intPtr(v int64) *int64 { return &v }

// sampleBatch builds one park snapshot: two rides in a land plus one
// standalone ride, two open and one closed.
func sampleBatch(observedAt time.Time) entities.NormalizedBatch {
	landID := int64(1)
	return entities.NormalizedBatch{
		Park: entities.Park{ID: 64, Name: "Islands of Adventure"},
		Lands: []entities.Land{
			{ID: landID, ParkID: 64, Name: "The Wizarding World of Harry Potter"},
		},
		Rides: []entities.Ride{
			{ID: 101, ParkID: 64, LandID: &landID, Name: "Hagrid's Magical Creatures Motorbike Adventure"},
			{ID: 102, ParkID: 64, LandID: &landID, Name: "Flight of the Hippogriff"},
			{ID: 201, ParkID: 64, Name: "Hulk Single Rider"},
		},
		Observations: []entities.WaitTimeObservation{
			{RideID: 101, WaitMinutes: intPtr(90), IsOpen: true, ObservedAt: observedAt},
			{RideID: 102, IsOpen: false, ObservedAt: observedAt},
			{RideID: 201, WaitMinutes: intPtr(15), IsOpen: true, ObservedAt: observedAt},
		},
	}
}

func TestApplyBatchPersistsSnapshot(t *testing.T) {
	repo := newTestRepo(t)
	observedAt := time.Date(2025, 8, 25, 14, 30, 0, 0, time.UTC)

	result, err := repo.ApplyBatch(sampleBatch(observedAt))
	require.NoError(t, err)
	assert.Equal(t, 3, result.Observations)
	assert.Zero(t, result.Duplicates)

	rideCount, err := repo.RideCount()
	require.NoError(t, err)
	assert.Equal(t, 3, rideCount)

	obsCount, err := repo.ObservationCount()
	require.NoError(t, err)
	assert.Equal(t, 3, obsCount)

	parks, err := repo.ListParks()
	require.NoError(t, err)
	require.Len(t, parks, 1)
	assert.Equal(t, "Islands of Adventure", parks[0].Name)

	statuses, err := repo.ParkStatuses()
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].LastObservedAt.Equal(observedAt),
		"expected last observation %v, got %v", observedAt, statuses[0].LastObservedAt)
}

func TestApplyBatchIsIdempotent(t *testing.T) {
	repo := newTestRepo(t)
	observedAt := time.Date(2025, 8, 25, 14, 30, 0, 0, time.UTC)
	batch := sampleBatch(observedAt)

	first, err := repo.ApplyBatch(batch)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Observations)

	// A retried run re-applies the identical batch; nothing may duplicate.
	second, err := repo.ApplyBatch(batch)
	require.NoError(t, err)
	assert.Zero(t, second.Observations)
	assert.Equal(t, 3, second.Duplicates)

	obsCount, err := repo.ObservationCount()
	require.NoError(t, err)
	assert.Equal(t, 3, obsCount)

	rideCount, err := repo.RideCount()
	require.NoError(t, err)
	assert.Equal(t, 3, rideCount)

	parks, err := repo.ListParks()
	require.NoError(t, err)
	assert.Len(t, parks, 1)
}

func TestApplyBatchUpdatesNamesOnChange(t *testing.T) {
	repo := newTestRepo(t)
	observedAt := time.Date(2025, 8, 25, 14, 30, 0, 0, time.UTC)

	_, err := repo.ApplyBatch(sampleBatch(observedAt))
	require.NoError(t, err)

	renamed := sampleBatch(observedAt.Add(30 * time.Minute))
	renamed.Park.Name = "Universal Islands of Adventure"
	renamed.Rides[0].Name = "Hagrid's Motorbike Adventure"

	_, err = repo.ApplyBatch(renamed)
	require.NoError(t, err)

	parks, err := repo.ListParks()
	require.NoError(t, err)
	require.Len(t, parks, 1, "rename must not create a second dimension row")
	assert.Equal(t, "Universal Islands of Adventure", parks[0].Name)

	waitTimes, err := repo.LatestParkWaitTimes("Universal Islands of Adventure")
	require.NoError(t, err)
	names := make([]string, 0, len(waitTimes))
	for _, wt := range waitTimes {
		names = append(names, wt.RideName)
	}
	assert.Contains(t, names, "Hagrid's Motorbike Adventure")
}

func TestApplyBatchRejectsObservationWithoutRide(t *testing.T) {
	repo := newTestRepo(t)
	observedAt := time.Date(2025, 8, 25, 14, 30, 0, 0, time.UTC)

	batch := entities.NormalizedBatch{
		Park: entities.Park{ID: 64, Name: "Islands of Adventure"},
		Observations: []entities.WaitTimeObservation{
			{RideID: 999, WaitMinutes: intPtr(10), IsOpen: true, ObservedAt: observedAt},
		},
	}

	_, err := repo.ApplyBatch(batch)
	require.Error(t, err, "observation for an unknown ride must violate the foreign key")

	// The whole transaction rolls back, including the park upsert.
	parks, err := repo.ListParks()
	require.NoError(t, err)
	assert.Empty(t, parks)

	obsCount, err := repo.ObservationCount()
	require.NoError(t, err)
	assert.Zero(t, obsCount)
}

func TestLatestParkWaitTimes(t *testing.T) {
	repo := newTestRepo(t)
	first := time.Date(2025, 8, 25, 14, 0, 0, 0, time.UTC)
	second := first.Add(30 * time.Minute)

	_, err := repo.ApplyBatch(sampleBatch(first))
	require.NoError(t, err)

	// Next snapshot: the closed ride reopens.
	update := sampleBatch(second)
	update.Observations[1] = entities.WaitTimeObservation{
		RideID: 102, WaitMinutes: intPtr(25), IsOpen: true, ObservedAt: second,
	}
	_, err = repo.ApplyBatch(update)
	require.NoError(t, err)

	waitTimes, err := repo.LatestParkWaitTimes("islands of adventure")
	require.NoError(t, err)
	require.Len(t, waitTimes, 3, "one latest observation per ride")

	byName := make(map[string]RideWaitTime, len(waitTimes))
	for _, wt := range waitTimes {
		byName[wt.RideName] = wt
		assert.True(t, wt.ObservedAt.Equal(second), "only the newest snapshot should be reported")
	}

	hippogriff := byName["Flight of the Hippogriff"]
	assert.True(t, hippogriff.IsOpen)
	require.NotNil(t, hippogriff.WaitMinutes)
	assert.Equal(t, int64(25), *hippogriff.WaitMinutes)

	single := byName["Hulk Single Rider"]
	assert.Empty(t, single.LandName, "standalone rides carry no land")
}

func TestParkStatusesWithoutObservations(t *testing.T) {
	repo := newTestRepo(t)

	batch := entities.NormalizedBatch{
		Park: entities.Park{ID: 334, Name: "Epic Universe"},
	}
	_, err := repo.ApplyBatch(batch)
	require.NoError(t, err)

	statuses, err := repo.ParkStatuses()
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.True(t, statuses[0].LastObservedAt.IsZero())
}
