package normalizer

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mpetrov/wait-times-bot/internal/entities"
	"github.com/mpetrov/wait-times-bot/internal/integration"
)

var testPark = entities.Park{ID: 64, Name: "Islands of Adventure"}

func decodeSnapshot(t *testing.T, raw string) *integration.RawSnapshot {
	t.Helper()
	var snapshot integration.RawSnapshot
	require.NoError(t, json.Unmarshal([]byte(raw), &snapshot))
	return &snapshot
}

func TestNormalizeNestedLands(t *testing.T) {
	snapshot := decodeSnapshot(t, `{
		"lands": [
			{"id": 1, "name": "Seuss Landing", "rides": [
				{"id": 101, "name": "The Cat in the Hat", "is_open": true, "wait_time": 20, "last_updated": "2025-08-25T14:00:00Z"},
				{"id": 102, "name": "One Fish Two Fish", "is_open": false, "wait_time": null}
			]}
		]
	}`)

	observedAt := time.Date(2025, 8, 25, 14, 30, 0, 0, time.UTC)
	batch := Normalize(testPark, snapshot, observedAt)

	assert.Equal(t, testPark, batch.Park)
	assert.Zero(t, batch.Anomalies)

	require.Len(t, batch.Lands, 1)
	assert.Equal(t, entities.Land{ID: 1, ParkID: 64, Name: "Seuss Landing"}, batch.Lands[0])

	require.Len(t, batch.Rides, 2)
	require.NotNil(t, batch.Rides[0].LandID)
	assert.Equal(t, int64(1), *batch.Rides[0].LandID)

	require.Len(t, batch.Observations, 2)
	for _, obs := range batch.Observations {
		assert.Equal(t, observedAt, obs.ObservedAt, "every observation shares the snapshot timestamp")
	}

	open := batch.Observations[0]
	assert.True(t, open.IsOpen)
	require.NotNil(t, open.WaitMinutes)
	assert.Equal(t, int64(20), *open.WaitMinutes)
	assert.Equal(t, "2025-08-25T14:00:00Z", open.APILastUpdated)
}

func TestNormalizeNullWaitTimeMeansClosed(t *testing.T) {
	snapshot := decodeSnapshot(t, `{
		"lands": [
			{"id": 1, "name": "Marvel Super Hero Island", "rides": [
				{"id": 103, "name": "The Incredible Hulk Coaster", "is_open": true, "wait_time": null}
			]}
		]
	}`)

	batch := Normalize(testPark, snapshot, time.Now())

	require.Len(t, batch.Observations, 1)
	obs := batch.Observations[0]
	assert.False(t, obs.IsOpen)
	assert.Nil(t, obs.WaitMinutes)
}

func TestNormalizeFlatRidesArray(t *testing.T) {
	snapshot := decodeSnapshot(t, `{
		"rides": [
			{"id": 201, "name": "Single Rider Queue", "is_open": true, "wait_time": 5}
		]
	}`)

	batch := Normalize(testPark, snapshot, time.Now())

	assert.Empty(t, batch.Lands)
	require.Len(t, batch.Rides, 1)
	assert.Nil(t, batch.Rides[0].LandID, "flat rides have no land")
	require.Len(t, batch.Observations, 1)
	assert.True(t, batch.Observations[0].IsOpen)
}

func TestNormalizeSkipsRidesMissingID(t *testing.T) {
	snapshot := decodeSnapshot(t, `{
		"lands": [
			{"id": 1, "name": "Toon Lagoon", "rides": [
				{"name": "Nameless Wonder", "is_open": true, "wait_time": 15},
				{"id": 104, "name": "Dudley Do-Right's Ripsaw Falls", "is_open": true, "wait_time": 30}
			]}
		]
	}`)

	batch := Normalize(testPark, snapshot, time.Now())

	assert.Equal(t, 1, batch.Anomalies)
	require.Len(t, batch.Rides, 1, "the valid ride in the same batch survives")
	assert.Equal(t, int64(104), batch.Rides[0].ID)
	assert.Len(t, batch.Observations, 1)
}

func TestNormalizeSkipsLandsMissingID(t *testing.T) {
	snapshot := decodeSnapshot(t, `{
		"lands": [
			{"name": "Ghost Land", "rides": [
				{"id": 105, "name": "Phantom Ride", "is_open": true, "wait_time": 25}
			]},
			{"id": 2, "name": "Jurassic Park", "rides": [
				{"id": 106, "name": "Jurassic Park River Adventure", "is_open": true, "wait_time": 40}
			]}
		]
	}`)

	batch := Normalize(testPark, snapshot, time.Now())

	assert.Equal(t, 1, batch.Anomalies)
	require.Len(t, batch.Lands, 1)
	assert.Equal(t, int64(2), batch.Lands[0].ID)
	require.Len(t, batch.Rides, 1)
	assert.Equal(t, int64(106), batch.Rides[0].ID)
}

func TestNormalizeIgnoresUnknownFields(t *testing.T) {
	snapshot := decodeSnapshot(t, `{
		"lands": [
			{"id": 1, "name": "Port of Entry", "mascot": "parrot", "rides": [
				{"id": 107, "name": "Carousel", "is_open": true, "wait_time": 0, "virtual_queue": true}
			]}
		],
		"park_theme": "adventure"
	}`)

	batch := Normalize(testPark, snapshot, time.Now())

	assert.Zero(t, batch.Anomalies)
	require.Len(t, batch.Observations, 1)
	obs := batch.Observations[0]
	assert.True(t, obs.IsOpen, "a zero wait time still means the ride is open")
	require.NotNil(t, obs.WaitMinutes)
	assert.Equal(t, int64(0), *obs.WaitMinutes)
}
