// Package entities contains the core domain objects for the wait-times tracker
package entities

import (
	"time"
)

// Park represents a theme park tracked by the collector.
// The ID is the stable external Queue-Times API id.
type Park struct {
	ID   int64
	Name string
}

// Land represents a themed area within a park (e.g. "The Wizarding World of Harry Potter").
type Land struct {
	ID     int64
	ParkID int64
	Name   string
}

// Ride represents a single attraction. LandID is nil for rides that appear
// in the API's top-level rides array (usually single rider queues).
type Ride struct {
	ID     int64
	ParkID int64
	LandID *int64
	Name   string
}

// WaitTimeObservation records one ride's wait status at one point in time.
// WaitMinutes is nil when the ride is closed. Observations are immutable
// once written; (RideID, ObservedAt) identifies a logical observation.
type WaitTimeObservation struct {
	RideID         int64
	WaitMinutes    *int64
	IsOpen         bool
	ObservedAt     time.Time
	APILastUpdated string // last_updated timestamp from the API, stored verbatim
}

// NormalizedBatch is the flat output of normalizing one park snapshot:
// the dimension rows seen in the snapshot plus one observation per parsed
// ride, all stamped with the same observation time. Anomalies counts the
// land/ride entries skipped because they were missing identifying fields.
type NormalizedBatch struct {
	Park         Park
	Lands        []Land
	Rides        []Ride
	Observations []WaitTimeObservation
	Anomalies    int
}
