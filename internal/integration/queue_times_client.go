// Package integration handles external service interactions
package integration

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/mpetrov/wait-times-bot/internal/config"
)

// RawRide is a single ride entry as the API returns it. Pointer fields
// distinguish absent values from zero values: an entry with a nil ID or an
// empty Name is anomalous and gets skipped by the normalizer. Extra fields
// in the response are ignored.
type RawRide struct {
	ID          *int64 `json:"id"`
	Name        string `json:"name"`
	IsOpen      *bool  `json:"is_open"`
	WaitTime    *int64 `json:"wait_time"`
	LastUpdated string `json:"last_updated"`
}

// RawLand is a themed area wrapping a group of rides.
type RawLand struct {
	ID    *int64    `json:"id"`
	Name  string    `json:"name"`
	Rides []RawRide `json:"rides"`
}

// RawSnapshot is the decoded response tree for one park. The API returns
// rides both nested under lands and in a top-level rides array; some parks
// in this API family use only the flat form.
type RawSnapshot struct {
	Lands []RawLand `json:"lands"`
	Rides []RawRide `json:"rides"`
}

// NetworkError reports that fetching a park's snapshot failed after all
// retry attempts were exhausted (or immediately, for non-transient HTTP
// statuses).
type NetworkError struct {
	ParkID int64
	Err    error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("network failure for park %d: %v", e.ParkID, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }

// ParseError reports a response body that was not valid JSON. Not retried:
// a malformed body is not a transient condition.
type ParseError struct {
	ParkID int64
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("malformed response for park %d: %v", e.ParkID, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// QueueTimesClient fetches wait time snapshots from the Queue-Times API.
type QueueTimesClient struct {
	baseURL    string
	client     *http.Client
	maxRetries int
	backoff    time.Duration
}

// NewQueueTimesClient creates a client for the given API base URL.
// An empty URL selects the default Queue-Times endpoint.
func NewQueueTimesClient(baseURL string) *QueueTimesClient {
	if baseURL == "" {
		baseURL = config.DefaultAPIBaseURL
	}
	return &QueueTimesClient{
		baseURL:    baseURL,
		client:     &http.Client{Timeout: config.RequestTimeout},
		maxRetries: config.MaxRetries,
		backoff:    time.Second,
	}
}

// Fetch retrieves the current queue-times snapshot for a park. Transient
// failures (connection errors, timeouts, 5xx responses) are retried with
// exponential backoff; on exhaustion a *NetworkError is returned. A body
// that fails to decode returns a *ParseError without retry.
func (c *QueueTimesClient) Fetch(parkID int64) (*RawSnapshot, error) {
	url := fmt.Sprintf("%s/%d/queue_times.json", c.baseURL, parkID)

	var lastErr error
	for attempt := 0; attempt < c.maxRetries; attempt++ {
		log.Printf("Fetching data for park %d (attempt %d)", parkID, attempt+1)

		snapshot, retryable, err := c.fetchOnce(parkID, url)
		if err == nil {
			return snapshot, nil
		}
		if !retryable {
			return nil, err
		}
		lastErr = err

		// Exponential backoff: 1s, 2s, 4s, ...
		if attempt < c.maxRetries-1 {
			wait := c.backoff << attempt
			log.Printf("Retrying park %d in %s...", parkID, wait)
			time.Sleep(wait)
		}
	}

	log.Printf("Failed to fetch data for park %d after %d attempts", parkID, c.maxRetries)
	return nil, lastErr
}

// fetchOnce performs a single request. The second return value says whether
// the failure is worth retrying.
func (c *QueueTimesClient) fetchOnce(parkID int64, url string) (*RawSnapshot, bool, error) {
	res, err := c.client.Get(url)
	if err != nil {
		log.Printf("Error fetching park %d: %v", parkID, err)
		return nil, true, &NetworkError{ParkID: parkID, Err: err}
	}
	defer res.Body.Close()

	if res.StatusCode >= 500 {
		log.Printf("Server error for park %d: %s", parkID, res.Status)
		return nil, true, &NetworkError{ParkID: parkID, Err: fmt.Errorf("unexpected status code: %s", res.Status)}
	}
	if res.StatusCode != http.StatusOK {
		log.Printf("Received unexpected status code for park %d: %s", parkID, res.Status)
		return nil, false, &NetworkError{ParkID: parkID, Err: fmt.Errorf("unexpected status code: %s", res.Status)}
	}

	body, err := io.ReadAll(res.Body)
	if err != nil {
		log.Printf("Error reading response body for park %d: %v", parkID, err)
		return nil, true, &NetworkError{ParkID: parkID, Err: err}
	}

	var snapshot RawSnapshot
	if err := json.Unmarshal(body, &snapshot); err != nil {
		log.Printf("Error decoding response for park %d: %v", parkID, err)
		return nil, false, &ParseError{ParkID: parkID, Err: err}
	}

	return &snapshot, false, nil
}
