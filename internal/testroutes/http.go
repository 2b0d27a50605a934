package testroutes

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with timeout
type HTTPClient struct {
	client  *http.Client
	timeout time.Duration
}

// newHTTPClient creates a new HTTP client with timeout
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{
			Timeout: timeout,
		},
		timeout: timeout,
	}
}

// Get performs a GET request
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// PostGPX uploads raw GPX bytes
func (c *HTTPClient) PostGPX(ctx context.Context, url string, gpx []byte) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(gpx))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/gpx+xml")
	return c.client.Do(req)
}

// readResponseBody reads and closes the response body
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitRoutes uploads the generated routes concurrently.
func submitRoutes(ctx context.Context, config *Config, routes []RouteCase, stats *Stats) error {
	log.Printf("Submitting %d routes with %d workers...", len(routes), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/routes"

	var (
		accepted  int64
		duplicate int64
		failed    int64
		submitted int64
	)

	var lastReport time.Time
	reportInterval := 1 * time.Second

	indexChan := make(chan int, config.Workers*WorkerChannelMultiplier)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()

			for index := range indexChan {
				select {
				case <-ctx.Done():
					return
				default:
					id, result := submitSingleRoute(ctx, client, url, routes[index].GPX)
					routes[index].RouteID = id

					atomic.AddInt64(&submitted, 1)
					switch result {
					case "accepted":
						atomic.AddInt64(&accepted, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					case "failed":
						atomic.AddInt64(&failed, 1)
					}

					if time.Since(lastReport) >= reportInterval {
						lastReport = time.Now()
						log.Printf("Submitted: %d/%d (accepted: %d, duplicate: %d, failed: %d)",
							atomic.LoadInt64(&submitted), len(routes),
							atomic.LoadInt64(&accepted),
							atomic.LoadInt64(&duplicate),
							atomic.LoadInt64(&failed))
					}
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range routes {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.RoutesSubmitted = int(atomic.LoadInt64(&submitted))
	stats.RoutesAccepted = int(atomic.LoadInt64(&accepted))
	stats.RoutesDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.RoutesFailed = int(atomic.LoadInt64(&failed))

	log.Printf(`Route submission completed:
   Accepted: %d
   Duplicate: %d
   Failed: %d
`, stats.RoutesAccepted, stats.RoutesDuplicate, stats.RoutesFailed)

	return nil
}

// submitSingleRoute uploads one GPX document and classifies the outcome.
func submitSingleRoute(ctx context.Context, client *HTTPClient, url string, gpx []byte) (string, string) {
	resp, err := client.PostGPX(ctx, url, gpx)
	if err != nil {
		return "", "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "", "failed"
	}

	switch resp.StatusCode {
	case StatusAccepted:
		var ack UploadAck
		if err := json.Unmarshal(body, &ack); err != nil || ack.ID == "" {
			return "", "failed"
		}
		return ack.ID, "accepted"
	case StatusConflict:
		return "", "duplicate"
	default:
		return "", "failed"
	}
}
