package loadgen

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

// Post performs a POST request with JSON body
func (c *HTTPClient) Post(ctx context.Context, url string, body interface{}) (*http.Response, error) {
	jsonData, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewBuffer(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	return c.client.Do(req)
}

// postJSON posts body and returns the status code and response payload.
func (c *HTTPClient) postJSON(ctx context.Context, url string, body interface{}) (int, []byte, error) {
	resp, err := c.Post(ctx, url, body)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("failed to read response: %w", err)
	}
	return resp.StatusCode, payload, nil
}

// submission is the outcome of one /predict call.
type submission struct {
	ok      bool
	cached  bool
	premium float64
}

// submitProfiles posts every profile concurrently and returns the outcomes by index.
// Failed submissions have ok=false.
func submitProfiles(ctx context.Context, config *Config, profiles []Profile, stats *Stats) []submission {
	log.Printf("submitting %d profiles with %d workers...", len(profiles), config.Workers)

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/predict"
	results := make([]submission, len(profiles))

	var (
		submitted  int64
		successful int64
		failed     int64
		cached     int64
	)

	// Progress reporting
	var lastReport atomic.Int64
	reportInterval := time.Second

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
				}

				result, err := submitSingleProfile(ctx, client, url, profiles[index])
				atomic.AddInt64(&submitted, 1)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					if config.Verbose {
						log.Printf("profile %d failed: %v", index, err)
					}
				} else {
					atomic.AddInt64(&successful, 1)
					if result.cached {
						atomic.AddInt64(&cached, 1)
					}
					results[index] = result
				}

				now := time.Now().UnixNano()
				last := lastReport.Load()
				if now-last >= int64(reportInterval) && lastReport.CompareAndSwap(last, now) {
					log.Printf("progress: %d/%d submitted (success: %d, failed: %d)",
						atomic.LoadInt64(&submitted), len(profiles),
						atomic.LoadInt64(&successful), atomic.LoadInt64(&failed))
				}
			}
		}()
	}

	go func() {
		defer close(indexChan)
		for i := range profiles {
			select {
			case <-ctx.Done():
				return
			case indexChan <- i:
			}
		}
	}()

	wg.Wait()

	stats.Submitted = int(atomic.LoadInt64(&submitted))
	stats.Successful = int(atomic.LoadInt64(&successful))
	stats.Failed = int(atomic.LoadInt64(&failed))
	stats.CachedResponses = int(atomic.LoadInt64(&cached))

	seen := false
	for _, r := range results {
		if !r.ok {
			continue
		}
		if !seen || r.premium < stats.MinPremium {
			seen = true
			stats.MinPremium = r.premium
		}
		if r.premium > stats.MaxPremium {
			stats.MaxPremium = r.premium
		}
		stats.SumPremium += r.premium
	}

	log.Printf("submission completed: successful %d, failed %d, cached %d",
		stats.Successful, stats.Failed, stats.CachedResponses)

	return results
}

// submitSingleProfile posts one profile and decodes the quote.
func submitSingleProfile(ctx context.Context, client *HTTPClient, url string, p Profile) (submission, error) {
	status, body, err := client.postJSON(ctx, url, p)
	if err != nil {
		return submission{}, fmt.Errorf("request failed: %w", err)
	}
	if status != StatusOK {
		return submission{}, fmt.Errorf("HTTP %d: %s", status, string(body))
	}

	var q Quote
	if err := json.Unmarshal(body, &q); err != nil {
		return submission{}, fmt.Errorf("failed to parse response: %w", err)
	}
	return submission{ok: true, cached: q.Cached, premium: q.Premium}, nil
}
