package testsubmissions

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HTTPClient wraps http.Client with a timeout.
type HTTPClient struct {
	client *http.Client
}

// newHTTPClient creates a new HTTP client with timeout.
func newHTTPClient(timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		client: &http.Client{Timeout: timeout},
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	return c.client.Do(req)
}

// Post performs a POST request with a JSON body.
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

// readResponseBody reads and closes the response body.
func readResponseBody(resp *http.Response) ([]byte, error) {
	defer resp.Body.Close()
	return io.ReadAll(resp.Body)
}

// submitSubmissions posts submissions concurrently and tallies decisions.
func submitSubmissions(ctx context.Context, config *Config, subs []Submission, stats *Stats) error {
	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/submissions"

	var (
		submitted  int64
		green      int64
		yellow     int64
		red        int64
		duplicates int64
		failed     int64
	)

	subChan := make(chan Submission, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for sub := range subChan {
				select {
				case <-ctx.Done():
					return
				default:
				}

				decision, err := submitSingle(ctx, client, url, sub)
				atomic.AddInt64(&submitted, 1)
				if err != nil {
					atomic.AddInt64(&failed, 1)
					continue
				}
				switch decision.Tier {
				case "GREEN":
					atomic.AddInt64(&green, 1)
				case "YELLOW":
					atomic.AddInt64(&yellow, 1)
				case "RED":
					atomic.AddInt64(&red, 1)
				}
				if decision.DuplicateOf != "" {
					atomic.AddInt64(&duplicates, 1)
				}
			}
		}()
	}

	go func() {
		defer close(subChan)
		for _, sub := range subs {
			select {
			case <-ctx.Done():
				return
			case subChan <- sub:
			}
		}
	}()

	wg.Wait()

	stats.Submitted = int(atomic.LoadInt64(&submitted))
	stats.Green = int(atomic.LoadInt64(&green))
	stats.Yellow = int(atomic.LoadInt64(&yellow))
	stats.Red = int(atomic.LoadInt64(&red))
	stats.Duplicates = int(atomic.LoadInt64(&duplicates))
	stats.Failed = int(atomic.LoadInt64(&failed))

	return nil
}

// submitSingle posts one submission and parses the decision.
func submitSingle(ctx context.Context, client *HTTPClient, url string, sub Submission) (Decision, error) {
	resp, err := client.Post(ctx, url, sub)
	if err != nil {
		return Decision{}, fmt.Errorf("post submission: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return Decision{}, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return Decision{}, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var decision Decision
	if err := json.Unmarshal(body, &decision); err != nil {
		return Decision{}, fmt.Errorf("decode decision: %w", err)
	}
	return decision, nil
}

// resolveReviews fetches pending reviews and records alternating
// verdicts for a sample of them.
func resolveReviews(ctx context.Context, config *Config, stats *Stats) error {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, fmt.Sprintf("%s/reviews?limit=%d", config.BaseURL, config.ReviewSample))
	if err != nil {
		return fmt.Errorf("list pending reviews: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return fmt.Errorf("read pending reviews: %w", err)
	}
	if resp.StatusCode != StatusOK {
		return fmt.Errorf("unexpected status %d: %s", resp.StatusCode, body)
	}

	var pending []Decision
	if err := json.Unmarshal(body, &pending); err != nil {
		return fmt.Errorf("decode pending reviews: %w", err)
	}

	for i, d := range pending {
		verdict := "APPROVE"
		if i%2 == 1 {
			verdict = "REJECT"
		}
		url := fmt.Sprintf("%s/reviews/%s/verdict", config.BaseURL, d.SubmissionID)
		resp, err := client.Post(ctx, url, map[string]string{"verdict": verdict})
		if err != nil {
			return fmt.Errorf("post verdict: %w", err)
		}
		if _, err := readResponseBody(resp); err != nil {
			return fmt.Errorf("read verdict response: %w", err)
		}
		if resp.StatusCode == StatusOK {
			stats.VerdictsRecorded++
		}
	}
	return nil
}
