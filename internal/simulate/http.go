package simulate

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

	"github.com/okian/tapcircle/pkg/logger"
)

// HTTPClient wraps http.Client with a request timeout.
type HTTPClient struct {
	client *http.Client
}

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
	defer func() { _ = resp.Body.Close() }()
	return io.ReadAll(resp.Body)
}

// submitSessions posts every session to /stats/record using a worker pool.
func submitSessions(ctx context.Context, config *Config, sessions []Session, stats *Stats) error {
	logger.Get().Info(ctx, "submitting sessions",
		logger.Int("sessions", len(sessions)),
		logger.Int("workers", config.Workers))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/stats/record"

	var (
		submitted  int64
		successful int64
		duplicate  int64
		failed     int64
	)

	sessionChan := make(chan Session, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for session := range sessionChan {
				select {
				case <-ctx.Done():
					return
				default:
					atomic.AddInt64(&submitted, 1)
					result := submitSingleSession(ctx, client, url, session)
					switch result {
					case "success":
						atomic.AddInt64(&successful, 1)
					case "duplicate":
						atomic.AddInt64(&duplicate, 1)
					default:
						atomic.AddInt64(&failed, 1)
					}
					logger.Get().Debug(ctx, "session submitted",
						logger.String("sessionID", session.SessionID),
						logger.String("initials", session.Initials),
						logger.Int("score", session.Score),
						logger.String("result", result))
				}
			}
		}()
	}

	go func() {
		defer close(sessionChan)
		for _, session := range sessions {
			select {
			case <-ctx.Done():
				return
			case sessionChan <- session:
			}
		}
	}()

	wg.Wait()

	stats.SessionsSubmitted = int(atomic.LoadInt64(&submitted))
	stats.SessionsSuccessful = int(atomic.LoadInt64(&successful))
	stats.SessionsDuplicate = int(atomic.LoadInt64(&duplicate))
	stats.SessionsFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "session submission completed",
		logger.Int("successful", stats.SessionsSuccessful),
		logger.Int("duplicate", stats.SessionsDuplicate),
		logger.Int("failed", stats.SessionsFailed))

	if stats.SessionsFailed > 0 {
		return fmt.Errorf("%d of %d sessions failed", stats.SessionsFailed, stats.SessionsSubmitted)
	}
	return nil
}

// submitSingleSession posts one session and classifies the outcome.
func submitSingleSession(ctx context.Context, client *HTTPClient, url string, session Session) string {
	resp, err := client.Post(ctx, url, session)
	if err != nil {
		return "failed"
	}

	body, err := readResponseBody(resp)
	if err != nil {
		return "failed"
	}
	if resp.StatusCode != http.StatusOK {
		return "failed"
	}

	var record recordResponse
	if err := json.Unmarshal(body, &record); err == nil && record.Duplicate {
		return "duplicate"
	}
	return "success"
}

// submitScores posts every session's score to the leaderboard.
func submitScores(ctx context.Context, config *Config, sessions []Session, stats *Stats) error {
	logger.Get().Info(ctx, "submitting scores",
		logger.Int("scores", len(sessions)),
		logger.String("gameMode", config.GameMode))

	client := newHTTPClient(config.Timeout)
	url := config.BaseURL + "/scores"

	var (
		submitted int64
		failed    int64
	)

	sessionChan := make(chan Session, config.Workers*2)
	var wg sync.WaitGroup

	for i := 0; i < config.Workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for session := range sessionChan {
				select {
				case <-ctx.Done():
					return
				default:
					atomic.AddInt64(&submitted, 1)
					resp, err := client.Post(ctx, url, scoreSubmission{
						PlayerInitials: session.Initials,
						Score:          session.Score,
						GameMode:       config.GameMode,
					})
					if err != nil {
						atomic.AddInt64(&failed, 1)
						continue
					}
					if _, err := readResponseBody(resp); err != nil || resp.StatusCode != http.StatusCreated {
						atomic.AddInt64(&failed, 1)
					}
				}
			}
		}()
	}

	go func() {
		defer close(sessionChan)
		for _, session := range sessions {
			select {
			case <-ctx.Done():
				return
			case sessionChan <- session:
			}
		}
	}()

	wg.Wait()

	stats.ScoresSubmitted = int(atomic.LoadInt64(&submitted))
	stats.ScoresFailed = int(atomic.LoadInt64(&failed))

	logger.Get().Info(ctx, "score submission completed",
		logger.Int("submitted", stats.ScoresSubmitted),
		logger.Int("failed", stats.ScoresFailed))

	if stats.ScoresFailed > 0 {
		return fmt.Errorf("%d of %d scores failed", stats.ScoresFailed, stats.ScoresSubmitted)
	}
	return nil
}

// getLeaderboard fetches the top of the board for the configured mode.
func getLeaderboard(ctx context.Context, config *Config, stats *Stats) ([]boardEntry, error) {
	client := newHTTPClient(config.Timeout)
	url := fmt.Sprintf("%s/scores?mode=%s&limit=%d", config.BaseURL, config.GameMode, config.TopN)

	resp, err := client.Get(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch leaderboard: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read leaderboard response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("leaderboard request failed with status %d", resp.StatusCode)
	}

	var entries []boardEntry
	if err := json.Unmarshal(body, &entries); err != nil {
		return nil, fmt.Errorf("failed to decode leaderboard: %w", err)
	}

	stats.LeaderboardEntries = len(entries)
	return entries, nil
}

// getAllPlayers fetches every player-statistics record.
func getAllPlayers(ctx context.Context, config *Config, stats *Stats) ([]playerRecord, error) {
	client := newHTTPClient(config.Timeout)

	resp, err := client.Get(ctx, config.BaseURL+"/stats")
	if err != nil {
		return nil, fmt.Errorf("failed to fetch player stats: %w", err)
	}
	body, err := readResponseBody(resp)
	if err != nil {
		return nil, fmt.Errorf("failed to read player stats response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("player stats request failed with status %d", resp.StatusCode)
	}

	var records []playerRecord
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, fmt.Errorf("failed to decode player stats: %w", err)
	}

	stats.PlayersSeen = len(records)
	return records, nil
}
