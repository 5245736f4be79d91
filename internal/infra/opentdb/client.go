package opentdb

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"edumint-quiz-service/internal/domain"
	"golang.org/x/sync/singleflight"
)

const DefaultURL = "https://opentdb.com/api.php"

// Client fetches multiple-choice trivia questions from the Open Trivia DB API.
// Concurrent fetches are coalesced into a single upstream request; callers
// still perform their own selection over the shared pool.
type Client struct {
	httpClient *http.Client
	baseURL    string
	amount     int
	category   int
	difficulty string
	sf         singleflight.Group
}

type apiResponse struct {
	ResponseCode int                 `json:"response_code"`
	Results      []domain.TriviaItem `json:"results"`
}

func NewClient(baseURL string, amount, category int, difficulty string, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = DefaultURL
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		baseURL:    baseURL,
		amount:     amount,
		category:   category,
		difficulty: difficulty,
	}
}

// Fetch requests a batch of questions. Transport errors and non-200 statuses
// are reported as ErrUpstreamUnavailable, a non-zero provider response code as
// ErrUpstreamRejected; there is no retry and no stale fallback.
func (c *Client) Fetch(ctx context.Context) ([]domain.TriviaItem, error) {
	result, err, _ := c.sf.Do("fetch", func() (interface{}, error) {
		return c.fetch(ctx)
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.TriviaItem), nil
}

func (c *Client) fetch(ctx context.Context) ([]domain.TriviaItem, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.requestURL(), nil)
	if err != nil {
		return nil, err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrUpstreamUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("%w: status %d", domain.ErrUpstreamUnavailable, resp.StatusCode)
	}

	var payload apiResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("%w: decode: %v", domain.ErrUpstreamUnavailable, err)
	}
	if payload.ResponseCode != 0 {
		return nil, fmt.Errorf("%w: response_code %d", domain.ErrUpstreamRejected, payload.ResponseCode)
	}
	return payload.Results, nil
}

func (c *Client) requestURL() string {
	query := url.Values{}
	query.Set("amount", strconv.Itoa(c.amount))
	if c.category > 0 {
		query.Set("category", strconv.Itoa(c.category))
	}
	if c.difficulty != "" {
		query.Set("difficulty", c.difficulty)
	}
	query.Set("type", "multiple")
	return c.baseURL + "?" + query.Encode()
}
