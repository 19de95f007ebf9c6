package partner

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"pyramid_empire/internal/domain"
)

// Client asks the partner API whether a wallet finished a partner quest.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
}

// NewClient creates a partner API client; every request is bounded by timeout.
func NewClient(baseURL, apiKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

type verifyResponse struct {
	Verified bool `json:"verified"`
}

// Verify reports whether wallet completed questID on the partner side.
// Transport failures, timeouts and 5xx answers wrap domain.ErrServiceUnavailable.
func (c *Client) Verify(ctx context.Context, wallet string, questID int64) (bool, error) {
	q := url.Values{}
	q.Set("wallet", wallet)
	q.Set("quest_id", strconv.FormatInt(questID, 10))
	endpoint := c.baseURL + "/verify?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, fmt.Errorf("%w: partner api: %v", domain.ErrServiceUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return false, nil
	case resp.StatusCode >= 500:
		return false, fmt.Errorf("%w: partner api: %s", domain.ErrServiceUnavailable, resp.Status)
	case resp.StatusCode != http.StatusOK:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, fmt.Errorf("partner api error: %s - %s", resp.Status, string(body))
	}

	var out verifyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return false, fmt.Errorf("%w: partner api: decode: %v", domain.ErrServiceUnavailable, err)
	}
	return out.Verified, nil
}
