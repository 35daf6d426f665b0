// Package catalog reads the goal and batch listings from the upstream
// catalog services. The gateway is a pure reader and holds no state.
package catalog

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/CHITIJRAJPUTX/Sdv-Unacademy-admin-bot/internal/errors"
)

const defaultTimeout = 15 * time.Second

type Gateway struct {
	Client     *http.Client
	GoalsURL   string
	BatchesURL string
}

func NewGateway(goalsURL, batchesURL string, timeout time.Duration) *Gateway {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Gateway{
		Client:     &http.Client{Timeout: timeout},
		GoalsURL:   goalsURL,
		BatchesURL: batchesURL,
	}
}

// ListGoals fetches the full goal list in one call. Paging into tens is
// the caller's business.
func (g *Gateway) ListGoals(ctx context.Context) ([]Goal, error) {
	body, err := g.get(ctx, g.GoalsURL)
	if err != nil {
		return nil, err
	}

	var goals []Goal
	if err := json.Unmarshal(body, &goals); err != nil {
		return nil, errors.Transport("decode goals response: " + err.Error())
	}
	return goals, nil
}

type batchListResponse struct {
	Results  []Batch `json:"results"`
	Previous *string `json:"previous"`
	Next     *string `json:"next"`
}

// ListBatches fetches one upstream page (upstream enforces the size) of
// batches under a goal, starting at offset.
func (g *Gateway) ListBatches(ctx context.Context, goalUID string, offset int) (*BatchPage, error) {
	endpoint, err := batchesEndpoint(g.BatchesURL, goalUID, offset)
	if err != nil {
		return nil, err
	}

	body, err := g.get(ctx, endpoint)
	if err != nil {
		return nil, err
	}

	var payload batchListResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, errors.Transport("decode batches response: " + err.Error())
	}

	return &BatchPage{
		Results:     payload.Results,
		HasPrevious: payload.Previous != nil && *payload.Previous != "",
		HasNext:     payload.Next != nil && *payload.Next != "",
	}, nil
}

func (g *Gateway) get(ctx context.Context, endpoint string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, errors.Wrap(err, "build catalog request")
	}

	resp, err := g.Client.Do(req)
	if err != nil {
		return nil, errors.Transport("catalog request: " + err.Error())
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return nil, errors.Transport(fmt.Sprintf("catalog request failed: %s", resp.Status))
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 2<<20))
	if err != nil {
		return nil, errors.Transport("read catalog response: " + err.Error())
	}
	return body, nil
}

func batchesEndpoint(baseURL, goalUID string, offset int) (string, error) {
	parsed, err := url.Parse(strings.TrimSpace(baseURL))
	if err != nil {
		return "", errors.Wrap(err, "invalid batches endpoint")
	}
	if parsed.Scheme == "" || parsed.Host == "" {
		return "", errors.Internal("invalid batches endpoint: " + baseURL)
	}

	q := parsed.Query()
	q.Set("goal_uid", goalUID)
	q.Set("limit", strconv.Itoa(PageSize))
	q.Set("offset", strconv.Itoa(offset))
	q.Set("type", "0")
	parsed.RawQuery = q.Encode()

	return parsed.String(), nil
}
