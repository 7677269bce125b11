// Package movgr is an HTTP client for the MovGR transit API, which
// publishes the stop list and near-real-time arrival predictions for
// the Granada light-rail line.
package movgr

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/granametro/metrobot/internal/models"
)

// DefaultBaseURL is the public MovGR deployment.
const DefaultBaseURL = "https://movgr.apis.mianfg.me"

// Client is an HTTP client for the MovGR API.
type Client struct {
	baseURL string
	client  *http.Client
	cache   *Cache
	group   singleflight.Group
	logger  *slog.Logger
}

// NewClient creates a MovGR API client. cacheTTL bounds how stale a
// served prediction may be; chat traffic tends to arrive in bursts, so
// repeated taps within the TTL never reach the upstream.
func NewClient(baseURL string, timeout, cacheTTL time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		client: &http.Client{
			Timeout: timeout,
		},
		cache:  NewCache(cacheTTL),
		logger: logger,
	}
}

// Stops fetches all stops on the line, in line order. The registry
// refresher calls this on its tick, so expired cache entries are pruned
// here rather than on a timer of their own.
func (c *Client) Stops(ctx context.Context) ([]models.Stop, error) {
	c.cache.Cleanup()

	if cached, ok := c.cache.Get("stops"); ok {
		return cached.([]models.Stop), nil
	}

	url := c.baseURL + "/metro/paradas"
	resp, err := c.doGet(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("fetch stops: %w", err)
	}
	defer resp.Body.Close()

	var result []models.Stop
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode stops: %w", err)
	}

	c.cache.Set("stops", result)
	return result, nil
}

// Arrivals fetches the upcoming trains at one stop.
func (c *Client) Arrivals(ctx context.Context, stopID string) ([]models.Arrival, error) {
	cacheKey := "stop:" + stopID
	if cached, ok := c.cache.Get(cacheKey); ok {
		return cached.([]models.Arrival), nil
	}

	url := fmt.Sprintf("%s/metro/llegadas/%s", c.baseURL, stopID)
	resp, err := c.doGet(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("arrivals for stop %s: %w", stopID, err)
	}
	defer resp.Body.Close()

	var result models.ArrivalsResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("decode arrivals: %w", err)
	}

	c.cache.Set(cacheKey, result.Upcoming)
	return result.Upcoming, nil
}

// AllArrivals fetches the upcoming trains for every stop at once.
// Concurrent callers share a single upstream request; the line-status
// board and the alert sweeper both hit this endpoint.
func (c *Client) AllArrivals(ctx context.Context) ([]models.StopArrivals, error) {
	if cached, ok := c.cache.Get("line"); ok {
		return cached.([]models.StopArrivals), nil
	}

	v, err, _ := c.group.Do("line", func() (any, error) {
		url := c.baseURL + "/metro/llegadas"
		resp, err := c.doGet(ctx, url)
		if err != nil {
			return nil, fmt.Errorf("fetch line arrivals: %w", err)
		}
		defer resp.Body.Close()

		var result []models.StopArrivals
		if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
			return nil, fmt.Errorf("decode line arrivals: %w", err)
		}

		c.cache.Set("line", result)
		return result, nil
	})
	if err != nil {
		return nil, err
	}
	return v.([]models.StopArrivals), nil
}

func (c *Client) doGet(ctx context.Context, url string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, "GET", url, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	c.logger.Debug("movgr fetch", "url", url)

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("HTTP %d from %s", resp.StatusCode, url)
	}
	return resp, nil
}
