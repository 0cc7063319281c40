package distance

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/jeongsan/jeongsan/internal/config"
	log "github.com/sirupsen/logrus"
)

// Client calls the external route distance HTTP API.
type Client struct {
	baseUrl    string
	apiKey     string
	httpClient *http.Client
}

func NewClient(cfg config.Distance) *Client {
	return &Client{
		baseUrl: cfg.BaseUrl,
		apiKey:  cfg.ApiKey,
		httpClient: &http.Client{
			Timeout: time.Duration(cfg.TimeoutSeconds) * time.Second,
		},
	}
}

type routeRequest struct {
	Addresses []string `json:"addresses"`
}

type routeResponse struct {
	TotalDistanceKm float64 `json:"totalDistanceKm"`
	MapImageUrl     string  `json:"mapImageUrl"`
}

func (c *Client) RouteDistance(ctx context.Context, addresses []string) (Route, error) {
	if len(addresses) < 2 {
		return Route{}, &UnavailableError{Addresses: addresses, Err: fmt.Errorf("route needs at least two addresses")}
	}

	body, err := json.Marshal(routeRequest{Addresses: addresses})
	if err != nil {
		return Route{}, &UnavailableError{Addresses: addresses, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseUrl+"/route", bytes.NewReader(body))
	if err != nil {
		return Route{}, &UnavailableError{Addresses: addresses, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Warnf("distance provider request failed: %v", err)
		return Route{}, &UnavailableError{Addresses: addresses, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		log.Warnf("distance provider returned status %d", resp.StatusCode)
		return Route{}, &UnavailableError{Addresses: addresses, Err: fmt.Errorf("unexpected status %d", resp.StatusCode)}
	}

	var parsed routeResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return Route{}, &UnavailableError{Addresses: addresses, Err: fmt.Errorf("could not decode response: %w", err)}
	}
	if parsed.TotalDistanceKm <= 0 {
		// A zero or negative distance from the provider is a lookup miss, not a price.
		return Route{}, &UnavailableError{Addresses: addresses, Err: fmt.Errorf("provider returned non-positive distance %.2f", parsed.TotalDistanceKm)}
	}

	return Route{TotalDistanceKm: parsed.TotalDistanceKm, MapImageUrl: parsed.MapImageUrl}, nil
}
