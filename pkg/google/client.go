// Package google wraps the Google Places Nearby Search API.
package google

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://maps.googleapis.com/maps/api/place"

// Places API response statuses.
const (
	StatusOK           = "OK"
	StatusZeroResults  = "ZERO_RESULTS"
	StatusDenied       = "REQUEST_DENIED"
	StatusOverQuota    = "OVER_QUERY_LIMIT"
	StatusInvalid      = "INVALID_REQUEST"
	StatusUnknownError = "UNKNOWN_ERROR"
)

// Client performs Google Places API operations.
type Client interface {
	NearbySearch(ctx context.Context, req NearbySearchRequest) (*NearbySearchResponse, error)
}

// NearbySearchRequest describes a place search around a point.
type NearbySearchRequest struct {
	Lat    float64
	Lng    float64
	Radius int    // meters
	Type   string // e.g. "restaurant"
}

// NearbySearchResponse is the response from Nearby Search.
type NearbySearchResponse struct {
	Status       string  `json:"status"`
	ErrorMessage string  `json:"error_message,omitempty"`
	Results      []Place `json:"results"`
}

// Place is a single search result.
type Place struct {
	Name     string `json:"name"`
	PlaceID  string `json:"place_id"`
	Vicinity string `json:"vicinity"`
}

// StatusError is returned for non-200 HTTP responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("google: unexpected status %d: %s", e.Code, e.Body)
}

// StatusCode returns the HTTP status of the response.
func (e *StatusError) StatusCode() int { return e.Code }

// Option configures the client.
type Option func(*httpClient)

// WithBaseURL overrides the default API base URL.
func WithBaseURL(url string) Option {
	return func(c *httpClient) {
		c.baseURL = url
	}
}

// WithHTTPClient overrides the default http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

type httpClient struct {
	apiKey  string
	baseURL string
	http    *http.Client
}

// NewClient creates a Google Places API client.
func NewClient(apiKey string, opts ...Option) Client {
	c := &httpClient{
		apiKey:  apiKey,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *httpClient) NearbySearch(ctx context.Context, in NearbySearchRequest) (*NearbySearchResponse, error) {
	params := url.Values{}
	params.Set("location", strconv.FormatFloat(in.Lat, 'f', -1, 64)+","+strconv.FormatFloat(in.Lng, 'f', -1, 64))
	params.Set("radius", strconv.Itoa(in.Radius))
	if in.Type != "" {
		params.Set("type", in.Type)
	}
	params.Set("key", c.apiKey)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/nearbysearch/json?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "google: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "google: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "google: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	var result NearbySearchResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "google: unmarshal response")
	}

	return &result, nil
}
