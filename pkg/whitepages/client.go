// Package whitepages wraps the Whitepages Pro person search API.
package whitepages

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
)

const defaultBaseURL = "https://proapi.whitepages.com/2.2"

// Client performs Whitepages person lookups.
type Client interface {
	FindPerson(ctx context.Context, req PersonRequest) (*PersonResponse, error)
}

// PersonRequest identifies a person by name and locality.
type PersonRequest struct {
	Name      string
	City      string
	StateCode string
}

// PersonResponse is the response from /person.json.
type PersonResponse struct {
	Results []Person `json:"results"`
}

// Person is a single matched person record.
type Person struct {
	Name      string     `json:"name"`
	Locations []Location `json:"locations"`
	Phones    []Phone    `json:"phones"`
}

// Location is a postal address associated with a person.
type Location struct {
	StandardAddressLine1 string `json:"standard_address_line1"`
	City                 string `json:"city"`
	StateCode            string `json:"state_code"`
	PostalCode           string `json:"postal_code"`
}

// Phone is a phone number associated with a person.
type Phone struct {
	PhoneNumber string `json:"phone_number"`
}

// StatusError is returned for non-200 HTTP responses.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("whitepages: unexpected status %d: %s", e.Code, e.Body)
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

// NewClient creates a Whitepages Pro API client.
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

func (c *httpClient) FindPerson(ctx context.Context, in PersonRequest) (*PersonResponse, error) {
	params := url.Values{}
	params.Set("api_key", c.apiKey)
	params.Set("name", in.Name)
	if in.City != "" {
		params.Set("city", in.City)
	}
	if in.StateCode != "" {
		params.Set("state_code", in.StateCode)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/person.json?"+params.Encode(), nil)
	if err != nil {
		return nil, eris.Wrap(err, "whitepages: create request")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "whitepages: send request")
	}
	defer resp.Body.Close() //nolint:errcheck

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "whitepages: read response")
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(respBody)}
	}

	var result PersonResponse
	if err := json.Unmarshal(respBody, &result); err != nil {
		return nil, eris.Wrap(err, "whitepages: unmarshal response")
	}

	return &result, nil
}
