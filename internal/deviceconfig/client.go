package deviceconfig

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/muurk/dmxbox/internal/logging"
	"github.com/muurk/dmxbox/internal/version"
)

const (
	// DefaultTimeout is the default HTTP request timeout
	DefaultTimeout = 10 * time.Second

	// DefaultMaxRetries is the default number of retry attempts for failed reads
	DefaultMaxRetries = 3

	// DefaultRetryDelay is the default delay between retry attempts
	DefaultRetryDelay = 1 * time.Second

	// DefaultMaxRetryDelay is the maximum delay for exponential backoff
	DefaultMaxRetryDelay = 30 * time.Second

	// maxBodySize caps how much of a response is read. The firmware's own
	// request buffer is 10 KiB.
	maxBodySize = 64 * 1024
)

// Client talks to the dmxbox config endpoint.
type Client struct {
	// BaseURL is the base URL for the device (e.g., "http://192.168.4.1")
	BaseURL string

	// HTTPClient is the underlying HTTP client
	HTTPClient *http.Client

	// MaxRetries is the maximum number of retry attempts for GET requests.
	// PUT is never retried so a submit results in a single upsert.
	MaxRetries int

	// RetryDelay is the initial delay between retry attempts
	RetryDelay time.Duration

	// MaxRetryDelay is the maximum delay for exponential backoff
	MaxRetryDelay time.Duration

	// UseExponentialBackoff enables exponential backoff for retries
	UseExponentialBackoff bool

	// UserAgent is sent with every request
	UserAgent string
}

// NewClient creates a new device configuration client
// host: Device IP address or hostname (e.g., "192.168.4.1"); IPv6 literals
// are bracketed
// port: Device HTTP port (typically 80)
func NewClient(host string, port int) *Client {
	return NewClientWithURL("http://" + net.JoinHostPort(host, strconv.Itoa(port)))
}

// NewClientWithURL creates a new client with a full base URL
// baseURL: Full base URL (e.g., "http://192.168.4.1:80")
func NewClientWithURL(baseURL string) *Client {
	return &Client{
		BaseURL:               strings.TrimSuffix(baseURL, "/"),
		HTTPClient:            &http.Client{Timeout: DefaultTimeout},
		MaxRetries:            DefaultMaxRetries,
		RetryDelay:            DefaultRetryDelay,
		MaxRetryDelay:         DefaultMaxRetryDelay,
		UseExponentialBackoff: true,
		UserAgent:             version.UserAgent("dmxbox"),
	}
}

// SetTimeout sets the HTTP request timeout
func (c *Client) SetTimeout(timeout time.Duration) {
	c.HTTPClient.Timeout = timeout
}

// SetRetry configures retry behavior
func (c *Client) SetRetry(maxRetries int, retryDelay time.Duration) {
	c.MaxRetries = maxRetries
	c.RetryDelay = retryDelay
}

func (c *Client) setUserAgent(req *http.Request) {
	if c.UserAgent != "" {
		req.Header.Set("User-Agent", c.UserAgent)
	}
}

func (c *Client) configURL() string {
	return c.BaseURL + ConfigPath
}

// GetConfiguration retrieves the current WiFi configuration document.
// Retryable failures are retried up to MaxRetries times.
func (c *Client) GetConfiguration(ctx context.Context) (*WireConfig, error) {
	var lastErr error
	currentDelay := c.RetryDelay

	for attempt := 0; attempt <= c.MaxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return nil, NewNetworkError("GET request canceled", ctx.Err())
			case <-time.After(currentDelay):
			}

			if c.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > c.MaxRetryDelay {
					currentDelay = c.MaxRetryDelay
				}
			}
		}

		config, err := c.getConfigurationAttempt(ctx)
		if err == nil {
			return config, nil
		}

		lastErr = err

		if !IsRetryable(err) {
			return nil, err
		}
	}

	return nil, lastErr
}

func (c *Client) getConfigurationAttempt(ctx context.Context) (*WireConfig, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.configURL(), nil)
	if err != nil {
		return nil, NewNetworkError("failed to create GET request", err)
	}
	req.Header.Set("Accept", "application/json")
	c.setUserAgent(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, NewNetworkError("GET request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	logging.LogHTTPRequest(http.MethodGet, req.URL.String(), resp.StatusCode)

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, NewNetworkError("failed to read response body", err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), string(body))
	}

	config, err := ParseWireConfig(body)
	if err != nil {
		return nil, NewParseError("failed to parse configuration document", err)
	}

	return config, nil
}

// PutConfiguration uploads a complete configuration document in one request.
func (c *Client) PutConfiguration(ctx context.Context, config *WireConfig) error {
	payload, err := json.Marshal(config)
	if err != nil {
		return NewParseError("failed to encode configuration document", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.configURL(), bytes.NewReader(payload))
	if err != nil {
		return NewNetworkError("failed to create PUT request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	c.setUserAgent(req)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return NewNetworkError("PUT request failed", err)
	}
	defer func() { _ = resp.Body.Close() }()

	logging.LogHTTPRequest(http.MethodPut, req.URL.String(), resp.StatusCode)

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusNoContent {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("update failed with status %d", resp.StatusCode), string(body))
	}

	return nil
}

// Ping performs a simple reachability check against the config endpoint.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.configURL(), nil)
	if err != nil {
		return NewNetworkError("failed to create ping request", err)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return NewNetworkError("device unreachable", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return NewHTTPError(resp.StatusCode, fmt.Sprintf("unexpected status code: %d", resp.StatusCode), "")
	}

	return nil
}
