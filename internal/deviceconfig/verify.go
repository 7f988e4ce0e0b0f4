package deviceconfig

import (
	"context"
	"fmt"
	"strings"
	"time"
)

// VerificationOptions configures how configuration verification behaves
type VerificationOptions struct {
	// MaxRetries is the maximum number of verification attempts
	MaxRetries int

	// InitialDelay gives the device time to persist the document
	InitialDelay time.Duration

	// RetryDelay is the delay between retry attempts
	RetryDelay time.Duration

	// UseExponentialBackoff doubles RetryDelay after each attempt, up to MaxRetryDelay
	UseExponentialBackoff bool

	// MaxRetryDelay is the maximum delay between retries when using exponential backoff
	MaxRetryDelay time.Duration
}

// DefaultVerificationOptions returns sensible defaults for verification
func DefaultVerificationOptions() *VerificationOptions {
	return &VerificationOptions{
		MaxRetries:            3,
		InitialDelay:          500 * time.Millisecond,
		RetryDelay:            1 * time.Second,
		UseExponentialBackoff: true,
		MaxRetryDelay:         5 * time.Second,
	}
}

// VerificationResult contains the results of a configuration verification
type VerificationResult struct {
	Success      bool
	Attempts     int
	ActualConfig *WireConfig
	Mismatches   []string
	Error        error
}

// VerifyConfigurationWithRetry reads the document back until it matches
// expected or the attempts run out.
func (c *Client) VerifyConfigurationWithRetry(ctx context.Context, expected *WireConfig, opts *VerificationOptions) *VerificationResult {
	if opts == nil {
		opts = DefaultVerificationOptions()
	}

	result := &VerificationResult{Mismatches: []string{}}

	if !sleepContext(ctx, opts.InitialDelay) {
		result.Error = fmt.Errorf("verification canceled: %w", ctx.Err())
		return result
	}

	currentDelay := opts.RetryDelay

	for attempt := 0; attempt <= opts.MaxRetries; attempt++ {
		result.Attempts++

		if attempt > 0 {
			if !sleepContext(ctx, currentDelay) {
				result.Error = fmt.Errorf("verification canceled: %w", ctx.Err())
				return result
			}
			if opts.UseExponentialBackoff {
				currentDelay *= 2
				if currentDelay > opts.MaxRetryDelay {
					currentDelay = opts.MaxRetryDelay
				}
			}
		}

		current, err := c.GetConfiguration(ctx)
		if err != nil {
			result.Error = fmt.Errorf("attempt %d: failed to retrieve configuration: %w", attempt+1, err)
			continue
		}

		result.ActualConfig = current
		result.Mismatches = CompareConfigs(expected, current)

		if len(result.Mismatches) == 0 {
			result.Success = true
			result.Error = nil
			return result
		}

		if attempt < opts.MaxRetries {
			result.Error = fmt.Errorf("attempt %d: configuration mismatch (will retry)", attempt+1)
		} else {
			result.Error = fmt.Errorf("verification failed after %d attempts: %s", result.Attempts, formatMismatches(result.Mismatches))
		}
	}

	return result
}

// CompareConfigs lists every field where actual differs from expected.
// Passwords are compared but never printed.
func CompareConfigs(expected, actual *WireConfig) []string {
	var mismatches []string

	check := func(field string, want, got any) {
		if want != got {
			mismatches = append(mismatches, fmt.Sprintf("%s: expected %v, got %v", field, want, got))
		}
	}

	check("hostname", expected.HostName, actual.HostName)
	check("ap.ssid", expected.AccessPoint.Name, actual.AccessPoint.Name)
	check("ap.auth_mode", expected.AccessPoint.AuthMode, actual.AccessPoint.AuthMode)
	check("ap.channel", expected.AccessPoint.Channel, actual.AccessPoint.Channel)
	if expected.AccessPoint.Password != actual.AccessPoint.Password {
		mismatches = append(mismatches, "ap.password: differs")
	}

	check("sta.enabled", expected.Station.Enabled, actual.Station.Enabled)
	check("sta.ssid", expected.Station.Name, actual.Station.Name)
	check("sta.auth_mode", expected.Station.AuthMode, actual.Station.AuthMode)
	if expected.Station.Password != actual.Station.Password {
		mismatches = append(mismatches, "sta.password: differs")
	}

	return mismatches
}

func formatMismatches(mismatches []string) string {
	if len(mismatches) == 0 {
		return "none"
	}
	if len(mismatches) == 1 {
		return mismatches[0]
	}
	return fmt.Sprintf("%d mismatches: %s", len(mismatches), strings.Join(mismatches, "; "))
}

// UpdateAndVerify uploads config and reads it back.
func (c *Client) UpdateAndVerify(ctx context.Context, config *WireConfig, opts *VerificationOptions) *VerificationResult {
	if err := c.PutConfiguration(ctx, config); err != nil {
		return &VerificationResult{
			Error: fmt.Errorf("update failed: %w", err),
		}
	}

	return c.VerifyConfigurationWithRetry(ctx, config, opts)
}

func sleepContext(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
