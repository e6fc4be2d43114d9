package trakt

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"media-sync/core/execute"

	"go.uber.org/zap"
)

// Client talks to the Trakt API: the structured read side and the batched
// write side of the sync.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger

	// sleep is swapped out in tests
	sleep func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Trakt API client with a tuned transport.
func NewClient(cfg Config, log *zap.Logger) *Client {
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = 20
	}
	timeoutDuration := time.Duration(timeout) * time.Second

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   timeoutDuration,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		ForceAttemptHTTP2:     true,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   timeoutDuration,
		ExpectContinueTimeout: 1 * time.Second,
		ResponseHeaderTimeout: timeoutDuration,
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeoutDuration,
		},
		log:   log,
		sleep: sleepCtx,
	}
}

// do sends one API request with the retry policy: rate limits and server
// errors retry with Retry-After / exponential backoff, auth failures abort,
// other client errors return the documented Trakt message.
func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	maxRetries := c.cfg.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}
	retryDelay := time.Second

	for attempt := 0; ; attempt++ {
		var body io.Reader
		if payload != nil {
			buf, err := json.Marshal(payload)
			if err != nil {
				return fmt.Errorf("failed to encode payload: %w", err)
			}
			body = bytes.NewReader(buf)
		}

		req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, body)
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")
		req.Header.Set("trakt-api-version", "2")
		req.Header.Set("trakt-api-key", c.cfg.ClientID)
		req.Header.Set("Authorization", "Bearer "+c.cfg.AccessToken)

		resp, err := c.http.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			// Network-level failures are transient
			if attempt+1 >= maxRetries {
				return &execute.TransientError{Err: err}
			}
			c.log.Warn("Trakt request failed, retrying",
				zap.Int("attempt", attempt+1), zap.Error(err))
			if serr := c.sleep(ctx, retryDelay); serr != nil {
				return serr
			}
			retryDelay *= 2
			continue
		}

		retryable, ferr := c.handleResponse(resp, out)
		if ferr == nil {
			return nil
		}
		if !retryable || attempt+1 >= maxRetries {
			return ferr
		}

		delay := retryDelay
		if after, ok := retryAfter(resp); ok {
			delay = after
		}
		c.log.Warn("Trakt returned retryable status, backing off",
			zap.Int("status", resp.StatusCode),
			zap.Duration("delay", delay),
			zap.Int("attempt", attempt+1))
		if serr := c.sleep(ctx, delay); serr != nil {
			return serr
		}
		retryDelay *= 2
	}
}

// handleResponse decodes a successful body or classifies the failure.
func (c *Client) handleResponse(resp *http.Response, out any) (retryable bool, err error) {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK ||
		resp.StatusCode == http.StatusCreated ||
		resp.StatusCode == http.StatusNoContent:
		if out == nil || resp.StatusCode == http.StatusNoContent {
			io.Copy(io.Discard, resp.Body)
			return false, nil
		}
		if derr := json.NewDecoder(resp.Body).Decode(out); derr != nil {
			return false, fmt.Errorf("failed to decode response: %w", derr)
		}
		return false, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("%w: %s", execute.ErrAuth, statusMessage(resp.StatusCode))

	case resp.StatusCode == http.StatusTooManyRequests:
		io.Copy(io.Discard, resp.Body)
		after, _ := retryAfter(resp)
		return true, &execute.RateLimitedError{RetryAfter: after}

	case resp.StatusCode >= 500:
		io.Copy(io.Discard, resp.Body)
		return true, &execute.TransientError{
			Err: fmt.Errorf("trakt returned %d: %s", resp.StatusCode, statusMessage(resp.StatusCode)),
		}

	default:
		io.Copy(io.Discard, resp.Body)
		return false, fmt.Errorf("trakt returned %d: %s", resp.StatusCode, statusMessage(resp.StatusCode))
	}
}

func retryAfter(resp *http.Response) (time.Duration, bool) {
	raw := resp.Header.Get("Retry-After")
	if raw == "" {
		return 0, false
	}
	secs, err := strconv.Atoi(raw)
	if err != nil || secs < 0 {
		return 0, false
	}
	return time.Duration(secs) * time.Second, true
}

// statusMessage maps Trakt status codes to their documented meanings.
func statusMessage(code int) string {
	messages := map[int]string{
		200: "Success",
		201: "Success - new resource created (POST)",
		204: "Success - no content to return (DELETE)",
		400: "Bad Request - request couldn't be parsed",
		401: "Unauthorized - OAuth must be provided",
		403: "Forbidden - invalid API key or unapproved app",
		404: "Not Found - method exists, but no record found",
		405: "Method Not Found - method doesn't exist",
		409: "Conflict - resource already created",
		412: "Precondition Failed - use application/json content type",
		420: "Account Limit Exceeded - list count, item count, etc",
		422: "Unprocessable Entity - validation errors",
		423: "Locked User Account - have the user contact support",
		426: "VIP Only - user must upgrade to VIP",
		429: "Rate Limit Exceeded",
		500: "Server Error - please open a support ticket",
		502: "Service Unavailable - server overloaded (try again in 30s)",
		503: "Service Unavailable - server overloaded (try again in 30s)",
		504: "Service Unavailable - server overloaded (try again in 30s)",
		520: "Service Unavailable - Cloudflare error",
		521: "Service Unavailable - Cloudflare error",
		522: "Service Unavailable - Cloudflare error",
	}
	if msg, ok := messages[code]; ok {
		return msg
	}
	return "Unknown error"
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
