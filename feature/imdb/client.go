package imdb

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"media-sync/core/execute"

	"go.uber.org/zap"
)

// browserUA keeps the site from serving the bot-gate page.
const browserUA = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.0.0 Safari/537.36"

// Client covers the HTTP side of IMDb: identity resolution, review
// scraping and the AJAX watchlist fast path. List reads come from CSV
// exports and writes from the automation session; see Exports and Writer.
type Client struct {
	cfg  Config
	http *http.Client
	log  *zap.Logger
}

// NewClient creates an IMDb HTTP client with a tuned transport.
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
		ResponseHeaderTimeout: timeoutDuration,
	}

	return &Client{
		cfg: cfg,
		http: &http.Client{
			Transport: transport,
			Timeout:   timeoutDuration,
		},
		log: log,
	}
}

func (c *Client) newRequest(ctx context.Context, method, url string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", browserUA)
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	return req, nil
}

// classify maps an HTTP status onto the shared failure taxonomy.
func classify(resp *http.Response) error {
	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return nil
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return fmt.Errorf("%w: imdb returned %d", execute.ErrAuth, resp.StatusCode)
	case resp.StatusCode == http.StatusTooManyRequests:
		return &execute.RateLimitedError{}
	case resp.StatusCode >= 500:
		return &execute.TransientError{Err: fmt.Errorf("imdb returned %d", resp.StatusCode)}
	default:
		return fmt.Errorf("imdb returned %d", resp.StatusCode)
	}
}
