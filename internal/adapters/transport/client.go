// Package transport is the HTTP plumbing shared by the gateway wire clients:
// endpoint failover, per-endpoint circuit breakers, client-side rate limiting
// and reconnect backoff.
package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/kevin07696/payment-bridge/internal/adapters/ports"
	"github.com/kevin07696/payment-bridge/pkg/observability"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// Config configures a Client
type Config struct {
	// Name labels logs and metrics, e.g. "orbital"
	Name string
	// Endpoints are tried in order; later entries are failover targets
	Endpoints   []string
	ContentType string
	Headers     map[string]string

	// RequestsPerSecond limits outgoing requests; zero disables the limiter
	RequestsPerSecond float64
	Burst             int

	// MaxAttempts is the number of passes over the endpoint list
	MaxAttempts int
	Backoff     Backoff
	Breaker     CircuitBreakerConfig
}

// StatusError is returned when a gateway answers with a non-2xx status
type StatusError struct {
	Endpoint   string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s returned HTTP %d", e.Endpoint, e.StatusCode)
}

// Client posts request bodies to a gateway
type Client struct {
	cfg         Config
	http        ports.HTTPClient
	breakers    []*CircuitBreaker
	limiter     *rate.Limiter
	logger      *zap.Logger
	diagnostics io.Writer
	sleep       func(ctx context.Context, d time.Duration) error
}

// NewClient creates a Client for the configured endpoints
func NewClient(cfg Config, httpClient ports.HTTPClient, logger *zap.Logger, diagnostics io.Writer) (*Client, error) {
	if len(cfg.Endpoints) == 0 {
		return nil, fmt.Errorf("transport %s: at least one endpoint is required", cfg.Name)
	}
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.Backoff == nil {
		cfg.Backoff = DefaultExponentialBackoff()
	}
	if cfg.Breaker.MaxFailures == 0 {
		onChange := cfg.Breaker.OnStateChange
		cfg.Breaker = DefaultCircuitBreakerConfig()
		cfg.Breaker.OnStateChange = onChange
	}
	if diagnostics == nil {
		diagnostics = io.Discard
	}

	limiter := rate.NewLimiter(rate.Inf, 0)
	if cfg.RequestsPerSecond > 0 {
		burst := cfg.Burst
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(cfg.RequestsPerSecond), burst)
	}

	c := &Client{
		cfg:         cfg,
		http:        httpClient,
		limiter:     limiter,
		logger:      logger,
		diagnostics: diagnostics,
		sleep:       sleepContext,
	}

	for i := range cfg.Endpoints {
		label := cfg.Name + ":" + strconv.Itoa(i)
		breakerCfg := cfg.Breaker
		userHook := breakerCfg.OnStateChange
		breakerCfg.OnStateChange = func(state CircuitState) {
			observability.SetCircuitBreakerState(label, int(state))
			logger.Warn("Gateway circuit breaker state changed",
				zap.String("backend", label),
				zap.String("state", state.String()),
			)
			if userHook != nil {
				userHook(state)
			}
		}
		c.breakers = append(c.breakers, NewCircuitBreaker(breakerCfg))
		observability.SetCircuitBreakerState(label, int(StateClosed))
	}

	return c, nil
}

// Post sends body to the first endpoint that accepts a connection and returns the response body.
// Only failures that never reached a peer move on to the next endpoint; anything else is
// returned as is so a request is never sent twice.
func (c *Client) Post(ctx context.Context, body []byte) ([]byte, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, fmt.Errorf("rate limiter: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt < c.cfg.MaxAttempts; attempt++ {
		if attempt > 0 {
			delay := c.cfg.Backoff.NextDelay(attempt - 1)
			c.logger.Debug("Retrying gateway endpoints",
				zap.String("backend", c.cfg.Name),
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
			)
			if err := c.sleep(ctx, delay); err != nil {
				return nil, err
			}
		}

		for i, endpoint := range c.cfg.Endpoints {
			var resp []byte
			err := c.breakers[i].Call(func() error {
				var callErr error
				resp, callErr = c.do(ctx, endpoint, body)
				return callErr
			})
			if err == nil {
				return resp, nil
			}

			lastErr = err
			if !canFailOver(err) {
				return nil, err
			}
			c.logger.Warn("Gateway endpoint unavailable",
				zap.String("backend", c.cfg.Name),
				zap.String("endpoint", endpoint),
				zap.Error(err),
			)
		}
	}

	return nil, lastErr
}

func (c *Client) do(ctx context.Context, endpoint string, body []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.cfg.ContentType != "" {
		req.Header.Set("Content-Type", c.cfg.ContentType)
	}
	for k, v := range c.cfg.Headers {
		req.Header.Set(k, v)
	}

	fmt.Fprintf(c.diagnostics, "-> POST %s (%d bytes)\n", endpoint, len(body))

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		fmt.Fprintf(c.diagnostics, "<- %s error: %v\n", endpoint, err)
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	fmt.Fprintf(c.diagnostics, "<- %s %d (%d bytes, %s)\n", endpoint, resp.StatusCode, len(respBody), time.Since(start).Round(time.Millisecond))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Endpoint: endpoint, StatusCode: resp.StatusCode, Body: respBody}
	}
	return respBody, nil
}

// canFailOver reports whether err means the request never reached the endpoint
func canFailOver(err error) bool {
	if errors.Is(err, ErrCircuitOpen) || errors.Is(err, ErrTooManyRequests) {
		return true
	}

	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return true
	}

	var opErr *net.OpError
	return errors.As(err, &opErr) && opErr.Op == "dial"
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
