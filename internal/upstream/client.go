package upstream

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"sync"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/angeloszaimis/two-tier-relay/internal/circuitbreaker"
)

const (
	ProcessPath = "/process"
	HealthPath  = "/health"

	// maxBodyBytes bounds how much of an App Server response is relayed.
	maxBodyBytes = 1 << 20

	ewmaAlpha = 0.2
)

// Result is a successful call.
type Result struct {
	Body       string
	StatusCode int
	Duration   time.Duration
}

type Options struct {
	// BaseURL is the App Server root, e.g. http://10.0.0.12:5000.
	BaseURL string
	// Timeout bounds a whole call including reading the body.
	Timeout time.Duration
	// Breaker is optional; nil means every call is attempted.
	Breaker *circuitbreaker.Breaker
	// Transport defaults to an otelhttp-instrumented http.DefaultTransport.
	Transport http.RoundTripper
}

type Client struct {
	base       *url.URL
	processURL string
	healthURL  string
	httpClient *http.Client
	breaker    *circuitbreaker.Breaker

	mutex            sync.Mutex
	isHealthy        bool
	inFlight         int
	ewmaResponseTime time.Duration
	hasEWMA          bool
}

// Stats is a point-in-time view of the client's bookkeeping.
type Stats struct {
	InFlight int
	EWMA     time.Duration
	Healthy  bool
}

func New(opts Options) (*Client, error) {
	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse app server url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("app server url %q: scheme must be http or https", opts.BaseURL)
	}
	if base.Host == "" {
		return nil, fmt.Errorf("app server url %q: missing host", opts.BaseURL)
	}
	if opts.Timeout <= 0 {
		return nil, errors.New("app server timeout must be positive")
	}

	transport := opts.Transport
	if transport == nil {
		transport = otelhttp.NewTransport(http.DefaultTransport)
	}

	return &Client{
		base:       base,
		processURL: base.JoinPath(ProcessPath).String(),
		healthURL:  base.JoinPath(HealthPath).String(),
		httpClient: &http.Client{
			Timeout:   opts.Timeout,
			Transport: transport,
		},
		breaker:   opts.Breaker,
		isHealthy: true,
	}, nil
}

// URL returns the App Server base URL.
func (c *Client) URL() *url.URL {
	return c.base
}

// Fetch calls the App Server's processing endpoint once. Any non-2xx status
// is a failure of kind KindStatus.
func (c *Client) Fetch(ctx context.Context) (Result, error) {
	if c.breaker != nil && !c.breaker.Allow() {
		return Result{}, &Error{Kind: KindCircuitOpen, URL: c.processURL, Err: circuitbreaker.ErrOpen}
	}

	c.incrementInFlight()
	defer c.decrementInFlight()

	start := time.Now()
	body, status, err := c.get(ctx, c.processURL)
	elapsed := time.Since(start)
	c.recordResponse(elapsed)

	if c.breaker != nil {
		switch {
		case err == nil:
			c.breaker.RecordSuccess()
		case KindOf(err) == KindCanceled:
			c.breaker.Release()
		default:
			c.breaker.RecordFailure()
		}
	}

	if err != nil {
		return Result{}, err
	}

	return Result{Body: body, StatusCode: status, Duration: elapsed}, nil
}

// Probe checks the App Server's health endpoint. It bypasses the breaker.
func (c *Client) Probe(ctx context.Context) error {
	_, _, err := c.get(ctx, c.healthURL)
	return err
}

func (c *Client) get(ctx context.Context, target string) (string, int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return "", 0, &Error{Kind: KindUnreachable, URL: target, Err: err}
	}

	res, err := c.httpClient.Do(req)
	if err != nil {
		return "", 0, &Error{Kind: classify(ctx, err), URL: target, Err: err}
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		kind := classify(ctx, err)
		if kind == KindUnreachable {
			kind = KindInvalidResponse
		}
		return "", res.StatusCode, &Error{Kind: kind, URL: target, StatusCode: res.StatusCode, Err: err}
	}

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return string(raw), res.StatusCode, &Error{Kind: KindStatus, URL: target, StatusCode: res.StatusCode}
	}

	return string(raw), res.StatusCode, nil
}

func classify(ctx context.Context, err error) Kind {
	if errors.Is(ctx.Err(), context.Canceled) {
		return KindCanceled
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}

	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}

	return KindUnreachable
}

// IsHealthy returns the last status reported by the health monitor.
func (c *Client) IsHealthy() bool {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	return c.isHealthy
}

// SetHealthy updates the health status.
// Returns true if the status changed, false if it was already in that state.
func (c *Client) SetHealthy(healthy bool) (changed bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if c.isHealthy == healthy {
		return false
	}

	c.isHealthy = healthy
	return true
}

func (c *Client) Stats() Stats {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	s := Stats{InFlight: c.inFlight, Healthy: c.isHealthy}
	if c.hasEWMA {
		s.EWMA = c.ewmaResponseTime
	}
	return s
}

func (c *Client) incrementInFlight() {
	c.mutex.Lock()
	c.inFlight++
	c.mutex.Unlock()
}

func (c *Client) decrementInFlight() {
	c.mutex.Lock()
	if c.inFlight > 0 {
		c.inFlight--
	}
	c.mutex.Unlock()
}

func (c *Client) recordResponse(duration time.Duration) {
	c.mutex.Lock()
	defer c.mutex.Unlock()

	if !c.hasEWMA {
		c.ewmaResponseTime = duration
		c.hasEWMA = true
		return
	}
	// ewma = (1 - α) * ewma + α * latest
	c.ewmaResponseTime = time.Duration((1-ewmaAlpha)*float64(c.ewmaResponseTime) + ewmaAlpha*float64(duration))
}
