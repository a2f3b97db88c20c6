package providers

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/sony/gobreaker"
	"go.uber.org/zap"
)

// maxErrorBody caps how much of an upstream body is kept for error messages.
const maxErrorBody = 4 << 10

// BreakerConfig controls the circuit breaker guarding a provider.
type BreakerConfig struct {
	MaxRequests         uint32
	Interval            time.Duration
	Timeout             time.Duration
	ConsecutiveFailures uint32
}

// DefaultBreakerConfig mirrors the settings used for every provider.
var DefaultBreakerConfig = BreakerConfig{
	MaxRequests:         5,
	Interval:            1 * time.Minute,
	Timeout:             2 * time.Minute,
	ConsecutiveFailures: 5,
}

var (
	errServerError  = errors.New("server error")
	errCircuitOpen  = errors.New("circuit breaker open")
	errNoHTTPClient = errors.New("http client not configured")
)

// upstreamResponse is a fully read upstream reply.
type upstreamResponse struct {
	StatusCode int
	Body       []byte
}

// newCircuitBreaker builds a breaker that logs its state transitions.
func newCircuitBreaker(name string, cfg BreakerConfig, log *zap.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        name,
		MaxRequests: cfg.MaxRequests,
		Interval:    cfg.Interval,
		Timeout:     cfg.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.ConsecutiveFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("circuit breaker state changed",
				zap.String("breaker", name),
				zap.String("from", from.String()),
				zap.String("to", to.String()))
		},
	})
}

// doRequest executes a single HTTP request through the circuit breaker.
// Transport failures and 5xx responses count against the breaker; 4xx responses
// are returned to the caller as-is since they reflect the query, not the upstream.
// There are no retries: each call issues at most one request.
func doRequest(
	ctx context.Context,
	client *http.Client,
	cb *gobreaker.CircuitBreaker,
	req *http.Request,
) (upstreamResponse, error) {
	if client == nil {
		return upstreamResponse{}, errNoHTTPClient
	}

	req = req.WithContext(ctx)

	var reply upstreamResponse
	_, err := cb.Execute(func() (interface{}, error) {
		resp, execErr := client.Do(req)
		if execErr != nil {
			return nil, withoutURL(execErr)
		}
		defer resp.Body.Close()

		body, readErr := io.ReadAll(resp.Body)
		if readErr != nil {
			return nil, fmt.Errorf("reading response body: %w", readErr)
		}

		reply = upstreamResponse{StatusCode: resp.StatusCode, Body: body}
		if resp.StatusCode >= http.StatusInternalServerError {
			return nil, fmt.Errorf("%w: %d", errServerError, resp.StatusCode)
		}
		return nil, nil
	})

	if err != nil {
		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			return upstreamResponse{StatusCode: http.StatusServiceUnavailable}, fmt.Errorf("%w: %v", errCircuitOpen, err)
		}
		if errors.Is(err, errServerError) {
			// The upstream answered; let the caller report its status and body.
			return reply, nil
		}
		return upstreamResponse{}, err
	}

	return reply, nil
}

// withoutURL drops the request URL from transport errors, since the query
// string carries the API key.
func withoutURL(err error) error {
	var ue *url.Error
	if errors.As(err, &ue) {
		return fmt.Errorf("%s request failed: %w", ue.Op, ue.Err)
	}
	return err
}

// truncate shortens b for inclusion in error messages.
func truncate(b []byte) string {
	if len(b) > maxErrorBody {
		return string(b[:maxErrorBody]) + "..."
	}
	return string(b)
}
