// Package dispatch routes JSON-RPC requests to pool endpoints with
// transport-level failover. Node-level call errors are returned inside
// the response untouched: deciding whether they warrant a retry is the
// caller's concern, not the transport's.
package dispatch

import (
	"context"
	"errors"

	"github.com/rs/zerolog"

	"multigofer/internal/balancer"
	"multigofer/internal/jsonrpc"
	"multigofer/internal/upstream"
)

// ErrNoEndpointsAvailable is returned when no endpoints are available
var ErrNoEndpointsAvailable = errors.New("no endpoints available")

// RetryConfig holds transport retry configuration
type RetryConfig struct {
	Enabled     bool
	MaxAttempts int
}

// Executor executes requests with endpoint failover
type Executor struct {
	balancer balancer.Selector
	config   RetryConfig
	limiter  *Limiter
	logger   zerolog.Logger
}

// NewExecutor creates a new Executor gated by the process-wide limiter
func NewExecutor(b balancer.Selector, cfg RetryConfig, logger zerolog.Logger) *Executor {
	return NewExecutorWithLimiter(b, cfg, DefaultLimiter(), logger)
}

// NewExecutorWithLimiter creates an Executor with an explicit limiter
func NewExecutorWithLimiter(b balancer.Selector, cfg RetryConfig, limiter *Limiter, logger zerolog.Logger) *Executor {
	return &Executor{
		balancer: b,
		config:   cfg,
		limiter:  limiter,
		logger:   logger.With().Str("component", "dispatch").Logger(),
	}
}

// NewPoolExecutor creates an Executor backed by a weighted round-robin
// balancer over the given pool
func NewPoolExecutor(pool *upstream.Pool, cfg RetryConfig, logger zerolog.Logger) *Executor {
	return NewExecutor(balancer.NewWeightedRoundRobin(pool), cfg, logger)
}

// Execute sends a request, trying further endpoints on transport failure.
// A response carrying a node-level error is still a successful dispatch.
func (e *Executor) Execute(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	if !e.config.Enabled {
		resp, _, err := e.executeOnce(ctx, req, nil)
		return resp, err
	}

	maxAttempts := e.config.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	tried := make(map[string]bool)
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		resp, endpointName, err := e.executeOnce(ctx, req, tried)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if ctx.Err() != nil {
			return nil, lastErr
		}
		if errors.Is(err, ErrNoEndpointsAvailable) {
			break
		}

		e.logger.Warn().
			Int("attempt", attempt+1).
			Int("maxAttempts", maxAttempts).
			Str("endpoint", endpointName).
			Str("method", req.Method).
			Err(err).
			Msg("request failed, trying next endpoint")
	}

	return nil, lastErr
}

// executeOnce executes the request on a single endpoint.
// Returns response, endpoint name (empty if none was selected), and error.
func (e *Executor) executeOnce(ctx context.Context, req *jsonrpc.Request, exclude map[string]bool) (*jsonrpc.Response, string, error) {
	ep := e.balancer.Next(exclude)
	if ep == nil {
		return nil, "", ErrNoEndpointsAvailable
	}

	name := ep.Name()
	if exclude != nil {
		exclude[name] = true
	}

	if err := e.limiter.Acquire(ctx); err != nil {
		kind := upstream.KindOther
		if errors.Is(err, context.DeadlineExceeded) {
			kind = upstream.KindTimeout
		}
		return nil, name, upstream.NewError(kind, name, "cancelled waiting for in-flight slot: "+err.Error(), err)
	}
	resp, err := ep.Execute(ctx, req)
	e.limiter.Release()
	if err != nil {
		return nil, name, err
	}

	if resp.HasError() {
		e.logger.Debug().
			Str("endpoint", name).
			Str("method", req.Method).
			Int("errorCode", resp.Error.Code).
			Str("errorMessage", resp.Error.Message).
			Msg("RPC error response")
	}

	return resp, name, nil
}
