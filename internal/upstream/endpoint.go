package upstream

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"multigofer/internal/config"
	"multigofer/internal/jsonrpc"
)

// Endpoint represents a single upstream RPC endpoint
type Endpoint struct {
	name   string
	rpcURL string
	wsURL  string
	weight int
	role   Role

	httpClient *http.Client
	wsClient   *WSClient
	breaker    *CircuitBreaker
	reqCount   atomic.Uint64
	logger     zerolog.Logger
}

// EndpointConfig for creating a new Endpoint
type EndpointConfig struct {
	Name           string
	RPCURL         string
	WSURL          string
	Weight         int
	Role           Role
	RequestTimeout time.Duration
	Breaker        CircuitBreakerConfig
	Logger         zerolog.Logger
}

// NewEndpoint creates a new Endpoint instance
func NewEndpoint(cfg EndpointConfig) *Endpoint {
	transport := &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 100,
		IdleConnTimeout:     90 * time.Second,
		DisableCompression:  true,
	}

	httpClient := &http.Client{
		Transport: transport,
		Timeout:   cfg.RequestTimeout,
	}

	return &Endpoint{
		name:       cfg.Name,
		rpcURL:     cfg.RPCURL,
		wsURL:      cfg.WSURL,
		weight:     cfg.Weight,
		role:       cfg.Role,
		httpClient: httpClient,
		breaker:    NewCircuitBreaker(cfg.Breaker),
		logger:     cfg.Logger.With().Str("endpoint", cfg.Name).Logger(),
	}
}

// NewEndpointFromConfig creates an Endpoint from config
func NewEndpointFromConfig(cfg config.UpstreamConfig, globalCfg *config.Config, logger zerolog.Logger) *Endpoint {
	return NewEndpoint(EndpointConfig{
		Name:           cfg.Name,
		RPCURL:         cfg.RPCURL,
		WSURL:          cfg.WSURL,
		Weight:         cfg.Weight,
		Role:           RoleFromConfig(cfg.Role),
		RequestTimeout: globalCfg.GetRequestTimeoutDuration(),
		Logger:         logger,
	})
}

// Name returns the endpoint name
func (e *Endpoint) Name() string {
	return e.name
}

// Weight returns the weight for load balancing
func (e *Endpoint) Weight() int {
	return e.weight
}

// Role returns the endpoint role
func (e *Endpoint) Role() Role {
	return e.role
}

// IsMain returns true if this is a main endpoint
func (e *Endpoint) IsMain() bool {
	return e.role == RoleMain
}

// IsFallback returns true if this is a fallback endpoint
func (e *Endpoint) IsFallback() bool {
	return e.role == RoleFallback
}

// Available returns true if the circuit breaker admits requests
func (e *Endpoint) Available() bool {
	return e.breaker.AllowRequest()
}

// HasRPC returns true if HTTP RPC URL is configured
func (e *Endpoint) HasRPC() bool {
	return e.rpcURL != ""
}

// HasWS returns true if WebSocket URL is configured
func (e *Endpoint) HasWS() bool {
	return e.wsURL != ""
}

// RequestCount returns the total number of requests sent
func (e *Endpoint) RequestCount() uint64 {
	return e.reqCount.Load()
}

// Execute sends a JSON-RPC request and returns the response.
// Prefers HTTP RPC, falls back to WebSocket if HTTP is not configured.
// Transport failures are recorded on the circuit breaker and returned
// as *Error; node-level errors arrive inside the response untouched.
func (e *Endpoint) Execute(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	var resp *jsonrpc.Response
	var err error

	switch {
	case e.HasRPC():
		resp, err = e.executeHTTP(ctx, req)
	case e.HasWS():
		resp, err = e.executeWS(ctx, req)
	default:
		return nil, NewError(KindOther, e.name, "no endpoint URL configured", nil)
	}

	if err != nil {
		e.breaker.RecordFailure()
		return nil, err
	}

	e.breaker.RecordSuccess()
	return resp, nil
}

// executeHTTP sends a JSON-RPC request via HTTP
func (e *Endpoint) executeHTTP(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	reqBytes, err := req.Bytes()
	if err != nil {
		return nil, NewError(KindOther, e.name, "failed to marshal request: "+err.Error(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, e.rpcURL, bytes.NewReader(reqBytes))
	if err != nil {
		return nil, NewError(KindOther, e.name, "failed to create HTTP request: "+err.Error(), err)
	}

	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := e.httpClient.Do(httpReq)
	if err != nil {
		return nil, wrapTransportErr(e.name, err)
	}
	defer resp.Body.Close()

	e.reqCount.Add(1)

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, wrapTransportErr(e.name, err)
	}

	if resp.StatusCode != http.StatusOK {
		return nil, NewError(classifyHTTPStatus(resp.StatusCode), e.name,
			"HTTP error "+resp.Status+": "+string(body), nil)
	}

	rpcResp, err := jsonrpc.ParseResponse(body)
	if err != nil {
		return nil, NewError(KindOther, e.name, "failed to parse response: "+err.Error(), err)
	}

	return rpcResp, nil
}

// executeWS sends a JSON-RPC request via WebSocket
func (e *Endpoint) executeWS(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error) {
	if e.wsClient == nil {
		return nil, NewError(KindConnReset, e.name, "WebSocket not connected", nil)
	}
	resp, err := e.wsClient.SendRequest(ctx, req)
	if err != nil {
		return nil, err
	}
	e.reqCount.Add(1)
	return resp, nil
}

// StartWS establishes the WebSocket connection for this endpoint
func (e *Endpoint) StartWS(ctx context.Context, messageTimeout time.Duration) error {
	if e.wsURL == "" {
		return NewError(KindOther, e.name, "WebSocket URL not configured", nil)
	}
	if e.wsClient != nil {
		return nil
	}

	e.wsClient = NewWSClient(e.wsURL, e.name, messageTimeout, e.logger)
	return e.wsClient.Connect(ctx)
}

// Close closes all connections
func (e *Endpoint) Close() {
	if e.wsClient != nil {
		e.wsClient.Close()
		e.wsClient = nil
	}
	e.httpClient.CloseIdleConnections()
}
