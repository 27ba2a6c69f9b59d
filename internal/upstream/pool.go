package upstream

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"multigofer/internal/config"
)

// Pool represents the set of configured endpoints
type Pool struct {
	endpoints []*Endpoint
	logger    zerolog.Logger
	mu        sync.RWMutex
}

// NewPool creates a new Pool from configuration
func NewPool(cfg *config.Config, logger zerolog.Logger) *Pool {
	poolLogger := logger.With().Str("component", "pool").Logger()

	endpoints := make([]*Endpoint, 0, len(cfg.Upstreams))
	for _, upCfg := range cfg.Upstreams {
		endpoints = append(endpoints, NewEndpointFromConfig(upCfg, cfg, poolLogger))
	}

	return &Pool{
		endpoints: endpoints,
		logger:    poolLogger,
	}
}

// Start connects WebSocket-only endpoints
func (p *Pool) Start(ctx context.Context) {
	for _, e := range p.GetAll() {
		if !e.HasRPC() && e.HasWS() {
			if err := e.StartWS(ctx, 0); err != nil {
				p.logger.Warn().Str("endpoint", e.Name()).Err(err).Msg("WebSocket connect failed")
			}
		}
	}
	p.logger.Info().Int("endpoints", len(p.endpoints)).Msg("pool started")
}

// Stop closes all endpoint connections
func (p *Pool) Stop() {
	for _, e := range p.GetAll() {
		e.Close()
	}
	p.logger.Info().Msg("pool stopped")
}

// GetAll returns all endpoints
func (p *Pool) GetAll() []*Endpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*Endpoint, len(p.endpoints))
	copy(result, p.endpoints)
	return result
}

// GetAvailableMain returns available main endpoints
func (p *Pool) GetAvailableMain() []*Endpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*Endpoint, 0)
	for _, e := range p.endpoints {
		if e.Available() && e.IsMain() {
			result = append(result, e)
		}
	}
	return result
}

// GetAvailableFallback returns available fallback endpoints
func (p *Pool) GetAvailableFallback() []*Endpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	result := make([]*Endpoint, 0)
	for _, e := range p.endpoints {
		if e.Available() && e.IsFallback() {
			result = append(result, e)
		}
	}
	return result
}

// GetByName returns an endpoint by name
func (p *Pool) GetByName(name string) *Endpoint {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, e := range p.endpoints {
		if e.Name() == name {
			return e
		}
	}
	return nil
}

// HasAvailable returns true if at least one endpoint is available
func (p *Pool) HasAvailable() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	for _, e := range p.endpoints {
		if e.Available() {
			return true
		}
	}
	return false
}
