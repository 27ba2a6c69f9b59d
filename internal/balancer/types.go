package balancer

import "multigofer/internal/upstream"

// EndpointProvider supplies the candidate endpoints for selection
type EndpointProvider interface {
	GetAvailableMain() []*upstream.Endpoint
	GetAvailableFallback() []*upstream.Endpoint
}

// Selector picks the next endpoint for a request
type Selector interface {
	Next(exclude map[string]bool) *upstream.Endpoint
}
