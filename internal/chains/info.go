package chains

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"multigofer/internal/jsonrpc"
)

// Caller dispatches a single JSON-RPC request
type Caller interface {
	Execute(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error)
}

// Info resolves and caches chain identity and capabilities for one
// endpoint pool. The chain id is fetched once and kept in an LRU so
// many Info instances sharing a cache don't re-probe the node.
type Info struct {
	caller   Caller
	registry *Registry
	cacheKey string
	cache    *lru.Cache[string, uint64]
	logger   zerolog.Logger
}

// NewInfo creates an Info service. cacheKey identifies the endpoint
// pool in the shared chain-id cache.
func NewInfo(caller Caller, registry *Registry, cacheKey string, cacheSize int, logger zerolog.Logger) (*Info, error) {
	if cacheSize <= 0 {
		cacheSize = 64
	}
	cache, err := lru.New[string, uint64](cacheSize)
	if err != nil {
		return nil, err
	}

	return &Info{
		caller:   caller,
		registry: registry,
		cacheKey: cacheKey,
		cache:    cache,
		logger:   logger.With().Str("component", "chains").Logger(),
	}, nil
}

// ChainID returns the connected chain's id, cached after first fetch
func (i *Info) ChainID(ctx context.Context) (uint64, error) {
	if id, ok := i.cache.Get(i.cacheKey); ok {
		return id, nil
	}

	req, err := jsonrpc.NewRequest("eth_chainId", []interface{}{}, jsonrpc.NewIDInt(1))
	if err != nil {
		return 0, err
	}

	resp, err := i.caller.Execute(ctx, req)
	if err != nil {
		return 0, fmt.Errorf("eth_chainId failed: %w", err)
	}
	if resp.HasError() {
		return 0, fmt.Errorf("eth_chainId failed: %w", resp.Error)
	}

	var idHex string
	if err := resp.GetResultAs(&idHex); err != nil {
		return 0, fmt.Errorf("eth_chainId returned malformed result: %w", err)
	}
	id, err := hexutil.DecodeUint64(idHex)
	if err != nil {
		return 0, fmt.Errorf("eth_chainId returned malformed result: %w", err)
	}

	i.cache.Add(i.cacheKey, id)
	i.logger.Debug().Uint64("chainId", id).Msg("chain id resolved")
	return id, nil
}

// StateOverrideSupported reports whether the connected chain accepts
// eth_call state overrides
func (i *Info) StateOverrideSupported(ctx context.Context) (bool, error) {
	id, err := i.ChainID(ctx)
	if err != nil {
		return false, err
	}
	return i.registry.StateOverrideSupported(id), nil
}

// MulticallAddress returns the multicall contract address for the
// connected chain
func (i *Info) MulticallAddress(ctx context.Context) (common.Address, error) {
	id, err := i.ChainID(ctx)
	if err != nil {
		return common.Address{}, err
	}
	return i.registry.MulticallAddress(id), nil
}
