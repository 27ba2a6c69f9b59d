// Package chains tracks per-chain identity and capability data: the
// multicall contract address and whether nodes accept eth_call state
// overrides.
package chains

import (
	"fmt"
	"strconv"

	"github.com/ethereum/go-ethereum/common"

	"multigofer/internal/config"
)

// DefaultMulticallAddress is the canonical Multicall3 deployment,
// identical on most chains
var DefaultMulticallAddress = common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")

// Registry holds static per-chain configuration
type Registry struct {
	addresses  map[uint64]common.Address
	noOverride map[uint64]bool
}

// NewRegistry builds a Registry from configuration
func NewRegistry(cfg *config.Config) (*Registry, error) {
	r := &Registry{
		addresses:  make(map[uint64]common.Address),
		noOverride: make(map[uint64]bool),
	}

	for chainStr, addr := range cfg.MulticallAddresses {
		chainID, err := strconv.ParseUint(chainStr, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid chain id %q in multicallAddresses", chainStr)
		}
		if !common.IsHexAddress(addr) {
			return nil, fmt.Errorf("invalid multicall address %q for chain %d", addr, chainID)
		}
		r.addresses[chainID] = common.HexToAddress(addr)
	}

	for _, chainID := range cfg.NoStateOverrideChains {
		r.noOverride[chainID] = true
	}

	return r, nil
}

// MulticallAddress returns the multicall contract address for a chain
func (r *Registry) MulticallAddress(chainID uint64) common.Address {
	if addr, ok := r.addresses[chainID]; ok {
		return addr
	}
	return DefaultMulticallAddress
}

// StateOverrideSupported reports whether the chain's nodes accept
// eth_call state overrides
func (r *Registry) StateOverrideSupported(chainID uint64) bool {
	return !r.noOverride[chainID]
}
