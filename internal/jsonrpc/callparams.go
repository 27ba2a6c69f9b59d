package jsonrpc

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// Named block tags accepted by eth_call
const (
	BlockLatest    = "latest"
	BlockPending   = "pending"
	BlockEarliest  = "earliest"
	BlockSafe      = "safe"
	BlockFinalized = "finalized"
)

// BlockParam identifies the block an eth_call executes against.
// Either a concrete number or a named tag; the zero value means unset.
type BlockParam struct {
	Number *big.Int
	Tag    string
}

// BlockNumber returns a BlockParam for a concrete block number
func BlockNumber(n *big.Int) BlockParam {
	return BlockParam{Number: n}
}

// BlockTag returns a BlockParam for a named tag
func BlockTag(tag string) BlockParam {
	return BlockParam{Tag: tag}
}

// IsSet returns true if a block was specified
func (b BlockParam) IsSet() bool {
	return b.Number != nil || b.Tag != ""
}

// String encodes the block parameter for the wire
func (b BlockParam) String() string {
	if b.Number != nil {
		return hexutil.EncodeBig(b.Number)
	}
	if b.Tag != "" {
		return b.Tag
	}
	return BlockLatest
}

// CallParams describes a single eth_call invocation
type CallParams struct {
	To    common.Address
	Data  []byte
	From  *common.Address
	Gas   uint64
	Block BlockParam

	// StateOverrideCode, when set, is injected as the deployed code at To
	// via the eth_call state override object.
	StateOverrideCode []byte
}

// callObject is the wire form of the transaction-like first param
type callObject struct {
	To   string `json:"to"`
	Data string `json:"data"`
	From string `json:"from,omitempty"`
	Gas  string `json:"gas,omitempty"`
}

// codeOverride is the wire form of a per-account state override
type codeOverride struct {
	Code string `json:"code"`
}

// Positional builds the positional eth_call parameter list.
// The block parameter is omitted when unset, except that a state override
// requires an explicit block position, in which case "latest" is used.
func (p *CallParams) Positional() []interface{} {
	obj := callObject{
		To:   p.To.Hex(),
		Data: hexutil.Encode(p.Data),
	}
	if p.From != nil {
		obj.From = p.From.Hex()
	}
	if p.Gas > 0 {
		obj.Gas = hexutil.EncodeUint64(p.Gas)
	}

	params := []interface{}{obj}

	if p.Block.IsSet() {
		params = append(params, p.Block.String())
	} else if len(p.StateOverrideCode) > 0 {
		params = append(params, BlockLatest)
	}

	if len(p.StateOverrideCode) > 0 {
		params = append(params, map[string]codeOverride{
			p.To.Hex(): {Code: hexutil.Encode(p.StateOverrideCode)},
		})
	}

	return params
}

// NewCallRequest builds an eth_call JSON-RPC request
func NewCallRequest(p *CallParams, id ID) (*Request, error) {
	return NewRequest("eth_call", p.Positional(), id)
}
