package jsonrpc

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestCallParams_Positional_Minimal(t *testing.T) {
	p := &CallParams{
		To:   common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"),
		Data: []byte{0x01, 0x02},
	}

	params := p.Positional()
	if len(params) != 1 {
		t.Fatalf("len(params) = %d, want 1 (block omitted when unset)", len(params))
	}

	obj := params[0].(callObject)
	if obj.To != "0xcA11bde05977b3631167028862bE2a173976CA11" {
		t.Errorf("To = %s", obj.To)
	}
	if obj.Data != "0x0102" {
		t.Errorf("Data = %s, want 0x0102", obj.Data)
	}
	if obj.From != "" || obj.Gas != "" {
		t.Errorf("From/Gas = %q/%q, want empty", obj.From, obj.Gas)
	}
}

func TestCallParams_Positional_WithBlockAndGas(t *testing.T) {
	p := &CallParams{
		To:    common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"),
		Data:  []byte{0x01},
		Gas:   50_000_000,
		Block: BlockNumber(big.NewInt(256)),
	}

	params := p.Positional()
	if len(params) != 2 {
		t.Fatalf("len(params) = %d, want 2", len(params))
	}
	if params[1] != "0x100" {
		t.Errorf("block = %v, want 0x100", params[1])
	}
	if obj := params[0].(callObject); obj.Gas != "0x2faf080" {
		t.Errorf("Gas = %s, want 0x2faf080", obj.Gas)
	}
}

func TestCallParams_Positional_StateOverride(t *testing.T) {
	to := common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11")
	p := &CallParams{
		To:                to,
		Data:              []byte{0x01},
		StateOverrideCode: []byte{0xde, 0xad},
	}

	params := p.Positional()
	if len(params) != 3 {
		t.Fatalf("len(params) = %d, want 3", len(params))
	}
	// An override forces an explicit block position
	if params[1] != BlockLatest {
		t.Errorf("block = %v, want latest", params[1])
	}
	overrides := params[2].(map[string]codeOverride)
	if overrides[to.Hex()].Code != "0xdead" {
		t.Errorf("override code = %s, want 0xdead", overrides[to.Hex()].Code)
	}
}

func TestBlockParam(t *testing.T) {
	if (BlockParam{}).IsSet() {
		t.Error("zero BlockParam reports set")
	}
	if got := (BlockParam{}).String(); got != BlockLatest {
		t.Errorf("zero String() = %s, want latest", got)
	}
	if got := BlockTag(BlockFinalized).String(); got != "finalized" {
		t.Errorf("String() = %s, want finalized", got)
	}
	if got := BlockNumber(big.NewInt(0)).String(); got != "0x0" {
		t.Errorf("String() = %s, want 0x0", got)
	}
	if !BlockNumber(big.NewInt(0)).IsSet() {
		t.Error("BlockNumber(0) reports unset")
	}
}

func TestNewCallRequest(t *testing.T) {
	p := &CallParams{
		To:   common.HexToAddress("0xcA11bde05977b3631167028862bE2a173976CA11"),
		Data: []byte{0x01},
	}

	req, err := NewCallRequest(p, NewIDInt(7))
	if err != nil {
		t.Fatalf("NewCallRequest: %v", err)
	}
	if req.Method != "eth_call" {
		t.Errorf("Method = %s, want eth_call", req.Method)
	}
	if err := req.Validate(); err != nil {
		t.Errorf("Validate: %v", err)
	}
}
