package main

import (
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"strings"

	"github.com/ethereum/go-ethereum/common/hexutil"

	"multigofer/internal/ethcall"
	"multigofer/internal/jsonrpc"
	"multigofer/internal/plugin"
)

// callsFile is the on-disk description of one run
type callsFile struct {
	RequireSuccess *bool      `json:"requireSuccess,omitempty"`
	Block          string     `json:"block,omitempty"`
	Calls          []callSpec `json:"calls"`
}

// callSpec describes one contract call. Block and gasLimit only affect
// the call when it is executed directly, outside an aggregate.
type callSpec struct {
	Target   string        `json:"target"`
	Function string        `json:"function"`
	Args     []interface{} `json:"args,omitempty"`
	Returns  []returnSpec  `json:"returns,omitempty"`
	Block    string        `json:"block,omitempty"`
	GasLimit uint64        `json:"gasLimit,omitempty"`
}

// returnSpec names one return value; handler optionally references a
// registered decode handler by name
type returnSpec struct {
	Name    string `json:"name"`
	Handler string `json:"handler,omitempty"`
}

// loadCallsFile parses a calls file and builds the call list. A bare
// JSON array is accepted as shorthand for {"calls": [...]}.
func loadCallsFile(path string, handlers *plugin.Manager) (*callsFile, []*ethcall.Call, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read calls file: %w", err)
	}

	var file callsFile
	if strings.HasPrefix(strings.TrimSpace(string(data)), "[") {
		if err := json.Unmarshal(data, &file.Calls); err != nil {
			return nil, nil, fmt.Errorf("failed to parse calls file: %w", err)
		}
	} else if err := json.Unmarshal(data, &file); err != nil {
		return nil, nil, fmt.Errorf("failed to parse calls file: %w", err)
	}

	calls := make([]*ethcall.Call, 0, len(file.Calls))
	for i, spec := range file.Calls {
		call, err := buildCall(spec, handlers)
		if err != nil {
			return nil, nil, fmt.Errorf("calls[%d]: %w", i, err)
		}
		calls = append(calls, call)
	}

	return &file, calls, nil
}

// buildCall turns one spec into a Call, resolving handler references
func buildCall(spec callSpec, handlers *plugin.Manager) (*ethcall.Call, error) {
	target, err := ethcall.ParseAddress(spec.Target)
	if err != nil {
		return nil, err
	}

	returns := make([]ethcall.ReturnField, 0, len(spec.Returns))
	for _, rs := range spec.Returns {
		field := ethcall.ReturnField{Name: rs.Name}
		if rs.Handler != "" {
			if handlers == nil {
				return nil, fmt.Errorf("handler %q requested but no handlers are loaded", rs.Handler)
			}
			h, err := handlers.Handler(rs.Handler)
			if err != nil {
				return nil, err
			}
			field.Handler = h
		}
		returns = append(returns, field)
	}

	var opts []ethcall.Option
	if spec.Block != "" {
		block, err := parseBlock(spec.Block)
		if err != nil {
			return nil, err
		}
		opts = append(opts, ethcall.WithBlock(block))
	}
	if spec.GasLimit > 0 {
		opts = append(opts, ethcall.WithGasLimit(spec.GasLimit))
	}

	return ethcall.New(target, spec.Function, spec.Args, returns, opts...)
}

// parseBlock turns a block string into a BlockParam. Accepts named
// tags, 0x-prefixed hex and decimal numbers; empty means unset.
func parseBlock(s string) (jsonrpc.BlockParam, error) {
	switch s {
	case "":
		return jsonrpc.BlockParam{}, nil
	case jsonrpc.BlockLatest, jsonrpc.BlockPending, jsonrpc.BlockEarliest,
		jsonrpc.BlockSafe, jsonrpc.BlockFinalized:
		return jsonrpc.BlockTag(s), nil
	}

	if strings.HasPrefix(s, "0x") {
		n, err := hexutil.DecodeBig(s)
		if err != nil {
			return jsonrpc.BlockParam{}, fmt.Errorf("invalid block '%s': %w", s, err)
		}
		return jsonrpc.BlockNumber(n), nil
	}

	n, ok := new(big.Int).SetString(s, 10)
	if !ok {
		return jsonrpc.BlockParam{}, fmt.Errorf("invalid block '%s'", s)
	}
	return jsonrpc.BlockNumber(n), nil
}
