package multicall

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"

	"multigofer/internal/chains"
	"multigofer/internal/ethcall"
	"multigofer/internal/jsonrpc"
	"multigofer/internal/upstream"
)

// tryAggregate from Multicall2/Multicall3: attempt every sub-call; when
// requireSuccess is set, revert the whole aggregate on the first
// sub-call failure, else report a per-call success flag.
const tryAggregateABI = `[{"inputs":[{"internalType":"bool","name":"requireSuccess","type":"bool"},{"components":[{"internalType":"address","name":"target","type":"address"},{"internalType":"bytes","name":"callData","type":"bytes"}],"internalType":"struct Multicall2.Call[]","name":"calls","type":"tuple[]"}],"name":"tryAggregate","outputs":[{"components":[{"internalType":"bool","name":"success","type":"bool"},{"internalType":"bytes","name":"returnData","type":"bytes"}],"internalType":"struct Multicall2.Result[]","name":"returnData","type":"tuple[]"}],"stateMutability":"nonpayable","type":"function"}]`

var (
	aggregateABI     abi.ABI
	aggregateABIOnce sync.Once
)

func multicallABI() abi.ABI {
	aggregateABIOnce.Do(func() {
		parsed, err := abi.JSON(strings.NewReader(tryAggregateABI))
		if err != nil {
			panic("multicall: invalid embedded ABI: " + err.Error())
		}
		aggregateABI = parsed
	})
	return aggregateABI
}

// aggregateCall is the wire tuple (target, callData)
type aggregateCall struct {
	Target   common.Address
	CallData []byte
}

// RawResult is one sub-call result from the aggregator contract
type RawResult struct {
	Success    bool
	ReturnData []byte
}

// Aggregator wraps ordered call lists into one tryAggregate invocation
// against the chain's multicall contract
type Aggregator struct {
	executor ethcall.Executor
	chains   *chains.Info
	gasLimit uint64

	// overrideCode, when non-empty, is the multicall contract deploy
	// code injected via eth_call state override on chains that support
	// it, so the contract need not be natively deployed.
	overrideCode []byte

	logger zerolog.Logger
}

// NewAggregator creates an Aggregator
func NewAggregator(executor ethcall.Executor, info *chains.Info, gasLimit uint64, overrideCode []byte, logger zerolog.Logger) *Aggregator {
	return &Aggregator{
		executor:     executor,
		chains:       info,
		gasLimit:     gasLimit,
		overrideCode: overrideCode,
		logger:       logger.With().Str("component", "aggregator").Logger(),
	}
}

// Dispatch submits calls as one aggregate request and returns the raw
// per-call results in input order. The result length always equals the
// input length on success.
func (a *Aggregator) Dispatch(ctx context.Context, calls []*ethcall.Call, requireSuccess bool, block jsonrpc.BlockParam) ([]RawResult, error) {
	addr, err := a.chains.MulticallAddress(ctx)
	if err != nil {
		return nil, err
	}

	wrapped := make([]aggregateCall, len(calls))
	for i, c := range calls {
		wrapped[i] = aggregateCall{Target: c.Target, CallData: c.Data}
	}

	calldata, err := multicallABI().Pack("tryAggregate", requireSuccess, wrapped)
	if err != nil {
		return nil, ethcall.NewEncodeError("tryAggregate", err)
	}

	params := &jsonrpc.CallParams{
		To:    addr,
		Data:  calldata,
		Gas:   a.gasLimit,
		Block: block,
	}

	if len(a.overrideCode) > 0 {
		supported, err := a.chains.StateOverrideSupported(ctx)
		if err != nil {
			return nil, err
		}
		if supported {
			params.StateOverrideCode = a.overrideCode
		}
	}

	req, err := jsonrpc.NewCallRequest(params, jsonrpc.NewIDInt(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build aggregate request: %w", err)
	}

	a.logger.Debug().
		Int("calls", len(calls)).
		Bool("requireSuccess", requireSuccess).
		Msg("dispatching aggregate call")

	resp, err := a.executor.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.HasError() {
		return nil, upstream.FromRPCError("", resp.Error)
	}

	var resultHex string
	if err := resp.GetResultAs(&resultHex); err != nil {
		return nil, ethcall.NewDecodeError("tryAggregate", err)
	}
	raw, err := hexutil.Decode(resultHex)
	if err != nil {
		return nil, ethcall.NewDecodeError("tryAggregate", err)
	}

	var results []RawResult
	if err := multicallABI().UnpackIntoInterface(&results, "tryAggregate", raw); err != nil {
		return nil, ethcall.NewDecodeError("tryAggregate", err)
	}

	if len(results) != len(calls) {
		return nil, fmt.Errorf("aggregate result size mismatch: expected %d, got %d", len(calls), len(results))
	}

	return results, nil
}
