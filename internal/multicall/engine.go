package multicall

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"multigofer/internal/ethcall"
	"multigofer/internal/jsonrpc"
)

// Dispatcher sends one batch of calls as a single aggregate request
type Dispatcher interface {
	Dispatch(ctx context.Context, calls []*ethcall.Call, requireSuccess bool, block jsonrpc.BlockParam) ([]RawResult, error)
}

// Engine runs large ordered call lists through the aggregator, splitting
// failed batches adaptively until they fit the node's limits
type Engine struct {
	dispatcher     Dispatcher
	batcher        *Batcher
	requireSuccess bool
	block          jsonrpc.BlockParam
	logger         zerolog.Logger
}

// NewEngine creates an Engine
func NewEngine(dispatcher Dispatcher, batcher *Batcher, requireSuccess bool, block jsonrpc.BlockParam, logger zerolog.Logger) *Engine {
	return &Engine{
		dispatcher:     dispatcher,
		batcher:        batcher,
		requireSuccess: requireSuccess,
		block:          block,
		logger:         logger.With().Str("component", "multicall").Logger(),
	}
}

// Run executes calls and returns their decoded results in input order.
// Batches run concurrently; the first fatal failure cancels the rest and
// is returned as is. An empty input returns an empty result without
// touching the network.
func (e *Engine) Run(ctx context.Context, calls []*ethcall.Call) ([]interface{}, error) {
	results := make([]interface{}, len(calls))
	if len(calls) == 0 {
		return results, nil
	}

	step := e.batcher.Step()
	e.logger.Debug().
		Int("calls", len(calls)).
		Int("step", step).
		Msg("starting multicall run")

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)
	fail := func(err error) {
		mu.Lock()
		if firstErr == nil {
			firstErr = err
			cancel()
		}
		mu.Unlock()
	}

	offset := 0
	for _, batch := range e.batcher.Partition(calls, step) {
		wg.Add(1)
		go func(batch []*ethcall.Call, out []interface{}) {
			defer wg.Done()
			if err := e.runBatch(ctx, batch, out); err != nil {
				fail(err)
			}
		}(batch, results[offset:offset+len(batch)])
		offset += len(batch)
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	return results, nil
}

// runBatch dispatches one batch, splitting and recursing on retryable
// failures. Decoded results land in out positionally; out is an
// exclusive window of the run's result slice, so no locking is needed.
func (e *Engine) runBatch(ctx context.Context, batch []*ethcall.Call, out []interface{}) error {
	raw, err := e.dispatcher.Dispatch(ctx, batch, e.requireSuccess, e.block)
	if err == nil {
		return e.decodeBatch(batch, raw, out)
	}

	if ctx.Err() != nil {
		return ctx.Err()
	}

	if Classify(err, len(batch), e.logger) == OutcomeFatal {
		return &FatalError{BatchSize: len(batch), Err: err}
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		firstErr error
	)

	offset := 0
	for _, sub := range e.batcher.Rebatch(batch) {
		wg.Add(1)
		go func(sub []*ethcall.Call, out []interface{}) {
			defer wg.Done()
			if err := e.runBatch(ctx, sub, out); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}(sub, out[offset:offset+len(sub)])
		offset += len(sub)
	}
	wg.Wait()

	return firstErr
}

// decodeBatch decodes raw aggregate results into caller-facing values.
// A result that fails to decode is recorded as nil rather than failing
// the whole batch.
func (e *Engine) decodeBatch(batch []*ethcall.Call, raw []RawResult, out []interface{}) error {
	for i, call := range batch {
		success := raw[i].Success
		value, err := ethcall.DecodeOutput(raw[i].ReturnData, call.Signature, call.Returns, &success)
		if err != nil {
			e.logger.Debug().
				Str("call", call.String()).
				Err(err).
				Msg("failed to decode call result")
			out[i] = nil
			continue
		}
		out[i] = value
	}
	return nil
}
