package multicall

import (
	"math"
	"sync"

	"github.com/rs/zerolog"

	"multigofer/internal/config"
	"multigofer/internal/ethcall"
)

// Batcher owns the preferred batch size ("step") and slices call lists
// into batches. The step only ever shrinks: once a node's real limit is
// learned the batcher stays conservative rather than re-probing upward.
// Concurrent rebatch attempts share the step under one lock.
type Batcher struct {
	mu     sync.Mutex
	step   int
	logger zerolog.Logger
}

// NewBatcher creates a Batcher with the given starting step
func NewBatcher(step int, logger zerolog.Logger) *Batcher {
	if step <= 0 {
		step = config.DefaultInitialStep
	}
	return &Batcher{
		step:   step,
		logger: logger.With().Str("component", "batcher").Logger(),
	}
}

// Step returns the current preferred batch size
func (b *Batcher) Step() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.step
}

// Partition slices calls into consecutive chunks of at most size
// elements, preserving order. The final chunk may be smaller.
func (b *Batcher) Partition(calls []*ethcall.Call, size int) [][]*ethcall.Call {
	if len(calls) == 0 {
		return nil
	}
	if size < 1 {
		size = 1
	}

	batches := make([][]*ethcall.Call, 0, (len(calls)+size-1)/size)
	for start := 0; start < len(calls); start += size {
		end := start + size
		if end > len(calls) {
			end = len(calls)
		}
		batches = append(batches, calls[start:end])
	}
	return batches
}

// Rebatch splits a failed batch for retry.
//
// If another retry already shrank the step to half the failed batch or
// less, the batch is re-partitioned at that step: the failure was
// presumably caused by a larger batch and the current step is still
// viable. Otherwise the batch is bisected; if the step was at or above
// the failing size it is also shrunk (1% off for batches of 100+, one
// call off below that, floor 1) so future top-level partitioning stays
// under the learned limit.
func (b *Batcher) Rebatch(calls []*ethcall.Call) [][]*ethcall.Call {
	b.mu.Lock()

	if b.step <= len(calls)/2 {
		step := b.step
		b.mu.Unlock()
		return b.Partition(calls, step)
	}

	if b.step >= len(calls) {
		newStep := len(calls) - 1
		if len(calls) >= 100 {
			newStep = int(math.Round(float64(len(calls)) * 0.99))
		}
		if newStep < 1 {
			newStep = 1
		}
		b.logger.Warn().
			Int("oldStep", b.step).
			Int("newStep", newStep).
			Int("failedBatchSize", len(calls)).
			Msg("multicall batch size reduced")
		b.step = newStep
	}
	b.mu.Unlock()

	half := len(calls) / 2
	if half == 0 {
		return [][]*ethcall.Call{calls}
	}
	return [][]*ethcall.Call{calls[:half], calls[half:]}
}
