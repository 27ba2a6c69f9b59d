package multicall

import (
	"github.com/rs/zerolog"

	"multigofer/internal/upstream"
)

// Outcome is the classification of a failed batch dispatch
type Outcome int

const (
	// OutcomeFatal means splitting cannot help; abort the run
	OutcomeFatal Outcome = iota
	// OutcomeRebatch means the failure looks like a size/resource
	// limit and the batch should be split and retried
	OutcomeRebatch
)

// Classify decides whether a failed dispatch warrants a rebatch.
// Typed transport kinds are consulted first; errors arriving without a
// kind fall back to message-marker matching. An out-of-gas failure on a
// single call is fatal: there is nothing smaller to retry.
func Classify(err error, batchSize int, logger zerolog.Logger) Outcome {
	kind, ok := upstream.KindOf(err)
	if !ok {
		kind = upstream.ClassifyMessage(err.Error())
	}

	switch kind {
	case upstream.KindOutOfGas:
		if batchSize == 1 {
			return OutcomeFatal
		}
	case upstream.KindTooLarge, upstream.KindTimeout, upstream.KindConnReset,
		upstream.KindOutOfResources, upstream.KindServerError:
	default:
		return OutcomeFatal
	}

	logger.Warn().
		Int("batchSize", batchSize).
		Str("kind", kind.String()).
		Err(err).
		Msg("multicall batch failed, re-batching")
	return OutcomeRebatch
}
