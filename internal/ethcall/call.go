package ethcall

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"multigofer/internal/jsonrpc"
)

// Executor dispatches a single JSON-RPC request
type Executor interface {
	Execute(ctx context.Context, req *jsonrpc.Request) (*jsonrpc.Response, error)
}

// CapabilityChecker reports whether the connected chain supports
// eth_call state overrides
type CapabilityChecker interface {
	StateOverrideSupported(ctx context.Context) (bool, error)
}

// ReturnField names one decoded return value and optionally attaches a
// post-processing handler. Handler may be nil, a func(interface{})
// interface{}, or a func(bool, interface{}) interface{} when it wants
// the per-call success flag as well.
type ReturnField struct {
	Name    string
	Handler interface{}
}

// Call describes one read-only contract call. Immutable once created;
// calls are compared by identity, never structurally.
type Call struct {
	Target    common.Address
	Data      []byte
	Signature *Signature
	Returns   []ReturnField

	// Overrides below apply only when the call is executed directly,
	// not when it rides inside an aggregate call.
	Block             jsonrpc.BlockParam
	GasLimit          uint64
	Origin            *common.Address
	StateOverrideCode []byte
}

// Option configures optional Call fields
type Option func(*Call)

// WithBlock pins the call to a block
func WithBlock(block jsonrpc.BlockParam) Option {
	return func(c *Call) { c.Block = block }
}

// WithGasLimit sets a gas limit for the direct-call path
func WithGasLimit(gas uint64) Option {
	return func(c *Call) { c.GasLimit = gas }
}

// WithOrigin sets the from address for the direct-call path
func WithOrigin(origin common.Address) Option {
	return func(c *Call) { c.Origin = &origin }
}

// WithStateOverrideCode injects code at the target for the direct-call path
func WithStateOverrideCode(code []byte) Option {
	return func(c *Call) { c.StateOverrideCode = code }
}

// New creates a Call from a target address, a human-readable function
// signature and its arguments
func New(target common.Address, function string, args []interface{}, returns []ReturnField, opts ...Option) (*Call, error) {
	sig, err := ParseSignature(function)
	if err != nil {
		return nil, err
	}

	data, err := sig.EncodeArgs(args)
	if err != nil {
		return nil, err
	}

	c := &Call{
		Target:    target,
		Data:      data,
		Signature: sig,
		Returns:   returns,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// String implements fmt.Stringer
func (c *Call) String() string {
	name := "raw"
	if c.Signature != nil {
		name = c.Signature.Raw
	}
	return fmt.Sprintf("<Call %s on %s>", name, c.Target.Hex()[:8])
}

// Exec executes the call directly via eth_call, applying the per-call
// overrides. The capability checker may be nil when no state override
// is requested.
func (c *Call) Exec(ctx context.Context, exec Executor, caps CapabilityChecker) (interface{}, error) {
	if len(c.StateOverrideCode) > 0 {
		if caps == nil {
			return nil, ErrStateOverrideUnsupported
		}
		supported, err := caps.StateOverrideSupported(ctx)
		if err != nil {
			return nil, err
		}
		if !supported {
			return nil, ErrStateOverrideUnsupported
		}
	}

	params := &jsonrpc.CallParams{
		To:                c.Target,
		Data:              c.Data,
		From:              c.Origin,
		Gas:               c.GasLimit,
		Block:             c.Block,
		StateOverrideCode: c.StateOverrideCode,
	}

	req, err := jsonrpc.NewCallRequest(params, jsonrpc.NewIDInt(1))
	if err != nil {
		return nil, fmt.Errorf("failed to build eth_call request: %w", err)
	}

	resp, err := exec.Execute(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp.HasError() {
		return nil, fmt.Errorf("eth_call failed: %w", resp.Error)
	}

	var resultHex string
	if err := resp.GetResultAs(&resultHex); err != nil {
		return nil, &DecodeError{Func: c.Signature.Name, cause: err}
	}
	output, err := hexutil.Decode(resultHex)
	if err != nil {
		return nil, &DecodeError{Func: c.Signature.Name, cause: err}
	}

	// Success is unknown on the direct path: there is no aggregate
	// envelope carrying a flag.
	return DecodeOutput(output, c.Signature, c.Returns, nil)
}
