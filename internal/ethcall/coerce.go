package ethcall

import (
	"fmt"
	"math/big"
	"reflect"
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
)

// coerceArgs converts loosely typed argument values (e.g. parsed from
// JSON) into the exact Go types the ABI packer expects.
func coerceArgs(inputs abi.Arguments, args []interface{}) ([]interface{}, error) {
	if len(args) != len(inputs) {
		return nil, fmt.Errorf("argument count mismatch: want %d, got %d", len(inputs), len(args))
	}

	coerced := make([]interface{}, len(args))
	for i, arg := range args {
		v, err := coerceArg(inputs[i].Type, arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		coerced[i] = v
	}
	return coerced, nil
}

func coerceArg(t abi.Type, v interface{}) (interface{}, error) {
	switch t.T {
	case abi.AddressTy:
		return coerceAddress(v)
	case abi.UintTy, abi.IntTy:
		return coerceInteger(t, v)
	case abi.BoolTy:
		if b, ok := v.(bool); ok {
			return b, nil
		}
		return nil, fmt.Errorf("cannot use %T as bool", v)
	case abi.StringTy:
		if s, ok := v.(string); ok {
			return s, nil
		}
		return nil, fmt.Errorf("cannot use %T as string", v)
	case abi.BytesTy:
		return coerceBytes(v)
	case abi.FixedBytesTy:
		return coerceFixedBytes(t, v)
	case abi.SliceTy, abi.ArrayTy:
		return coerceSequence(t, v)
	case abi.TupleTy:
		return coerceTuple(t, v)
	default:
		return nil, fmt.Errorf("unsupported ABI type %s", t.String())
	}
}

func coerceAddress(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case common.Address:
		return val, nil
	case string:
		return ParseAddress(val)
	default:
		return nil, fmt.Errorf("cannot use %T as address", v)
	}
}

func coerceInteger(t abi.Type, v interface{}) (interface{}, error) {
	n, err := toBig(v)
	if err != nil {
		return nil, err
	}

	// Sizes above 64 bits pack from *big.Int; smaller sizes pack from
	// the matching native integer type.
	if t.Size > 64 {
		return n, nil
	}

	target := reflect.New(t.GetType()).Elem()
	if t.T == abi.UintTy {
		if !n.IsUint64() {
			return nil, fmt.Errorf("value %s out of range for %s", n, t.String())
		}
		target.SetUint(n.Uint64())
	} else {
		if !n.IsInt64() {
			return nil, fmt.Errorf("value %s out of range for %s", n, t.String())
		}
		target.SetInt(n.Int64())
	}
	return target.Interface(), nil
}

func toBig(v interface{}) (*big.Int, error) {
	switch val := v.(type) {
	case *big.Int:
		return val, nil
	case float64:
		if val != float64(int64(val)) {
			return nil, fmt.Errorf("non-integral numeric value %v", val)
		}
		return big.NewInt(int64(val)), nil
	case int:
		return big.NewInt(int64(val)), nil
	case int64:
		return big.NewInt(val), nil
	case uint64:
		return new(big.Int).SetUint64(val), nil
	case string:
		if strings.HasPrefix(val, "0x") {
			n, err := hexutil.DecodeBig(val)
			if err != nil {
				return nil, fmt.Errorf("invalid hex integer %q", val)
			}
			return n, nil
		}
		n, ok := new(big.Int).SetString(val, 10)
		if !ok {
			return nil, fmt.Errorf("invalid integer %q", val)
		}
		return n, nil
	default:
		return nil, fmt.Errorf("cannot use %T as integer", v)
	}
}

func coerceBytes(v interface{}) (interface{}, error) {
	switch val := v.(type) {
	case []byte:
		return val, nil
	case string:
		b, err := hexutil.Decode(val)
		if err != nil {
			return nil, fmt.Errorf("invalid hex bytes %q", val)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("cannot use %T as bytes", v)
	}
}

func coerceFixedBytes(t abi.Type, v interface{}) (interface{}, error) {
	raw, err := coerceBytes(v)
	if err != nil {
		return nil, err
	}
	b := raw.([]byte)
	if len(b) != t.Size {
		return nil, fmt.Errorf("need %d bytes for %s, got %d", t.Size, t.String(), len(b))
	}

	target := reflect.New(t.GetType()).Elem()
	reflect.Copy(target, reflect.ValueOf(b))
	return target.Interface(), nil
}

func coerceSequence(t abi.Type, v interface{}) (interface{}, error) {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return nil, fmt.Errorf("cannot use %T as %s", v, t.String())
	}
	if t.T == abi.ArrayTy && rv.Len() != t.Size {
		return nil, fmt.Errorf("need %d elements for %s, got %d", t.Size, t.String(), rv.Len())
	}

	var target reflect.Value
	if t.T == abi.SliceTy {
		target = reflect.MakeSlice(t.GetType(), rv.Len(), rv.Len())
	} else {
		target = reflect.New(t.GetType()).Elem()
	}

	for i := 0; i < rv.Len(); i++ {
		elem, err := coerceArg(*t.Elem, rv.Index(i).Interface())
		if err != nil {
			return nil, fmt.Errorf("element %d: %w", i, err)
		}
		target.Index(i).Set(reflect.ValueOf(elem))
	}
	return target.Interface(), nil
}

func coerceTuple(t abi.Type, v interface{}) (interface{}, error) {
	vals, ok := v.([]interface{})
	if !ok {
		return nil, fmt.Errorf("cannot use %T as %s (expected positional list)", v, t.String())
	}
	if len(vals) != len(t.TupleElems) {
		return nil, fmt.Errorf("need %d tuple fields, got %d", len(t.TupleElems), len(vals))
	}

	target := reflect.New(t.GetType()).Elem()
	for i, elemType := range t.TupleElems {
		elem, err := coerceArg(*elemType, vals[i])
		if err != nil {
			return nil, fmt.Errorf("tuple field %d: %w", i, err)
		}
		target.Field(i).Set(reflect.ValueOf(elem))
	}
	return target.Interface(), nil
}

// ParseAddress parses and validates a 0x-prefixed hex address,
// returning its canonical 20-byte form
func ParseAddress(s string) (common.Address, error) {
	if !common.IsHexAddress(s) {
		return common.Address{}, fmt.Errorf("invalid address %q", s)
	}
	return common.HexToAddress(s), nil
}
