package ethcall

import "fmt"

// DecodeOutput turns raw returned bytes into the caller-facing value.
//
// success is tri-state: nil means unknown (direct-call path, no
// aggregate envelope). A known-false success skips decoding and binds
// nil placeholders instead. With no return fields the result is the
// decoded value itself (scalar when single, positional list otherwise);
// with return fields it is a name -> value map with each handler
// applied to its positional value.
func DecodeOutput(output []byte, sig *Signature, returns []ReturnField, success *bool) (interface{}, error) {
	slots := len(returns)
	if slots == 0 {
		slots = 1
	}

	effSuccess := success == nil || *success
	var decoded []interface{}

	if effSuccess {
		values, err := sig.DecodeValues(output)
		if err != nil {
			effSuccess = false
			decoded = make([]interface{}, slots)
		} else {
			decoded = values
		}
	} else {
		decoded = make([]interface{}, slots)
	}

	if len(returns) == 0 {
		if len(decoded) == 1 {
			return decoded[0], nil
		}
		return decoded, nil
	}

	result := make(map[string]interface{}, len(returns))
	for i, rf := range returns {
		var value interface{}
		if i < len(decoded) {
			value = decoded[i]
		}

		processed, err := applyHandler(rf.Handler, value, effSuccess)
		if err != nil {
			return nil, &DecodeError{Func: sig.Name, cause: fmt.Errorf("handler %q: %w", rf.Name, err)}
		}
		result[rf.Name] = processed
	}
	return result, nil
}

// applyHandler invokes a return-field handler, passing the success flag
// when the handler's shape asks for it
func applyHandler(handler interface{}, value interface{}, success bool) (interface{}, error) {
	switch h := handler.(type) {
	case nil:
		return value, nil
	case func(interface{}) interface{}:
		return h(value), nil
	case func(bool, interface{}) interface{}:
		return h(success, value), nil
	default:
		return nil, fmt.Errorf("unsupported handler type %T", handler)
	}
}
