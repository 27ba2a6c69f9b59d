package plugin

import (
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"

	"golang.org/x/crypto/sha3"
)

// Runtime wraps a goja VM with handler-script bindings
type Runtime struct {
	vm     *goja.Runtime
	logger zerolog.Logger
}

// NewRuntime creates a new Runtime with all necessary bindings
func NewRuntime(logger zerolog.Logger) *Runtime {
	vm := goja.New()
	r := &Runtime{
		vm:     vm,
		logger: logger,
	}
	r.setupConsole()
	r.setupUtils()
	return r
}

// VM returns the underlying goja runtime
func (r *Runtime) VM() *goja.Runtime {
	return r.vm
}

// RunScript executes JavaScript code and returns the result
func (r *Runtime) RunScript(script string) (goja.Value, error) {
	return r.vm.RunString(script)
}

// setupConsole creates console.log and console.error bindings
func (r *Runtime) setupConsole() {
	console := r.vm.NewObject()

	logFn := func(event func() *zerolog.Event) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			args := make([]interface{}, len(call.Arguments))
			for i, arg := range call.Arguments {
				args[i] = arg.Export()
			}
			event().Msgf("[handler] %v", args)
			return goja.Undefined()
		}
	}

	console.Set("log", logFn(func() *zerolog.Event { return r.logger.Info() }))
	console.Set("error", logFn(func() *zerolog.Event { return r.logger.Error() }))
	console.Set("warn", logFn(func() *zerolog.Event { return r.logger.Warn() }))
	console.Set("debug", logFn(func() *zerolog.Event { return r.logger.Debug() }))

	r.vm.Set("console", console)
}

// setupUtils creates utility functions for decode handlers
func (r *Runtime) setupUtils() {
	utils := r.vm.NewObject()

	// hexToBytes converts hex string to byte array
	utils.Set("hexToBytes", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(r.vm.ToValue("hexToBytes requires 1 argument"))
		}
		hexStr := strings.TrimPrefix(call.Arguments[0].String(), "0x")
		bytes, err := hex.DecodeString(hexStr)
		if err != nil {
			panic(r.vm.ToValue(fmt.Sprintf("invalid hex string: %v", err)))
		}
		return r.vm.ToValue(bytes)
	})

	// bytesToHex converts byte array to hex string
	utils.Set("bytesToHex", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(r.vm.ToValue("bytesToHex requires 1 argument"))
		}
		bytes, ok := exportBytes(call.Arguments[0].Export())
		if !ok {
			panic(r.vm.ToValue("bytesToHex requires byte array"))
		}
		return r.vm.ToValue("0x" + hex.EncodeToString(bytes))
	})

	// keccak256 computes keccak256 hash of a string or byte array
	utils.Set("keccak256", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(r.vm.ToValue("keccak256 requires 1 argument"))
		}
		var data []byte
		switch v := call.Arguments[0].Export().(type) {
		case string:
			if strings.HasPrefix(v, "0x") {
				decoded, err := hex.DecodeString(strings.TrimPrefix(v, "0x"))
				if err != nil {
					panic(r.vm.ToValue(fmt.Sprintf("invalid hex string: %v", err)))
				}
				data = decoded
			} else {
				data = []byte(v)
			}
		default:
			bytes, ok := exportBytes(v)
			if !ok {
				panic(r.vm.ToValue("keccak256 requires string or byte array"))
			}
			data = bytes
		}

		hash := sha3.NewLegacyKeccak256()
		hash.Write(data)
		return r.vm.ToValue("0x" + hex.EncodeToString(hash.Sum(nil)))
	})

	// parseJSON parses a JSON string
	utils.Set("parseJSON", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(r.vm.ToValue("parseJSON requires string"))
		}
		var result interface{}
		if err := json.Unmarshal([]byte(call.Arguments[0].String()), &result); err != nil {
			panic(r.vm.ToValue(fmt.Sprintf("invalid JSON: %v", err)))
		}
		return r.vm.ToValue(result)
	})

	// stringifyJSON converts a value to a JSON string
	utils.Set("stringifyJSON", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			panic(r.vm.ToValue("stringifyJSON requires value"))
		}
		data, err := json.Marshal(call.Arguments[0].Export())
		if err != nil {
			panic(r.vm.ToValue(fmt.Sprintf("JSON stringify error: %v", err)))
		}
		return r.vm.ToValue(string(data))
	})

	r.vm.Set("utils", utils)
}

// exportBytes converts an exported goja value into a byte slice
func exportBytes(exported interface{}) ([]byte, bool) {
	switch v := exported.(type) {
	case []byte:
		return v, true
	case []interface{}:
		bytes := make([]byte, len(v))
		for i, b := range v {
			switch num := b.(type) {
			case int64:
				bytes[i] = byte(num)
			case float64:
				bytes[i] = byte(num)
			default:
				return nil, false
			}
		}
		return bytes, true
	default:
		return nil, false
	}
}
