package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/dop251/goja"
	"github.com/rs/zerolog"
)

// Manager loads JavaScript decode handlers and hands them out as Go
// functions. Scripts call register(name, fn) at load time; fn receives
// (success, value) and returns the processed value.
//
// All handlers share one VM, so invocations are serialized under a
// single lock: goja runtimes are not goroutine safe.
type Manager struct {
	runtime  *Runtime
	handlers map[string]goja.Callable
	logger   zerolog.Logger
	mu       sync.Mutex
}

// NewManager creates a Manager
func NewManager(logger zerolog.Logger) *Manager {
	logger = logger.With().Str("component", "plugin-manager").Logger()
	m := &Manager{
		runtime:  NewRuntime(logger),
		handlers: make(map[string]goja.Callable),
		logger:   logger,
	}
	m.setupRegister()
	return m
}

// setupRegister binds the register(name, fn) entry point
func (m *Manager) setupRegister() {
	vm := m.runtime.VM()
	vm.Set("register", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			panic(vm.ToValue("register requires name and function"))
		}
		name := call.Arguments[0].String()
		fn, ok := goja.AssertFunction(call.Arguments[1])
		if !ok {
			panic(vm.ToValue("register requires a function"))
		}
		if _, exists := m.handlers[name]; exists {
			panic(vm.ToValue(fmt.Sprintf("handler %q already registered", name)))
		}
		m.handlers[name] = fn
		m.logger.Info().Str("handler", name).Msg("handler registered")
		return goja.Undefined()
	})
}

// LoadFromDirectory loads all .js handler scripts from a directory.
// A missing directory is not an error: there are simply no handlers.
func (m *Manager) LoadFromDirectory(dir string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		m.logger.Warn().Str("directory", dir).Msg("handlers directory does not exist")
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to stat handlers directory: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("handlers path is not a directory: %s", dir)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read handlers directory: %w", err)
	}

	loadedCount := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".js") {
			continue
		}

		content, err := os.ReadFile(filepath.Join(dir, entry.Name()))
		if err != nil {
			m.logger.Error().
				Err(err).
				Str("file", entry.Name()).
				Msg("failed to read handler script")
			continue
		}
		if _, err := m.runtime.RunScript(string(content)); err != nil {
			m.logger.Error().
				Err(err).
				Str("file", entry.Name()).
				Msg("failed to load handler script")
			continue
		}
		loadedCount++
	}

	m.logger.Info().
		Int("loaded", loadedCount).
		Int("handlers", len(m.handlers)).
		Str("directory", dir).
		Msg("handler scripts loaded")

	return nil
}

// Has reports whether a handler is registered under name
func (m *Manager) Has(name string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.handlers[name]
	return exists
}

// Names returns all registered handler names
func (m *Manager) Names() []string {
	m.mu.Lock()
	defer m.mu.Unlock()

	names := make([]string, 0, len(m.handlers))
	for name := range m.handlers {
		names = append(names, name)
	}
	return names
}

// Handler returns the named handler as a Go function, or an error when
// no such handler is registered. A handler that throws logs the
// exception and yields nil for that value.
func (m *Manager) Handler(name string) (func(bool, interface{}) interface{}, error) {
	m.mu.Lock()
	fn, exists := m.handlers[name]
	m.mu.Unlock()

	if !exists {
		return nil, fmt.Errorf("handler %q not found", name)
	}

	vm := m.runtime.VM()
	return func(success bool, value interface{}) interface{} {
		m.mu.Lock()
		defer m.mu.Unlock()

		result, err := fn(goja.Undefined(), vm.ToValue(success), vm.ToValue(value))
		if err != nil {
			if jsErr, ok := err.(*goja.Exception); ok {
				err = fmt.Errorf("%s", jsErr.String())
			}
			m.logger.Error().
				Err(err).
				Str("handler", name).
				Msg("handler execution failed")
			return nil
		}
		return result.Export()
	}, nil
}
