package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Load reads and parses the configuration file
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := &Config{RetryEnabled: DefaultRetryEnabled}
	if err := json.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	applyDefaults(cfg)

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// applyDefaults sets default values for unset fields
func applyDefaults(cfg *Config) {
	if cfg.LogLevel == "" {
		cfg.LogLevel = DefaultLogLevel
	}
	if cfg.RequestTimeout == 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}
	if cfg.MaxInFlight == 0 {
		cfg.MaxInFlight = DefaultMaxInFlight
	}
	if cfg.InitialStep == 0 {
		cfg.InitialStep = DefaultInitialStep
	}
	if cfg.GasLimit == 0 {
		cfg.GasLimit = DefaultGasLimit
	}
	if cfg.RetryMaxAttempts == 0 {
		cfg.RetryMaxAttempts = DefaultRetryMaxAttempts
	}
	if cfg.CapabilityCacheSize == 0 {
		cfg.CapabilityCacheSize = DefaultCapabilityCacheSize
	}

	for i := range cfg.Upstreams {
		if cfg.Upstreams[i].Weight == 0 {
			cfg.Upstreams[i].Weight = DefaultUpstreamWeight
		}
		if cfg.Upstreams[i].Role == "" {
			cfg.Upstreams[i].Role = DefaultUpstreamRole
		}
	}
}

// validate checks the configuration for errors
func validate(cfg *Config) error {
	if len(cfg.Upstreams) == 0 {
		return errors.New("at least one upstream is required")
	}

	names := make(map[string]bool)
	for i, up := range cfg.Upstreams {
		if up.Name == "" {
			return fmt.Errorf("upstream[%d]: name is required", i)
		}
		if names[up.Name] {
			return fmt.Errorf("upstream[%d]: duplicate upstream name '%s'", i, up.Name)
		}
		names[up.Name] = true

		if up.RPCURL == "" && up.WSURL == "" {
			return fmt.Errorf("upstream '%s': at least one of rpcUrl or wsUrl is required", up.Name)
		}

		if up.Role != RoleMain && up.Role != RoleFallback {
			return fmt.Errorf("upstream '%s': invalid role '%s'", up.Name, up.Role)
		}

		if up.Weight < 0 {
			return fmt.Errorf("upstream '%s': weight must be positive", up.Name)
		}
	}

	for chainID, addr := range cfg.MulticallAddresses {
		if _, err := strconv.ParseUint(chainID, 10, 64); err != nil {
			return fmt.Errorf("multicallAddresses: invalid chain id '%s'", chainID)
		}
		if !isHexAddress(addr) {
			return fmt.Errorf("multicallAddresses: invalid address '%s' for chain %s", addr, chainID)
		}
	}

	if cfg.StateOverrideCode != "" && !isHexData(cfg.StateOverrideCode) {
		return errors.New("stateOverrideCode must be 0x-prefixed hex")
	}

	return nil
}

// isHexAddress checks for a 0x-prefixed 20-byte hex address
func isHexAddress(s string) bool {
	if !strings.HasPrefix(s, "0x") || len(s) != 42 {
		return false
	}
	return isHex(s[2:])
}

// isHexData checks for 0x-prefixed hex with an even number of digits
func isHexData(s string) bool {
	if !strings.HasPrefix(s, "0x") || len(s)%2 != 0 {
		return false
	}
	return isHex(s[2:])
}

func isHex(s string) bool {
	for _, c := range s {
		switch {
		case c >= '0' && c <= '9':
		case c >= 'a' && c <= 'f':
		case c >= 'A' && c <= 'F':
		default:
			return false
		}
	}
	return true
}
