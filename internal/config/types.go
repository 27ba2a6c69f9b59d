package config

import "time"

// Role defines the upstream role type
type Role string

const (
	RoleMain     Role = "main"
	RoleFallback Role = "fallback"
)

// Config represents the main configuration structure
type Config struct {
	LogLevel              string            `json:"logLevel"`
	RequestTimeout        int               `json:"requestTimeout"` // ms
	MaxInFlight           int               `json:"maxInFlight"`    // max concurrent outbound RPC calls
	InitialStep           int               `json:"initialStep"`    // starting multicall batch size
	GasLimit              uint64            `json:"gasLimit"`       // gas limit for aggregate calls
	RequireSuccess        bool              `json:"requireSuccess"` // abort aggregate on first sub-call failure
	RetryEnabled          bool              `json:"retryEnabled"`
	RetryMaxAttempts      int               `json:"retryMaxAttempts"`
	CapabilityCacheSize   int               `json:"capabilityCacheSize"`
	StateOverrideCode     string            `json:"stateOverrideCode"`     // hex deploy code for the multicall contract
	MulticallAddresses    map[string]string `json:"multicallAddresses"`    // chain id (decimal string) -> address
	NoStateOverrideChains []uint64          `json:"noStateOverrideChains"` // chains without eth_call state override
	Plugins               *PluginConfig     `json:"plugins,omitempty"`
	Upstreams             []UpstreamConfig  `json:"upstreams"`
}

// PluginConfig represents decode-handler plugin configuration
type PluginConfig struct {
	Enabled   bool   `json:"enabled"`
	Directory string `json:"directory"` // path to handler scripts directory
}

// UpstreamConfig represents a single upstream configuration
type UpstreamConfig struct {
	Name   string `json:"name"`
	RPCURL string `json:"rpcUrl"`
	WSURL  string `json:"wsUrl"`
	Weight int    `json:"weight"`
	Role   Role   `json:"role"`
}

// Default values
const (
	DefaultLogLevel            = "info"
	DefaultRequestTimeout      = 30000 // ms
	DefaultMaxInFlight         = 16
	DefaultInitialStep         = 10000
	DefaultGasLimit            = uint64(50_000_000)
	DefaultRetryEnabled        = true
	DefaultRetryMaxAttempts    = 3
	DefaultCapabilityCacheSize = 64
	DefaultUpstreamWeight      = 1
	DefaultUpstreamRole        = RoleMain
	DefaultPluginDirectory     = "./handlers"
)

// GetRequestTimeoutDuration returns request timeout as time.Duration
func (c *Config) GetRequestTimeoutDuration() time.Duration {
	return time.Duration(c.RequestTimeout) * time.Millisecond
}

// IsPluginsEnabled returns true if plugins are configured and enabled
func (c *Config) IsPluginsEnabled() bool {
	return c.Plugins != nil && c.Plugins.Enabled
}

// GetPluginDirectory returns the plugin scripts directory path
func (c *Config) GetPluginDirectory() string {
	if c.Plugins == nil || c.Plugins.Directory == "" {
		return DefaultPluginDirectory
	}
	return c.Plugins.Directory
}
