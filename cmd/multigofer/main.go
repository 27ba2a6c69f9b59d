package main

import (
	"context"
	"encoding/json"
	"flag"
	"math/big"
	"os"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"
	"github.com/rs/zerolog"

	"multigofer/internal/chains"
	"multigofer/internal/config"
	"multigofer/internal/dispatch"
	"multigofer/internal/multicall"
	"multigofer/internal/plugin"
	"multigofer/internal/upstream"
)

func main() {
	// Parse flags
	configPath := flag.String("config", "config.json", "path to config file")
	callsPath := flag.String("calls", "calls.json", "path to calls file")
	flag.Parse()

	// Load config
	cfg, err := config.Load(*configPath)
	if err != nil {
		// Basic logger for startup errors
		log := zerolog.New(os.Stderr).With().Timestamp().Logger()
		log.Fatal().Err(err).Msg("failed to load config")
	}

	// Setup logger
	logger := setupLogger(cfg.LogLevel)
	logger.Info().
		Str("config", *configPath).
		Str("calls", *callsPath).
		Int("upstreams", len(cfg.Upstreams)).
		Msg("starting multigofer")

	dispatch.SetDefaultLimit(cfg.MaxInFlight)

	// Load decode handlers
	var handlers *plugin.Manager
	if cfg.Plugins != nil && cfg.Plugins.Enabled {
		handlers = plugin.NewManager(logger)
		if err := handlers.LoadFromDirectory(cfg.Plugins.Directory); err != nil {
			logger.Fatal().Err(err).Msg("failed to load decode handlers")
		}
	}

	// Parse calls
	file, calls, err := loadCallsFile(*callsPath, handlers)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load calls file")
	}

	block, err := parseBlock(file.Block)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid block in calls file")
	}

	requireSuccess := cfg.RequireSuccess
	if file.RequireSuccess != nil {
		requireSuccess = *file.RequireSuccess
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Wire the transport
	pool := upstream.NewPool(cfg, logger)
	pool.Start(ctx)
	defer pool.Stop()

	executor := dispatch.NewPoolExecutor(pool, dispatch.RetryConfig{
		Enabled:     cfg.RetryEnabled,
		MaxAttempts: cfg.RetryMaxAttempts,
	}, logger)

	registry, err := chains.NewRegistry(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("invalid chain configuration")
	}
	info, err := chains.NewInfo(executor, registry, *configPath, cfg.CapabilityCacheSize, logger)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create chain info service")
	}

	var overrideCode []byte
	if cfg.StateOverrideCode != "" {
		overrideCode, err = hexutil.Decode(cfg.StateOverrideCode)
		if err != nil {
			logger.Fatal().Err(err).Msg("invalid stateOverrideCode")
		}
	}

	// Wire the engine
	aggregator := multicall.NewAggregator(executor, info, cfg.GasLimit, overrideCode, logger)
	batcher := multicall.NewBatcher(cfg.InitialStep, logger)
	engine := multicall.NewEngine(aggregator, batcher, requireSuccess, block, logger)

	started := time.Now()
	results, err := engine.Run(ctx, calls)
	if err != nil {
		logger.Fatal().Err(err).Msg("multicall run failed")
	}
	logger.Info().
		Int("calls", len(calls)).
		Dur("elapsed", time.Since(started)).
		Msg("multicall run finished")

	out := make([]interface{}, len(results))
	for i, r := range results {
		out[i] = formatValue(r)
	}

	encoded, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to encode results")
	}
	os.Stdout.Write(append(encoded, '\n'))
}

// formatValue rewrites decoded values into JSON-friendly shapes: byte
// blobs as hex strings, addresses as checksummed hex
func formatValue(v interface{}) interface{} {
	switch val := v.(type) {
	case nil:
		return nil
	case []byte:
		return hexutil.Encode(val)
	case common.Address:
		return val.Hex()
	case *big.Int:
		// Decimal strings survive JSON consumers that parse numbers as
		// 64-bit floats
		return val.String()
	case []interface{}:
		out := make([]interface{}, len(val))
		for i, item := range val {
			out[i] = formatValue(item)
		}
		return out
	case map[string]interface{}:
		out := make(map[string]interface{}, len(val))
		for k, item := range val {
			out[k] = formatValue(item)
		}
		return out
	}

	// Fixed-size byte arrays (bytes32 and friends) arrive as [N]uint8
	rv := reflect.ValueOf(v)
	if rv.Kind() == reflect.Array && rv.Type().Elem().Kind() == reflect.Uint8 {
		bytes := make([]byte, rv.Len())
		reflect.Copy(reflect.ValueOf(bytes), rv)
		return hexutil.Encode(bytes)
	}
	if rv.Kind() == reflect.Slice {
		out := make([]interface{}, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out[i] = formatValue(rv.Index(i).Interface())
		}
		return out
	}

	return v
}

// setupLogger configures the zerolog logger
func setupLogger(level string) zerolog.Logger {
	var logLevel zerolog.Level
	switch level {
	case "debug":
		logLevel = zerolog.DebugLevel
	case "info":
		logLevel = zerolog.InfoLevel
	case "warn":
		logLevel = zerolog.WarnLevel
	case "error":
		logLevel = zerolog.ErrorLevel
	default:
		logLevel = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(logLevel)

	output := zerolog.ConsoleWriter{
		Out:        os.Stderr,
		TimeFormat: time.RFC3339,
	}

	return zerolog.New(output).With().Timestamp().Logger()
}
