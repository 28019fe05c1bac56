package redistrace

import (
	"sync"

	"go.uber.org/zap"
)

var global struct {
	cfg *Config
	mu  sync.RWMutex
}

// InitTracing validates opts and installs the result as the process-wide
// Config. On error the previous Config is left in place. The last call wins.
func InitTracing(opts ...Option) error {
	cfg, err := NewConfig(opts...)
	if err != nil {
		return err
	}

	global.mu.Lock()
	global.cfg = cfg
	global.mu.Unlock()

	cfg.logger.Info("redis tracing initialized",
		zap.String("prefix", cfg.prefix),
		zap.Bool("trace_all_clients", cfg.traceAllClients),
		zap.Bool("ambient_tracer", cfg.tracer == nil),
	)
	return nil
}

// ResetTracing drops the process-wide Config. Clients built by Wrap or
// NewClient stop tracing until InitTracing runs again.
func ResetTracing() {
	global.mu.Lock()
	global.cfg = nil
	global.mu.Unlock()
}

// CurrentConfig returns the process-wide Config, or nil before InitTracing.
func CurrentConfig() *Config {
	global.mu.RLock()
	defer global.mu.RUnlock()
	return global.cfg
}

// currentOrDefault is used by explicitly traced clients, which trace even
// when InitTracing never ran.
func currentOrDefault() *Config {
	if cfg := CurrentConfig(); cfg != nil {
		return cfg
	}
	return defaultConfig
}

var defaultConfig = DefaultConfig()

// classWideConfig returns the Config for class-wide clients, or nil when
// class-wide tracing is off.
func classWideConfig() *Config {
	cfg := CurrentConfig()
	if cfg == nil || !cfg.traceAllClients {
		return nil
	}
	return cfg
}
