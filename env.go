package redistrace

import (
	"fmt"

	"github.com/kelseyhightower/envconfig"
)

// EnvPrefix is the prefix of the environment variables read by LoadEnv.
const EnvPrefix = "REDISTRACE"

// EnvConfig holds tracing settings read from the environment.
type EnvConfig struct {
	Prefix          string `envconfig:"PREFIX" default:"Redis"`
	DisablePrefix   bool   `envconfig:"DISABLE_PREFIX" default:"false"`
	TraceAllClients bool   `envconfig:"TRACE_ALL_CLIENTS" default:"true"`
}

// LoadEnv reads REDISTRACE_PREFIX, REDISTRACE_DISABLE_PREFIX and
// REDISTRACE_TRACE_ALL_CLIENTS.
func LoadEnv() (*EnvConfig, error) {
	var cfg EnvConfig
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("failed to load tracing config: %w", err)
	}
	return &cfg, nil
}

// Options converts the settings into Options.
func (e *EnvConfig) Options() []Option {
	prefix := WithPrefix(e.Prefix)
	if e.DisablePrefix {
		prefix = WithoutPrefix()
	}
	return []Option{prefix, WithTraceAllClients(e.TraceAllClients)}
}

// InitTracingFromEnv runs InitTracing with the environment settings followed
// by opts, so explicit options override the environment.
func InitTracingFromEnv(opts ...Option) error {
	env, err := LoadEnv()
	if err != nil {
		return err
	}
	return InitTracing(append(env.Options(), opts...)...)
}
