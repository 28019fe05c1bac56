package redistrace

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/redis/go-redis/v9"
)

var _ redis.Hook = (*Hook)(nil)

// Hook applies the tracing contract to go-redis clients: one span per
// processed command and one MULTI span per pipeline or transaction.
type Hook struct {
	config   configSource
	disabled atomic.Bool
}

// NewHook returns a hook tracing with cfg. A nil cfg means DefaultConfig.
func NewHook(cfg *Config) *Hook {
	return &Hook{config: staticConfig(cfg)}
}

// active returns the Config for one call, or nil once the hook is disabled.
func (h *Hook) active() *Config {
	if h.disabled.Load() {
		return nil
	}
	return h.config()
}

// DialHook implements redis.Hook. Dials are not traced.
func (h *Hook) DialHook(next redis.DialHook) redis.DialHook {
	return next
}

// ProcessHook implements redis.Hook.
func (h *Hook) ProcessHook(next redis.ProcessHook) redis.ProcessHook {
	return func(ctx context.Context, cmd redis.Cmder) (err error) {
		cfg := h.active()
		if cfg == nil {
			return next(ctx, cmd)
		}

		args := cmd.Args()
		ctx, span := cfg.startSpan(ctx, Command(args).Name(), Statement(args))
		defer func() { finishSpan(span, spanError(err), recover()) }()

		return next(ctx, cmd)
	}
}

// ProcessPipelineHook implements redis.Hook.
func (h *Hook) ProcessPipelineHook(next redis.ProcessPipelineHook) redis.ProcessPipelineHook {
	return func(ctx context.Context, cmds []redis.Cmder) (err error) {
		cfg := h.active()
		if cfg == nil {
			return next(ctx, cmds)
		}

		ctx, span := cfg.startSpan(ctx, MultiOperation, BatchStatement(commandStack(cmds)))
		defer func() { finishSpan(span, spanError(err), recover()) }()

		return next(ctx, cmds)
	}
}

// commandStack converts queued go-redis commands, leaving out the MULTI/EXEC
// pair go-redis adds around transactions.
func commandStack(cmds []redis.Cmder) []Command {
	if n := len(cmds); n >= 2 &&
		strings.EqualFold(cmds[0].Name(), "multi") &&
		strings.EqualFold(cmds[n-1].Name(), "exec") {
		cmds = cmds[1 : n-1]
	}
	stack := make([]Command, len(cmds))
	for i, cmd := range cmds {
		stack[i] = cmd.Args()
	}
	return stack
}

// spanError drops redis.Nil, which reports a missing key rather than a failure.
func spanError(err error) error {
	if errors.Is(err, redis.Nil) {
		return nil
	}
	return err
}

// tracedRedisClients maps each client given a hook by TraceRedisClient to
// that hook.
var tracedRedisClients sync.Map

// TraceRedisClient adds a hook to c that traces with the process-wide
// Config. It reports false, and does nothing, if c is already traced.
func TraceRedisClient(c redis.UniversalClient) bool {
	hook := &Hook{config: currentOrDefault}
	if _, loaded := tracedRedisClients.LoadOrStore(c, hook); loaded {
		currentOrDefault().logger.Debug("redis client already traced")
		return false
	}
	c.AddHook(hook)
	return true
}

// UntraceRedisClient stops tracing c and forgets it, so a closed client is
// not kept alive. go-redis cannot remove hooks, so the hook stays installed
// but passes every call straight through. Call it before closing a client
// traced with TraceRedisClient. It reports false if c was not traced.
func UntraceRedisClient(c redis.UniversalClient) bool {
	v, ok := tracedRedisClients.LoadAndDelete(c)
	if !ok {
		return false
	}
	v.(*Hook).disabled.Store(true)
	return true
}

// NewClient creates a go-redis client whose commands are traced while the
// process-wide Config has class-wide tracing enabled.
func NewClient(opt *redis.Options) *redis.Client {
	c := redis.NewClient(opt)
	c.AddHook(&Hook{config: classWideConfig})
	return c
}

// FromRedis adapts a go-redis client to Client. A missing key yields a nil
// reply rather than redis.Nil.
func FromRedis(c redis.UniversalClient) Client {
	return &redisClient{client: c}
}

type redisClient struct {
	client redis.UniversalClient
}

func (r *redisClient) ExecuteCommand(ctx context.Context, args ...interface{}) (interface{}, error) {
	reply, err := r.client.Do(ctx, args...).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	return reply, err
}

// Pipeline returns a pipeline; go-redis has no shard hints, so shardHint is ignored.
func (r *redisClient) Pipeline(transaction bool, _ string) Pipeline {
	return &redisPipeline{client: r.client, transaction: transaction}
}

// redisPipeline buffers commands and hands them to a go-redis pipeline on
// Execute. It is not safe for concurrent use, like go-redis pipelines.
type redisPipeline struct {
	client      redis.UniversalClient
	stack       []Command
	transaction bool
}

func (p *redisPipeline) Queue(args ...interface{}) {
	p.stack = append(p.stack, Command(args))
}

func (p *redisPipeline) CommandStack() []Command {
	stack := make([]Command, len(p.stack))
	copy(stack, p.stack)
	return stack
}

// Execute sends the queued commands and clears the stack. Replies line up
// with the queued commands; a failed command's reply is its error. With
// raiseOnError the first command error is also returned.
func (p *redisPipeline) Execute(ctx context.Context, raiseOnError bool) ([]interface{}, error) {
	stack := p.stack
	p.stack = nil

	var pipe redis.Pipeliner
	if p.transaction {
		pipe = p.client.TxPipeline()
	} else {
		pipe = p.client.Pipeline()
	}

	cmds := make([]*redis.Cmd, len(stack))
	for i, args := range stack {
		cmds[i] = pipe.Do(ctx, args...)
	}
	_, execErr := pipe.Exec(ctx)

	replies := make([]interface{}, len(cmds))
	var firstErr error
	for i, cmd := range cmds {
		val, err := cmd.Result()
		switch {
		case err == nil:
			replies[i] = val
		case errors.Is(err, redis.Nil):
			replies[i] = nil
		default:
			replies[i] = err
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	if raiseOnError && firstErr != nil {
		return replies, firstErr
	}
	if firstErr == nil && execErr != nil && !errors.Is(execErr, redis.Nil) {
		return replies, execErr
	}
	return replies, nil
}
