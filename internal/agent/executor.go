package agent

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/relaykit/conduit/pkg/models"
)

// ExecutorConfig configures the Tool Executor's per-call timeout. Tool
// calls within one assistant turn run sequentially in emission order, so
// their results land in the transcript in the same order they were
// requested.
type ExecutorConfig struct {
	DefaultTimeout time.Duration
}

// DefaultExecutorConfig mirrors the teacher's defaults.
func DefaultExecutorConfig() *ExecutorConfig {
	return &ExecutorConfig{DefaultTimeout: 30 * time.Second}
}

// Executor dispatches tool calls against a ToolRegistry with per-call
// timeout and panic recovery, and maintains the per-request content-addressed
// result cache described in §4.4.
type Executor struct {
	registry *ToolRegistry
	config   *ExecutorConfig

	cacheMu sync.Mutex
	cache   map[string]*ExecutionResult
}

// NewExecutor builds an Executor bound to registry. A fresh Executor must be
// constructed per request: its cache is request-scoped and must not leak
// across requests (§5, State isolation).
func NewExecutor(registry *ToolRegistry, config *ExecutorConfig) *Executor {
	if config == nil {
		config = DefaultExecutorConfig()
	}
	return &Executor{registry: registry, config: config, cache: make(map[string]*ExecutionResult)}
}

// ExecutionResult is the outcome of one Execute call.
type ExecutionResult struct {
	ToolCallID string
	ToolName   string
	Result     *ToolResult
	Duration   time.Duration
	CacheHit   bool
}

// Execute dispatches a single tool call, serving from the per-request cache
// when an identical {name, canonical(args)} pair was already executed.
func (e *Executor) Execute(ctx context.Context, call models.ToolCall) *ExecutionResult {
	start := time.Now()
	key := cacheKey(call.Name, call.Arguments)

	e.cacheMu.Lock()
	if cached, ok := e.cache[key]; ok {
		e.cacheMu.Unlock()
		hit := *cached
		hit.ToolCallID = call.ID
		hit.CacheHit = true
		hit.Duration = time.Since(start)
		return &hit
	}
	e.cacheMu.Unlock()

	result := &ExecutionResult{ToolCallID: call.ID, ToolName: call.Name}
	result.Result = e.executeWithRecover(ctx, call)
	result.Duration = time.Since(start)

	e.cacheMu.Lock()
	e.cache[key] = &ExecutionResult{ToolCallID: call.ID, ToolName: call.Name, Result: result.Result}
	e.cacheMu.Unlock()

	return result
}

func (e *Executor) executeWithRecover(ctx context.Context, call models.ToolCall) *ToolResult {
	execCtx, cancel := context.WithTimeout(ctx, e.config.DefaultTimeout)
	defer cancel()

	type outcome struct {
		result *ToolResult
		err    error
	}
	ch := make(chan outcome, 1)

	go func() {
		defer func() {
			if r := recover(); r != nil {
				stack := debug.Stack()
				ch <- outcome{err: fmt.Errorf("panic: %v\n%s", r, stack)}
			}
		}()
		res, err := e.registry.Execute(execCtx, call.Name, call.Arguments)
		ch <- outcome{result: res, err: err}
	}()

	select {
	case out := <-ch:
		if out.err != nil {
			return &ToolResult{Content: "ERRO: " + out.err.Error(), IsError: true}
		}
		return out.result
	case <-execCtx.Done():
		if ctx.Err() != nil {
			return &ToolResult{Content: "ERRO: request cancelled", IsError: true}
		}
		return &ToolResult{Content: fmt.Sprintf("ERRO: tool execution timed out after %s", e.config.DefaultTimeout), IsError: true}
	}
}

func cacheKey(toolName string, args json.RawMessage) string {
	h := sha256.New()
	h.Write([]byte(toolName))
	h.Write([]byte{0})
	h.Write(canonicalJSON(args))
	return hex.EncodeToString(h.Sum(nil))
}

// canonicalJSON normalizes args by round-tripping through a map so key
// order does not affect the cache key; non-object payloads pass through
// unchanged.
func canonicalJSON(args json.RawMessage) []byte {
	var v any
	if err := json.Unmarshal(args, &v); err != nil {
		return args
	}
	out, err := json.Marshal(v)
	if err != nil {
		return args
	}
	return out
}

// ResultsToMessages converts execution results into transcript tool-result
// messages, matched by tool-call id.
func ResultsToMessages(results []*ExecutionResult) []models.Message {
	out := make([]models.Message, len(results))
	for i, r := range results {
		if r.Result == nil {
			out[i] = models.NewToolResult(r.ToolCallID, "ERRO: tool produced no result", true)
			continue
		}
		out[i] = models.NewToolResult(r.ToolCallID, r.Result.Content, r.Result.IsError)
	}
	return out
}
