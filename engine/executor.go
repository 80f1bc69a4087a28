package engine

import (
	"context"
	"fmt"
	"runtime/debug"
	"sync"
	"time"

	"github.com/pulsekit/kpiagent/core"
	"github.com/pulsekit/kpiagent/logging"
	"github.com/pulsekit/kpiagent/tool"
)

// toolExecutor runs a batch of requested tool calls, possibly in parallel,
// and returns exactly one tool-role content per call in the original call
// order. Failures (unknown tool, validation, execution, panic) become error
// payloads in the corresponding result, never a crash of the loop.
type toolExecutor struct {
	registry    *tool.Registry
	maxParallel int           // 0 or <1 => no explicit limit
	timeout     time.Duration // per call; 0 => no extra deadline
	logger      logging.Logger
}

// Execute runs all calls and returns their results in call order. A
// cancelled context short-circuits remaining calls; the caller checks
// ctx.Err() before using the results.
func (e *toolExecutor) Execute(ctx context.Context, calls []core.FunctionCall) []core.Content {
	n := len(calls)
	if n == 0 {
		return nil
	}

	// Fast path: single call, execute inline.
	if n == 1 {
		return []core.Content{e.executeOne(ctx, calls[0])}
	}

	maxPar := e.maxParallel
	if maxPar <= 0 || maxPar > n {
		maxPar = n
	}

	results := make([]core.Content, n)
	var wg sync.WaitGroup
	sem := make(chan struct{}, maxPar)

	batchStart := time.Now()
	for i := range calls {
		if ctx.Err() != nil {
			break
		}
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int, fc core.FunctionCall) {
			defer wg.Done()
			defer func() { <-sem }()

			if ctx.Err() != nil {
				results[idx] = core.NewFunctionResponseContent(fc.ID, fc.Name, nil, ctx.Err())
				return
			}
			results[idx] = e.executeOne(ctx, fc)
		}(i, calls[i])
	}
	wg.Wait()

	// Calls skipped by the cancellation pre-check still get a result slot.
	for i := range results {
		if results[i].Role == "" {
			results[i] = core.NewFunctionResponseContent(calls[i].ID, calls[i].Name, nil, context.Canceled)
		}
	}

	e.logger.Debug("engine.tools.batch.complete",
		"count", n,
		"parallelism", maxPar,
		"duration_ms", time.Since(batchStart).Milliseconds(),
	)
	return results
}

// executeOne dispatches a single call through the registry with panic safety
// and the per-call timeout.
func (e *toolExecutor) executeOne(ctx context.Context, fc core.FunctionCall) core.Content {
	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	start := time.Now()
	var (
		result any
		err    error
	)
	func() { // panic safety
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("tool %s panicked: %v", fc.Name, r)
				e.logger.Error("engine.tool.panic",
					"tool", fc.Name,
					"recover", fmt.Sprintf("%v", r),
					"stack", string(debug.Stack()),
				)
			}
		}()
		result, err = e.registry.Execute(ctx, fc.Name, fc.Arguments)
	}()

	e.logger.Info("engine.tool.executed",
		"tool", fc.Name,
		"function_call_id", fc.ID,
		"duration_ms", time.Since(start).Milliseconds(),
		"error", err != nil,
	)

	return core.NewFunctionResponseContent(fc.ID, fc.Name, result, err)
}
