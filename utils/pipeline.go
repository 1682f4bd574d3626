package utils

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"
)

// PipelineResult 执行结果统计
type PipelineResult struct {
	TotalItems int
	Processed  int
	Errors     []error
	Duration   time.Duration
}

func (r *PipelineResult) HasErrors() bool {
	return len(r.Errors) > 0
}

// FirstError 返回最早发生的错误
func (r *PipelineResult) FirstError() error {
	if len(r.Errors) > 0 {
		return r.Errors[0]
	}
	return nil
}

func (r *PipelineResult) ErrorSummary() string {
	if len(r.Errors) == 0 {
		return ""
	}
	return fmt.Sprintf("%d errors, first: %v", len(r.Errors), r.Errors[0])
}

// ItemError ties a failure to the index of its input.
type ItemError struct {
	Index int
	Err   error
}

func (e *ItemError) Error() string { return e.Err.Error() }

func (e *ItemError) Unwrap() error { return e.Err }

// Pipeline 对每个输入并发执行同一处理函数, 输出按输入顺序排列
type Pipeline[I, O any] struct {
	concurrency int
	failFast    bool
}

type PipelineOption func(*pipelineConfig)

type pipelineConfig struct {
	concurrency int
	failFast    bool
}

func WithConcurrency(n int) PipelineOption {
	return func(c *pipelineConfig) {
		if n > 0 {
			c.concurrency = n
		}
	}
}

// WithFailFast 首个错误出现后取消其余任务
func WithFailFast() PipelineOption {
	return func(c *pipelineConfig) {
		c.failFast = true
	}
}

func NewPipeline[I, O any](opts ...PipelineOption) *Pipeline[I, O] {
	cfg := &pipelineConfig{concurrency: runtime.NumCPU()}
	for _, opt := range opts {
		opt(cfg)
	}
	return &Pipeline[I, O]{
		concurrency: cfg.concurrency,
		failFast:    cfg.failFast,
	}
}

// Run processes every input and returns outputs aligned with inputs. The
// output of a failed or cancelled input is the zero value. Errors are
// *ItemError in the order they occurred.
func (p *Pipeline[I, O]) Run(
	ctx context.Context,
	inputs []I,
	process func(ctx context.Context, input I) (O, error),
) ([]O, *PipelineResult) {
	start := time.Now()
	outputs := make([]O, len(inputs))
	result := &PipelineResult{TotalItems: len(inputs)}
	if len(inputs) == 0 {
		result.Duration = time.Since(start)
		return outputs, result
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu  sync.Mutex
		wg  sync.WaitGroup
		sem = make(chan struct{}, p.concurrency)
	)
	fail := func(i int, err error) {
		mu.Lock()
		result.Errors = append(result.Errors, &ItemError{Index: i, Err: err})
		mu.Unlock()
		if p.failFast {
			cancel()
		}
	}

	for i, input := range inputs {
		select {
		case sem <- struct{}{}:
		case <-ctx.Done():
		}
		if ctx.Err() != nil {
			break
		}

		wg.Add(1)
		go func() {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					fail(i, fmt.Errorf("panic processing input %d: %v", i, r))
				}
			}()

			out, err := process(ctx, input)
			if err != nil {
				fail(i, err)
				return
			}
			outputs[i] = out
			mu.Lock()
			result.Processed++
			mu.Unlock()
		}()
	}

	wg.Wait()
	result.Duration = time.Since(start)
	return outputs, result
}
