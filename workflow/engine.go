package workflow

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// TaskState represents the state of a task execution
type TaskState string

const (
	StatePending   TaskState = "pending"
	StateRunning   TaskState = "running"
	StateCompleted TaskState = "completed"
	StateSkipped   TaskState = "skipped"
	StateFailed    TaskState = "failed"
)

// TaskResult holds the execution result of a task
type TaskResult struct {
	State    TaskState
	Rows     int
	Message  string
	Error    error
	Duration time.Duration
}

// TaskFunc is the function that executes a task
type TaskFunc func(ctx context.Context, b *Batch) (*TaskResult, error)

// SkipCondition determines if a task should be skipped
type SkipCondition func(ctx context.Context, b *Batch) bool

// Task represents a unit of work with dependencies
type Task struct {
	Name      string
	DependsOn []string
	Executor  TaskFunc
	SkipIf    SkipCondition
}

// TaskExecutor runs a set of tasks level by level. Tasks in one level have
// no dependencies on each other and run concurrently.
type TaskExecutor struct {
	tasks map[string]*Task

	mu      sync.Mutex
	results map[string]*TaskResult
}

func NewTaskExecutor(tasks map[string]*Task) *TaskExecutor {
	return &TaskExecutor{
		tasks:   tasks,
		results: make(map[string]*TaskResult),
	}
}

// Run executes taskNames. Dependencies not listed in taskNames are treated
// as satisfied. The first failed level stops the run.
func (te *TaskExecutor) Run(ctx context.Context, taskNames []string, b *Batch) error {
	if len(taskNames) == 0 {
		return nil
	}

	levels, err := te.plan(taskNames)
	if err != nil {
		return fmt.Errorf("failed to resolve task dependencies: %w", err)
	}

	te.mu.Lock()
	te.results = make(map[string]*TaskResult, len(taskNames))
	te.mu.Unlock()

	for _, level := range levels {
		if err := ctx.Err(); err != nil {
			return err
		}

		var wg sync.WaitGroup
		for _, name := range level {
			task := te.tasks[name]

			if task.SkipIf != nil && task.SkipIf(ctx, b) {
				te.setResult(name, &TaskResult{State: StateSkipped, Message: "skipped by condition"})
				continue
			}

			te.setResult(name, &TaskResult{State: StateRunning})
			wg.Add(1)
			go func() {
				defer wg.Done()
				te.setResult(name, te.executeTask(ctx, task, b))
			}()
		}
		wg.Wait()

		for _, name := range level {
			result := te.Result(name)
			if b != nil && b.Logger != nil {
				b.Logger.Debug("task finished", "task", name, "state", result.State, "elapsed", result.Duration)
			}
			if result.Error != nil {
				return fmt.Errorf("task %s failed: %w", name, result.Error)
			}
		}
	}

	return nil
}

func (te *TaskExecutor) executeTask(ctx context.Context, task *Task, b *Batch) *TaskResult {
	start := time.Now()
	result, err := task.Executor(ctx, b)
	if err != nil {
		result = &TaskResult{State: StateFailed, Error: err}
	} else if result == nil {
		result = &TaskResult{State: StateCompleted}
	}
	result.Duration = time.Since(start)
	return result
}

func (te *TaskExecutor) setResult(name string, r *TaskResult) {
	te.mu.Lock()
	te.results[name] = r
	te.mu.Unlock()
}

// Result returns the outcome of the named task in the last Run, or nil.
func (te *TaskExecutor) Result(name string) *TaskResult {
	te.mu.Lock()
	defer te.mu.Unlock()
	return te.results[name]
}

// plan 按依赖分层, 每层内任务名有序
func (te *TaskExecutor) plan(taskNames []string) ([][]string, error) {
	scheduled := make(map[string]bool, len(taskNames))
	for _, name := range taskNames {
		if _, ok := te.tasks[name]; !ok {
			return nil, fmt.Errorf("task %s not found", name)
		}
		scheduled[name] = true
	}

	depth := make(map[string]int, len(scheduled))
	visiting := make(map[string]bool)
	var visit func(name string) (int, error)
	visit = func(name string) (int, error) {
		if d, ok := depth[name]; ok {
			return d, nil
		}
		if visiting[name] {
			return 0, fmt.Errorf("circular dependency detected at %s", name)
		}
		visiting[name] = true
		d := 0
		for _, dep := range te.tasks[name].DependsOn {
			if !scheduled[dep] {
				continue
			}
			dd, err := visit(dep)
			if err != nil {
				return 0, err
			}
			d = max(d, dd+1)
		}
		visiting[name] = false
		depth[name] = d
		return d, nil
	}

	var levels [][]string
	for name := range scheduled {
		d, err := visit(name)
		if err != nil {
			return nil, err
		}
		for len(levels) <= d {
			levels = append(levels, nil)
		}
		levels[d] = append(levels[d], name)
	}
	for _, level := range levels {
		sort.Strings(level)
	}
	return levels, nil
}
