package workflow

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu    sync.Mutex
	order []string
}

func (r *recorder) task(name string, deps ...string) *Task {
	return &Task{
		Name:      name,
		DependsOn: deps,
		Executor: func(ctx context.Context, b *Batch) (*TaskResult, error) {
			r.mu.Lock()
			r.order = append(r.order, name)
			r.mu.Unlock()
			return &TaskResult{State: StateCompleted}, nil
		},
	}
}

func (r *recorder) index(name string) int {
	for i, n := range r.order {
		if n == name {
			return i
		}
	}
	return -1
}

func tasksOf(ts ...*Task) map[string]*Task {
	m := make(map[string]*Task, len(ts))
	for _, t := range ts {
		m[t.Name] = t
	}
	return m
}

func TestRunRespectsDependencies(t *testing.T) {
	r := &recorder{}
	te := NewTaskExecutor(tasksOf(
		r.task("a"),
		r.task("b", "a"),
		r.task("c", "a"),
		r.task("d", "b", "c"),
	))

	require.NoError(t, te.Run(context.Background(), []string{"d", "c", "b", "a"}, &Batch{}))
	require.Len(t, r.order, 4)
	assert.Equal(t, 0, r.index("a"))
	assert.Equal(t, 3, r.index("d"))
	for _, n := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, StateCompleted, te.Result(n).State)
	}
}

func TestPlanLevels(t *testing.T) {
	r := &recorder{}
	te := NewTaskExecutor(tasksOf(
		r.task("fetch"),
		r.task("align", "fetch"),
		r.task("persist", "align"),
		r.task("publish", "persist"),
		r.task("audit", "fetch"),
	))

	levels, err := te.plan([]string{"publish", "audit", "persist", "align", "fetch"})
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"fetch"}, {"align", "audit"}, {"persist"}, {"publish"}}, levels)
}

func TestRunRecordsDuration(t *testing.T) {
	r := &recorder{}
	te := NewTaskExecutor(tasksOf(r.task("a")))
	require.NoError(t, te.Run(context.Background(), []string{"a"}, &Batch{}))
	assert.GreaterOrEqual(t, te.Result("a").Duration, time.Duration(0))
}

func TestRunStopsOnError(t *testing.T) {
	r := &recorder{}
	boom := errors.New("boom")
	failing := &Task{
		Name: "fail",
		Executor: func(ctx context.Context, b *Batch) (*TaskResult, error) {
			return nil, boom
		},
	}
	te := NewTaskExecutor(tasksOf(failing, r.task("after", "fail")))

	err := te.Run(context.Background(), []string{"fail", "after"}, &Batch{})
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "task fail failed")
	assert.Empty(t, r.order)
	assert.Equal(t, StateFailed, te.Result("fail").State)
}

func TestRunSkipIf(t *testing.T) {
	r := &recorder{}
	skipped := r.task("skipped")
	skipped.SkipIf = func(ctx context.Context, b *Batch) bool { return true }
	te := NewTaskExecutor(tasksOf(skipped, r.task("next", "skipped")))

	require.NoError(t, te.Run(context.Background(), []string{"skipped", "next"}, &Batch{}))
	assert.Equal(t, []string{"next"}, r.order)
	assert.Equal(t, StateSkipped, te.Result("skipped").State)
}

func TestRunUnscheduledDependencyIsSatisfied(t *testing.T) {
	r := &recorder{}
	te := NewTaskExecutor(tasksOf(r.task("a"), r.task("b", "a")))

	require.NoError(t, te.Run(context.Background(), []string{"b"}, &Batch{}))
	assert.Equal(t, []string{"b"}, r.order)
	assert.Nil(t, te.Result("a"))
}

func TestRunRejectsBadGraphs(t *testing.T) {
	r := &recorder{}
	te := NewTaskExecutor(tasksOf(r.task("x", "y"), r.task("y", "x")))

	err := te.Run(context.Background(), []string{"x", "y"}, &Batch{})
	assert.ErrorContains(t, err, "circular dependency")

	err = te.Run(context.Background(), []string{"missing"}, &Batch{})
	assert.ErrorContains(t, err, "task missing not found")

	assert.NoError(t, te.Run(context.Background(), nil, &Batch{}))
}

func TestRunHonorsCancellation(t *testing.T) {
	r := &recorder{}
	te := NewTaskExecutor(tasksOf(r.task("a")))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, te.Run(ctx, []string{"a"}, &Batch{}), context.Canceled)
	assert.Empty(t, r.order)
}

func TestRegisteredTasks(t *testing.T) {
	tasks := GetRegisteredTasks()
	names := make([]string, 0, len(tasks))
	for name := range tasks {
		names = append(names, name)
	}
	assert.ElementsMatch(t, []string{"align", "fetch", "persist", "publish"}, names)
	assert.ElementsMatch(t, names, IngestTasks)

	levels, err := NewTaskExecutor(tasks).plan(IngestTasks)
	require.NoError(t, err)
	assert.Equal(t, [][]string{{"fetch"}, {"align"}, {"persist"}, {"publish"}}, levels)
}
