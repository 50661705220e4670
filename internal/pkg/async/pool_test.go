package async_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"makersight/internal/pkg/async"
)

func TestExecuteCollectsAllResults(t *testing.T) {
	pool := async.NewPool(4)

	var tasks []async.Task
	for i := 0; i < 20; i++ {
		i := i
		tasks = append(tasks, async.Task{
			Name: fmt.Sprintf("task-%d", i),
			Execute: func() (interface{}, error) {
				return i * 2, nil
			},
		})
	}

	results := pool.Execute(context.Background(), tasks)

	require.Len(t, results, 20)
	for i := 0; i < 20; i++ {
		result := results[fmt.Sprintf("task-%d", i)]
		require.NoError(t, result.Err)
		assert.Equal(t, i*2, result.Data)
	}
}

func TestExecutePropagatesTaskErrors(t *testing.T) {
	pool := async.NewPool(2)
	boom := errors.New("boom")

	tasks := []async.Task{
		{Name: "ok", Execute: func() (interface{}, error) { return 1, nil }},
		{Name: "fails", Execute: func() (interface{}, error) { return nil, boom }},
	}

	results := pool.Execute(context.Background(), tasks)

	require.Len(t, results, 2)
	assert.NoError(t, results["ok"].Err)
	assert.ErrorIs(t, results["fails"].Err, boom)
}

func TestExecuteWithCancelledContext(t *testing.T) {
	pool := async.NewPool(1)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	tasks := []async.Task{
		{Name: "never", Execute: func() (interface{}, error) { return nil, nil }},
	}

	results := pool.Execute(ctx, tasks)
	assert.LessOrEqual(t, len(results), 1)
}

func TestExecuteEmptyTaskList(t *testing.T) {
	pool := async.NewPool(3)
	results := pool.Execute(context.Background(), nil)
	assert.Empty(t, results)
}

func TestNewPoolClampsWorkerCount(t *testing.T) {
	pool := async.NewPool(0)
	results := pool.Execute(context.Background(), []async.Task{
		{Name: "one", Execute: func() (interface{}, error) { return "x", nil }},
	})
	require.Len(t, results, 1)
	assert.Equal(t, "x", results["one"].Data)
}
