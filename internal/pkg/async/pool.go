// Package async runs independent computations across a fixed worker pool.
// Window and metric computations are embarrassingly parallel, so the pool
// fans them out and collects results by task name.
package async

import (
	"context"
	"sync"
)

// Task is one named unit of work. Names must be unique within a batch since
// results are keyed by them.
type Task struct {
	Name    string
	Execute func() (interface{}, error)
}

// Result carries one task's output or error.
type Result struct {
	Name string
	Data interface{}
	Err  error
}

// Pool distributes tasks over a fixed number of workers.
type Pool struct {
	workerCount int
}

// NewPool creates a pool with the given worker count. A count below one is
// clamped so a misconfigured pool still makes progress.
func NewPool(workerCount int) *Pool {
	if workerCount < 1 {
		workerCount = 1
	}
	return &Pool{workerCount: workerCount}
}

// Execute runs all tasks and returns their results keyed by task name.
// Cancellation via ctx stops dispatch; results already produced are returned.
func (p *Pool) Execute(ctx context.Context, tasks []Task) map[string]Result {
	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	var wg sync.WaitGroup
	for i := 0; i < p.workerCount; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for task := range taskCh {
				select {
				case <-ctx.Done():
					return
				default:
				}
				data, err := task.Execute()
				resultCh <- Result{Name: task.Name, Data: data, Err: err}
			}
		}()
	}

	for _, task := range tasks {
		taskCh <- task
	}
	close(taskCh)

	go func() {
		wg.Wait()
		close(resultCh)
	}()

	results := make(map[string]Result, len(tasks))
	for {
		select {
		case result, ok := <-resultCh:
			if !ok {
				return results
			}
			results[result.Name] = result
		case <-ctx.Done():
			return results
		}
	}
}
