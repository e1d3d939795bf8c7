package async

import (
	"context"
	"fmt"
	"sync"
)

// Task represents an asynchronous operation with a name and function.
type Task struct {
	Name string
	Func func(context.Context) error
}

// RunParallel executes tasks concurrently and waits for all of them.
// If any task fails, the error of the first task in slice order that failed
// is returned, wrapped with the task name.
//
// Example:
//
//	tasks := []Task{
//	    {Name: "describe stack", Func: describe},
//	    {Name: "describe resources", Func: describeResources},
//	}
//	if err := RunParallel(ctx, tasks); err != nil {
//	    return err
//	}
func RunParallel(ctx context.Context, tasks []Task) error {
	if len(tasks) == 0 {
		return nil
	}

	errs := make([]error, len(tasks))
	var wg sync.WaitGroup
	for i, task := range tasks {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs[i] = task.Func(ctx)
		}()
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			return fmt.Errorf("failed to %s: %w", tasks[i].Name, err)
		}
	}
	return nil
}

// Map calls fn for every item concurrently and returns the results in the
// order of items.
func Map[T, R any](ctx context.Context, items []T, fn func(context.Context, T) R) []R {
	results := make([]R, len(items))
	var wg sync.WaitGroup
	for i, item := range items {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[i] = fn(ctx, item)
		}()
	}
	wg.Wait()
	return results
}
