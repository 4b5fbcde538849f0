// Package worker provides a parallel image processing worker pool.
package worker

import (
	"context"
	"sync"
	"time"
)

// Processor processes one input file into one output file and returns the
// number of bytes written. pipeline.Processor satisfies it.
type Processor interface {
	Process(ctx context.Context, input, output string) (written int64, err error)
}

// Task is a single input/output file pair.
type Task struct {
	Input  string
	Output string
}

// Result is the outcome of a task.
type Result struct {
	Task    Task
	Written int64
	Err     error
	Elapsed time.Duration
}

// ProgressFunc is called after each task completes with running totals.
type ProgressFunc func(completed, total, failed int, written int64)

// Config configures the worker pool.
type Config struct {
	Workers    int
	Processor  Processor
	OnProgress ProgressFunc
}

// Pool runs tasks in parallel.
type Pool struct {
	processor  Processor
	onProgress ProgressFunc
	workers    int
}

// New creates a new worker pool. Fewer than one worker means one.
func New(cfg Config) *Pool {
	workers := cfg.Workers
	if workers <= 0 {
		workers = 1
	}

	return &Pool{
		workers:    workers,
		processor:  cfg.Processor,
		onProgress: cfg.OnProgress,
	}
}

// Workers returns the number of workers.
func (p *Pool) Workers() int { return p.workers }

// Run executes all tasks and returns one result per task started.
// It blocks until all tasks complete or the context is cancelled; tasks
// picked up after cancellation report ctx.Err().
func (p *Pool) Run(ctx context.Context, tasks []Task) []Result {
	if len(tasks) == 0 {
		return nil
	}

	// Create channels
	taskCh := make(chan Task, len(tasks))
	resultCh := make(chan Result, len(tasks))

	// Start workers
	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			p.worker(ctx, taskCh, resultCh)
		}()
	}

	// Feed tasks
	go func() {
		defer close(taskCh)
		for _, task := range tasks {
			select {
			case taskCh <- task:
			case <-ctx.Done():
				// Context cancelled, stop feeding
				return
			}
		}
	}()

	// Collect results in a separate goroutine
	results := make([]Result, 0, len(tasks))
	done := make(chan struct{})

	go func() {
		var (
			completed int
			failed    int
			written   int64
		)
		for result := range resultCh {
			results = append(results, result)

			// Track progress
			completed++
			if result.Err != nil {
				failed++
			}
			written += result.Written

			if p.onProgress != nil {
				p.onProgress(completed, len(tasks), failed, written)
			}
		}
		close(done)
	}()

	// Wait for workers to finish
	wg.Wait()
	close(resultCh)

	// Wait for result collection to finish
	<-done

	return results
}

// worker processes tasks until the task channel is closed. Tasks received
// after cancellation are reported as failed without being processed.
func (p *Pool) worker(ctx context.Context, tasks <-chan Task, results chan<- Result) {
	for task := range tasks {
		select {
		case <-ctx.Done():
			// Send cancellation result
			results <- Result{Task: task, Err: ctx.Err()}
			continue
		default:
		}

		start := time.Now()
		written, err := p.processor.Process(ctx, task.Input, task.Output)
		results <- Result{
			Task:    task,
			Written: written,
			Err:     err,
			Elapsed: time.Since(start),
		}
	}
}
