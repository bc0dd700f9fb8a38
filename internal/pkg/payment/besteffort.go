package payment

import (
	"context"
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/EventPay/internal/pkg/metrics"
)

// Task is a named side effect that may fail without affecting anything else.
type Task struct {
	Name string
	Run  func(ctx context.Context) error
}

type TaskOutcome struct {
	Name     string
	Err      error
	Duration time.Duration
}

// RunBestEffort runs each task in order. A failing or panicking task is
// recorded in its outcome and the remaining tasks still run.
func RunBestEffort(ctx context.Context, tasks ...Task) []TaskOutcome {
	outcomes := make([]TaskOutcome, 0, len(tasks))
	for _, task := range tasks {
		start := time.Now()
		err := runTask(ctx, task)
		outcome := TaskOutcome{Name: task.Name, Err: err, Duration: time.Since(start)}
		metrics.ObserveSideEffect(task.Name, err)
		if err != nil {
			log.Warnf("[Dispatcher] Task %s failed after %s: %v", task.Name, outcome.Duration, err)
		} else {
			log.Debugf("[Dispatcher] Task %s completed in %s", task.Name, outcome.Duration)
		}
		outcomes = append(outcomes, outcome)
	}
	return outcomes
}

func runTask(ctx context.Context, task Task) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &SideEffectError{Task: task.Name, Err: fmt.Errorf("panic: %v", r)}
		}
	}()
	if task.Run == nil {
		return nil
	}
	if err := task.Run(ctx); err != nil {
		return &SideEffectError{Task: task.Name, Err: err}
	}
	return nil
}
