package executor

import (
	"fmt"

	"golang.org/x/sync/errgroup"
)

// ErrgroupExecutor runs each task under an errgroup.Group, so a caller can
// Wait for every spawned processor to return and recover the first panic
// any of them raised, turned into an error. An unrecovered processor panic
// otherwise ends the whole process; wrapping in errgroup gives a
// coordinator a way to observe that without the core itself catching
// anything on the hot path.
type ErrgroupExecutor struct {
	group *errgroup.Group
}

// NewErrgroupExecutor constructs an ErrgroupExecutor.
func NewErrgroupExecutor() *ErrgroupExecutor {
	return &ErrgroupExecutor{group: &errgroup.Group{}}
}

// Execute implements Executor.
func (e *ErrgroupExecutor) Execute(task func()) {
	e.group.Go(func() (err error) {
		defer func() {
			if r := recover(); r != nil {
				err = fmt.Errorf("executor: task panicked: %v", r)
			}
		}()
		task()
		return nil
	})
}

// Wait blocks until every task spawned via Execute has returned, and
// reports the first panic any of them raised, if any.
func (e *ErrgroupExecutor) Wait() error {
	return e.group.Wait()
}
