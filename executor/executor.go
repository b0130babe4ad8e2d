// Package executor provides the narrow "run a long-lived unit of work on
// some thread" seam the core depends on but never implements itself. Two
// adapters are provided: a bare goroutine-per-task executor, and one built
// on golang.org/x/sync/errgroup that lets a caller wait on every spawned
// task and recover the first error any of them produced.
package executor

// Executor runs a supplied unit of work on some thread pool and returns
// immediately. The unit of work is idempotent-after-completion: the
// executor may retry delivery but never re-invokes a task once it has
// returned.
type Executor interface {
	Execute(task func())
}

// Goroutine is the simplest adapter: every task gets its own goroutine.
// It never blocks Execute and has no bound on concurrency, matching the
// Disruptor's assumption of one long-lived goroutine per processor.
type Goroutine struct{}

// Execute implements Executor.
func (Goroutine) Execute(task func()) {
	go task()
}
