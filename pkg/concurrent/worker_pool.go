package concurrent

import (
	"errors"
	"time"
)

var ErrScheduleTimeout = errors.New("schedule error: timed out")

// WorkerPool bounds the number of goroutines serving connection events.
// ref: https://sergey.kamardin.org/articles/million-websocket-and-go/
type WorkerPool struct {
	sem  chan struct{}
	work chan func()
}

func NewWorkerPool(maxWorkers, queueSize int) *WorkerPool {
	return &WorkerPool{
		sem:  make(chan struct{}, maxWorkers),
		work: make(chan func(), queueSize),
	}
}

// Spawn pre-starts n idle workers.
func (wp *WorkerPool) Spawn(n int) {
	for i := 0; i < n; i++ {
		wp.sem <- struct{}{}
		go wp.worker(func() {})
	}
}

// Schedule runs task on the pool, blocking until a worker or queue slot is
// available.
func (wp *WorkerPool) Schedule(task func()) {
	_ = wp.schedule(task, nil)
}

// ScheduleTimeout is Schedule with a deadline; it fails with
// ErrScheduleTimeout when the pool stays saturated for the whole timeout.
func (wp *WorkerPool) ScheduleTimeout(timeout time.Duration, task func()) error {
	return wp.schedule(task, time.After(timeout))
}

func (wp *WorkerPool) schedule(task func(), timeout <-chan time.Time) error {
	select {
	case <-timeout:
		return ErrScheduleTimeout
	case wp.work <- task:
		return nil
	case wp.sem <- struct{}{}:
		go wp.worker(task)
		return nil
	}
}

func (wp *WorkerPool) worker(task func()) {
	defer func() { <-wp.sem }()

	task()
	for task := range wp.work {
		task()
	}
}

func (wp *WorkerPool) Close() {
	close(wp.work)
}
