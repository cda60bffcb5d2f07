package concurrent

import (
	"sync"
	"testing"
	"time"
)

func TestScheduleRunsTasks(t *testing.T) {
	wp := NewWorkerPool(4, 4)
	defer wp.Close()

	var wg sync.WaitGroup
	var mu sync.Mutex
	ran := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		wp.Schedule(func() {
			defer wg.Done()
			mu.Lock()
			ran++
			mu.Unlock()
		})
	}

	wg.Wait()
	if ran != 20 {
		t.Errorf("ran %d tasks, want 20", ran)
	}
}

func TestScheduleTimeoutWhenSaturated(t *testing.T) {
	wp := NewWorkerPool(1, 0)
	defer wp.Close()

	block := make(chan struct{})
	defer close(block)

	wp.Schedule(func() { <-block })

	err := wp.ScheduleTimeout(20*time.Millisecond, func() {})
	if err != ErrScheduleTimeout {
		t.Errorf("got %v, want ErrScheduleTimeout", err)
	}
}
