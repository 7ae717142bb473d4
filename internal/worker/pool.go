package worker

import (
	"context"
	"sync"
)

// Job represents a unit of work to be executed
type Job interface {
	Execute(ctx context.Context) Result
}

// Result represents the result of a job execution
type Result interface {
	GetError() error
}

// indexed pairs a job or result with its arrival position
type indexed[T any] struct {
	index int
	value T
}

// Pool manages a pool of workers that execute jobs concurrently and hands
// results back in the order the jobs arrived
type Pool struct {
	workers int
}

// NewPool creates a new worker pool with the specified number of workers
func NewPool(workers int) *Pool {
	if workers <= 0 {
		workers = 1
	}
	return &Pool{workers: workers}
}

// Run executes every job read from jobs. The returned channel yields one
// result per job in arrival order and is closed once jobs is closed and
// drained, or ctx is canceled.
func (p *Pool) Run(ctx context.Context, jobs <-chan Job) <-chan Result {
	queue := make(chan indexed[Job], p.workers*2)
	done := make(chan indexed[Result], p.workers*2)
	out := make(chan Result, p.workers)

	// Dispatcher: number jobs as they arrive
	go func() {
		defer close(queue)
		index := 0
		for {
			select {
			case <-ctx.Done():
				return
			case job, ok := <-jobs:
				if !ok {
					return
				}
				select {
				case queue <- indexed[Job]{index: index, value: job}:
					index++
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range queue {
				done <- indexed[Result]{index: job.index, value: job.value.Execute(ctx)}
			}
		}()
	}
	go func() {
		wg.Wait()
		close(done)
	}()

	// Sequencer: release results in index order. It keeps draining done
	// after cancellation so workers never block.
	go func() {
		defer close(out)
		seq := NewSequencer()
		canceled := false
		for r := range done {
			if canceled {
				continue
			}
			for _, ready := range seq.Push(r.index, r.value) {
				select {
				case out <- ready:
				case <-ctx.Done():
					canceled = true
				}
				if canceled {
					break
				}
			}
		}
	}()

	return out
}

// Sequencer re-orders results that complete out of order
type Sequencer struct {
	next    int
	pending map[int]Result
}

// NewSequencer creates a sequencer expecting index 0 first
func NewSequencer() *Sequencer {
	return &Sequencer{pending: make(map[int]Result)}
}

// Push stores the result for index and returns every result that is now
// contiguous with those already released
func (s *Sequencer) Push(index int, r Result) []Result {
	s.pending[index] = r
	var ready []Result
	for {
		next, ok := s.pending[s.next]
		if !ok {
			return ready
		}
		delete(s.pending, s.next)
		ready = append(ready, next)
		s.next++
	}
}

// Pending reports how many results wait for an earlier index
func (s *Sequencer) Pending() int {
	return len(s.pending)
}

// Collect drains a result channel
func Collect(results <-chan Result) []Result {
	var all []Result
	for r := range results {
		all = append(all, r)
	}
	return all
}
