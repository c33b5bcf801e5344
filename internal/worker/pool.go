package worker

import (
	"context"
	"sync"
)

// Job is a unit of work run by the pool
type Job interface {
	Execute(ctx context.Context) Result
}

// Result is what a job produces
type Result interface {
	GetError() error
}

// pool runs jobs on a fixed number of goroutines. FetchAll and AlignAll
// drive it through run.
type pool struct {
	workers    int
	jobQueue   chan Job
	results    chan Result
	wg         sync.WaitGroup
	ctx        context.Context
	cancelFunc context.CancelFunc
	closeOnce  sync.Once
}

// newPool creates a pool bound to parent; cancelling parent stops the workers
func newPool(parent context.Context, workers int) *pool {
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(parent)

	return &pool{
		workers:    workers,
		jobQueue:   make(chan Job, workers*2),
		results:    make(chan Result, workers*2),
		ctx:        ctx,
		cancelFunc: cancel,
	}
}

// start launches the workers
func (p *pool) start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go p.worker()
	}
}

func (p *pool) worker() {
	defer p.wg.Done()

	for {
		select {
		case <-p.ctx.Done():
			return
		case job, ok := <-p.jobQueue:
			if !ok {
				return
			}
			result := job.Execute(p.ctx)
			select {
			case p.results <- result:
			case <-p.ctx.Done():
				return
			}
		}
	}
}

// submit queues a job. It returns false if the pool was cancelled first.
func (p *pool) submit(job Job) bool {
	if p.ctx.Err() != nil {
		return false
	}
	select {
	case <-p.ctx.Done():
		return false
	case p.jobQueue <- job:
		return true
	}
}

// shutdown stops the pool without draining queued jobs
func (p *pool) shutdown() {
	p.cancelFunc()
	p.wg.Wait()
	p.closeResults()
}

func (p *pool) closeResults() {
	p.closeOnce.Do(func() {
		close(p.results)
	})
}

// run submits jobs from a separate goroutine so a full queue cannot block
// result collection, then waits for the pool
func run(ctx context.Context, workers int, jobs []Job) []Result {
	p := newPool(ctx, workers)
	p.start()

	go func() {
		for _, job := range jobs {
			if !p.submit(job) {
				return
			}
		}
	}()

	return p.collect(len(jobs))
}

// collect reads exactly n results (or fewer if the pool is cancelled) and
// shuts the pool down
func (p *pool) collect(n int) []Result {
	results := make([]Result, 0, n)
	for len(results) < n {
		select {
		case r := <-p.results:
			results = append(results, r)
		case <-p.ctx.Done():
			p.shutdown()
			return results
		}
	}
	p.shutdown()
	return results
}
