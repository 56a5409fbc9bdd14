package classify

import (
	"context"
	"log/slog"
	"sync"
)

// evalJob is a unit of work for the pool; idx preserves request order.
type evalJob struct {
	idx int
	req Request
}

type evalResult struct {
	idx int
	res Result
}

// Pool fans batch evaluations out over a fixed number of goroutines.
type Pool struct {
	workers int
	engine  *Engine
	logger  *slog.Logger
}

// NewPool creates a Pool with the given number of workers.
func NewPool(workers int, engine *Engine, logger *slog.Logger) *Pool {
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		workers: workers,
		engine:  engine,
		logger:  logger,
	}
}

// EvaluateBatch evaluates all requests concurrently and returns results
// in request order. Cancelling the context abandons unprocessed requests;
// the corresponding results are zero-valued.
func (p *Pool) EvaluateBatch(ctx context.Context, reqs []Request) []Result {
	if len(reqs) == 0 {
		return nil
	}

	jobs := make(chan evalJob, p.workers*2)
	results := make(chan evalResult, p.workers*2)

	var wg sync.WaitGroup
	for i := 0; i < p.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				res := p.engine.Evaluate(ctx, job.req)
				select {
				case results <- evalResult{idx: job.idx, res: res}:
				case <-ctx.Done():
					return
				}
			}
		}()
	}

	go func() {
		defer close(jobs)
		for i, req := range reqs {
			select {
			case jobs <- evalJob{idx: i, req: req}:
			case <-ctx.Done():
				return
			}
		}
	}()

	go func() {
		wg.Wait()
		close(results)
	}()

	out := make([]Result, len(reqs))
	for r := range results {
		out[r.idx] = r.res
	}

	p.logger.Debug("batch evaluated", "count", len(reqs), "workers", p.workers)
	return out
}
