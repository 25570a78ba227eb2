package pipeline

import (
	"context"
	"sync"
	"time"
)

// job pairs an item with its input index so results can be aggregated in
// input order regardless of completion order.
type job struct {
	index int
	item  Item
}

// Run processes all items through a fixed pool of workers and returns the
// finished report.
//
// Contract:
//   - The watermark descriptor is built once (inside New); a failure there
//     aborts before any item is attempted.
//   - One item's failure never aborts the run; it is recorded and the pool
//     moves on.
//   - After each completion the callback receives a Progress snapshot whose
//     Completed count is monotonically non-decreasing.
//   - Cancellation is cooperative: workers poll ctx between items only.
//     In-flight items finish; unclaimed items are recorded as Cancelled and
//     the report is marked partial.
//   - An empty item list yields an immediate report with zero counts.
func Run(ctx context.Context, cfg Config, items []Item, cb ProgressCallback) (*Report, error) {
	p, err := New(cfg)
	if err != nil {
		return nil, err
	}
	return p.Run(ctx, items, cb)
}

// Run executes the batch on an already constructed pipeline.
func (p *Pipeline) Run(ctx context.Context, items []Item, cb ProgressCallback) (*Report, error) {
	if cb == nil {
		cb = NoOpProgressCallback{}
	}

	report := &Report{
		Results:   make([]Result, len(items)),
		StartedAt: time.Now(),
	}
	if len(items) == 0 {
		report.FinishedAt = report.StartedAt
		return report, nil
	}

	cb.OnStart(len(items))
	defer cb.OnComplete()

	// Every item is queued up front and the channel closed; a receive is the
	// atomic claim, so each item is claimed by exactly one worker.
	jobs := make(chan job, len(items))
	for i, it := range items {
		jobs <- job{index: i, item: it}
	}
	close(jobs)

	var mu sync.Mutex // guards report counters and serializes progress delivery
	completed := 0

	workers := p.cfg.WorkerCount()
	if workers > len(items) {
		workers = len(items)
	}

	var wg sync.WaitGroup
	for range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				// Poll cancellation between items; in-flight work is
				// never interrupted.
				select {
				case <-ctx.Done():
					return
				default:
				}

				j, ok := <-jobs
				if !ok {
					return
				}

				res := p.ProcessItem(j.item)

				mu.Lock()
				report.Results[j.index] = res
				if res.Failed() {
					report.Failed++
				} else {
					report.Succeeded++
				}
				completed++
				// Delivered under the lock so observers see Completed strictly
				// increase; callbacks are expected to be fast.
				cb.OnProgress(Progress{Completed: completed, Total: len(items), Last: res})
				mu.Unlock()
			}
		}()
	}

	wg.Wait()

	// Workers stopped claiming; whatever is left in the queue was never
	// started and becomes a Cancelled result.
	for j := range jobs {
		report.Results[j.index] = Result{
			Source:  j.item.Source,
			Page:    j.item.Page,
			Output:  j.item.Output,
			Kind:    FailureCancelled,
			Message: "run cancelled before item was claimed",
		}
		report.Cancelled++
		report.Partial = true
	}

	report.FinishedAt = time.Now()
	return report, nil
}
