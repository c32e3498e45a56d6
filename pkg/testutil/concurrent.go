package testutil

import (
	"sync"
	"sync/atomic"

	dErrors "stewardship/pkg/domain-errors"
)

// ConcurrentResult tallies the outcomes of RunConcurrent. Rejected counts
// invalid_state and conflict errors, the expected losers of a race.
type ConcurrentResult struct {
	Successes int32
	Rejected  int32
	Errors    int32
}

func (r *ConcurrentResult) Total() int32 {
	return r.Successes + r.Rejected + r.Errors
}

// RunConcurrent calls fn(0..n-1) on n goroutines released at the same
// moment and waits for all of them.
func RunConcurrent(n int, fn func(idx int) error) *ConcurrentResult {
	var (
		ok, rejected, failed atomic.Int32
		start                = make(chan struct{})
		wg                   sync.WaitGroup
	)
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			switch err := fn(i); {
			case err == nil:
				ok.Add(1)
			case dErrors.HasCode(err, dErrors.CodeInvalidState), dErrors.HasCode(err, dErrors.CodeConflict):
				rejected.Add(1)
			default:
				failed.Add(1)
			}
		}()
	}
	close(start)
	wg.Wait()
	return &ConcurrentResult{Successes: ok.Load(), Rejected: rejected.Load(), Errors: failed.Load()}
}
