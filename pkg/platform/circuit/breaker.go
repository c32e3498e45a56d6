// Package circuit guards calls to an external sink. Once the sink has failed
// often enough in a row the breaker opens and callers degrade to probing;
// enough consecutive probe successes close it again.
package circuit

import "sync"

const (
	defaultFailureThreshold = 5
	defaultSuccessThreshold = 3
)

// Breaker is safe for concurrent use.
type Breaker struct {
	name             string
	failureThreshold int
	successThreshold int

	mu        sync.Mutex
	open      bool
	failures  int
	successes int
}

type Option func(*Breaker)

// WithFailureThreshold sets how many consecutive failures open the breaker.
func WithFailureThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.failureThreshold = n
		}
	}
}

// WithSuccessThreshold sets how many consecutive successes close an open
// breaker.
func WithSuccessThreshold(n int) Option {
	return func(b *Breaker) {
		if n > 0 {
			b.successThreshold = n
		}
	}
}

func New(name string, opts ...Option) *Breaker {
	b := &Breaker{
		name:             name,
		failureThreshold: defaultFailureThreshold,
		successThreshold: defaultSuccessThreshold,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Breaker) Name() string {
	return b.name
}

func (b *Breaker) IsOpen() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.open
}

// RecordFailure counts a failed call and reports whether this call opened
// the breaker.
func (b *Breaker) RecordFailure() (opened bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.successes = 0
	b.failures++
	if !b.open && b.failures >= b.failureThreshold {
		b.open = true
		return true
	}
	return false
}

// RecordSuccess counts a successful call and reports whether this call
// closed the breaker. A success while closed clears the failure streak.
func (b *Breaker) RecordSuccess() (closed bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		b.failures = 0
		return false
	}
	b.successes++
	if b.successes < b.successThreshold {
		return false
	}
	b.open = false
	b.failures = 0
	b.successes = 0
	return true
}
