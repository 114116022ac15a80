package promise

import (
	"errors"
	"fmt"
)

// ErrDeadlock is reported by Wait when the reaction queue empties while the
// target Future is still pending: a Future was created with no path to
// settlement. This is an internal-consistency failure, never folded into
// field errors.
var ErrDeadlock = errors.New("promise: deadlock: future is pending and the reaction queue is empty")

// Adapter creates and coordinates Futures for one execution. It owns the
// reaction queue every Future it creates schedules onto. Adapters must not be
// shared across executions.
type Adapter struct {
	q queue
}

func NewAdapter() *Adapter { return &Adapter{} }

// Pending returns a Future in the Pending state with no reactions.
func (a *Adapter) Pending() *Future {
	return &Future{a: a}
}

// Resolved returns an already-fulfilled Future. No queue activity occurs.
func (a *Adapter) Resolved(value any) *Future {
	return &Future{a: a, state: Fulfilled, value: value}
}

// Rejected returns an already-rejected Future.
func (a *Adapter) Rejected(err error) *Future {
	return &Future{a: a, state: Rejected, err: err}
}

// New invokes fn synchronously and wraps its outcome: a returned error (or a
// panic) becomes a rejection, a returned Thenable is adopted, anything else
// fulfills immediately.
func (a *Adapter) New(fn func() (any, error)) *Future {
	f := a.Pending()
	f.resolve(protect(fn))
	return f
}

// IsThenable reports whether x must be awaited before use: it exposes the
// Thenable registration contract or is a Deferred computation. Everything
// else is a plain value.
func (a *Adapter) IsThenable(x any) bool {
	switch x.(type) {
	case *Future, *Deferred, Thenable:
		return true
	default:
		return false
	}
}

// Convert wraps x into a Future owned by this adapter so downstream chaining
// is uniform regardless of where the value originated. Plain values convert
// to already-fulfilled Futures.
func (a *Adapter) Convert(x any) *Future {
	switch v := x.(type) {
	case *Future:
		if v.a == a {
			return v
		}
		// A future from another adapter only settles if its own queue is
		// drained; treat it like any foreign thenable.
		f := a.Pending()
		f.resolve(Thenable(v), nil)
		return f
	case *Deferred:
		return a.force(v)
	case Thenable:
		f := a.Pending()
		f.resolve(v, nil)
		return f
	default:
		return a.Resolved(x)
	}
}

// Then chains onFulfilled/onRejected onto f, returning the downstream Future.
// Either handler may be nil, in which case the settlement passes through.
func (a *Adapter) Then(f *Future, onFulfilled OnFulfilled, onRejected OnRejected) *Future {
	next := a.Pending()
	f.register(&reaction{onFulfilled: onFulfilled, onRejected: onRejected, next: next})
	return next
}

// All returns a Future that fulfills with every input's value in input order
// once all inputs settle, or rejects with the first error in input order.
// A rejected input does not stop the remaining inputs from settling; their
// outcomes are simply not observed by the result.
func (a *Adapter) All(futures []*Future) *Future {
	out := a.Pending()
	if len(futures) == 0 {
		out.settle(Fulfilled, []any{}, nil)
		return out
	}
	values := make([]any, len(futures))
	remaining := len(futures)
	for i, f := range futures {
		i := i
		f.register(&reaction{complete: func(value any, err error) {
			if err != nil {
				// settle is one-shot, so the first rejection to drain wins;
				// FIFO scheduling makes that the first in input order.
				out.settle(Rejected, nil, err)
				return
			}
			values[i] = value
			remaining--
			if remaining == 0 {
				out.settle(Fulfilled, values, nil)
			}
		}})
	}
	return out
}

// Wait synchronously drains the reaction queue until f settles, then returns
// its value or error. Calling Wait on an already-settled Future returns the
// identical result without touching the queue. If the queue empties first,
// Wait reports ErrDeadlock.
func (a *Adapter) Wait(f *Future) (any, error) {
	for {
		if f.state != Pending {
			return f.Result()
		}
		j, ok := a.q.pop()
		if !ok {
			return nil, fmt.Errorf("%w (target adopting: %v)", ErrDeadlock, f.adopting)
		}
		a.q.run(j)
	}
}

// Drain runs queued reactions until the queue is empty, regardless of any
// particular future. Useful for flushing abandoned work in tests.
func (a *Adapter) Drain() {
	for {
		j, ok := a.q.pop()
		if !ok {
			return
		}
		a.q.run(j)
	}
}

// QueueLen returns the number of reactions currently awaiting invocation.
func (a *Adapter) QueueLen() int { return a.q.len() }

// ReactionsRun returns how many queued reactions this adapter has executed.
func (a *Adapter) ReactionsRun() int { return a.q.ran }

// protect invokes fn, converting a panic into an error so resolver failures
// are always captured instead of unwinding past the executor.
func protect(fn func() (any, error)) (value any, err error) {
	defer func() {
		if r := recover(); r != nil {
			if e, ok := r.(error); ok {
				err = e
				return
			}
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return fn()
}
