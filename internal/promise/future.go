package promise

import "errors"

// State is the settlement state of a Future.
type State int

const (
	Pending State = iota
	Fulfilled
	Rejected
)

func (s State) String() string {
	switch s {
	case Pending:
		return "PENDING"
	case Fulfilled:
		return "FULFILLED"
	case Rejected:
		return "REJECTED"
	default:
		return "UNKNOWN"
	}
}

// OnFulfilled consumes the upstream value and produces the downstream result.
// Returning a *Future, *Deferred, or Thenable makes the downstream Future
// adopt it instead of settling immediately.
type OnFulfilled func(value any) (any, error)

// OnRejected consumes the upstream error and produces the downstream result.
// Returning a nil error recovers: the downstream Future fulfills.
type OnRejected func(err error) (any, error)

// Thenable is the minimal contract an externally produced asynchronous value
// must expose for the adapter to await it. *Future satisfies it.
type Thenable interface {
	// Then registers settlement callbacks. Exactly one of the two callbacks
	// is invoked, once, when the value settles. Either may be nil.
	Then(onFulfilled func(value any), onRejected func(err error))
}

// Future is a settle-once container for an eventual value or error.
type Future struct {
	a     *Adapter
	state State
	value any
	err   error

	// adopting marks a pending Future that has subscribed to another
	// Thenable's settlement; public settlement attempts are rejected as
	// double-settlement while the adoption is in flight.
	adopting  bool
	reactions []*reaction
}

// reaction is a pair of optional handlers plus the downstream Future whose
// settlement they produce. Internal subscriptions (adoption, All) use the
// complete form instead, which observes settlement without a downstream.
type reaction struct {
	onFulfilled OnFulfilled
	onRejected  OnRejected
	next        *Future

	complete func(value any, err error)
}

var errSelfResolve = errors.New("promise: future resolved with itself")

// Adapter returns the Adapter that owns this Future and its reaction queue.
func (f *Future) Adapter() *Adapter { return f.a }

// State returns the current settlement state.
func (f *Future) State() State { return f.state }

// IsSettled reports whether the Future has left the Pending state.
func (f *Future) IsSettled() bool { return f.state != Pending }

// Result returns the settled value or error. Both are zero while Pending.
func (f *Future) Result() (any, error) {
	if f.state == Rejected {
		return nil, f.err
	}
	return f.value, nil
}

// Fulfill settles a pending Future with a value. It reports whether the
// settlement applied; settling an already-settled or adopting Future is a
// programming error and is ignored.
func (f *Future) Fulfill(value any) bool {
	if f.adopting {
		return false
	}
	return f.settle(Fulfilled, value, nil)
}

// Reject settles a pending Future with an error, with the same double-
// settlement rules as Fulfill.
func (f *Future) Reject(err error) bool {
	if f.adopting {
		return false
	}
	return f.settle(Rejected, nil, err)
}

// Then registers settlement callbacks, making *Future satisfy Thenable.
// Callbacks fire through the owning adapter's queue, never inline.
func (f *Future) Then(onFulfilled func(value any), onRejected func(err error)) {
	f.register(&reaction{complete: func(value any, err error) {
		if err != nil {
			if onRejected != nil {
				onRejected(err)
			}
			return
		}
		if onFulfilled != nil {
			onFulfilled(value)
		}
	}})
}

// Wait drains the owning adapter's queue until this Future settles.
// See Adapter.Wait.
func (f *Future) Wait() (any, error) { return f.a.Wait(f) }

// register stores r if the Future is pending, or schedules it immediately if
// the Future already settled. Either way r fires at most once, FIFO.
func (f *Future) register(r *reaction) {
	if f.state != Pending {
		f.a.q.push(func() { r.fire(f.value, f.err) })
		return
	}
	f.reactions = append(f.reactions, r)
}

// settle performs the one-shot state transition and schedules stored
// reactions in registration order. It reports whether it applied.
func (f *Future) settle(state State, value any, err error) bool {
	if f.state != Pending {
		return false
	}
	f.state = state
	f.value = value
	f.err = err
	f.adopting = false
	rs := f.reactions
	f.reactions = nil
	for _, r := range rs {
		r := r
		f.a.q.push(func() { r.fire(value, err) })
	}
	return true
}

// resolve settles the Future with an arbitrary handler result: errors reject,
// thenable values are adopted, plain values fulfill.
func (f *Future) resolve(value any, err error) {
	if err != nil {
		f.settle(Rejected, nil, err)
		return
	}
	switch v := value.(type) {
	case *Future:
		if v == f {
			f.settle(Rejected, nil, errSelfResolve)
			return
		}
		f.adopt(v)
	case *Deferred:
		f.adopt(f.a.force(v))
	case Thenable:
		f.adopting = true
		v.Then(
			func(value any) { f.settle(Fulfilled, value, nil) },
			func(err error) { f.settle(Rejected, nil, err) },
		)
	default:
		f.settle(Fulfilled, value, nil)
	}
}

// adopt subscribes f to src's settlement. One queued hop per adoption level;
// no recursive flattening on deep chains.
func (f *Future) adopt(src *Future) {
	f.adopting = true
	src.register(&reaction{complete: func(value any, err error) {
		f.settle(stateOf(err), value, err)
	}})
}

func stateOf(err error) State {
	if err != nil {
		return Rejected
	}
	return Fulfilled
}

// fire runs the handler matching the upstream terminal state and settles the
// downstream Future from its outcome. A nil handler passes the settlement
// through unchanged.
func (r *reaction) fire(value any, err error) {
	if r.complete != nil {
		r.complete(value, err)
		return
	}
	if err != nil {
		if r.onRejected == nil {
			r.next.settle(Rejected, nil, err)
			return
		}
		r.next.resolve(protect(func() (any, error) { return r.onRejected(err) }))
		return
	}
	if r.onFulfilled == nil {
		r.next.settle(Fulfilled, value, nil)
		return
	}
	r.next.resolve(protect(func() (any, error) { return r.onFulfilled(value) }))
}
