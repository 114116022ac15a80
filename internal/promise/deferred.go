package promise

// Deferred is a lazy zero-argument computation. Field resolvers return one to
// signal "this value is not ready yet"; the adapter evaluates it exactly once,
// through the reaction queue, the first time its result is needed.
type Deferred struct {
	fn func() (any, error)
	f  *Future
}

// Defer wraps fn without invoking it.
func Defer(fn func() (any, error)) *Deferred {
	return &Deferred{fn: fn}
}

// Forced reports whether the computation has been handed to an adapter.
func (d *Deferred) Forced() bool { return d.f != nil }

// force returns the Future for d's eventual result, scheduling the evaluation
// on first access. The evaluation runs inside the drain loop, so a converted
// Deferred stays Pending until Wait drains it. Errors and panics raised by fn
// become rejections rather than propagating.
func (a *Adapter) force(d *Deferred) *Future {
	if d.f != nil {
		return d.f
	}
	out := a.Pending()
	out.adopting = true
	d.f = out
	fn := d.fn
	d.fn = nil
	a.q.push(func() {
		out.settleFrom(protect(fn))
	})
	return out
}

// settleFrom settles directly from an evaluation outcome, adopting a thenable
// result the same way handler results are adopted.
func (f *Future) settleFrom(value any, err error) {
	f.adopting = false
	f.resolve(value, err)
}
