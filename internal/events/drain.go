package events

import "time"

// DrainStart is emitted before the request's reaction queue is drained.
// Synchronous means the target future was already settled, so the drain is a
// no-op.
type DrainStart struct {
	OperationName string
	Synchronous   bool
}

// DrainFinish is emitted after draining. Reactions counts queued reactions
// run over the lifetime of the request's adapter. Deadlock is set when the
// queue emptied with the target still pending.
type DrainFinish struct {
	OperationName string
	Reactions     int
	Deadlock      bool
	Duration      time.Duration
}
