// Package promise implements the synchronization core of the executor: a
// settle-once Future, a per-adapter FIFO reaction queue, and a blocking drain
// primitive (Wait) that stands in for an event loop.
//
// # Model
//
// Execution is strictly single-threaded and cooperative. Nothing here spawns a
// goroutine; "asynchrony" means a callback was pushed onto the adapter's
// reaction queue instead of running inline. Work deferred that way only makes
// progress while Wait drains the queue.
//
// A Future transitions at most once, Pending → Fulfilled or Pending → Rejected,
// and is immutable afterwards. Reactions registered before settlement fire in
// registration order; reactions registered after settlement are appended to the
// queue immediately, preserving FIFO order relative to already-scheduled work.
//
// When a reaction handler returns another Future (or any Thenable), the
// downstream Future adopts it: it subscribes to the returned value's settlement
// instead of settling directly. Adoption is one queued hop per level, so deep
// chains flatten through the queue rather than the call stack.
//
// # Ownership
//
// Each Adapter owns its queue, and every Future it creates points back at it.
// One execution uses one Adapter; adapters are never shared across executions,
// so no locking is needed anywhere in this package.
//
// # Deadlock
//
// If Wait empties the queue while its target is still pending, some code
// created a Future with no path to settlement (for example an external
// asynchronous source this synchronous adapter cannot observe). Wait reports
// that as ErrDeadlock, a programming error distinct from ordinary rejection.
package promise
