// Package executor implements a tree-walking GraphQL executor whose
// asynchrony primitive is the promise package's settle-once Future: every
// request either collapses into an already-settled result or becomes a
// pending Future the caller drains with Wait.
//
// # Overview
//
// The executor walks the query tree field by field. Each resolver returns
// either a plain value or a deferred/thenable value. The synchronization
// policy is:
//
//  1. Resolve every field of the current selection set. Plain results are
//     completed in place; thenable results are converted into Futures on the
//     request's Adapter and their completion is chained behind them.
//  2. If no field of the selection set deferred, the selection set's result
//     is the assembled map, available immediately. The Adapter was never
//     asked to create a pending Future or queue a reaction for it, so a
//     fully synchronous request finishes with zero queue activity and
//     ExecuteRequest returns an already-fulfilled Future.
//  3. If any field deferred, every plain sibling is wrapped in an
//     already-fulfilled Future so Adapter.All can combine them uniformly;
//     the selection set's result becomes the combined Future, chained
//     through Then to reassemble the response map in field order.
//  4. A rejection at one field never aborts its siblings: the rejection is
//     recovered at the field boundary, the field's slot becomes null, and
//     the error is appended to the result's error list. Non-Null return
//     types propagate the null to the nearest nullable ancestor per the
//     GraphQL spec, with the violation recorded as a located error.
//  5. Failures before any field resolution begins (no operation, unknown
//     operation name, variable coercion errors, unsupported operation type,
//     or a syntax error when entering through ExecuteQuery) bypass the
//     Future machinery entirely: the result is an already-fulfilled Future
//     whose ExecutionResult carries only errors, with no data key.
//
// # Draining
//
// There is no event loop. Deferred computations and chained reactions run
// only while promise.Adapter.Wait drains the request's reaction queue, which
// happens on the caller's goroutine when it asks for the result. Completion
// order is deterministic: reactions run in registration order, FIFO across
// the whole request.
//
// # Value Completion
//
// Value completion follows the GraphQL specification: Non-Null unwrapping
// with null propagation, lists with index-aware error paths (async elements
// supported), leaf serialization through the type's Serialize hook, object
// recursion, and abstract types through the type's ResolveType hook. Any
// nested branch that defers lifts its enclosing completions into Futures;
// everything else stays plain.
//
// # Errors and Partial Success
//
// Errors accumulate as located GraphQL errors (message, source location,
// response path) while execution continues around them. Resolver errors and
// panics are captured at the field boundary; they never unwind through the
// executor. The returned top-level Future is never rejected.
package executor
