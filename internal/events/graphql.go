package events

import "time"

// GraphQLStart is emitted before executing a GraphQL operation.
type GraphQLStart struct {
	Query         string
	OperationName string
	OperationType string
}

// GraphQLFinish is emitted after executing a GraphQL operation.
// Synchronous reports whether the result was settled before the drain loop
// ran, i.e. no field deferred.
type GraphQLFinish struct {
	Query         string
	OperationName string
	OperationType string
	Synchronous   bool
	Errors        []error
	Duration      time.Duration
}
