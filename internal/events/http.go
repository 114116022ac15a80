package events

import (
	"net/http"
	"time"
)

// HTTPStart is emitted when the GraphQL endpoint receives a request. The
// publish context carries the request ID that correlates it with the
// GraphQL and drain events of the same request.
type HTTPStart struct {
	Request *http.Request
}

// HTTPFinish is emitted after the handler writes its response.
type HTTPFinish struct {
	Request  *http.Request
	Status   int
	Duration time.Duration
}
