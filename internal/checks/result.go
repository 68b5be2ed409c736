// Package checks implements the page probe: a single HTTP GET classified as
// up or down.
package checks

import (
	"pagewatch/internal/storage"
)

// Result is the outcome of one probe.
//
// StatusCode and ResponseTimeMs are both set when a response was received and
// both nil on transport failure. Err carries the transport error for logging
// and is never persisted.
type Result struct {
	Status         string
	StatusCode     *int
	ResponseTimeMs *int
	Err            error
}

// IsUp reports whether the probe succeeded.
func (r Result) IsUp() bool {
	return r.Status == storage.StatusUp
}

// IsSuccessStatus reports whether code falls in the success band [200, 400).
func IsSuccessStatus(code int) bool {
	return code >= 200 && code < 400
}

// ResponseResult classifies a received response.
//
// Parameters:
//   - statusCode: HTTP status of the final response
//   - responseTimeMs: elapsed milliseconds until the response headers arrived
//
// Returns:
//   - Result: up when the code is in the success band, down otherwise; both
//     carry the code and latency
func ResponseResult(statusCode int, responseTimeMs int64) Result {
	code := statusCode
	ms := int(responseTimeMs)

	status := storage.StatusDown
	if IsSuccessStatus(code) {
		status = storage.StatusUp
	}

	return Result{
		Status:         status,
		StatusCode:     &code,
		ResponseTimeMs: &ms,
	}
}

// FailureResult creates the result of a probe that received no response.
func FailureResult(err error) Result {
	return Result{
		Status: storage.StatusDown,
		Err:    err,
	}
}
