// Package circuitbreaker implements the circuit breaker pattern for the
// App Server dependency of the Web Server.
//
// A breaker fails calls fast while the App Server keeps failing. It has three
// states:
//
//   - CLOSED: Normal operation, calls pass through
//   - OPEN: Upstream failing, calls rejected with ErrOpen
//   - HALF-OPEN: A single trial call decides whether to close again
//
// Usage:
//
//	cb := circuitbreaker.New(5, 30*time.Second)
//	if !cb.Allow() {
//	    return circuitbreaker.ErrOpen
//	}
//	if err := call(); err != nil {
//	    cb.RecordFailure()
//	} else {
//	    cb.RecordSuccess()
//	}
package circuitbreaker
