// Package upstream is the Web Server's HTTP client for the App Server.
//
// A Client issues one synchronous GET per call, bounded by an explicit
// timeout, and reports the outcome as a typed Result or *Error. It also keeps
// in-flight call counts, an EWMA of response times and the health status
// reported by the health monitor.
package upstream
