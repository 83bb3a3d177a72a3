// Package healthcheck periodically probes the App Server from the Web Server.
// It records the App Server's availability, logs transitions and emits health
// metric events. It never affects the Web Server's own health endpoint.
package healthcheck
