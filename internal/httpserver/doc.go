// Package httpserver wraps http.Server with address validation, graceful
// shutdown and the router setup shared by the App Server and the Web Server.
package httpserver
