// Package middleware holds the HTTP middleware shared by the App Server and
// the Web Server.
package middleware
