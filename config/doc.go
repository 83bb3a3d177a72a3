// Package config handles loading and validation of process configuration from
// YAML files and environment variables. The App Server and the Web Server share
// one configuration structure; each role has its own file name, environment
// prefix and defaults.
package config
