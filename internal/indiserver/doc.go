// Package indiserver manages a locally launched indiserver instance.
//
// Aurora Core normally connects to an already-running INDI server, but
// single-host observatory setups often want the core to own the server
// lifecycle too. This package wraps internal/process with indiserver
// specifics: argument assembly from configuration, a TCP readiness probe
// after start, and restart-with-backoff on crash.
//
// The managed server is an optional collaborator: when it is disabled the
// core simply dials whatever host and port the configuration names.
package indiserver
