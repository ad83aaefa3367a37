// Package registry tracks live WebSocket connections using the actor pattern.
//
// A single goroutine owns all connection and user-index state and processes
// commands from a channel (no mutexes). Per-connection write goroutines
// handle keepalive and slow clients. The registry is the only component
// that touches connections directly; everything else addresses them by ID.
package registry
