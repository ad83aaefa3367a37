// Package server implements the HTTP surface using Echo framework.
//
// Routes: WebSocket endpoint (/ws), collaborator publish endpoint
// (/internal/publish), health probes, version, and Prometheus metrics.
// Handlers split by concern: handlers_ws.go, handlers_publish.go,
// handlers_health.go.
package server
