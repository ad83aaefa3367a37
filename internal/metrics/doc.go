// Package metrics defines all Prometheus metrics as package-level promauto
// collectors, registered on the default registry and served via /metrics.
package metrics
