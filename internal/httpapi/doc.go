// Package httpapi serves the admin/diagnostics HTTP surface for the
// tone engine: health, Prometheus metrics, and read-only introspection
// of the cadence registry and source pool. It never carries audio.
package httpapi
