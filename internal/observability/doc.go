// Package observability provides the structured logger and the Prometheus
// collectors used by the auth pipeline.
package observability
