// Package metrics collects HTTP and component-action counters and renders
// them in the Prometheus text exposition format.
package metrics
