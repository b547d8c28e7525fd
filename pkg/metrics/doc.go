/*
Package metrics defines the Prometheus instrumentation for this agent's
coordination, scheduling, topology, convergence, and security-sync
subsystems, and exposes it over /metrics via promhttp.Handler().

Metrics are registered once at package init: no metric is created or
registered lazily at request time. The Timer helper
wraps the common "start, do work, observe duration" shape used across
pkg/coordination, pkg/scheduler, and pkg/convergence.
*/
package metrics
