// Package metrics provides the shared Prometheus registry and its HTTP
// exposition handler.
//
// Components define their own collectors (see limits.Metrics) and register
// them on Collector.Registry(). The handler serves everything registered,
// plus Go runtime and process metrics.
package metrics
