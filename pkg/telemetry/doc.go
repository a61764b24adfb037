// Package telemetry provides the observability stack of pointaudit:
// zerolog-based structured logging, Prometheus metrics for ingestion and
// validation, OpenTelemetry spans, and an event publisher carrying
// progress and lifecycle notifications.
//
// Every component degrades to a no-op when disabled, so library code can
// call it unconditionally:
//
//	tel := telemetry.Nop()
//	tel.Metrics.RecordFileScanned("src")
//	_ = tel.Events.PublishProgress("ingest", "dbid", 40)
package telemetry
