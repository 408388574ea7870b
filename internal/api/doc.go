// Package api defines wire-format types and converters for the HTTP API
// layer. It translates call records into transport-friendly DTOs so the
// dashboard and CLI can render them without coupling to internal types.
//
// # Key Types
//
// Call: transport representation of a call record with per-stage progress,
// scoring results, and alert state.
//
// Stats: pipeline-wide counts plus warning totals and the average score.
//
// DaemonStatus: daemon runtime information including worker health.
//
// # Design Notes
//
// DTOs use camelCase JSON tags for JavaScript consumers. Internal enums
// (records.Stage, records.StageStatus) are exposed as lowercase strings.
// Timestamps use RFC3339 with milliseconds.
package api
