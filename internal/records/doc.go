// Package records persists call records in SQLite and exposes the claim and
// transition primitives that drive them through the pipeline.
//
// The call_records table is both system-of-record and work queue: each stage
// (transcription, analysis, alert) owns an independent status column, and
// workers coordinate exclusively through ClaimNext's conditional update. The
// Store also manages the worker_status side table used for liveness
// reporting, the dashboard list/stats queries, and schema initialization.
//
// Treat this package as the single source of truth for pipeline semantics;
// when you add stages or result fields, update schema.sql and bump
// schemaVersion.
package records
