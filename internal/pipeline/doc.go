// Package pipeline runs the stage workers that move call records through
// transcription, analysis, and alerting.
//
// Each stage worker owns one polling loop: reclaim stale claims, claim the
// next eligible record, execute the stage handler under the configured call
// timeout, and record the outcome. Handlers persist their own success
// transitions; the worker owns the failure path so retry classification and
// backoff live in exactly one place. The Supervisor aggregates the workers
// for daemon start/stop and health reporting.
package pipeline
