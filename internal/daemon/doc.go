// Package daemon coordinates the long-running callaudit process and system
// integration points.
//
// It wires configuration, record storage, the pipeline supervisor, and the
// HTTP surface (webhook, dashboard API, metrics) into a single lifecycle with
// flock-based locking to prevent multiple instances.
//
// Keep orchestration logic here: individual pipeline stages live in their
// respective packages while the daemon focuses on startup, shutdown, and high
// level coordination.
package daemon
