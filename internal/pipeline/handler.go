package pipeline

import (
	"context"

	"callaudit/internal/records"
)

// Handler describes the contract a stage worker needs from each stage.
// Execute receives a claimed record and must persist its own success
// transition through the store; returning an error hands the record to the
// worker's failure path.
type Handler interface {
	Stage() records.Stage
	Execute(context.Context, *records.CallRecord) error
	HealthCheck(context.Context) Health
}

// Health summarizes the readiness of a pipeline stage.
type Health struct {
	Name   string
	Ready  bool
	Detail string
}

// Healthy constructs a ready Health record.
func Healthy(name string) Health {
	return Health{Name: name, Ready: true}
}

// Unhealthy constructs an unhealthy Health record with context detail.
func Unhealthy(name, detail string) Health {
	return Health{Name: name, Ready: false, Detail: detail}
}
