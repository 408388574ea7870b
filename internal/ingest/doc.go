// Package ingest exposes the recording webhook endpoint. It verifies the
// provider's HMAC signature, answers URL-validation challenges, and turns
// recording-completed events into pending call records. Delivery is at
// least once, so record creation is keyed on the provider call id.
package ingest
