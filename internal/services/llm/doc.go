// Package llm wraps the chat completion API used to score call transcripts.
// The client issues a single JSON-mode completion per call and normalizes
// the model's output into a validated scoring result; retry scheduling
// belongs to the analysis stage, not the client.
package llm
