// Package analyze implements the analysis stage: grade the claimed call's
// transcript with the LLM and persist the score, summary, sentiment, and
// warning flags on the record.
package analyze
