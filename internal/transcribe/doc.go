// Package transcribe implements the transcription stage: fetch the claimed
// call's recording through the speech provider and persist the
// speaker-labelled transcript on the record.
package transcribe
