// Package speech wraps the transcription provider's asynchronous job API:
// submit a recording URL, poll until the job completes, and return the
// speaker-labelled transcript. The client makes exactly one submission per
// call; retry scheduling belongs to the stage that invokes it.
package speech
