// Package mailer delivers warning alert emails through a Resend-style HTTP
// API. Alert bodies are rendered from call record fields with all
// user-provided text HTML-escaped before it reaches the template.
package mailer
