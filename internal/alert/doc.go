// Package alert implements the alert stage: deliver a warning email for
// calls whose analysis raised a warning flag.
package alert
