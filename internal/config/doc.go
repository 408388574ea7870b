// Package config loads, validates, and normalizes callaudit configuration.
//
// Configuration lives in a TOML file (default ~/.config/callaudit/config.toml)
// with secrets optionally overlaid from the environment or a .env file so API
// keys never need to be committed alongside the rest of the settings. Load
// returns a fully normalized config: paths expanded to absolute form, timing
// values defaulted, and hard violations rejected with actionable messages.
package config
