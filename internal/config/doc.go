// Package config loads stackpilot settings.
//
// Settings come from an optional stackpilot.yaml, found by walking up from
// the working directory, overlaid by environment variables. Environment
// variables always win. Timeouts are read from the environment only; see
// LoadTimeouts.
package config
