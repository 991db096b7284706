// Package debug provides global debug logging flags
package debug

import "github.com/teslashibe/go-posebear/internal/log"

// Enabled controls whether debug logging is active
var Enabled bool

// Ticks controls whether per-tick logs are shown (frame copy, estimate, draw).
// At 10 ticks per second these are very verbose; use --debug-ticks to enable.
var Ticks bool

// Log logs a message at debug level only if debug mode is enabled
func Log(msg string, args ...any) {
	if Enabled {
		log.Debug(msg, args...)
	}
}

// TickLog logs a message only if tick debug mode is enabled
func TickLog(msg string, args ...any) {
	if Ticks {
		log.Debug(msg, args...)
	}
}
