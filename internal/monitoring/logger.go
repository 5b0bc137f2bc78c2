// Package monitoring holds the process-wide diagnostic logger.
package monitoring

import "log"

// Logf is the shared progress/diagnostic logger. Scan and reconstruction
// report step-by-step progress through it. Defaults to log.Printf; tests can
// redirect or mute it with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the shared logger. A nil argument installs a no-op
// logger so callers never have to nil-check Logf.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
