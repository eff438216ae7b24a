// Package monitoring holds the package-level diagnostic logger shared by the
// report, stats and pipeline packages.
package monitoring

import "log"

// Logf is the package-level diagnostic logger. It defaults to log.Printf but
// may be replaced by SetLogger; tests usually mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Written records that an output file has been produced.
func Written(path string) {
	Logf("%s written", path)
}

// Skipped records an input item that was deliberately left out of a report.
func Skipped(item, reason string) {
	Logf("skip %s: %s", item, reason)
}
