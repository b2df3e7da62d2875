// Package monitoring holds the diagnostic logger and run metrics shared by
// the calibration packages.
package monitoring

import "log"

// Logf receives progress and result lines from the loader, the pipeline and
// the migration runner. It writes through log.Printf unless SetLogger swaps it;
// package tests mute it in init.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces Logf. Nil installs a logger that drops everything.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
