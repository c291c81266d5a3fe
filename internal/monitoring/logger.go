// Package monitoring holds the diagnostic logger shared by the trial packages.
package monitoring

import (
	"fmt"
	"log"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// Capture redirects Logf into the returned slice until restore is called.
// Intended for tests asserting that a diagnostic was emitted.
func Capture() (lines *[]string, restore func()) {
	original := Logf
	captured := make([]string, 0)
	Logf = func(format string, v ...interface{}) {
		captured = append(captured, fmt.Sprintf(format, v...))
	}
	return &captured, func() { Logf = original }
}
