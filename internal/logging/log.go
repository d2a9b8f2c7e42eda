// Package logging provides a small wrapper around go-logging configured
// with a fixed format shared by every binary and package in the module.
package logging

import (
	"os"

	. "github.com/op/go-logging"
)

// GetLog returns a named logger writing to stdout with a fixed
// timestamp/location/level format. Call once per package and keep
// the result in a package-level var.
func GetLog(name string) *Logger {
	log := MustGetLogger(name)
	backend := NewLogBackend(os.Stdout, "", 0)
	format := MustStringFormatter(
		`%{time:15:04:05.000} %{shortfile}:%{shortfunc} %{level:7s}:  %{message}`,
	)
	backendFormatter := NewBackendFormatter(backend, format)
	backendLeveled := AddModuleLevel(backendFormatter)
	backendLeveled.SetLevel(DEBUG, "")
	SetBackend(backendLeveled)
	return log
}

// GetTestLog returns the shared logger used by package test files.
func GetTestLog() *Logger {
	return GetLog("test")
}
