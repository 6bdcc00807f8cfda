// Package logger centralizes the leveled loggers used across the module.
// Every package that performs an action worth tracing obtains its own
// named logger via NewLogger, mirroring the convention the rest of the
// entropyio tree already follows.
package logger

import (
	"os"

	logging "github.com/op/go-logging"
)

var backendLevel = logging.WARNING

func init() {
	backend := logging.NewLogBackend(os.Stderr, "", 0)
	formatter := logging.MustStringFormatter(
		`%{time:15:04:05.000} %{color}%{level:.4s}%{color:reset} %{module} %{message}`,
	)
	formatted := logging.NewBackendFormatter(backend, formatter)
	leveled := logging.AddModuleLevel(formatted)
	leveled.SetLevel(backendLevel, "")
	logging.SetBackend(leveled)
}

// SetLevel adjusts the global logging threshold. The Runtime's debug level
// (see runtime.DebugLevel) maps onto this, so the embedder's chosen debug
// level sets how much is logged without that output being part of the
// interpreter's return value contract. The CLI always runs at
// runtime.DebugNone.
func SetLevel(level logging.Level) {
	backendLevel = level
	logging.SetLevel(level, "")
}

// Logger is an alias for go-logging's Logger type, so packages can hold
// a logger from NewLogger without importing go-logging themselves.
type Logger = logging.Logger

// NewLogger returns a module-scoped logger, e.g. logger.NewLogger("[evm]").
func NewLogger(module string) *Logger {
	return logging.MustGetLogger(module)
}
