// Package telemetry provides the three-tier logger shared by the
// tracking loop and the pipeline orchestrator: operator-facing status
// lines, run-level diagnostics, and per-frame trace output.
package telemetry

import (
	"io"
	"log"
)

var (
	opsLogger   *log.Logger
	diagLogger  *log.Logger
	traceLogger *log.Logger
)

// SetLogWriters installs the destinations for each logging tier. Any
// writer may be nil to silence that tier entirely.
func SetLogWriters(ops, diag, trace io.Writer) {
	opsLogger = newLogger("[motionscript] ", ops)
	diagLogger = newLogger("[motionscript] ", diag)
	traceLogger = newLogger("[motionscript] ", trace)
}

// SetLegacyLogger routes all three tiers to a single writer, for
// callers that don't need tier separation.
func SetLegacyLogger(w io.Writer) {
	SetLogWriters(w, w, w)
}

func newLogger(prefix string, w io.Writer) *log.Logger {
	if w == nil {
		return nil
	}
	return log.New(w, prefix, log.LstdFlags|log.Lmicroseconds)
}

// Opsf logs an operator-facing status line: tracker lost, calibration
// confirmed, run completed.
func Opsf(format string, args ...interface{}) {
	if opsLogger != nil {
		opsLogger.Printf(format, args...)
	}
}

// Diagf logs run-level diagnostics: config resolution, frame counts,
// extrema counts.
func Diagf(format string, args ...interface{}) {
	if diagLogger != nil {
		diagLogger.Printf(format, args...)
	}
}

// Tracef logs per-frame trace output: bbox positions, score samples.
// Expect this tier to be silenced outside of debugging sessions.
func Tracef(format string, args ...interface{}) {
	if traceLogger != nil {
		traceLogger.Printf(format, args...)
	}
}
