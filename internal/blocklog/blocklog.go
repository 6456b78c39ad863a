// Copyright 2024 The ProbeChain Authors
// This file is part of the ProbeChain.

// Package blocklog is the execution core's structured logging wrapper
// around zerolog: one shared logger, console output in development and
// JSON in production, with helpers for the events the engine and
// sequencer actually need to emit.
package blocklog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog.Logger with the fields this module's call sites use.
type Logger struct {
	zerolog.Logger
}

// New builds a Logger writing to w. pretty selects the human-readable
// console writer (development); false selects plain JSON (production).
func New(w io.Writer, pretty bool) Logger {
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return Logger{zerolog.New(w).With().Timestamp().Logger()}
}

// Default is a JSON logger to stderr, used by packages that need to log
// before an engine.Engine with an explicit Logger has been constructed.
func Default() Logger {
	return New(os.Stderr, false)
}

// ThreadRetired logs a thread's retirement with its id and the reason.
func (l Logger) ThreadRetired(threadID, reason string) {
	l.Info().Str("thread_id", threadID).Str("reason", reason).Msg("thread retired")
}

// CompileAttempt logs a CodeCache specialization attempt.
func (l Logger) CompileAttempt(opID string, hit bool) {
	l.Debug().Str("op_id", opID).Bool("cache_hit", hit).Msg("compile attempt")
}

// PrimitiveError logs a synchronous primitive failure before it propagates.
func (l Logger) PrimitiveError(opcode string, err error) {
	l.Error().Str("opcode", opcode).Err(err).Msg("primitive error")
}
