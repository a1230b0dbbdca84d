package app

import (
	"bytes"
	"log/slog"

	"lumen/hal"
)

// NewLogger returns a text slog.Logger whose records go to the host line
// logger, one record per line.
func NewLogger(l hal.Logger, level slog.Level) *slog.Logger {
	if l == nil {
		return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: level}))
	}
	return slog.New(slog.NewTextHandler(lineWriter{l: l}, &slog.HandlerOptions{Level: level}))
}

type lineWriter struct {
	l hal.Logger
}

func (w lineWriter) Write(p []byte) (int, error) {
	w.l.WriteLineBytes(bytes.TrimRight(p, "\n"))
	return len(p), nil
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }
