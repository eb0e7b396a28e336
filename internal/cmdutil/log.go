// Package cmdutil holds small helpers shared by the command entry points.
package cmdutil

import (
	"io"
	"log/slog"

	"mlst/internal/typing"
)

// NewLogger returns a text logger on w. quiet keeps only errors; verbose
// adds debug records.
func NewLogger(w io.Writer, quiet, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case quiet:
		level = slog.LevelError
	case verbose:
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

// LogDiagnostics writes one record per diagnostic. A lookup miss means the
// reference is incomplete and is logged as an error; the rest are warnings.
func LogDiagnostics(log *slog.Logger, diags []typing.Diagnostic) {
	for _, d := range diags {
		attrs := []any{"kind", d.Kind.String()}
		if d.Scheme != "" {
			attrs = append(attrs, "scheme", d.Scheme)
		}
		if d.Locus != "" {
			attrs = append(attrs, "locus", d.Locus)
		}
		if d.Kind == typing.DiagLookupMiss {
			log.Error(d.Message(), append(attrs, "key", d.Key)...)
			continue
		}
		log.Warn(d.Message(), attrs...)
	}
}
