// internal/writers/registry.go
package writers

import (
	"fmt"
	"io"
	"sort"

	"mlst/internal/output"
)

// ReportWriter renders one run document.
type ReportWriter func(w io.Writer, doc output.Document) error

// ReportWriters maps format → handler. Register in init() blocks.
var ReportWriters = map[string]ReportWriter{}

// RegisterReport adds or replaces a writer (idempotent last-wins).
func RegisterReport(format string, fn ReportWriter) { ReportWriters[format] = fn }

// Formats lists registered formats, sorted.
func Formats() []string {
	out := make([]string, 0, len(ReportWriters))
	for f := range ReportWriters {
		out = append(out, f)
	}
	sort.Strings(out)
	return out
}

// WriteReport dispatches to the writer registered for format.
func WriteReport(format string, w io.Writer, doc output.Document) error {
	fn, ok := ReportWriters[format]
	if !ok {
		return fmt.Errorf("unknown report format %q (no writer registered)", format)
	}
	return fn(w, doc)
}
