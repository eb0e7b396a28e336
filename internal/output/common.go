package output

import "mlst/internal/typing"

// Output formats.
const (
	FormatText  = "text"
	FormatJSON  = "json"
	FormatJSONL = "jsonl"
)

// TSVHeader is the header printed before each scheme block.
// Keep this as the single source of truth; all writers should use it.
const TSVHeader = "Scheme\tLocus\tAllele\tIdentity\tContig\tStart\tEnd\tST"

// NoSTLine is printed instead of a table when no scheme survives.
const NoSTLine = "###No ST found"

// Text markers.
const (
	ProvisionalMarker = "~"
	LookupMissST      = "?"
)

// Document is what a writer renders for one run.
type Document struct {
	RunID  string
	Sample string
	Report typing.Report
	Header bool // text only: print TSVHeader before each block
}
