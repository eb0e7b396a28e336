package typing

import "fmt"

// DiagKind names why a diagnostic was raised.
type DiagKind int

const (
	DiagReferenceGap  DiagKind = iota // locus missing from the locus→schemes table
	DiagUnknownScheme                 // scheme missing from the profile table
	DiagTooManyBad                    // too many sub-threshold alleles
	DiagIncomplete                    // fewer loci than the scheme requires
	DiagOutsideMargin                 // score too far below the best candidate
	DiagLookupMiss                    // exact match, combination unknown to the reference
)

var diagNames = [...]string{
	DiagReferenceGap:  "reference-gap",
	DiagUnknownScheme: "unknown-scheme",
	DiagTooManyBad:    "too-many-bad",
	DiagIncomplete:    "incomplete",
	DiagOutsideMargin: "outside-margin",
	DiagLookupMiss:    "lookup-miss",
}

func (k DiagKind) String() string {
	if int(k) < len(diagNames) {
		return diagNames[k]
	}
	return fmt.Sprintf("diag(%d)", int(k))
}

// Diagnostic is a non-fatal event raised while typing.
type Diagnostic struct {
	Kind     DiagKind
	Scheme   string
	Locus    string
	Key      string
	Count    int
	Expected int
	Score    float64
	Best     float64
}

// Rejected reports whether the diagnostic dropped a candidate from the report.
func (d Diagnostic) Rejected() bool {
	return d.Kind == DiagTooManyBad || d.Kind == DiagIncomplete || d.Kind == DiagOutsideMargin
}

// Message is the human readable form written to stderr.
func (d Diagnostic) Message() string {
	switch d.Kind {
	case DiagReferenceGap:
		return fmt.Sprintf("locus %s is not listed in any scheme; skipped", d.Locus)
	case DiagUnknownScheme:
		return fmt.Sprintf("scheme %s (via locus %s) has no profile table entry; skipped", d.Scheme, d.Locus)
	case DiagTooManyBad:
		return fmt.Sprintf("%s was filtered because too many bad locus aligns: %d found, at most %d allowed", d.Scheme, d.Count, d.Expected)
	case DiagIncomplete:
		return fmt.Sprintf("%s was filtered because not enough loci: %d found, but expected %d", d.Scheme, d.Count, d.Expected)
	case DiagOutsideMargin:
		return fmt.Sprintf("%s was withheld: score %.2f is more than the margin below best %.2f", d.Scheme, d.Score, d.Best)
	case DiagLookupMiss:
		return fmt.Sprintf("%s matched all %d loci exactly but allele combination %s has no ST in the reference", d.Scheme, d.Count, d.Key)
	default:
		return d.Kind.String()
	}
}
