package typing

import (
	"fmt"
	"sort"
	"strings"

	"golang.org/x/text/unicode/norm"
)

// PerfectScore is the score of a scheme whose loci all match at 100% identity.
const PerfectScore = 100.0

// NoST is the ST placeholder for calls that are not resolved.
const NoST = "-"

// Hit is the representative alignment of one locus.
type Hit struct {
	Locus    string
	Allele   string
	ContigID string
	Start    int // 1-based, inclusive
	End      int // 1-based, inclusive
	Identity float64

	SubjectLen int
	AlignLen   int
	Identical  int
	Strand     string
}

// Profile is the reference entry for one allele combination.
type Profile struct {
	ST            string
	ClonalComplex string
}

// Reference answers the three questions the decision logic asks of the
// reference tables.
type Reference interface {
	// SchemesFor returns the schemes a locus belongs to.
	SchemesFor(locus string) ([]string, bool)
	// LocusCount returns how many loci a scheme requires.
	LocusCount(scheme string) (int, bool)
	// Profile looks up an allele combination key (see ProfileKey).
	Profile(scheme, key string) (Profile, bool)
}

// Status classifies an accepted candidate.
type Status int

const (
	StatusProvisional Status = iota
	StatusResolved
	StatusLookupMiss
)

func (s Status) String() string {
	switch s {
	case StatusResolved:
		return "resolved"
	case StatusLookupMiss:
		return "lookup-miss"
	default:
		return "provisional"
	}
}

// AlleleCall is one row of a typing result.
type AlleleCall struct {
	Locus       string
	Allele      string
	Identity    float64
	ContigID    string
	Start       int
	End         int
	Provisional bool // identity below 100
}

// Result is the decision for one accepted candidate.
type Result struct {
	Scheme        string
	Status        Status
	ST            string
	ClonalComplex string
	Score         float64
	Key           string
	Calls         []AlleleCall
}

// Resolved reports whether the result carries a sequence type from the
// reference.
func (r Result) Resolved() bool { return r.Status == StatusResolved }

// Report is everything one resolution produced.
type Report struct {
	Ranked      []Candidate
	Results     []Result
	Diagnostics []Diagnostic
}

// Found is false when no candidate survived; callers print the "no ST" sentinel.
func (r Report) Found() bool { return len(r.Results) > 0 }

// NormalizeID canonicalizes an identifier read from either the alignment
// table or the reference tables so both sides of a lookup agree.
func NormalizeID(s string) string {
	return norm.NFC.String(strings.TrimSpace(s))
}

// ProfileKey renders locus/allele pairs as the reference key: loci sorted
// lexicographically, each as locus@allele, joined by "|".
func ProfileKey(calls []AlleleCall) string {
	parts := make([]AlleleCall, len(calls))
	copy(parts, calls)
	sort.Slice(parts, func(i, j int) bool { return parts[i].Locus < parts[j].Locus })
	var b strings.Builder
	for i, c := range parts {
		if i > 0 {
			b.WriteByte('|')
		}
		fmt.Fprintf(&b, "%s@%s", c.Locus, c.Allele)
	}
	return b.String()
}
