// internal/output/text.go
package output

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"mlst/internal/typing"
)

// FormatIdentity prints identities the way the aligner does ("100.0", "96.5").
func FormatIdentity(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// stColumn renders the ST cell for a result.
func stColumn(r typing.Result) string {
	switch r.Status {
	case typing.StatusResolved:
		return r.ST
	case typing.StatusLookupMiss:
		return LookupMissST
	default:
		return typing.NoST
	}
}

// FormatCallRowTSV returns one allele row (no trailing newline).
func FormatCallRowTSV(scheme string, c typing.AlleleCall, st string) string {
	allele := c.Allele
	if c.Provisional {
		allele = ProvisionalMarker + allele
	}
	return strings.Join([]string{
		scheme,
		c.Locus,
		allele,
		FormatIdentity(c.Identity),
		c.ContigID,
		strconv.Itoa(c.Start),
		strconv.Itoa(c.End),
		st,
	}, "\t")
}

// WriteText prints one header + block per result, or NoSTLine.
func WriteText(w io.Writer, doc Document) error {
	if !doc.Report.Found() {
		_, err := fmt.Fprintln(w, NoSTLine)
		return err
	}
	for _, r := range doc.Report.Results {
		if doc.Header {
			if _, err := fmt.Fprintln(w, TSVHeader); err != nil {
				return err
			}
		}
		st := stColumn(r)
		for _, c := range r.Calls {
			if _, err := fmt.Fprintln(w, FormatCallRowTSV(r.Scheme, c, st)); err != nil {
				return err
			}
		}
	}
	return nil
}
