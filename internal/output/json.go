// internal/output/json.go
package output

import (
	"encoding/json"
	"io"

	"mlst/internal/jsonutil"
	"mlst/internal/typing"
	"mlst/pkg/api"
)

// ToAPIResult converts a domain Result to the stable wire schema (v1).
func ToAPIResult(sample string, r typing.Result) api.ResultV1 {
	v := api.ResultV1{
		Sample:        sample,
		Scheme:        r.Scheme,
		Status:        r.Status.String(),
		Resolved:      r.Resolved(),
		ST:            r.ST,
		ClonalComplex: r.ClonalComplex,
		Score:         r.Score,
		Alleles:       make([]api.AlleleCallV1, 0, len(r.Calls)),
	}
	for _, c := range r.Calls {
		v.Alleles = append(v.Alleles, api.AlleleCallV1{
			Locus:       c.Locus,
			Allele:      c.Allele,
			Identity:    c.Identity,
			Contig:      c.ContigID,
			Start:       c.Start,
			End:         c.End,
			Provisional: c.Provisional,
		})
	}
	return v
}

// ToAPIReport converts a whole document.
func ToAPIReport(doc Document) api.ReportV1 {
	out := api.ReportV1{
		RunID:   doc.RunID,
		Sample:  doc.Sample,
		Found:   doc.Report.Found(),
		Results: make([]api.ResultV1, 0, len(doc.Report.Results)),
	}
	for _, r := range doc.Report.Results {
		out.Results = append(out.Results, ToAPIResult("", r))
	}
	for _, d := range doc.Report.Diagnostics {
		out.Diagnostics = append(out.Diagnostics, api.DiagnosticV1{
			Kind:    d.Kind.String(),
			Scheme:  d.Scheme,
			Locus:   d.Locus,
			Message: d.Message(),
		})
	}
	return out
}

// WriteJSON writes a single pretty-indented v1 report.
func WriteJSON(w io.Writer, doc Document) error {
	return jsonutil.EncodePretty(w, ToAPIReport(doc))
}

// WriteJSONL writes one v1 result per line; nothing when no ST was found.
func WriteJSONL(w io.Writer, doc Document) error {
	enc := json.NewEncoder(w)
	for _, r := range doc.Report.Results {
		if err := enc.Encode(ToAPIResult(doc.Sample, r)); err != nil {
			return err
		}
	}
	return nil
}
