// pkg/api/typing_v1.go
package api

// ReportV1 is the stable JSON schema for one typing run.
// Keep fields, names, and types stable. Add new fields only with ",omitempty".
type ReportV1 struct {
	RunID       string         `json:"run_id,omitempty"`
	Sample      string         `json:"sample,omitempty"`
	Found       bool           `json:"found"`
	Results     []ResultV1     `json:"results"`
	Diagnostics []DiagnosticV1 `json:"diagnostics,omitempty"`
}

// ResultV1 is one accepted scheme. Also the JSONL line schema.
type ResultV1 struct {
	Sample        string         `json:"sample,omitempty"`
	Scheme        string         `json:"scheme"`
	Status        string         `json:"status"` // "resolved" | "provisional" | "lookup-miss"
	Resolved      bool           `json:"resolved"`
	ST            string         `json:"st"`
	ClonalComplex string         `json:"clonal_complex,omitempty"`
	Score         float64        `json:"score"`
	Alleles       []AlleleCallV1 `json:"alleles"`
}

// AlleleCallV1 is one locus call inside a result.
type AlleleCallV1 struct {
	Locus       string  `json:"locus"`
	Allele      string  `json:"allele"`
	Identity    float64 `json:"identity"`
	Contig      string  `json:"contig"`
	Start       int     `json:"start"`
	End         int     `json:"end"`
	Provisional bool    `json:"provisional,omitempty"`
}

// DiagnosticV1 mirrors a stderr diagnostic.
type DiagnosticV1 struct {
	Kind    string `json:"kind"`
	Scheme  string `json:"scheme,omitempty"`
	Locus   string `json:"locus,omitempty"`
	Message string `json:"message"`
}
