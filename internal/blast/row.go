// Package blast reads tabular allele alignments and picks one representative
// hit per locus.
//
// Expected columns (tab separated):
//
//	sseqid slen length nident pident qseqid qstart qend qseq sstrand
//
// where sseqid is "<locus>_<allele>".
package blast

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"mlst/internal/typing"
)

// NumColumns is the number of required columns per row.
const NumColumns = 10

// ErrMalformed is wrapped by every row parse failure.
var ErrMalformed = errors.New("malformed alignment row")

// Row is one alignment as written by the aligner.
type Row struct {
	SubjectID  string
	SubjectLen int
	AlignLen   int
	Identical  int
	Identity   float64
	QueryID    string
	QueryStart int
	QueryEnd   int
	QuerySeq   string
	Strand     string

	Line int
}

// ParseRow splits one tab-separated line. ln is only used for ordering and
// error messages.
func ParseRow(line string, ln int) (Row, error) {
	f := strings.Split(line, "\t")
	if len(f) < NumColumns {
		return Row{}, fmt.Errorf("%w: %d columns, want %d", ErrMalformed, len(f), NumColumns)
	}
	r := Row{
		SubjectID: f[0],
		QueryID:   f[5],
		QuerySeq:  f[8],
		Strand:    strings.TrimSpace(f[9]),
		Line:      ln,
	}
	ints := []struct {
		name string
		src  string
		dst  *int
	}{
		{"slen", f[1], &r.SubjectLen},
		{"length", f[2], &r.AlignLen},
		{"nident", f[3], &r.Identical},
		{"qstart", f[6], &r.QueryStart},
		{"qend", f[7], &r.QueryEnd},
	}
	for _, c := range ints {
		v, err := strconv.Atoi(strings.TrimSpace(c.src))
		if err != nil {
			return Row{}, fmt.Errorf("%w: bad %s %q", ErrMalformed, c.name, c.src)
		}
		*c.dst = v
	}
	pid, err := strconv.ParseFloat(strings.TrimSpace(f[4]), 64)
	if err != nil || math.IsNaN(pid) || pid < 0 || pid > 100 {
		return Row{}, fmt.Errorf("%w: bad pident %q", ErrMalformed, f[4])
	}
	r.Identity = pid
	if r.SubjectID == "" || r.QueryID == "" {
		return Row{}, fmt.Errorf("%w: empty sseqid or qseqid", ErrMalformed)
	}
	return r, nil
}

// SplitSubjectID splits "<locus>_<allele>" at the last underscore. Locus
// names may contain underscores; allele ids never do.
func SplitSubjectID(id string) (locus, allele string, err error) {
	i := strings.LastIndexByte(id, '_')
	if i <= 0 || i == len(id)-1 {
		return "", "", fmt.Errorf("%w: subject id %q is not <locus>_<allele>", ErrMalformed, id)
	}
	return typing.NormalizeID(id[:i]), typing.NormalizeID(id[i+1:]), nil
}

// Hit converts a row to a typing hit.
func (r Row) Hit() (typing.Hit, error) {
	locus, allele, err := SplitSubjectID(r.SubjectID)
	if err != nil {
		return typing.Hit{}, err
	}
	return typing.Hit{
		Locus:      locus,
		Allele:     allele,
		ContigID:   r.QueryID,
		Start:      r.QueryStart,
		End:        r.QueryEnd,
		Identity:   r.Identity,
		SubjectLen: r.SubjectLen,
		AlignLen:   r.AlignLen,
		Identical:  r.Identical,
		Strand:     r.Strand,
	}, nil
}
